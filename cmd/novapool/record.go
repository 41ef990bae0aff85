package main

import (
	"errors"
	"fmt"

	"github.com/tuannm99/novapool/internal/alias/bx"
	"github.com/tuannm99/novapool/internal/storage"
)

// A demo record is a u16 little-endian length followed by the bytes.
const recordHeader = 2

var ErrRecordTooLarge = errors.New("novapool: record does not fit in a page")

func putRecord(p *storage.Page, data []byte) error {
	if len(data) > storage.PageSize-recordHeader {
		return fmt.Errorf("%w: %d bytes", ErrRecordTooLarge, len(data))
	}
	p.Reset()
	bx.PutU16(p.Buf, uint16(len(data)))
	copy(p.Buf[recordHeader:], data)
	return nil
}

func getRecord(p *storage.Page) ([]byte, error) {
	n := int(bx.U16(p.Buf))
	if n > storage.PageSize-recordHeader {
		return nil, fmt.Errorf("novapool: corrupt record length %d", n)
	}
	return p.Buf[recordHeader : recordHeader+n], nil
}
