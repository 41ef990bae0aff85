package storage

import "errors"

const (
	OneB  = 1 << 0  // 1
	OneKB = 1 << 10 // 1,024
	OneMB = 1 << 20 // 1,048,576
	OneGB = 1 << 30 // 1,073,741,824

	SegmentSize       = 1 << 30                // 1,073,741,824 (1 GiB)
	PageSize          = 1 << 13                // 8,192 (8 KiB)
	MaxPagePerSegment = SegmentSize / PageSize // 131,072 pages/segment
)

const (
	FileMode0644 = 0o644
	FileMode0755 = 0o755
)

// PageID identifies a disk page. Negative ids are never allocated.
type PageID int32

const InvalidPageID PageID = -1

func (id PageID) Valid() bool { return id >= 0 }

var (
	ErrInvalidPageID  = errors.New("storage: invalid page id")
	ErrPageNotFound   = errors.New("storage: page not allocated")
	ErrInvalidRunSize = errors.New("storage: run size must be positive")
	ErrBadPageBuffer  = errors.New("storage: page buffer has wrong size")
	ErrStoreClosed    = errors.New("storage: store is closed")
)
