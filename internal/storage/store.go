package storage

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// DiskStore is everything the buffer pool needs from the layer below it.
type DiskStore interface {
	ReadPage(id PageID, dst *Page) error
	WritePage(id PageID, src *Page) error
	// AllocatePage reserves runSize contiguous pages and returns the first id.
	AllocatePage(runSize int) (PageID, error)
}

var _ DiskStore = (*FileStore)(nil)

type StoreOption func(*FileStore)

// WithPagesPerSegment overrides how many pages go into one segment file.
func WithPagesPerSegment(n int32) StoreOption {
	return func(s *FileStore) {
		if n > 0 {
			s.pagesPerSegment = n
		}
	}
}

// FileStore keeps pages in segment files under Dir.
// Segments are stored as: Base, Base.1, Base.2, ...
//
// FileStore is not safe for concurrent use; the buffer pool serializes
// every call it makes.
type FileStore struct {
	fs   afero.Fs
	dir  string
	base string

	pagesPerSegment int32
	numPages        int32
	segs            map[int32]afero.File
	closed          bool
}

// NewFileStore opens (or creates) the segment files of base in dir and
// recovers the number of allocated pages from their sizes.
func NewFileStore(fs afero.Fs, dir, base string, opts ...StoreOption) (*FileStore, error) {
	s := &FileStore{
		fs:              fs,
		dir:             dir,
		base:            base,
		pagesPerSegment: MaxPagePerSegment,
		segs:            make(map[int32]afero.File),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := fs.MkdirAll(dir, FileMode0755); err != nil {
		return nil, fmt.Errorf("storage: create dir: %w", err)
	}
	n, err := s.countPages()
	if err != nil {
		return nil, err
	}
	s.numPages = n
	return s, nil
}

func (s *FileStore) NumPages() int32 { return s.numPages }

func (s *FileStore) segmentPath(segNo int32) string {
	name := s.base
	if segNo > 0 {
		name = fmt.Sprintf("%s.%d", s.base, segNo)
	}
	return filepath.Join(s.dir, name)
}

func (s *FileStore) segment(segNo int32) (afero.File, error) {
	if s.closed {
		return nil, ErrStoreClosed
	}
	if f, ok := s.segs[segNo]; ok {
		return f, nil
	}
	// RDWR | CREATE (no truncate)
	f, err := s.fs.OpenFile(s.segmentPath(segNo), os.O_RDWR|os.O_CREATE, FileMode0644)
	if err != nil {
		return nil, fmt.Errorf("storage: open segment %d: %w", segNo, err)
	}
	s.segs[segNo] = f
	return f, nil
}

func (s *FileStore) locate(id PageID) (segNo int32, offset int64) {
	segNo = int32(id) / s.pagesPerSegment
	offset = int64(int32(id)%s.pagesPerSegment) * PageSize
	return segNo, offset
}

func (s *FileStore) checkID(id PageID) error {
	if !id.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidPageID, id)
	}
	if int32(id) >= s.numPages {
		return fmt.Errorf("%w: %d (allocated %d)", ErrPageNotFound, id, s.numPages)
	}
	return nil
}

// ReadPage reads exactly one page into dst. A short segment is treated
// as zero-filled so sparse tails read back as empty pages.
func (s *FileStore) ReadPage(id PageID, dst *Page) error {
	if !dst.sized() {
		return ErrBadPageBuffer
	}
	if err := s.checkID(id); err != nil {
		return err
	}
	segNo, off := s.locate(id)
	f, err := s.segment(segNo)
	if err != nil {
		return err
	}

	n, err := f.ReadAt(dst.Buf, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("storage: read page %d: %w", id, err)
	}
	clear(dst.Buf[n:])
	return nil
}

func (s *FileStore) WritePage(id PageID, src *Page) error {
	if !src.sized() {
		return ErrBadPageBuffer
	}
	if err := s.checkID(id); err != nil {
		return err
	}
	return s.writeAt(id, src.Buf)
}

func (s *FileStore) writeAt(id PageID, buf []byte) error {
	segNo, off := s.locate(id)
	f, err := s.segment(segNo)
	if err != nil {
		return err
	}
	n, err := f.WriteAt(buf, off)
	if err != nil {
		return fmt.Errorf("storage: write page %d: %w", id, err)
	}
	if n != PageSize {
		return io.ErrShortWrite
	}
	return nil
}

// AllocatePage extends the store by runSize zeroed pages.
func (s *FileStore) AllocatePage(runSize int) (PageID, error) {
	if runSize <= 0 || runSize > math.MaxInt32-int(s.numPages) {
		return InvalidPageID, fmt.Errorf("%w: %d", ErrInvalidRunSize, runSize)
	}
	first := s.numPages
	zero := make([]byte, PageSize)
	for i := range int32(runSize) {
		if err := s.writeAt(PageID(first+i), zero); err != nil {
			return InvalidPageID, err
		}
	}
	s.numPages = first + int32(runSize)
	return PageID(first), nil
}

// countPages computes total pages by scanning segments until one is missing.
func (s *FileStore) countPages() (int32, error) {
	var total int32
	for segNo := int32(0); ; segNo++ {
		info, err := s.fs.Stat(s.segmentPath(segNo))
		if err != nil {
			if os.IsNotExist(err) {
				break
			}
			return 0, fmt.Errorf("storage: stat segment %d: %w", segNo, err)
		}
		pages := int32(info.Size() / PageSize)
		total += pages
		if pages < s.pagesPerSegment {
			break
		}
	}
	return total, nil
}

// Close syncs and closes every open segment.
func (s *FileStore) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	for segNo, f := range s.segs {
		err = multierr.Append(err, f.Sync())
		err = multierr.Append(err, f.Close())
		delete(s.segs, segNo)
	}
	return err
}
