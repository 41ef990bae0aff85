package bufferpool

import (
	"fmt"
	"log/slog"
	"sync"

	"go.uber.org/multierr"

	"github.com/tuannm99/novapool/internal/storage"
)

var DefaultCapacity = 128

// PinMode says where the content of a newly loaded frame comes from.
type PinMode uint8

const (
	// DiskRead reads the page from the store.
	DiskRead PinMode = iota + 1
	// MemCopy copies the caller's page into the frame.
	MemCopy
	// NoOp leaves the frame content as is; the caller overwrites it.
	NoOp
)

func (m PinMode) String() string {
	switch m {
	case DiskRead:
		return "disk_read"
	case MemCopy:
		return "mem_copy"
	case NoOp:
		return "noop"
	default:
		return fmt.Sprintf("PinMode(%d)", uint8(m))
	}
}

// Manager is the surface heap files, indexes and operators work against.
type Manager interface {
	Pin(pageID storage.PageID, mode PinMode, src *storage.Page) (*storage.Page, error)
	Unpin(pageID storage.PageID, dirty bool) error
	AllocatePages(runSize int, first *storage.Page) (storage.PageID, *storage.Page, error)
	DeallocatePage(pageID storage.PageID) error
	Flush(pageID storage.PageID) error
	FlushAll() error
	FrameCount() int
	UnpinnedCount() int
}

var _ Manager = (*Pool)(nil)

// Stats counts pool traffic since construction.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Reads     uint64
	Writes    uint64
}

type Option func(*Pool)

func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.log = l
		}
	}
}

func WithPolicy(policy Policy) Option {
	return func(p *Pool) {
		if policy != nil {
			p.policy = policy
		}
	}
}

// WithReferenceOnHit controls whether a pin hit sets the frame's
// reference bit. With it off, Clock degrades to scan order.
func WithReferenceOnHit(on bool) Option {
	return func(p *Pool) { p.refOnHit = on }
}

// Pool is a fixed set of frames caching pages of a DiskStore.
type Pool struct {
	store storage.DiskStore
	log   *slog.Logger

	mu         sync.Mutex
	frames     []*FrameDesc           // len == capacity
	pages      []*storage.Page        // index-aligned with frames
	pageTable  map[storage.PageID]int // PageID -> frame index
	nextVirgin int                    // frames[nextVirgin:] were never used
	scratch    *storage.Page
	refSnap    []bool // reference bits saved by replaceLocked

	policy   Policy
	refOnHit bool
	stats    Stats
}

func NewPool(store storage.DiskStore, capacity int, opts ...Option) *Pool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	p := &Pool{
		store:     store,
		log:       slog.Default(),
		frames:    make([]*FrameDesc, capacity),
		pages:     make([]*storage.Page, capacity),
		pageTable: make(map[storage.PageID]int, capacity),
		scratch:   storage.NewPage(),
		refSnap:   make([]bool, capacity),
		refOnHit:  true,
	}
	for i := range capacity {
		p.frames[i] = newFrameDesc(i)
		p.pages[i] = storage.NewPage()
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.policy == nil {
		p.policy = NewClock()
	}
	return p
}

// Pin makes pageID resident with one more pin and returns its frame content.
// The returned page stays valid until the matching Unpin.
//
// MemCopy on a resident unpinned page overwrites the frame but leaves the
// dirty bit alone; unpin with dirty=true to keep the copied bytes.
func (p *Pool) Pin(pageID storage.PageID, mode PinMode, src *storage.Page) (*storage.Page, error) {
	switch mode {
	case DiskRead, NoOp:
	case MemCopy:
		if src == nil || len(src.Buf) != storage.PageSize {
			return nil, fmt.Errorf("%w: mem_copy needs a %d byte source page", ErrInvalidRequest, storage.PageSize)
		}
	default:
		return nil, fmt.Errorf("%w: unknown pin mode %s", ErrInvalidRequest, mode)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pinLocked(pageID, mode, src)
}

func (p *Pool) pinLocked(pageID storage.PageID, mode PinMode, src *storage.Page) (*storage.Page, error) {
	// 1) HIT
	if idx, ok := p.pageTable[pageID]; ok {
		f := p.frames[idx]
		if mode == MemCopy {
			if f.PinCount() > 0 {
				return nil, fmt.Errorf("%w: mem_copy into pinned page %d", ErrInvalidRequest, pageID)
			}
			p.pages[idx].CopyFrom(src)
		}
		f.Pin()
		if p.refOnHit {
			f.SetReferenced(true)
		}
		p.recordAccess(idx)
		p.stats.Hits++
		return p.pages[idx], nil
	}

	// 2) Make sure some frame can be claimed before doing any I/O.
	virgin := p.nextVirgin < len(p.frames)
	if !virgin && p.unpinnedLocked() == 0 {
		return nil, ErrPoolExhausted
	}

	// Read before the policy runs so a failed read leaves the frame table
	// and the policy cursor in place.
	if mode == DiskRead {
		if err := p.store.ReadPage(pageID, p.scratch); err != nil {
			return nil, fmt.Errorf("bufferpool: read page %d: %w", pageID, err)
		}
	}

	// 3) Claim a never-used frame or evict a victim.
	idx := p.nextVirgin
	if virgin {
		p.nextVirgin++
	} else {
		var err error
		if idx, err = p.replaceLocked(); err != nil {
			return nil, err
		}
	}

	switch mode {
	case DiskRead:
		p.pages[idx].CopyFrom(p.scratch)
		p.stats.Reads++
	case MemCopy:
		p.pages[idx].CopyFrom(src)
	}

	f := p.frames[idx]
	f.SetPageID(pageID)
	f.SetValid(true)
	f.SetDirty(false)
	f.SetReferenced(false)
	f.setPinCount(1)
	p.pageTable[pageID] = idx
	p.recordAccess(idx)
	p.stats.Misses++

	return p.pages[idx], nil
}

// replaceLocked asks the policy for a victim and evicts it. If that fails,
// the reference bits and the policy cursor are put back.
func (p *Pool) replaceLocked() (int, error) {
	for i, f := range p.frames {
		p.refSnap[i] = f.Referenced()
	}
	rw, rewinds := p.policy.(Rewinder)
	mark := 0
	if rewinds {
		mark = rw.Mark()
	}
	undo := func() {
		for i, f := range p.frames {
			f.SetReferenced(p.refSnap[i])
		}
		if rewinds {
			rw.Rewind(mark)
		}
	}

	idx, ok := p.policy.SelectVictim(p.frames)
	if !ok {
		undo()
		return NoVictim, ErrPoolExhausted
	}
	if p.frames[idx].PinCount() != 0 {
		// A policy must never hand back a pinned frame.
		undo()
		return NoVictim, fmt.Errorf("%w: policy chose pinned frame %d", ErrInvalidState, idx)
	}
	if err := p.evictLocked(idx); err != nil {
		undo()
		return NoVictim, err
	}
	return idx, nil
}

// evictLocked writes the victim back if needed and drops its mapping.
func (p *Pool) evictLocked(idx int) error {
	f := p.frames[idx]
	old := f.PageID()
	if f.IsValid() && f.IsDirty() {
		if err := p.writeLocked(idx); err != nil {
			return err
		}
	}
	if cur, ok := p.pageTable[old]; ok && cur == idx {
		delete(p.pageTable, old)
	}
	p.stats.Evictions++
	p.log.Debug("bufferpool: evict", "frame", idx, "page", old, "valid", f.IsValid())
	return nil
}

func (p *Pool) writeLocked(idx int) error {
	f := p.frames[idx]
	if err := p.store.WritePage(f.PageID(), p.pages[idx]); err != nil {
		return fmt.Errorf("bufferpool: write page %d: %w", f.PageID(), err)
	}
	f.SetDirty(false)
	p.stats.Writes++
	return nil
}

func (p *Pool) recordAccess(idx int) {
	if r, ok := p.policy.(AccessRecorder); ok {
		r.RecordAccess(idx)
	}
}

// Unpin drops one pin. dirty=true marks the page modified; it is never
// cleared here.
func (p *Pool) Unpin(pageID storage.PageID, dirty bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.pageTable[pageID]
	if !ok {
		return fmt.Errorf("%w: unpin page %d", ErrPageNotFound, pageID)
	}
	f := p.frames[idx]
	f.Unpin()
	if dirty {
		f.SetDirty(true)
	}
	return nil
}

// AllocatePages asks the store for runSize new pages and pins the first one,
// filled from first (zeroes when first is nil).
func (p *Pool) AllocatePages(runSize int, first *storage.Page) (storage.PageID, *storage.Page, error) {
	if runSize <= 0 {
		return storage.InvalidPageID, nil, fmt.Errorf("%w: run size %d", ErrInvalidRequest, runSize)
	}
	if first == nil {
		first = storage.NewPage()
	} else if len(first.Buf) != storage.PageSize {
		return storage.InvalidPageID, nil, fmt.Errorf("%w: first page has %d bytes", ErrInvalidRequest, len(first.Buf))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Refuse before allocating so the disk run cannot leak.
	if p.unpinnedLocked() == 0 {
		return storage.InvalidPageID, nil, ErrPoolExhausted
	}

	pageID, err := p.store.AllocatePage(runSize)
	if err != nil {
		return storage.InvalidPageID, nil, fmt.Errorf("bufferpool: allocate %d pages: %w", runSize, err)
	}
	if idx, ok := p.pageTable[pageID]; ok && p.frames[idx].PinCount() > 0 {
		return storage.InvalidPageID, nil, fmt.Errorf("%w: new page %d already pinned in frame %d", ErrInvalidState, pageID, idx)
	}

	page, err := p.pinLocked(pageID, MemCopy, first)
	if err != nil {
		return storage.InvalidPageID, nil, err
	}
	p.log.Debug("bufferpool: allocate", "page", pageID, "run", runSize)
	return pageID, page, nil
}

// DeallocatePage drops an unpinned page from the pool without writing it.
// Space in the store is not reclaimed.
func (p *Pool) DeallocatePage(pageID storage.PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.pageTable[pageID]
	if !ok {
		return nil
	}
	f := p.frames[idx]
	if f.PinCount() != 0 {
		return fmt.Errorf("%w: deallocate page %d (pins=%d)", ErrPageInUse, pageID, f.PinCount())
	}
	delete(p.pageTable, pageID)
	f.reset()
	p.log.Debug("bufferpool: deallocate", "page", pageID, "frame", idx)
	return nil
}

// Flush writes pageID back if it is dirty. Pins and mapping are untouched.
func (p *Pool) Flush(pageID storage.PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.pageTable[pageID]
	if !ok {
		return fmt.Errorf("%w: flush page %d", ErrPageNotFound, pageID)
	}
	return p.flushLocked(idx)
}

func (p *Pool) flushLocked(idx int) error {
	f := p.frames[idx]
	if !f.IsValid() || !f.IsDirty() {
		return nil
	}
	return p.writeLocked(idx)
}

// FlushAll flushes every resident page. It keeps going after a failed
// write and returns all errors combined.
func (p *Pool) FlushAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	for _, idx := range p.pageTable {
		err = multierr.Append(err, p.flushLocked(idx))
	}
	return err
}

func (p *Pool) FrameCount() int { return len(p.frames) }

func (p *Pool) UnpinnedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unpinnedLocked()
}

func (p *Pool) unpinnedLocked() int {
	n := 0
	for _, f := range p.frames {
		if f.PinCount() == 0 {
			n++
		}
	}
	return n
}

// PinCount reports the pins held on a resident page.
func (p *Pool) PinCount(pageID storage.PageID) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.pageTable[pageID]
	if !ok {
		return 0, fmt.Errorf("%w: page %d", ErrPageNotFound, pageID)
	}
	return p.frames[idx].PinCount(), nil
}

func (p *Pool) IsResident(pageID storage.PageID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.pageTable[pageID]
	return ok
}

func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
