package bufferpool

import "github.com/tuannm99/novapool/internal/storage"

// FrameDesc is the bookkeeping for one slot of the pool. Its index never
// changes; the page it holds does.
type FrameDesc struct {
	index  int
	pageID storage.PageID
	pin    int32
	dirty  bool
	valid  bool
	ref    bool
}

func newFrameDesc(index int) *FrameDesc {
	return &FrameDesc{index: index, pageID: storage.InvalidPageID}
}

func (f *FrameDesc) Index() int { return f.index }

func (f *FrameDesc) Pin() { f.pin++ }

// Unpin decrements the pin count; it never goes below zero.
func (f *FrameDesc) Unpin() {
	if f.pin > 0 {
		f.pin--
	}
}

func (f *FrameDesc) PinCount() int       { return int(f.pin) }
func (f *FrameDesc) setPinCount(n int32) { f.pin = n }

func (f *FrameDesc) IsDirty() bool        { return f.dirty }
func (f *FrameDesc) SetDirty(d bool)      { f.dirty = d }
func (f *FrameDesc) IsValid() bool        { return f.valid }
func (f *FrameDesc) SetValid(v bool)      { f.valid = v }
func (f *FrameDesc) Referenced() bool     { return f.ref }
func (f *FrameDesc) SetReferenced(r bool) { f.ref = r }

func (f *FrameDesc) PageID() storage.PageID      { return f.pageID }
func (f *FrameDesc) SetPageID(id storage.PageID) { f.pageID = id }

// reset returns the frame to the unmapped state.
func (f *FrameDesc) reset() {
	f.pageID = storage.InvalidPageID
	f.pin = 0
	f.dirty = false
	f.valid = false
	f.ref = false
}
