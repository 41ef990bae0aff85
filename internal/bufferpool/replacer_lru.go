package bufferpool

import (
	lru "github.com/hashicorp/golang-lru"
)

// LRU evicts the unpinned frame whose last pin is oldest. Frames that no
// longer hold a page are preferred over any resident one.
type LRU struct {
	internal *lru.Cache
}

var (
	_ Policy         = (*LRU)(nil)
	_ AccessRecorder = (*LRU)(nil)
)

func NewLRU(capacity int) (*LRU, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c, err := lru.New(capacity)
	if err != nil {
		return nil, err
	}
	return &LRU{internal: c}, nil
}

func (r *LRU) RecordAccess(frameIdx int) {
	// Add moves an existing key to the most recent end.
	r.internal.Add(frameIdx, struct{}{})
}

func (r *LRU) SelectVictim(frames []*FrameDesc) (int, bool) {
	for _, f := range frames {
		if f.PinCount() == 0 && !f.IsValid() {
			return f.Index(), true
		}
	}

	// Keys come back oldest first.
	for _, k := range r.internal.Keys() {
		idx := k.(int)
		if idx < 0 || idx >= len(frames) {
			continue
		}
		if frames[idx].PinCount() == 0 {
			return idx, true
		}
	}

	// Frames that were never recorded still count as candidates.
	for _, f := range frames {
		if f.PinCount() == 0 && !r.internal.Contains(f.Index()) {
			return f.Index(), true
		}
	}
	return NoVictim, false
}
