package bufferpool

import (
	"fmt"
	"strings"
)

// NoVictim is the frame index reported when no frame can be evicted.
const NoVictim = -1

// Policy picks the frame to reuse once every frame has been claimed.
// Implementations must never return a frame whose pin count is non-zero.
type Policy interface {
	SelectVictim(frames []*FrameDesc) (frameIdx int, ok bool)
}

// AccessRecorder is implemented by policies that track pins themselves.
// The pool calls RecordAccess on every pin, hit or miss.
type AccessRecorder interface {
	RecordAccess(frameIdx int)
}

// Rewinder is implemented by policies whose victim selection moves internal
// state. The pool takes a Mark before selecting and Rewinds to it when the
// eviction does not go through.
type Rewinder interface {
	Mark() int
	Rewind(mark int)
}

const (
	PolicyClock = "clock"
	PolicyLRU   = "lru"
)

// NewPolicy builds a policy by name for a pool of capacity frames.
func NewPolicy(name string, capacity int) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyClock:
		return NewClock(), nil
	case PolicyLRU:
		return NewLRU(capacity)
	default:
		return nil, fmt.Errorf("bufferpool: unknown replacement policy %q", name)
	}
}
