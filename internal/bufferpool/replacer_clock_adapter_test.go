package bufferpool

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novapool/internal/storage"
)

// framesWithRefs builds a fully valid, unpinned frame table.
func framesWithRefs(refs ...bool) []*FrameDesc {
	frames := make([]*FrameDesc, len(refs))
	for i, r := range refs {
		f := newFrameDesc(i)
		f.SetPageID(storage.PageID(100 + i))
		f.SetValid(true)
		f.SetReferenced(r)
		frames[i] = f
	}
	return frames
}

func TestClock_SelectVictim_SecondChance(t *testing.T) {
	frames := framesWithRefs(true, true, false, true)
	c := NewClock()

	v, ok := c.SelectVictim(frames)
	require.True(t, ok)
	require.Equal(t, 2, v)
	require.Equal(t, 3, c.Hand())

	require.False(t, frames[0].Referenced())
	require.False(t, frames[1].Referenced())
	require.True(t, frames[3].Referenced())
}

func TestClock_SelectVictim_AllPinned(t *testing.T) {
	frames := framesWithRefs(true, false)
	for _, f := range frames {
		f.Pin()
	}
	c := NewClock()

	v, ok := c.SelectVictim(frames)
	require.False(t, ok)
	require.Equal(t, NoVictim, v)
	// pinned frames keep their bits
	require.True(t, frames[0].Referenced())
}

func TestClock_SelectVictim_PrefersInvalidOverReferenceScan(t *testing.T) {
	frames := framesWithRefs(true, true, true)
	frames[1].reset()
	c := NewClock()

	v, ok := c.SelectVictim(frames)
	require.True(t, ok)
	require.Equal(t, 1, v)
	require.Equal(t, 2, c.Hand())
}

func TestClock_SelectVictim_ContinuesFromHand(t *testing.T) {
	frames := framesWithRefs(false, false, false)
	c := NewClock()

	var got []int
	for range 4 {
		v, ok := c.SelectVictim(frames)
		require.True(t, ok)
		got = append(got, v)
	}
	require.Equal(t, []int{0, 1, 2, 0}, got)
}

func TestLRU_SelectVictim_OldestUnpinned(t *testing.T) {
	frames := framesWithRefs(false, false, false)
	r, err := NewLRU(3)
	require.NoError(t, err)

	r.RecordAccess(2)
	r.RecordAccess(0)
	r.RecordAccess(1)
	r.RecordAccess(2)

	v, ok := r.SelectVictim(frames)
	require.True(t, ok)
	require.Equal(t, 0, v)

	frames[0].Pin()
	v, ok = r.SelectVictim(frames)
	require.True(t, ok)
	require.Equal(t, 1, v)
}

func TestLRU_SelectVictim_InvalidFirstAndNone(t *testing.T) {
	frames := framesWithRefs(false, false)
	r, err := NewLRU(2)
	require.NoError(t, err)
	r.RecordAccess(0)
	r.RecordAccess(1)

	frames[1].reset()
	v, ok := r.SelectVictim(frames)
	require.True(t, ok)
	require.Equal(t, 1, v)

	frames[0].Pin()
	frames[1].Pin()
	v, ok = r.SelectVictim(frames)
	require.False(t, ok)
	require.Equal(t, NoVictim, v)
}

func TestNewPolicy(t *testing.T) {
	p, err := NewPolicy("", 4)
	require.NoError(t, err)
	require.IsType(t, &Clock{}, p)

	p, err = NewPolicy(" LRU ", 4)
	require.NoError(t, err)
	require.IsType(t, &LRU{}, p)

	_, err = NewPolicy("mru", 4)
	require.Error(t, err)
}

func TestFrameDesc_PinCountFloorsAtZero(t *testing.T) {
	f := newFrameDesc(7)
	require.Equal(t, 7, f.Index())
	require.Equal(t, storage.InvalidPageID, f.PageID())

	f.Unpin()
	require.Equal(t, 0, f.PinCount())
	f.Pin()
	f.Pin()
	f.Unpin()
	require.Equal(t, 1, f.PinCount())
}
