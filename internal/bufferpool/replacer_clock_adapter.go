package bufferpool

import "github.com/tuannm99/novapool/pkg/clockx"

// frameRing lets clockx sweep the frame table directly.
type frameRing []*FrameDesc

func (r frameRing) Len() int               { return len(r) }
func (r frameRing) Pinned(id int) bool     { return r[id].PinCount() > 0 }
func (r frameRing) Valid(id int) bool      { return r[id].IsValid() }
func (r frameRing) Referenced(id int) bool { return r[id].Referenced() }
func (r frameRing) ClearReference(id int)  { r[id].SetReferenced(false) }

// Clock is the default Policy: second chance over the frames' reference bits.
type Clock struct {
	c *clockx.Clock
}

var (
	_ Policy   = (*Clock)(nil)
	_ Rewinder = (*Clock)(nil)
)

func NewClock() *Clock {
	return &Clock{c: clockx.New()}
}

func (a *Clock) SelectVictim(frames []*FrameDesc) (int, bool) {
	idx, ok := a.c.Victim(frameRing(frames))
	if !ok {
		return NoVictim, false
	}
	return idx, true
}

// Hand is the frame the next sweep starts from.
func (a *Clock) Hand() int { return a.c.Hand() }

func (a *Clock) Mark() int       { return a.c.Hand() }
func (a *Clock) Rewind(mark int) { a.c.Seek(mark) }
