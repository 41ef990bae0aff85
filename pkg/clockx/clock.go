package clockx

// NoVictim is returned alongside ok=false when a sweep finds nothing to evict.
const NoVictim = -1

// Ring is the slot table a Clock sweeps over. Slot state lives with the
// caller; the Clock only keeps the hand.
type Ring interface {
	Len() int
	Pinned(id int) bool
	Valid(id int) bool
	Referenced(id int) bool
	ClearReference(id int)
}

// Clock implements CLOCK (second-chance) victim selection.
type Clock struct {
	hand int
}

func New() *Clock { return &Clock{} }

// Hand is the slot the next sweep starts from.
func (c *Clock) Hand() int { return c.hand }

// Seek moves the hand to slot. A negative slot is ignored.
func (c *Clock) Seek(slot int) {
	if slot >= 0 {
		c.hand = slot
	}
}

// Victim sweeps from the hand:
//   - pinned slots are skipped untouched
//   - an invalid slot is taken immediately
//   - a referenced slot loses its bit and is passed over
//   - otherwise the slot is taken
//
// The hand is left one past the victim.
func (c *Clock) Victim(r Ring) (id int, ok bool) {
	n := r.Len()
	if n == 0 {
		return NoVictim, false
	}
	if c.hand >= n {
		c.hand %= n
	}

	// Up to 2 sweeps: the first may only clear ref bits.
	for range 2 * n {
		idx := c.hand
		c.hand = (c.hand + 1) % n

		if r.Pinned(idx) {
			continue
		}
		if !r.Valid(idx) {
			return idx, true
		}
		if r.Referenced(idx) {
			// Second chance.
			r.ClearReference(idx)
			continue
		}
		return idx, true
	}

	return NoVictim, false
}
