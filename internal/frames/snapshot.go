package frames

// Snapshot is an immutable view of a FrameSet at one instant. A later Load does
// not affect a snapshot taken before it.
type Snapshot struct {
	batch string
	slots []Slot
}

// NewSnapshot builds a snapshot from explicit slots. The slice is copied.
func NewSnapshot(batch string, slots []Slot) Snapshot {
	cp := make([]Slot, len(slots))
	copy(cp, slots)
	return Snapshot{batch: batch, slots: cp}
}

// Batch returns the id of the load batch the snapshot belongs to.
func (s Snapshot) Batch() string { return s.batch }

// Len returns the number of slots, resolved or not.
func (s Snapshot) Len() int { return len(s.slots) }

// Slot returns the slot at index i. Out-of-range indexes yield a Failed slot.
func (s Snapshot) Slot(i int) Slot {
	if i < 0 || i >= len(s.slots) {
		return Slot{State: Failed, Err: ErrUnresolvedFrame}
	}
	return s.slots[i]
}

// Frame returns the resolved frame at index i.
func (s Snapshot) Frame(i int) (*Frame, bool) {
	slot := s.Slot(i)
	if slot.State != Resolved || slot.Frame == nil {
		return nil, false
	}
	return slot.Frame, true
}

// Resolved returns the number of resolved slots.
func (s Snapshot) Resolved() int {
	n := 0
	for _, slot := range s.slots {
		if slot.State == Resolved {
			n++
		}
	}
	return n
}

// Settled reports whether no slot is still pending.
func (s Snapshot) Settled() bool {
	for _, slot := range s.slots {
		if slot.State == Pending {
			return false
		}
	}
	return true
}

// First returns the lowest-index resolved frame.
func (s Snapshot) First() (*Frame, bool) {
	for i := range s.slots {
		if f, ok := s.Frame(i); ok {
			return f, true
		}
	}
	return nil, false
}
