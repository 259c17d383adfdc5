package frames

import (
	"errors"
	"image"
)

var (
	// ErrEmptyInput is reported when an operation needs at least one resolved frame.
	ErrEmptyInput = errors.New("no frames loaded")
	// ErrUnresolvedFrame marks a slot whose decode has not completed.
	ErrUnresolvedFrame = errors.New("frame not resolved")
	// ErrDecodeFailure marks an entry that could not be decoded.
	ErrDecodeFailure = errors.New("frame decode failed")
)

// State is the decode state of a single slot.
type State int

const (
	Pending State = iota
	Resolved
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Entry is one upload item: a source name and its raw bytes.
type Entry struct {
	Name string
	Data []byte
}

// Frame is a decoded image. It is never mutated after it is published.
type Frame struct {
	Index  int
	Name   string
	Image  image.Image
	Width  int
	Height int
}

// Size returns the frame's native pixel size.
func (f *Frame) Size() image.Point {
	return image.Pt(f.Width, f.Height)
}

// Slot holds the state of one index in the sequence.
type Slot struct {
	Name  string
	State State
	Frame *Frame
	Err   error
}

// Event is delivered to subscribers each time a slot settles.
type Event struct {
	Batch   string
	Index   int
	State   State
	Settled bool // every slot of the batch has left Pending
}

// Batch describes a load request.
type Batch struct {
	ID        string
	Requested int
	Rejected  []string
}
