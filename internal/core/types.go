package core

// MaxSlots is the number of contacts carried per slot array. The native
// touch entry point has a fixed arity, so contacts beyond this limit are
// dropped rather than growing the call.
const MaxSlots = 3

// Contact is a live touch point or the mouse pointer in viewport coordinates.
type Contact struct {
	X  float64
	Y  float64
	ID int
}

// Sentinel fills slots that have no contact.
var Sentinel = Contact{X: -1, Y: -1, ID: -1}

// IsSentinel reports whether c is the padding contact.
func (c Contact) IsSentinel() bool {
	return c == Sentinel
}

// SlotArray is a fixed-length, sentinel-padded list of contacts.
type SlotArray [MaxSlots]Contact

// NewSlotArray takes up to MaxSlots contacts from src in order and pads the
// rest with Sentinel. Extra contacts are silently dropped.
func NewSlotArray(src []Contact) SlotArray {
	var s SlotArray
	for i := range s {
		if i < len(src) {
			s[i] = src[i]
		} else {
			s[i] = Sentinel
		}
	}
	return s
}

// Len returns the number of non-sentinel slots.
func (s SlotArray) Len() int {
	n := 0
	for _, c := range s {
		if !c.IsSentinel() {
			n++
		}
	}
	return n
}

// Phase is the kind of a touch batch.
type Phase int

const (
	PhaseStart  Phase = 0
	PhaseMove   Phase = 1
	PhaseEnd    Phase = 2
	PhaseCancel Phase = 3
)

func (p Phase) String() string {
	switch p {
	case PhaseStart:
		return "start"
	case PhaseMove:
		return "move"
	case PhaseEnd:
		return "end"
	default:
		return "cancel"
	}
}

// Names of the entry points exported by the native module.
const (
	CallTouch         = "global_touch_event"
	CallMouseButton   = "global_mouse_button_event"
	CallMousePosition = "global_mouse_position_event"
	CallResize        = "global_viewport_resize"
	CallFileUploaded  = "global_file_uploaded"
)

// Arities of the numeric entry points.
const (
	TouchArity         = MaxSlots*3*2 + 1
	MouseButtonArity   = 5
	MousePositionArity = 3
	ResizeArity        = 2
)
