package editor

// GestureKind is the input surface a reorder gesture came from
type GestureKind int

const (
	GesturePointer GestureKind = iota
	GestureTouch
)

func (k GestureKind) String() string {
	switch k {
	case GesturePointer:
		return "pointer"
	case GestureTouch:
		return "touch"
	default:
		return "unknown"
	}
}

// Gesture is the reorder gesture state: Idle, or Dragging from a source index.
// The presentation layer does hit-testing and reports only indexes.
type Gesture struct {
	dragging bool
	source   int
	kind     GestureKind
}

// Dragging reports whether a gesture is in progress
func (g Gesture) Dragging() bool {
	return g.dragging
}

// Source returns the index the gesture started on and whether one is in progress
func (g Gesture) Source() (int, bool) {
	return g.source, g.dragging
}

// Kind returns the surface of the gesture in progress
func (g Gesture) Kind() GestureKind {
	return g.kind
}

func (g Gesture) begin(kind GestureKind, source int) Gesture {
	return Gesture{dragging: true, source: source, kind: kind}
}

func (g Gesture) end() Gesture {
	return Gesture{}
}

// moveTo keeps the gesture on the dragged image after it lands on target
func (g Gesture) moveTo(target int) Gesture {
	if !g.dragging {
		return g
	}
	g.source = target
	return g
}
