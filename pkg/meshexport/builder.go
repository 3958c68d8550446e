package meshexport

// Usage tells the buffer builder which role an array plays, so backends can
// pick the right buffer target and packing.
type Usage uint8

const (
	UsageVertex Usage = iota // Vertex attribute (ARRAY_BUFFER)
	UsageIndex               // Triangle indices (ELEMENT_ARRAY_BUFFER)
)

// String returns a human-readable usage name.
func (u Usage) String() string {
	switch u {
	case UsageVertex:
		return "vertex"
	case UsageIndex:
		return "index"
	default:
		return "unknown"
	}
}

// Accessor is the opaque handle a BufferBuilder returns for one appended
// array. Handles are assigned in call order.
type Accessor struct {
	Index int
	Count int
}

// NoAccessor marks an attribute that was deliberately not emitted.
var NoAccessor = Accessor{Index: -1}

// Present reports whether the handle refers to an emitted array.
func (a Accessor) Present() bool {
	return a.Index >= 0
}

// BufferBuilder is the shared append-only sink for binary attribute data.
//
// data is one of []uint32 (indices), [][2]float32 (texture coordinates),
// [][3]float32 (positions, normals, deltas), [][4]uint16 (joints) or
// [][4]float32 (weights). Emission order is observable: callers must append
// in a deterministic sequence.
type BufferBuilder interface {
	Append(buffer int, data any, usage Usage) (Accessor, error)
}
