package meshexport

import (
	"fmt"

	"github.com/Faultbox/rsm2gltf/pkg/math"
	"github.com/Faultbox/rsm2gltf/pkg/mesh"
)

const maxJointIndex = 1<<16 - 1

// VertexBuffer accumulates the compact vertex attributes of one submesh and
// the global-to-local index table that goes with them.
type VertexBuffer struct {
	// localOf[global] is the local index of a pushed vertex, -1 otherwise.
	localOf []int32
	globals []int

	positions [][3]float32
	normals   [][3]float32
	uvs       [][2]float32

	skinned bool
	joints  [][4]uint16
	weights [][4]float32
}

// NewVertexBuffer creates a buffer for a mesh with globalCount vertices.
// reserve is a capacity hint for the number of local vertices.
func NewVertexBuffer(globalCount, reserve int, skinned bool) *VertexBuffer {
	localOf := make([]int32, globalCount)
	for i := range localOf {
		localOf[i] = -1
	}
	b := &VertexBuffer{
		localOf:   localOf,
		globals:   make([]int, 0, reserve),
		positions: make([][3]float32, 0, reserve),
		normals:   make([][3]float32, 0, reserve),
		uvs:       make([][2]float32, 0, reserve),
		skinned:   skinned,
	}
	if skinned {
		b.joints = make([][4]uint16, 0, reserve)
		b.weights = make([][4]float32, 0, reserve)
	}
	return b
}

// Push appends one vertex and registers global -> next local index.
// Each global index may be pushed at most once.
func (b *VertexBuffer) Push(global int, position, normal math.Vec3, uv math.Vec2) error {
	if global < 0 || global >= len(b.localOf) {
		return fmt.Errorf("%w: vertex %d outside [0,%d)", ErrInconsistent, global, len(b.localOf))
	}
	if b.localOf[global] >= 0 {
		return fmt.Errorf("%w: vertex %d pushed twice", ErrInconsistent, global)
	}
	b.localOf[global] = int32(len(b.positions))
	b.globals = append(b.globals, global)
	b.positions = append(b.positions, position.Array())
	b.normals = append(b.normals, normal.Array())
	b.uvs = append(b.uvs, uv.Array())
	return nil
}

// PushBoneWeight appends the skin influence of the most recently pushed vertex.
func (b *VertexBuffer) PushBoneWeight(w mesh.BoneWeight) error {
	if !b.skinned {
		return fmt.Errorf("%w: bone weight pushed into unskinned buffer", ErrInconsistent)
	}
	if len(b.joints) != len(b.positions)-1 {
		return fmt.Errorf("%w: bone weight %d does not follow vertex %d",
			ErrInconsistent, len(b.joints), len(b.positions)-1)
	}
	var joints [4]uint16
	for k, j := range w.Joints {
		if j < 0 || j > maxJointIndex {
			return fmt.Errorf("%w: joint index %d out of range", mesh.ErrInvalidMesh, j)
		}
		joints[k] = uint16(j)
	}
	b.joints = append(b.joints, joints)
	b.weights = append(b.weights, w.Weights)
	return nil
}

// ContainsTriangle reports whether all three global indices were pushed.
func (b *VertexBuffer) ContainsTriangle(i0, i1, i2 int) bool {
	return b.contains(i0) && b.contains(i1) && b.contains(i2)
}

func (b *VertexBuffer) contains(global int) bool {
	return global >= 0 && global < len(b.localOf) && b.localOf[global] >= 0
}

// Local returns the local index of a global vertex.
func (b *VertexBuffer) Local(global int) (int, bool) {
	if !b.contains(global) {
		return 0, false
	}
	return int(b.localOf[global]), true
}

// Len returns the number of local vertices.
func (b *VertexBuffer) Len() int {
	return len(b.positions)
}

// Globals returns the pushed global indices in local order.
func (b *VertexBuffer) Globals() []int {
	return b.globals
}

// ToPrimitive remaps indices (global, already winding-corrected and
// filtered) to local indices and emits the primitive's arrays in the order
// indices, POSITION, NORMAL, TEXCOORD_0, JOINTS_0, WEIGHTS_0.
// A buffer with no vertices emits nothing and returns absent handles.
func (b *VertexBuffer) ToPrimitive(builder BufferBuilder, buffer, material int, indices []int) (*Primitive, error) {
	prim := &Primitive{
		Indices:     NoAccessor,
		Position:    NoAccessor,
		Normal:      NoAccessor,
		TexCoord0:   NoAccessor,
		Joints:      NoAccessor,
		Weights:     NoAccessor,
		Material:    material,
		VertexCount: b.Len(),
		IndexCount:  len(indices),
		Targets:     []MorphTarget{},
	}
	if b.skinned && len(b.joints) != len(b.positions) {
		return nil, fmt.Errorf("%w: %d bone weights for %d vertices", ErrInconsistent, len(b.joints), len(b.positions))
	}

	local := make([]uint32, len(indices))
	for i, g := range indices {
		l, ok := b.Local(g)
		if !ok {
			return nil, fmt.Errorf("%w: index %d references unregistered vertex %d", ErrInconsistent, i, g)
		}
		local[i] = uint32(l)
	}
	if b.Len() == 0 {
		return prim, nil
	}

	var err error
	if prim.Indices, err = builder.Append(buffer, local, UsageIndex); err != nil {
		return nil, fmt.Errorf("appending indices: %w", err)
	}
	if prim.Position, err = builder.Append(buffer, b.positions, UsageVertex); err != nil {
		return nil, fmt.Errorf("appending positions: %w", err)
	}
	if prim.Normal, err = builder.Append(buffer, b.normals, UsageVertex); err != nil {
		return nil, fmt.Errorf("appending normals: %w", err)
	}
	if prim.TexCoord0, err = builder.Append(buffer, b.uvs, UsageVertex); err != nil {
		return nil, fmt.Errorf("appending uvs: %w", err)
	}
	if b.skinned {
		if prim.Joints, err = builder.Append(buffer, b.joints, UsageVertex); err != nil {
			return nil, fmt.Errorf("appending joints: %w", err)
		}
		if prim.Weights, err = builder.Append(buffer, b.weights, UsageVertex); err != nil {
			return nil, fmt.Errorf("appending weights: %w", err)
		}
	}
	return prim, nil
}
