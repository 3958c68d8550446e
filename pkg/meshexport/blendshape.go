package meshexport

import (
	"fmt"

	"github.com/Faultbox/rsm2gltf/pkg/math"
)

// BlendShapeBuffer accumulates one morph target for one submesh. Vertices
// must be pushed in the same order as the sibling VertexBuffer.
type BlendShapeBuffer struct {
	positions [][3]float32
	normals   [][3]float32
}

// NewBlendShapeBuffer creates a buffer with capacity for reserve vertices.
func NewBlendShapeBuffer(reserve int) *BlendShapeBuffer {
	return &BlendShapeBuffer{
		positions: make([][3]float32, 0, reserve),
		normals:   make([][3]float32, 0, reserve),
	}
}

// Push appends the deltas of the next vertex.
func (b *BlendShapeBuffer) Push(position, normal math.Vec3) {
	b.positions = append(b.positions, position.Array())
	b.normals = append(b.normals, normal.Array())
}

// Len returns the number of pushed vertices.
func (b *BlendShapeBuffer) Len() int {
	return len(b.positions)
}

// ToMorphTarget emits the position deltas and, when useNormal is set, the
// normal deltas. An omitted or empty array yields NoAccessor.
func (b *BlendShapeBuffer) ToMorphTarget(builder BufferBuilder, buffer int, useNormal bool) (MorphTarget, error) {
	target := MorphTarget{Position: NoAccessor, Normal: NoAccessor, Count: b.Len()}
	if b.Len() == 0 {
		return target, nil
	}

	var err error
	if target.Position, err = builder.Append(buffer, b.positions, UsageVertex); err != nil {
		return MorphTarget{}, fmt.Errorf("appending morph positions: %w", err)
	}
	if useNormal {
		if target.Normal, err = builder.Append(buffer, b.normals, UsageVertex); err != nil {
			return MorphTarget{}, fmt.Errorf("appending morph normals: %w", err)
		}
	}
	return target, nil
}
