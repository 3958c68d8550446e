// Package mesh defines the source mesh model consumed by the glTF exporter:
// one global vertex array shared by several submesh triangle lists, with
// optional skin weights and blend shapes.
package mesh

import (
	"errors"
	"fmt"

	"github.com/Faultbox/rsm2gltf/pkg/math"
)

// ErrInvalidMesh reports attribute arrays whose shapes do not match the
// vertex count.
var ErrInvalidMesh = errors.New("invalid mesh")

// BoneWeight holds up to four joint influences for one vertex.
type BoneWeight struct {
	Joints  [4]int
	Weights [4]float32
}

// BlendShape is a named set of per-vertex deltas.
// Normals may be empty, in which case normal deltas read as zero.
type BlendShape struct {
	Name      string
	Positions []math.Vec3
	Normals   []math.Vec3
}

// NormalAt returns the normal delta of vertex i.
func (b *BlendShape) NormalAt(i int) math.Vec3 {
	if len(b.Normals) == 0 {
		return math.Vec3{}
	}
	return b.Normals[i]
}

// Mesh is the global vertex data plus per-submesh triangle lists.
// Positions defines the vertex count; Normals and UVs are either empty or
// parallel to Positions.
type Mesh struct {
	Name        string
	Positions   []math.Vec3
	Normals     []math.Vec3
	UVs         []math.Vec2
	BoneWeights []BoneWeight
	Submeshes   [][]int
	BlendShapes []BlendShape
}

// VertexCount returns the number of global vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// NormalAt returns the normal of vertex i, or zero if the mesh has none.
func (m *Mesh) NormalAt(i int) math.Vec3 {
	if len(m.Normals) == 0 {
		return math.Vec3{}
	}
	return m.Normals[i]
}

// UVAt returns the texture coordinate of vertex i, or zero if the mesh has none.
func (m *Mesh) UVAt(i int) math.Vec2 {
	if len(m.UVs) == 0 {
		return math.Vec2{}
	}
	return m.UVs[i]
}

// HasSkin reports whether every vertex carries a bone weight.
// Partial skin data disables skinning for the whole mesh.
func (m *Mesh) HasSkin() bool {
	n := m.VertexCount()
	return n > 0 && len(m.BoneWeights) == n
}

// Validate checks array shapes only. Triangle indices are not inspected;
// out-of-range references are handled by the exporter.
func (m *Mesh) Validate() error {
	n := m.VertexCount()
	if len(m.Normals) != 0 && len(m.Normals) != n {
		return fmt.Errorf("%w: %d normals for %d vertices", ErrInvalidMesh, len(m.Normals), n)
	}
	if len(m.UVs) != 0 && len(m.UVs) != n {
		return fmt.Errorf("%w: %d uvs for %d vertices", ErrInvalidMesh, len(m.UVs), n)
	}
	for i := range m.BlendShapes {
		bs := &m.BlendShapes[i]
		if len(bs.Positions) != n {
			return fmt.Errorf("%w: blend shape %q has %d positions for %d vertices",
				ErrInvalidMesh, bs.Name, len(bs.Positions), n)
		}
		if len(bs.Normals) != 0 && len(bs.Normals) != n {
			return fmt.Errorf("%w: blend shape %q has %d normals for %d vertices",
				ErrInvalidMesh, bs.Name, len(bs.Normals), n)
		}
	}
	return nil
}

// BlendShapeNames returns the channel names in channel order.
func (m *Mesh) BlendShapeNames() []string {
	names := make([]string, len(m.BlendShapes))
	for i := range m.BlendShapes {
		names[i] = m.BlendShapes[i].Name
	}
	return names
}
