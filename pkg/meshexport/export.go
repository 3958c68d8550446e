// Package meshexport converts a source mesh with shared vertices into
// submesh-local glTF primitives. Each submesh gets its own compact vertex
// buffer, winding corrected for the handedness flip, and morph targets
// aligned to the same local index space.
package meshexport

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/rsm2gltf/pkg/mesh"
)

// Exporter errors.
var (
	ErrTangentsUnsupported = errors.New("tangent export is not supported")
	ErrInconsistent        = errors.New("internal consistency violation")
)

// Settings holds the mesh export options.
type Settings struct {
	ExportTangents               bool // Always rejected
	ExportOnlyBlendShapePosition bool // Omit normal deltas from morph targets
}

// Exporter drives the per-submesh export of one mesh at a time.
// It is not safe for concurrent use: accessor order on Builder is part of
// the output.
type Exporter struct {
	Builder  BufferBuilder
	Buffer   int
	Inverter AxisInverter // nil means Identity
	Settings Settings
	Logger   *zap.Logger // nil discards diagnostics
}

// Export converts r.Mesh. materials is the document material list that
// renderer slots are resolved against by identity.
// On error no descriptor is returned.
func (e *Exporter) Export(r *mesh.Renderer, materials []*mesh.Material) (*Mesh, error) {
	if e.Settings.ExportTangents {
		return nil, ErrTangentsUnsupported
	}
	if r == nil || r.Mesh == nil {
		return nil, fmt.Errorf("%w: no mesh", mesh.ErrInvalidMesh)
	}
	src := r.Mesh
	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("mesh %q: %w", src.Name, err)
	}

	log := e.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("mesh", src.Name))

	out := &Mesh{
		Name:       src.Name,
		Primitives: make([]*Primitive, 0, len(src.Submeshes)),
	}
	skinned := src.HasSkin()
	if !skinned && len(src.BoneWeights) > 0 {
		log.Debug("partial skin data, skinning disabled",
			zap.Int("weights", len(src.BoneWeights)),
			zap.Int("vertices", src.VertexCount()))
	}

	for i := range src.Submeshes {
		prim, warnings, err := e.exportSubmesh(src, i, skinned, mesh.IndexOfMaterial(materials, r.MaterialAt(i)))
		if err != nil {
			return nil, fmt.Errorf("mesh %q submesh %d: %w", src.Name, i, err)
		}
		for _, w := range warnings {
			log.Warn("triangle dropped",
				zap.Int("submesh", w.Submesh),
				zap.Int("triangle", w.Triangle),
				zap.Ints("indices", w.Indices),
				zap.String("reason", w.Reason))
		}
		log.Debug("submesh exported",
			zap.Int("submesh", i),
			zap.Int("vertices", prim.VertexCount),
			zap.Int("triangles", prim.IndexCount/3),
			zap.Int("material", prim.Material),
			zap.Int("targets", len(prim.Targets)))

		out.Primitives = append(out.Primitives, prim)
		out.Warnings = append(out.Warnings, warnings...)
	}

	out.TargetNames = src.BlendShapeNames()
	return out, nil
}

func (e *Exporter) exportSubmesh(src *mesh.Mesh, submesh int, skinned bool, material int) (*Primitive, []Warning, error) {
	inv := e.Inverter
	if inv == nil {
		inv = Identity
	}
	indices := src.Submeshes[submesh]
	n := src.VertexCount()

	// Vertices are pushed in ascending global order, independent of
	// triangle order, so blend shapes can reproduce the same subset.
	used, count := usedVertices(n, indices)
	buffer := NewVertexBuffer(n, count, skinned)
	usedIndices := make([]int, 0, count)
	for k := 0; k < n; k++ {
		if !used[k] {
			continue
		}
		usedIndices = append(usedIndices, k)
		if err := buffer.Push(k,
			inv.InvertVector3(src.Positions[k]),
			inv.InvertVector3(src.NormalAt(k)),
			src.UVAt(k).FlipV()); err != nil {
			return nil, nil, err
		}
		if skinned {
			if err := buffer.PushBoneWeight(src.BoneWeights[k]); err != nil {
				return nil, nil, err
			}
		}
	}

	var warnings []Warning
	flipped := make([]int, 0, len(indices)-len(indices)%3)
	for j := 0; j+2 < len(indices); j += 3 {
		a, b, c := indices[j], indices[j+1], indices[j+2]
		if !buffer.ContainsTriangle(a, b, c) {
			warnings = append(warnings, Warning{
				Submesh:  submesh,
				Triangle: j / 3,
				Indices:  []int{a, b, c},
				Reason:   ReasonOutsideSubmesh,
			})
			continue
		}
		flipped = append(flipped, c, b, a)
	}
	if rem := len(indices) % 3; rem != 0 {
		tail := len(indices) - rem
		warnings = append(warnings, Warning{
			Submesh:  submesh,
			Triangle: tail / 3,
			Indices:  append([]int(nil), indices[tail:]...),
			Reason:   ReasonIncomplete,
		})
	}

	prim, err := buffer.ToPrimitive(e.Builder, e.Buffer, material, flipped)
	if err != nil {
		return nil, nil, err
	}

	useNormal := !e.Settings.ExportOnlyBlendShapePosition
	for ch := range src.BlendShapes {
		bs := &src.BlendShapes[ch]
		shape := NewBlendShapeBuffer(len(usedIndices))
		for _, k := range usedIndices {
			shape.Push(inv.InvertVector3(bs.Positions[k]), inv.InvertVector3(bs.NormalAt(k)))
		}
		if shape.Len() != prim.VertexCount {
			return nil, nil, fmt.Errorf("%w: blend shape %q has %d vertices, primitive has %d",
				ErrInconsistent, bs.Name, shape.Len(), prim.VertexCount)
		}
		target, err := shape.ToMorphTarget(e.Builder, e.Buffer, useNormal)
		if err != nil {
			return nil, nil, fmt.Errorf("blend shape %q: %w", bs.Name, err)
		}
		prim.Targets = append(prim.Targets, target)
	}

	return prim, warnings, nil
}

// usedVertices marks every global vertex referenced by a triangle whose three
// indices are all in [0,n). Triangles with an out-of-range index contribute
// nothing and are dropped later by the containment check.
func usedVertices(n int, indices []int) ([]bool, int) {
	used := make([]bool, n)
	count := 0
	for j := 0; j+2 < len(indices); j += 3 {
		tri := indices[j : j+3]
		if !inRange(tri[0], n) || !inRange(tri[1], n) || !inRange(tri[2], n) {
			continue
		}
		for _, v := range tri {
			if !used[v] {
				used[v] = true
				count++
			}
		}
	}
	return used, count
}

func inRange(i, n int) bool {
	return i >= 0 && i < n
}
