package meshexport

import "fmt"

// Mesh is the exported descriptor of one source mesh: one primitive per
// submesh in submesh order, plus the blend-shape channel names.
type Mesh struct {
	Name        string
	Primitives  []*Primitive
	TargetNames []string
	Warnings    []Warning
}

// Primitive holds the accessor handles of one submesh.
// Material is -1 when the submesh has no material.
type Primitive struct {
	Indices   Accessor
	Position  Accessor
	Normal    Accessor
	TexCoord0 Accessor
	Joints    Accessor
	Weights   Accessor
	Material  int
	Targets   []MorphTarget

	VertexCount int // Local vertices
	IndexCount  int // Emitted indices, three per triangle
}

// Empty reports whether the primitive emitted no geometry.
func (p *Primitive) Empty() bool {
	return !p.Position.Present()
}

// MorphTarget holds the accessor handles of one blend-shape channel.
// Normal is NoAccessor when normal deltas are not exported.
type MorphTarget struct {
	Position Accessor
	Normal   Accessor
	Count    int
}

// Warning describes a triangle dropped because it could not be exported.
type Warning struct {
	Submesh  int
	Triangle int
	Indices  []int
	Reason   string
}

func (w Warning) String() string {
	return fmt.Sprintf("submesh %d triangle %d %v: %s", w.Submesh, w.Triangle, w.Indices, w.Reason)
}

// Drop reasons.
const (
	ReasonOutsideSubmesh = "references a vertex outside the submesh"
	ReasonIncomplete     = "incomplete triangle"
)
