package mesh

import (
	"errors"
	"testing"

	"github.com/Faultbox/rsm2gltf/pkg/math"
)

func quad() *Mesh {
	return &Mesh{
		Name:      "quad",
		Positions: []math.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0}},
		Normals:   []math.Vec3{{X: 0, Y: 0, Z: 1}, {X: 0, Y: 0, Z: 1}, {X: 0, Y: 0, Z: 1}, {X: 0, Y: 0, Z: 1}},
		UVs:       []math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}},
		Submeshes: [][]int{{0, 1, 2, 0, 2, 3}},
	}
}

func TestMesh_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m *Mesh)
		wantErr bool
	}{
		{"valid", func(m *Mesh) {}, false},
		{"no normals or uvs", func(m *Mesh) { m.Normals = nil; m.UVs = nil }, false},
		{"short normals", func(m *Mesh) { m.Normals = m.Normals[:2] }, true},
		{"short uvs", func(m *Mesh) { m.UVs = m.UVs[:3] }, true},
		{"blend shape ok", func(m *Mesh) {
			m.BlendShapes = []BlendShape{{Name: "a", Positions: make([]math.Vec3, 4)}}
		}, false},
		{"blend shape short", func(m *Mesh) {
			m.BlendShapes = []BlendShape{{Name: "a", Positions: make([]math.Vec3, 1)}}
		}, true},
		{"blend shape short normals", func(m *Mesh) {
			m.BlendShapes = []BlendShape{{Name: "a", Positions: make([]math.Vec3, 4), Normals: make([]math.Vec3, 2)}}
		}, true},
		{"out of range index is not a shape error", func(m *Mesh) { m.Submeshes = [][]int{{0, 1, 9}} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := quad()
			tt.mutate(m)
			err := m.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidMesh) {
				t.Errorf("expected ErrInvalidMesh, got %v", err)
			}
		})
	}
}

func TestMesh_HasSkin(t *testing.T) {
	m := quad()
	if m.HasSkin() {
		t.Error("mesh without bone weights should not be skinned")
	}
	m.BoneWeights = make([]BoneWeight, 3)
	if m.HasSkin() {
		t.Error("partial bone weights should disable skinning")
	}
	m.BoneWeights = make([]BoneWeight, 4)
	if !m.HasSkin() {
		t.Error("full bone weights should enable skinning")
	}
}

func TestMesh_AttributeFallbacks(t *testing.T) {
	m := &Mesh{Positions: make([]math.Vec3, 2)}
	if m.NormalAt(1) != (math.Vec3{}) {
		t.Error("missing normals should read as zero")
	}
	if m.UVAt(1) != (math.Vec2{}) {
		t.Error("missing uvs should read as zero")
	}
	bs := BlendShape{Positions: make([]math.Vec3, 2)}
	if bs.NormalAt(0) != (math.Vec3{}) {
		t.Error("missing blend shape normals should read as zero")
	}
}

func TestIndexOfMaterial(t *testing.T) {
	a := &Material{Name: "a"}
	b := &Material{Name: "b"}
	twin := &Material{Name: "a"}
	list := []*Material{a, b}

	tests := []struct {
		name string
		m    *Material
		want int
	}{
		{"first", a, 0},
		{"second", b, 1},
		{"equal value but different identity", twin, -1},
		{"nil", nil, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IndexOfMaterial(list, tt.m); got != tt.want {
				t.Errorf("IndexOfMaterial() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRenderer_MaterialAt(t *testing.T) {
	a := &Material{Name: "a"}
	r := &Renderer{Mesh: quad(), Materials: []*Material{a, nil}}
	if r.MaterialAt(0) != a {
		t.Error("slot 0 should be a")
	}
	if r.MaterialAt(1) != nil {
		t.Error("slot 1 should be nil")
	}
	if r.MaterialAt(5) != nil {
		t.Error("missing slot should be nil")
	}
}

func TestMesh_BlendShapeNames(t *testing.T) {
	m := quad()
	m.BlendShapes = []BlendShape{{Name: "smile"}, {Name: "blink"}}
	got := m.BlendShapeNames()
	if len(got) != 2 || got[0] != "smile" || got[1] != "blink" {
		t.Errorf("BlendShapeNames() = %v", got)
	}
}
