package convert

import (
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/rsm2gltf/pkg/formats"
	"github.com/Faultbox/rsm2gltf/pkg/math"
)

const eps = 1e-5

func identityNode(name, parent string) formats.RSMNode {
	return formats.RSMNode{
		Name:       name,
		Parent:     parent,
		TextureIDs: []int32{0},
		Matrix:     [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1},
		Scale:      [3]float32{1, 1, 1},
		Vertices:   [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
		TexCoords:  []formats.RSMTexCoord{{U: 0, V: 0}, {U: 1, V: 0}, {U: 0, V: 1}, {U: 1, V: 1}},
	}
}

func face(v0, v1, v2 uint16) formats.RSMFace {
	return formats.RSMFace{VertexIDs: [3]uint16{v0, v1, v2}, TexCoordIDs: [3]uint16{v0, v1, v2}}
}

func model(nodes ...formats.RSMNode) *formats.RSM {
	return &formats.RSM{
		Version:  formats.RSMVersion{Major: 1, Minor: 4},
		Shading:  formats.RSMShadingSmooth,
		Textures: []string{"Data\\Texture\\Wall.BMP", "roof.tga"},
		RootNode: nodes[0].Name,
		Nodes:    nodes,
	}
}

func assertVec(t *testing.T, want, got math.Vec3) {
	t.Helper()
	assert.True(t, want.ApproxEqual(got, eps), "want %v, got %v", want, got)
}

func TestBuild_SingleTriangle(t *testing.T) {
	node := identityNode("root", "")
	node.Faces = []formats.RSMFace{face(0, 1, 2)}

	r, mats, err := Build(model(node), Options{Name: "wall"})
	require.NoError(t, err)
	require.NoError(t, r.Mesh.Validate())

	m := r.Mesh
	assert.Equal(t, "wall", m.Name)
	assert.Equal(t, [][]int{{0, 1, 2}}, m.Submeshes)
	require.Len(t, m.Positions, 3)
	assertVec(t, math.Vec3{X: 1}, m.Positions[1])
	assert.Equal(t, math.Vec2{X: 0, Y: 0}, m.UVs[2])
	assert.Equal(t, math.Vec2{X: 1, Y: 1}, m.UVs[1])
	for _, n := range m.Normals {
		assertVec(t, math.Vec3{Z: 1}, n)
	}

	require.Len(t, mats, 1)
	assert.Equal(t, "wall", mats[0].Name)
	assert.Equal(t, "Data\\Texture\\Wall.BMP", mats[0].Texture)
	assert.False(t, mats[0].DoubleSided)
	assert.Same(t, mats[0], r.MaterialAt(0))
}

func TestBuild_SharedVertices(t *testing.T) {
	node := identityNode("root", "")
	node.Faces = []formats.RSMFace{face(0, 1, 2), face(2, 1, 3)}

	r, _, err := Build(model(node), Options{})
	require.NoError(t, err)
	assert.Len(t, r.Mesh.Positions, 4)
	assert.Equal(t, []int{0, 1, 2, 2, 1, 3}, r.Mesh.Submeshes[0])
}

func TestBuild_SplitsOnTexCoord(t *testing.T) {
	node := identityNode("root", "")
	second := face(2, 1, 3)
	second.TexCoordIDs = [3]uint16{3, 1, 3}
	node.Faces = []formats.RSMFace{face(0, 1, 2), second}

	r, _, err := Build(model(node), Options{})
	require.NoError(t, err)
	// vertex 2 with texcoord 3 and vertex 3 are new; vertex 1 is shared.
	assert.Len(t, r.Mesh.Positions, 5)
	assert.Equal(t, []int{0, 1, 2, 3, 1, 4}, r.Mesh.Submeshes[0])
}

func TestBuild_TwoSided(t *testing.T) {
	node := identityNode("root", "")
	f := face(0, 1, 2)
	f.TwoSide = 1
	node.Faces = []formats.RSMFace{f}

	r, mats, err := Build(model(node), Options{})
	require.NoError(t, err)

	m := r.Mesh
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, m.Submeshes[0])
	assertVec(t, m.Positions[2], m.Positions[3])
	assertVec(t, m.Positions[0], m.Positions[5])
	for i := 0; i < 3; i++ {
		assertVec(t, math.Vec3{Z: 1}, m.Normals[i])
		assertVec(t, math.Vec3{Z: -1}, m.Normals[3+i])
	}
	assert.False(t, mats[0].DoubleSided)
}

func TestBuild_DoubleSidedMaterials(t *testing.T) {
	node := identityNode("root", "")
	node.Faces = []formats.RSMFace{face(0, 1, 2)}

	r, mats, err := Build(model(node), Options{ForceTwoSided: true, DoubleSidedMaterials: true, AlphaCutoff: 0.5})
	require.NoError(t, err)
	assert.Len(t, r.Mesh.Positions, 3)
	require.Len(t, mats, 1)
	assert.True(t, mats[0].DoubleSided)
	assert.Equal(t, float32(0.5), mats[0].AlphaCutoff)
}

func TestBuild_SubmeshPerTexture(t *testing.T) {
	node := identityNode("root", "")
	node.TextureIDs = []int32{1, 0, 7}
	roof := face(0, 1, 2)
	wall := face(2, 1, 3)
	wall.TextureID = 1
	missing := face(1, 3, 2)
	missing.TextureID = 2
	node.Faces = []formats.RSMFace{roof, wall, missing}

	r, mats, err := Build(model(node), Options{})
	require.NoError(t, err)

	require.Len(t, r.Mesh.Submeshes, 3)
	assert.Equal(t, []int{2, 1, 3}, r.Mesh.Submeshes[0])
	assert.Equal(t, []int{0, 1, 2}, r.Mesh.Submeshes[1])
	assert.Equal(t, []int{1, 3, 2}, r.Mesh.Submeshes[2])

	require.Len(t, mats, 2)
	assert.Equal(t, "wall", mats[0].Name)
	assert.Equal(t, "roof", mats[1].Name)
	assert.Same(t, mats[0], r.MaterialAt(0))
	assert.Same(t, mats[1], r.MaterialAt(1))
	assert.Nil(t, r.MaterialAt(2))
}

func TestBuild_SkipsInvalidFaces(t *testing.T) {
	node := identityNode("root", "")
	node.Faces = []formats.RSMFace{face(0, 1, 9), face(0, 0, 1), face(0, 1, 2)}

	r, _, err := Build(model(node), Options{})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1, 2}}, r.Mesh.Submeshes)

	node.Faces = node.Faces[:2]
	_, _, err = Build(model(node), Options{})
	assert.ErrorIs(t, err, ErrNoGeometry)
}

func TestBuild_NodeHierarchy(t *testing.T) {
	root := identityNode("root", "")
	root.Position = [3]float32{10, 0, 0}
	root.Offset = [3]float32{5, 0, 0}
	root.Faces = []formats.RSMFace{face(0, 1, 2)}

	child := identityNode("child", "root")
	child.Position = [3]float32{0, 1, 0}
	child.Scale = [3]float32{2, 2, 2}
	child.Faces = []formats.RSMFace{face(0, 1, 2)}

	r, _, err := Build(model(root, child), Options{})
	require.NoError(t, err)

	p := r.Mesh.Positions
	require.Len(t, p, 6)
	// Root: position and its own offset.
	assertVec(t, math.Vec3{X: 15}, p[0])
	// Child: inherits root position but not root offset, then scales.
	assertVec(t, math.Vec3{X: 10, Y: 1}, p[3])
	assertVec(t, math.Vec3{X: 12, Y: 1}, p[4])
}

func TestBuild_AxisAngleRotation(t *testing.T) {
	node := identityNode("root", "")
	node.RotAngle = gomath.Pi / 2
	node.RotAxis = [3]float32{0, 0, 2}
	node.Faces = []formats.RSMFace{face(0, 1, 2)}

	r, _, err := Build(model(node), Options{})
	require.NoError(t, err)
	assertVec(t, math.Vec3{Y: 1}, r.Mesh.Positions[1])
	assertVec(t, math.Vec3{X: -1}, r.Mesh.Positions[2])
}

func animatedModel() *formats.RSM {
	node := identityNode("root", "")
	node.Vertices = [][3]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 0}}
	node.Faces = []formats.RSMFace{face(0, 1, 2)}
	s := float32(gomath.Sqrt2 / 2)
	node.RotKeys = []formats.RSMRotKeyframe{
		{Frame: 0, Quaternion: [4]float32{0, 0, 0, 1}},
		{Frame: 1000, Quaternion: [4]float32{0, 0, s, s}},
	}
	rsm := model(node)
	rsm.AnimLength = 1000
	return rsm
}

func TestBuild_AnimationMorphs(t *testing.T) {
	rsm := animatedModel()

	r, _, err := Build(rsm, Options{AnimationMorphs: true})
	require.NoError(t, err)
	require.NoError(t, r.Mesh.Validate())

	shapes := r.Mesh.BlendShapes
	require.Len(t, shapes, 1)
	assert.Equal(t, "frame_1000", shapes[0].Name)
	assertVec(t, math.Vec3{X: -1, Y: 1}, shapes[0].Positions[0])
	assertVec(t, math.Vec3{}, shapes[0].Positions[2])
	assertVec(t, math.Vec3{}, shapes[0].Normals[0])

	r, _, err = Build(rsm, Options{})
	require.NoError(t, err)
	assert.Empty(t, r.Mesh.BlendShapes)
}
