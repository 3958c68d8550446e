// Package convert turns parsed RSM models into source meshes for the glTF
// exporter. Geometry stays in RSM model space; axis conversion is left to
// the exporter's axis inverter.
package convert

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/rsm2gltf/pkg/encoding"
	"github.com/Faultbox/rsm2gltf/pkg/formats"
	"github.com/Faultbox/rsm2gltf/pkg/math"
	"github.com/Faultbox/rsm2gltf/pkg/mesh"
)

// ErrNoGeometry is returned when a model has no usable faces.
var ErrNoGeometry = errors.New("model has no exportable faces")

// Options control mesh construction.
type Options struct {
	Name string

	// ForceTwoSided treats every face as two-sided.
	ForceTwoSided bool

	// DoubleSidedMaterials marks materials double-sided instead of
	// duplicating two-sided faces with reversed winding.
	DoubleSidedMaterials bool

	// AlphaCutoff is copied to every material (0 = opaque).
	AlphaCutoff float32

	// AnimationMorphs bakes keyframes into blend shapes named frame_<ms>.
	AnimationMorphs bool
	MaxMorphFrames  int

	Logger *zap.Logger
}

// vertexKey identifies a global vertex. Back-face copies get their own
// vertices so their normals point the other way.
type vertexKey struct {
	node     int
	vertex   int
	texCoord int
	back     bool
}

type builder struct {
	rsm  *formats.RSM
	opts Options

	lookup  map[vertexKey]int
	sources []vertexKey
	uvs     []math.Vec2

	triangles   [][3]int
	groups      map[int][]int // global texture index -> triangle list
	doubleSided map[int]bool
	skipped     int
	twoSided    int
}

// Build converts rsm into a renderer with one submesh per texture, in
// ascending texture order, plus the materials the submeshes reference.
func Build(rsm *formats.RSM, opts Options) (*mesh.Renderer, []*mesh.Material, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	b := &builder{
		rsm:         rsm,
		opts:        opts,
		lookup:      make(map[vertexKey]int),
		groups:      make(map[int][]int),
		doubleSided: make(map[int]bool),
	}

	rest := nodeMatrices(rsm, 0)
	for i := range rsm.Nodes {
		b.addNode(i, rest[i])
	}
	if len(b.triangles) == 0 {
		return nil, nil, ErrNoGeometry
	}

	positions := b.positions(rest)
	normals := b.normals(positions)
	m := &mesh.Mesh{
		Name:      opts.Name,
		Positions: positions,
		Normals:   normals,
		UVs:       b.uvs,
	}

	textures := make([]int, 0, len(b.groups))
	for tex := range b.groups {
		textures = append(textures, tex)
	}
	sort.Ints(textures)

	var materials []*mesh.Material
	slots := make([]*mesh.Material, len(textures))
	for i, tex := range textures {
		m.Submeshes = append(m.Submeshes, b.groups[tex])
		if tex < 0 || tex >= len(rsm.Textures) {
			log.Warn("face texture out of range", zap.Int("texture", tex), zap.Int("textures", len(rsm.Textures)))
			continue
		}
		slots[i] = &mesh.Material{
			Name:        materialName(rsm.Textures[tex]),
			Texture:     rsm.Textures[tex],
			DoubleSided: b.doubleSided[tex],
			AlphaCutoff: opts.AlphaCutoff,
		}
		materials = append(materials, slots[i])
	}

	if opts.AnimationMorphs && HasAnimation(rsm) {
		m.BlendShapes = b.morphs(positions, normals)
	}

	log.Debug("model converted",
		zap.String("model", opts.Name),
		zap.Int("vertices", len(positions)),
		zap.Int("triangles", len(b.triangles)),
		zap.Int("submeshes", len(m.Submeshes)),
		zap.Int("two_sided", b.twoSided),
		zap.Int("skipped_faces", b.skipped),
		zap.Int("morph_frames", len(m.BlendShapes)))

	return &mesh.Renderer{Mesh: m, Materials: slots}, materials, nil
}

func (b *builder) addNode(ni int, m mgl32.Mat4) {
	node := &b.rsm.Nodes[ni]
	for _, face := range node.Faces {
		if !validFace(node, face) {
			b.skipped++
			continue
		}

		var p [3]mgl32.Vec3
		for j, vid := range face.VertexIDs {
			p[j] = mgl32.TransformCoordinate(mgl32.Vec3(node.Vertices[vid]), m)
		}
		if p[1].Sub(p[0]).Cross(p[2].Sub(p[0])).Len() < 1e-5 {
			b.skipped++
			continue
		}

		tex := 0
		if int(face.TextureID) < len(node.TextureIDs) {
			tex = int(node.TextureIDs[face.TextureID])
		}
		b.addTriangle(tex, b.corners(ni, face, false))

		if face.TwoSide == 0 && !b.opts.ForceTwoSided {
			continue
		}
		b.twoSided++
		if b.opts.DoubleSidedMaterials {
			b.doubleSided[tex] = true
		} else {
			b.addTriangle(tex, b.corners(ni, face, true))
		}
	}
}

func validFace(node *formats.RSMNode, face formats.RSMFace) bool {
	for _, vid := range face.VertexIDs {
		if int(vid) >= len(node.Vertices) {
			return false
		}
	}
	return true
}

func (b *builder) addTriangle(tex int, tri [3]int) {
	b.triangles = append(b.triangles, tri)
	b.groups[tex] = append(b.groups[tex], tri[0], tri[1], tri[2])
}

// corners returns the global vertices of a face, reversed for a back face.
func (b *builder) corners(ni int, face formats.RSMFace, back bool) [3]int {
	order := [3]int{0, 1, 2}
	if back {
		order = [3]int{2, 1, 0}
	}
	var tri [3]int
	for j, k := range order {
		tri[j] = b.vertex(vertexKey{
			node:     ni,
			vertex:   int(face.VertexIDs[k]),
			texCoord: int(face.TexCoordIDs[k]),
			back:     back,
		})
	}
	return tri
}

func (b *builder) vertex(key vertexKey) int {
	if idx, ok := b.lookup[key]; ok {
		return idx
	}
	idx := len(b.sources)
	b.lookup[key] = idx
	b.sources = append(b.sources, key)

	// Stored with a bottom-left origin; the exporter flips V back.
	var uv math.Vec2
	if tcs := b.rsm.Nodes[key.node].TexCoords; key.texCoord < len(tcs) {
		uv = math.Vec2{X: tcs[key.texCoord].U, Y: 1 - tcs[key.texCoord].V}
	}
	b.uvs = append(b.uvs, uv)
	return idx
}

func (b *builder) positions(mats []mgl32.Mat4) []math.Vec3 {
	out := make([]math.Vec3, len(b.sources))
	for i, key := range b.sources {
		v := b.rsm.Nodes[key.node].Vertices[key.vertex]
		out[i] = math.V3(mgl32.TransformCoordinate(mgl32.Vec3(v), mats[key.node]))
	}
	return out
}

func (b *builder) morphs(restPos, restNormals []math.Vec3) []mesh.BlendShape {
	times := frameTimes(b.rsm, b.opts.MaxMorphFrames)
	shapes := make([]mesh.BlendShape, 0, len(times))
	for _, t := range times {
		pos := b.positions(nodeMatrices(b.rsm, float32(t)))
		nrm := b.normals(pos)
		shape := mesh.BlendShape{
			Name:      fmt.Sprintf("frame_%d", t),
			Positions: make([]math.Vec3, len(pos)),
			Normals:   make([]math.Vec3, len(pos)),
		}
		for i := range pos {
			shape.Positions[i] = pos[i].Sub(restPos[i])
			shape.Normals[i] = nrm[i].Sub(restNormals[i])
		}
		shapes = append(shapes, shape)
	}
	return shapes
}

func materialName(texture string) string {
	base := path.Base(encoding.NormalizePath(texture))
	return strings.TrimSuffix(base, path.Ext(base))
}
