// Package glb assembles exported meshes into a glTF 2.0 document and
// implements the exporter's buffer builder on top of qmuntal/gltf.
package glb

import (
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/rsm2gltf/pkg/meshexport"
)

// Document errors.
var (
	ErrBufferNotWritable = errors.New("buffer is not the writable buffer")
	ErrUnsupportedData   = errors.New("unsupported accessor data")
	ErrEmptyMesh         = errors.New("mesh has no exportable primitives")
)

// Document wraps a glTF document being built. All binary data goes to the
// last buffer of the document.
type Document struct {
	doc *gltf.Document
	log *zap.Logger

	sampler  *uint32
	textures map[string]uint32
}

// New creates an empty document. log may be nil.
func New(generator string, log *zap.Logger) *Document {
	if log == nil {
		log = zap.NewNop()
	}
	doc := gltf.NewDocument()
	doc.Asset.Generator = generator
	if len(doc.Buffers) == 0 {
		doc.Buffers = append(doc.Buffers, new(gltf.Buffer))
	}
	if len(doc.Scenes) == 0 {
		doc.Scenes = append(doc.Scenes, &gltf.Scene{Name: "Root Scene"})
		doc.Scene = gltf.Index(0)
	}
	return &Document{
		doc:      doc,
		log:      log,
		textures: make(map[string]uint32),
	}
}

// GLTF exposes the underlying document.
func (d *Document) GLTF() *gltf.Document {
	return d.doc
}

// Buffer returns the index of the buffer accessors are written to.
func (d *Document) Buffer() int {
	return len(d.doc.Buffers) - 1
}

// Append implements meshexport.BufferBuilder. Vec3 arrays always carry
// min/max bounds, which POSITION and morph POSITION accessors require.
func (d *Document) Append(buffer int, data any, usage meshexport.Usage) (meshexport.Accessor, error) {
	if buffer != d.Buffer() {
		return meshexport.Accessor{}, fmt.Errorf("%w: %d (writable is %d)", ErrBufferNotWritable, buffer, d.Buffer())
	}

	var index uint32
	switch usage {
	case meshexport.UsageIndex:
		v, ok := data.([]uint32)
		if !ok {
			return meshexport.Accessor{}, fmt.Errorf("%w: %T as indices", ErrUnsupportedData, data)
		}
		index = modeler.WriteIndices(d.doc, v)
	case meshexport.UsageVertex:
		switch v := data.(type) {
		case [][3]float32:
			index = modeler.WritePosition(d.doc, v)
		case [][2]float32, [][4]uint16, [][4]float32:
			index = modeler.WriteAccessor(d.doc, gltf.TargetArrayBuffer, v)
		default:
			return meshexport.Accessor{}, fmt.Errorf("%w: %T as vertex attribute", ErrUnsupportedData, data)
		}
	default:
		return meshexport.Accessor{}, fmt.Errorf("%w: usage %s", ErrUnsupportedData, usage)
	}
	d.syncBufferLength()

	return meshexport.Accessor{
		Index: int(index),
		Count: int(d.doc.Accessors[index].Count),
	}, nil
}

func (d *Document) syncBufferLength() {
	buf := d.doc.Buffers[d.Buffer()]
	buf.ByteLength = uint32(len(buf.Data))
}

// AddMesh converts an exported mesh descriptor into a glTF mesh attached to
// a new root node. Primitives that emitted no geometry are skipped.
func (d *Document) AddMesh(m *meshexport.Mesh) (int, error) {
	gm := &gltf.Mesh{Name: m.Name}
	for i, p := range m.Primitives {
		if p.Empty() {
			d.log.Warn("skipping empty primitive", zap.String("mesh", m.Name), zap.Int("submesh", i))
			continue
		}
		gm.Primitives = append(gm.Primitives, primitive(p))
	}
	if len(gm.Primitives) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrEmptyMesh, m.Name)
	}
	if len(m.TargetNames) > 0 {
		gm.Weights = make([]float32, len(m.TargetNames))
		gm.Extras = map[string]interface{}{"targetNames": m.TargetNames}
	}

	d.doc.Meshes = append(d.doc.Meshes, gm)
	meshIndex := uint32(len(d.doc.Meshes) - 1)

	d.doc.Nodes = append(d.doc.Nodes, &gltf.Node{Name: m.Name, Mesh: gltf.Index(meshIndex)})
	nodeIndex := uint32(len(d.doc.Nodes) - 1)
	scene := d.doc.Scenes[0]
	scene.Nodes = append(scene.Nodes, nodeIndex)

	return int(meshIndex), nil
}

func primitive(p *meshexport.Primitive) *gltf.Primitive {
	attrs := map[string]uint32{
		gltf.POSITION:   uint32(p.Position.Index),
		gltf.NORMAL:     uint32(p.Normal.Index),
		gltf.TEXCOORD_0: uint32(p.TexCoord0.Index),
	}
	if p.Joints.Present() && p.Weights.Present() {
		attrs[gltf.JOINTS_0] = uint32(p.Joints.Index)
		attrs[gltf.WEIGHTS_0] = uint32(p.Weights.Index)
	}

	prim := &gltf.Primitive{
		Attributes: attrs,
		Indices:    gltf.Index(uint32(p.Indices.Index)),
	}
	if p.Material >= 0 {
		prim.Material = gltf.Index(uint32(p.Material))
	}
	for _, t := range p.Targets {
		target := map[string]uint32{gltf.POSITION: uint32(t.Position.Index)}
		if t.Normal.Present() {
			target[gltf.NORMAL] = uint32(t.Normal.Index)
		}
		prim.Targets = append(prim.Targets, target)
	}
	return prim
}

// Save writes the document as .glb when binary is set, otherwise as .gltf
// with the buffer embedded as a data URI.
func (d *Document) Save(path string, binary bool) error {
	if binary {
		if err := gltf.SaveBinary(d.doc, path); err != nil {
			return fmt.Errorf("saving glb %s: %w", path, err)
		}
		return nil
	}
	for _, buf := range d.doc.Buffers {
		buf.EmbeddedResource()
	}
	if err := gltf.Save(d.doc, path); err != nil {
		return fmt.Errorf("saving gltf %s: %w", path, err)
	}
	return nil
}
