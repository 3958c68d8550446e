package glb

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/rsm2gltf/pkg/mesh"
)

const extTextureWebP = "EXT_texture_webp"

// MimeWebP is the media type of WebP encoded images.
const MimeWebP = "image/webp"

// ErrTextureNotFound is returned by a TextureSource that has no image for a path.
var ErrTextureNotFound = errors.New("texture not found")

// Image is an encoded texture ready to embed.
type Image struct {
	Name     string
	MimeType string
	Data     []byte
}

// TextureSource resolves material texture paths to encoded images.
type TextureSource interface {
	Image(path string) (*Image, error)
}

// AddMaterials appends one glTF material per entry, in order, so material
// indices resolved against list match the document. Missing textures are
// logged and leave the material untextured; src may be nil.
func (d *Document) AddMaterials(list []*mesh.Material, src TextureSource) error {
	for _, m := range list {
		gm := &gltf.Material{
			Name:        m.Name,
			DoubleSided: m.DoubleSided,
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: &[4]float32{1, 1, 1, 1},
				MetallicFactor:  gltf.Float(0),
				RoughnessFactor: gltf.Float(1),
			},
		}
		if m.AlphaCutoff > 0 {
			gm.AlphaMode = gltf.AlphaMask
			gm.AlphaCutoff = gltf.Float(m.AlphaCutoff)
		}

		if src != nil && m.Texture != "" {
			tex, err := d.texture(m.Texture, src)
			switch {
			case errors.Is(err, ErrTextureNotFound):
				d.log.Warn("texture not found", zap.String("material", m.Name), zap.String("texture", m.Texture))
			case err != nil:
				return fmt.Errorf("material %q: %w", m.Name, err)
			default:
				gm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: tex}
			}
		}

		d.doc.Materials = append(d.doc.Materials, gm)
	}
	return nil
}

// texture embeds path once and returns its texture index.
func (d *Document) texture(path string, src TextureSource) (uint32, error) {
	if idx, ok := d.textures[path]; ok {
		return idx, nil
	}
	img, err := src.Image(path)
	if err != nil {
		return 0, err
	}

	imgIndex, err := modeler.WriteImage(d.doc, img.Name, img.MimeType, bytes.NewReader(img.Data))
	if err != nil {
		return 0, fmt.Errorf("embedding image %s: %w", img.Name, err)
	}
	d.syncBufferLength()

	if d.sampler == nil {
		d.doc.Samplers = append(d.doc.Samplers, &gltf.Sampler{})
		d.sampler = gltf.Index(uint32(len(d.doc.Samplers) - 1))
	}

	tex := &gltf.Texture{Sampler: d.sampler}
	if img.MimeType == MimeWebP {
		tex.Extensions = map[string]interface{}{
			extTextureWebP: map[string]interface{}{"source": imgIndex},
		}
		d.useExtension(extTextureWebP)
	} else {
		tex.Source = gltf.Index(imgIndex)
	}
	d.doc.Textures = append(d.doc.Textures, tex)

	idx := uint32(len(d.doc.Textures) - 1)
	d.textures[path] = idx
	return idx, nil
}

// useExtension declares a required extension once.
func (d *Document) useExtension(name string) {
	for _, e := range d.doc.ExtensionsUsed {
		if e == name {
			return
		}
	}
	d.doc.ExtensionsUsed = append(d.doc.ExtensionsUsed, name)
	d.doc.ExtensionsRequired = append(d.doc.ExtensionsRequired, name)
}
