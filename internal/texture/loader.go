// Package texture resolves RSM texture references through an asset source
// and re-encodes them for embedding in glTF documents.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"path"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp" // BMP decoder registration

	"github.com/Faultbox/rsm2gltf/pkg/encoding"
	"github.com/Faultbox/rsm2gltf/pkg/glb"
)

// Format is the encoding used for embedded images.
type Format string

const (
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown texture format")

// ParseFormat validates a format name. Empty means PNG.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatPNG:
		return FormatPNG, nil
	case FormatWebP:
		return FormatWebP, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Texture directories commonly sit below the chosen root.
var searchPrefixes = []string{"", "texture/", "data/texture/"}

// Files is a read-only view of game data, such as *assets.Manager.
type Files interface {
	Exists(path string) bool
	Load(path string) ([]byte, error)
}

// Loader implements glb.TextureSource over Files. Lookups are
// case-insensitive. A Loader is not safe for concurrent use.
type Loader struct {
	Files      Files
	Format     Format
	MagentaKey bool

	cache map[string]*glb.Image
}

// NewLoader creates a loader reading from files.
func NewLoader(files Files, format Format, magentaKey bool) *Loader {
	return &Loader{Files: files, Format: format, MagentaKey: magentaKey}
}

// Image resolves and encodes the texture referenced by a model.
func (l *Loader) Image(ref string) (*glb.Image, error) {
	key := encoding.NormalizePath(ref)
	if img, ok := l.cache[key]; ok {
		return img, nil
	}

	var file string
	for _, prefix := range searchPrefixes {
		if l.Files.Exists(prefix + key) {
			file = prefix + key
			break
		}
	}
	if file == "" {
		return nil, fmt.Errorf("%w: %s", glb.ErrTextureNotFound, ref)
	}

	data, err := l.Files.Load(file)
	if err != nil {
		return nil, fmt.Errorf("reading texture: %w", err)
	}
	src, err := decode(data, file)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", file, err)
	}

	img, err := l.encode(ToNRGBA(src, l.MagentaKey))
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", file, err)
	}
	base := path.Base(key)
	img.Name = strings.TrimSuffix(base, path.Ext(base))

	if l.cache == nil {
		l.cache = make(map[string]*glb.Image)
	}
	l.cache[key] = img
	return img, nil
}

func decode(data []byte, file string) (image.Image, error) {
	if strings.EqualFold(path.Ext(file), ".tga") {
		return tga.Decode(bytes.NewReader(data))
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

func (l *Loader) encode(img image.Image) (*glb.Image, error) {
	var buf bytes.Buffer
	switch l.Format {
	case FormatWebP:
		if err := nativewebp.Encode(&buf, img, nil); err != nil {
			return nil, err
		}
		return &glb.Image{MimeType: glb.MimeWebP, Data: buf.Bytes()}, nil
	case "", FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
		return &glb.Image{MimeType: "image/png", Data: buf.Bytes()}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, l.Format)
}

// IsMagentaKey checks if an RGB color matches the RO magenta transparency key.
// Uses tolerance (R >= 250, G <= 10, B >= 250) to handle BMP decoding variations.
func IsMagentaKey(r, g, b uint8) bool {
	return r >= 250 && g <= 10 && b >= 250
}

// ToNRGBA converts img to non-premultiplied RGBA. With magentaKey set,
// magenta pixels become transparent black so filtering does not bleed.
func ToNRGBA(img image.Image, magentaKey bool) *image.NRGBA {
	bounds := img.Bounds()
	dst, ok := img.(*image.NRGBA)
	if !ok || magentaKey {
		dst = image.NewNRGBA(bounds)
		draw.Draw(dst, bounds, img, bounds.Min, draw.Src)
	}
	if !magentaKey {
		return dst
	}
	for i := 0; i+3 < len(dst.Pix); i += 4 {
		if IsMagentaKey(dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2]) {
			dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2], dst.Pix[i+3] = 0, 0, 0, 0
		}
	}
	return dst
}
