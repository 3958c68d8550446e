package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/rsm2gltf/internal/assets"
	"github.com/Faultbox/rsm2gltf/internal/config"
	"github.com/Faultbox/rsm2gltf/internal/convert"
	"github.com/Faultbox/rsm2gltf/internal/logger"
	"github.com/Faultbox/rsm2gltf/internal/texture"
	"github.com/Faultbox/rsm2gltf/pkg/encoding"
	"github.com/Faultbox/rsm2gltf/pkg/formats"
	"github.com/Faultbox/rsm2gltf/pkg/glb"
	"github.com/Faultbox/rsm2gltf/pkg/meshexport"
)

const generator = "rsm2gltf"

// Models inside archives usually live below data/model.
var modelPrefixes = []string{"", "data/model/"}

// converter holds the state shared by all inputs of one run.
type converter struct {
	cfg      *config.Config
	inverter meshexport.AxisInverter
	files    *assets.Manager   // nil without archives or a texture root
	textures glb.TextureSource // nil when textures are not embedded
}

func newConverter(cfg *config.Config) (*converter, error) {
	inverter, err := meshexport.ParseAxis(cfg.Export.InvertAxis)
	if err != nil {
		return nil, err
	}
	c := &converter{cfg: cfg, inverter: inverter}

	if len(cfg.Data.GRFPaths) > 0 || cfg.Texture.Dir != "" {
		c.files = assets.NewManager()
		for _, p := range cfg.Data.GRFPaths {
			if err := c.files.AddArchive(p); err != nil {
				c.close()
				return nil, err
			}
		}
		// Loose files override archived ones.
		if cfg.Texture.Dir != "" {
			if err := c.files.AddDir(cfg.Texture.Dir); err != nil {
				c.close()
				return nil, err
			}
		}
	}

	if cfg.HasTextureSources() {
		format, err := texture.ParseFormat(cfg.Texture.Format)
		if err != nil {
			c.close()
			return nil, err
		}
		c.textures = texture.NewLoader(c.files, format, cfg.Texture.MagentaKey)
	}
	return c, nil
}

func (c *converter) close() {
	if c.files != nil {
		c.files.Close()
	}
}

// readInput reads a model from disk, falling back to the loaded archives.
// It returns the model bytes and the path the output is derived from.
func (c *converter) readInput(input string) ([]byte, string, error) {
	data, err := os.ReadFile(input)
	if err == nil {
		return data, input, nil
	}
	if !errors.Is(err, fs.ErrNotExist) || c.files == nil {
		return nil, "", fmt.Errorf("reading RSM file: %w", err)
	}

	for _, prefix := range modelPrefixes {
		key := prefix + encoding.NormalizePath(input)
		if !c.files.Exists(key) {
			continue
		}
		data, err := c.files.Load(key)
		if err != nil {
			return nil, "", err
		}
		// Archived models are written to the working directory.
		return data, path.Base(key), nil
	}
	return nil, "", fmt.Errorf("reading RSM file: %w", err)
}

// convertFile converts one model and returns the written path.
func (c *converter) convertFile(input string) (string, error) {
	log := logger.Named("convert").With(zap.String("input", input))

	data, source, err := c.readInput(input)
	if err != nil {
		return "", err
	}
	model, err := formats.ParseRSM(data)
	if err != nil {
		return "", err
	}
	log.Debug("model parsed",
		zap.String("source", source),
		zap.Stringer("version", model.Version),
		zap.Int("nodes", len(model.Nodes)),
		zap.Int("vertices", model.TotalVertexCount()),
		zap.Int("faces", model.TotalFaceCount()),
		zap.Int("textures", len(model.Textures)))

	name := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	opts := convert.Options{
		Name:                 name,
		ForceTwoSided:        c.cfg.Export.ForceTwoSided,
		DoubleSidedMaterials: c.cfg.Export.DoubleSidedMaterials,
		AnimationMorphs:      c.cfg.Export.AnimationMorphs,
		MaxMorphFrames:       c.cfg.Export.MaxMorphFrames,
		Logger:               log,
	}
	if c.cfg.Texture.MagentaKey {
		opts.AlphaCutoff = c.cfg.Texture.AlphaCutoff
	}
	renderer, materials, err := convert.Build(model, opts)
	if err != nil {
		return "", fmt.Errorf("building mesh: %w", err)
	}

	doc := glb.New(generator, logger.Named("glb"))
	if err := doc.AddMaterials(materials, c.textures); err != nil {
		return "", err
	}

	exporter := &meshexport.Exporter{
		Builder:  doc,
		Buffer:   doc.Buffer(),
		Inverter: c.inverter,
		Settings: meshexport.Settings{
			ExportTangents:               c.cfg.Export.ExportTangents,
			ExportOnlyBlendShapePosition: c.cfg.Export.OnlyBlendShapePosition,
		},
		Logger: logger.Named("meshexport"),
	}
	exported, err := exporter.Export(renderer, materials)
	if err != nil {
		return "", fmt.Errorf("exporting mesh: %w", err)
	}
	if _, err := doc.AddMesh(exported); err != nil {
		return "", err
	}

	out := c.cfg.OutputPath(source)
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := doc.Save(out, c.cfg.Output.Binary); err != nil {
		return "", err
	}

	log.Info("model converted",
		zap.String("output", out),
		zap.Int("primitives", len(exported.Primitives)),
		zap.Int("morph_targets", len(exported.TargetNames)),
		zap.Int("dropped_triangles", len(exported.Warnings)))
	return out, nil
}
