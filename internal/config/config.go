// Package config handles converter configuration loading and management.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Faultbox/rsm2gltf/internal/texture"
	"github.com/Faultbox/rsm2gltf/pkg/meshexport"
)

// Config holds all converter settings.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Export  ExportConfig  `yaml:"export"`
	Texture TextureConfig `yaml:"texture"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig lists game archives models and textures are read from.
type DataConfig struct {
	GRFPaths []string `yaml:"grf_paths"` // Later archives take priority
}

// ExportConfig holds mesh conversion and export settings.
type ExportConfig struct {
	ExportTangents         bool   `yaml:"export_tangents"` // Not supported; export fails when set
	OnlyBlendShapePosition bool   `yaml:"only_blend_shape_position"`
	InvertAxis             string `yaml:"invert_axis"` // x, y, z or none
	ForceTwoSided          bool   `yaml:"force_two_sided"`
	DoubleSidedMaterials   bool   `yaml:"double_sided_materials"`
	AnimationMorphs        bool   `yaml:"animation_morphs"`
	MaxMorphFrames         int    `yaml:"max_morph_frames"` // 0 = all keyframes
}

// TextureConfig holds texture embedding settings.
type TextureConfig struct {
	Dir         string  `yaml:"dir"` // Texture root, usually data/texture
	Embed       bool    `yaml:"embed"`
	Format      string  `yaml:"format"` // png or webp
	MagentaKey  bool    `yaml:"magenta_key"`
	AlphaCutoff float32 `yaml:"alpha_cutoff"`
}

// OutputConfig holds output file settings.
type OutputConfig struct {
	Path   string `yaml:"path"`   // Empty = next to the input
	Binary bool   `yaml:"binary"` // .glb instead of .gltf
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			InvertAxis:     "y",
			MaxMorphFrames: 32,
		},
		Texture: TextureConfig{
			Embed:       true,
			Format:      string(texture.FormatPNG),
			MagentaKey:  true,
			AlphaCutoff: 0.5,
		},
		Output: OutputConfig{
			Binary: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks values that flags and files can set to anything.
func (c *Config) Validate() error {
	if _, err := meshexport.ParseAxis(c.Export.InvertAxis); err != nil {
		return fmt.Errorf("export.invert_axis: %w", err)
	}
	if c.Export.MaxMorphFrames < 0 {
		return fmt.Errorf("export.max_morph_frames: must not be negative, got %d", c.Export.MaxMorphFrames)
	}
	if _, err := texture.ParseFormat(c.Texture.Format); err != nil {
		return fmt.Errorf("texture.format: %w", err)
	}
	if c.Texture.AlphaCutoff < 0 || c.Texture.AlphaCutoff > 1 {
		return fmt.Errorf("texture.alpha_cutoff: must be within 0..1, got %v", c.Texture.AlphaCutoff)
	}
	return nil
}

// OutputPath returns where the document converted from input is written.
func (c *Config) OutputPath(input string) string {
	if c.Output.Path != "" {
		return c.Output.Path
	}
	ext := ".gltf"
	if c.Output.Binary {
		ext = ".glb"
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ext
}

// HasTextureSources reports whether textures can be resolved at all.
func (c *Config) HasTextureSources() bool {
	return c.Texture.Embed && (c.Texture.Dir != "" || len(c.Data.GRFPaths) > 0)
}
