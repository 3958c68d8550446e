package config

import (
	"flag"
	"strings"
)

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagOutput   = flag.String("o", "", "Output file (single input only)")
	flagGRF      = flag.String("grf", "", "Comma-separated GRF archives, lowest priority first")
	flagTextures = flag.String("textures", "", "Texture root directory")
	flagWebP     = flag.Bool("webp", false, "Embed textures as WebP (EXT_texture_webp)")
	flagAxis     = flag.String("axis", "", "Axis to invert: x, y, z or none")
	flagTangents = flag.Bool("tangents", false, "Request tangent export (unsupported)")
	flagMorphs   = flag.Bool("morphs", false, "Bake keyframe animation into morph targets")
	flagTwoSided = flag.Bool("two-sided", false, "Treat every face as two-sided")
	flagGLTF     = flag.Bool("gltf", false, "Write .gltf with an embedded buffer instead of .glb")
	flagList     = flag.Bool("list", false, "List models in the configured archives instead of converting")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// ListModels reports whether -list was given.
func ListModels() bool {
	return *flagList
}

// Inputs returns the positional arguments: the models to convert.
func Inputs() []string {
	return flag.Args()
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagOutput != "" {
		cfg.Output.Path = *flagOutput
	}
	if *flagGRF != "" {
		cfg.Data.GRFPaths = nil
		for _, p := range strings.Split(*flagGRF, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Data.GRFPaths = append(cfg.Data.GRFPaths, p)
			}
		}
	}
	if *flagTextures != "" {
		cfg.Texture.Dir = *flagTextures
		cfg.Texture.Embed = true
	}
	if *flagWebP {
		cfg.Texture.Format = "webp"
	}
	if *flagAxis != "" {
		cfg.Export.InvertAxis = *flagAxis
	}
	if *flagTangents {
		cfg.Export.ExportTangents = true
	}
	if *flagMorphs {
		cfg.Export.AnimationMorphs = true
	}
	if *flagTwoSided {
		cfg.Export.ForceTwoSided = true
	}
	if *flagGLTF {
		cfg.Output.Binary = false
	}
}
