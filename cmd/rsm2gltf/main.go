// rsm2gltf converts Ragnarok Online RSM models to glTF 2.0.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/rsm2gltf/internal/config"
	"github.com/Faultbox/rsm2gltf/internal/logger"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	inputs := config.Inputs()
	if config.ListModels() {
		os.Exit(runList(cfg, inputs))
	}
	if len(inputs) == 0 {
		printUsage()
		os.Exit(1)
	}
	if len(inputs) > 1 && cfg.Output.Path != "" {
		fmt.Fprintln(os.Stderr, "Error: -o can only be used with a single input")
		os.Exit(1)
	}

	logger.Sugar.Debugf("Config: %+v", cfg)

	c, err := newConverter(cfg)
	if err != nil {
		logger.Error("failed to set up converter", zap.Error(err))
		os.Exit(1)
	}
	defer c.close()

	failed := 0
	for _, input := range inputs {
		if _, err := c.convertFile(input); err != nil {
			logger.Error("conversion failed", zap.String("input", input), zap.Error(err))
			failed++
		}
	}
	if failed > 0 {
		logger.Sugar.Errorf("%d of %d models failed", failed, len(inputs))
		c.close()
		logger.Sync()
		os.Exit(1)
	}
}

// runList prints archived models matching the optional pattern argument.
func runList(cfg *config.Config, args []string) int {
	defer logger.Sync()
	if len(cfg.Data.GRFPaths) == 0 && cfg.Texture.Dir == "" {
		fmt.Fprintln(os.Stderr, "Error: -list needs -grf or -textures")
		return 1
	}
	c, err := newConverter(cfg)
	if err != nil {
		logger.Error("failed to open sources", zap.Error(err))
		return 1
	}
	defer c.close()

	pattern := ""
	if len(args) > 0 {
		pattern = args[0]
	}
	n := c.listModels(os.Stdout, pattern)
	fmt.Fprintf(os.Stderr, "\n(%d models)\n", n)
	return 0
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `rsm2gltf - convert Ragnarok Online RSM models to glTF 2.0

Usage:
  rsm2gltf [options] <model.rsm>...
  rsm2gltf -grf <archives> -list [pattern]

Options:
  -config <file>     Config file (default ./rsm2gltf.yaml or user config dir)
  -o <file>          Output file (single input only)
  -grf <a.grf,b.grf> GRF archives to read models and textures from
  -textures <dir>    Texture root to embed textures from
  -webp              Embed textures as WebP
  -axis <x|y|z|none> Axis to invert (default y)
  -morphs            Bake keyframe animation into morph targets
  -two-sided         Treat every face as two-sided
  -gltf              Write .gltf instead of .glb
  -list              List models in the archives instead of converting
  -debug             Enable debug logging

Examples:
  rsm2gltf -textures data/texture data/model/prontera/tree.rsm
  rsm2gltf -morphs -webp -o windmill.glb windmill.rsm
  rsm2gltf -grf data.grf,rdata.grf prontera/tree.rsm`)
}
