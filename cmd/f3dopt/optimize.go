package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cfoust/f3dopt/pkg/area"
	"github.com/cfoust/f3dopt/pkg/assets"
	"github.com/cfoust/f3dopt/pkg/config"
	"github.com/cfoust/f3dopt/pkg/gbi"
	"github.com/cfoust/f3dopt/pkg/optimizer"

	"github.com/rs/zerolog/log"
)

const PAINTING_CONFIG = "paintingcfg.txt"

func load(ctx context.Context, configs []string, project string) (*optimizer.Optimizer, *area.Project, error) {
	cfg, err := config.Process(configs)
	if err != nil {
		return nil, nil, err
	}

	loaded, err := area.Load(ctx, project)
	if err != nil {
		return nil, nil, err
	}

	log.Info().Msgf("loaded %d areas from %s", len(loaded.Areas), project)
	return optimizer.New(cfg), loaded, nil
}

func optimizeCommand() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	o, project, err := load(ctx, CLI.Optimize.Configs, CLI.Optimize.Project)
	if err != nil {
		return err
	}

	result, err := o.Run(ctx, project)
	if err != nil {
		return err
	}

	// Buffers are always written inside the output directory.
	for _, a := range project.Areas {
		if filepath.IsAbs(a.Buffer) {
			a.Buffer = filepath.Base(a.Buffer)
		}
	}

	out := assets.FSStore(CLI.Optimize.Out)
	if err := project.Save(ctx, out, filepath.Base(CLI.Optimize.Project)); err != nil {
		return fmt.Errorf("could not save project: %w", err)
	}

	var painting strings.Builder
	if err := area.WritePaintingConfig(&painting, project.Areas); err != nil {
		return err
	}
	if err := out.Set(ctx, PAINTING_CONFIG, []byte(painting.String())); err != nil {
		return err
	}

	if CLI.Optimize.Report != "" {
		err := result.Write(ctx, assets.FSStore(filepath.Dir(CLI.Optimize.Report)), filepath.Base(CLI.Optimize.Report))
		if err != nil {
			return fmt.Errorf("could not write report: %w", err)
		}
	}

	log.Info().Msgf("saved %d KiB, wrote %s", result.Saved()/1024, CLI.Optimize.Out)
	return nil
}

func bankCommand() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	o, project, err := load(ctx, CLI.Bank.Configs, CLI.Bank.Project)
	if err != nil {
		return err
	}

	b, err := o.Bank(ctx, project.Areas)
	if err != nil {
		return err
	}

	log.Info().Msgf("the texture bank would save %d KiB", b.Saved()/1024)
	return nil
}

func disasmCommand() error {
	ctx := context.Background()

	offset, err := strconv.ParseUint(CLI.Disasm.Offset, 0, 32)
	if err != nil {
		return fmt.Errorf("invalid offset %s", CLI.Disasm.Offset)
	}

	data, err := assets.FSStore(filepath.Dir(CLI.Disasm.Blob)).Get(ctx, filepath.Base(CLI.Disasm.Blob))
	if err != nil {
		return err
	}

	return gbi.Disassemble(os.Stdout, data, gbi.Offset(uint32(offset)))
}
