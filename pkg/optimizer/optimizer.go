// Package optimizer runs the whole pipeline over a project: the texture
// bank is built from every area first, then each area is rewritten in turn.
package optimizer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cfoust/f3dopt/pkg/area"
	"github.com/cfoust/f3dopt/pkg/bank"
	"github.com/cfoust/f3dopt/pkg/compact"
	"github.com/cfoust/f3dopt/pkg/config"
	"github.com/cfoust/f3dopt/pkg/gbi"
	"github.com/cfoust/f3dopt/pkg/geometry"
	"github.com/cfoust/f3dopt/pkg/material"
	"github.com/cfoust/f3dopt/pkg/report"
	"github.com/cfoust/f3dopt/pkg/scan"
	"github.com/cfoust/f3dopt/pkg/version"

	"github.com/repeale/fp-go/option"
	"github.com/rs/zerolog/log"
)

type Optimizer struct {
	config *config.Config
	// Trace receives listings for areas in config.VerboseDebugAreas.
	Trace io.Writer
}

func New(cfg *config.Config) *Optimizer {
	return &Optimizer{
		config: cfg,
		Trace:  os.Stdout,
	}
}

func (o *Optimizer) bankOptions() bank.Options {
	return bank.Options{
		GlobalLimit: o.config.GlobalBankLimit,
		LocalLimit:  o.config.LocalBankLimit,
		Workers:     o.config.Workers,
	}
}

func scanOptions(a *area.Area) scan.Options {
	opts := scan.Options{}
	if a.Painting != nil {
		opts.Painting = opt.Some(a.Painting.Base.Offset())
	}
	return opts
}

// Bank runs texture bank discovery and allocation over every area that
// has display lists.
func (o *Optimizer) Bank(ctx context.Context, areas []*area.Area) (*bank.Bank, error) {
	var sources []bank.Source
	for _, a := range areas {
		if len(a.DisplayLists) == 0 {
			continue
		}

		sources = append(sources, bank.Source{
			Group:   a.Level,
			Name:    a.String(),
			Buffer:  a.Data,
			Entries: a.Entries(),
			Scan:    scanOptions(a),
		})
	}

	return bank.Build(ctx, sources, o.bankOptions())
}

// Area rewrites one area. The area is only modified if every step
// succeeds.
func (o *Optimizer) Area(a *area.Area, b *bank.Bank) (*report.Area, error) {
	out := &report.Area{
		Level:   a.Level,
		Area:    a.Area,
		Name:    a.Name,
		OldSize: len(a.Data),
		NewSize: len(a.Data),
	}

	if len(a.DisplayLists) == 0 {
		out.Skipped = true
		log.Debug().Str("area", a.String()).Msg("no display lists, skipping")
		return out, nil
	}

	buf := a.Data
	entries := a.Entries()

	loads, err := scan.Area(buf, entries, scanOptions(a))
	if err != nil {
		return nil, err
	}
	out.Descriptors = len(loads)

	compactOpts := compact.Options{
		DisableUVFix:    o.config.UVFixBlacklist.Matches(a.Level, a.Area, a.Name),
		DisableCutout:   !o.config.CutoutFix,
		CutoutBlacklist: o.config.CutoutBlacklist(),
		Bank:            b,
		Group:           a.Level,
	}
	materialOpts := material.Options{
		MinVertexLoads: o.config.BoundsMinVertexLoads,
	}
	if a.Painting != nil {
		compactOpts.Painting = opt.Some(compact.Reserve{
			Base:  a.Painting.Base.Offset(),
			Count: a.Painting.Count,
		})
		materialOpts.Painting = opt.Some(material.Painting{
			Base:     uint32(a.Painting.Base),
			Textures: area.Pointers(a.Painting.Textures),
			Keep:     area.Pointers(a.Painting.Keep),
		})
	}
	if o.config.VerboseDebugAreas.Matches(a.Level, a.Area, a.Name) && o.Trace != nil {
		materialOpts.Tracer = gbi.NewTracer(o.Trace)
		materialOpts.Tracer.Header("%s", a)
	}

	compacted := compact.Compact(buf, loads, compactOpts)
	out.Compact = compacted.Stats

	emitter := material.NewEmitter(compacted.Arena, compacted.Table, compacted.Clamp, materialOpts)
	lists := make([]area.Pointer, len(entries))
	for i, entry := range entries {
		optimized, err := geometry.Optimize(buf, entry)
		if err != nil {
			return nil, fmt.Errorf("display list %06X: %w", entry, err)
		}
		out.Geometry.Degenerate += optimized.Degenerate
		out.Geometry.Merged += optimized.Merged

		offset, err := emitter.List(buf, entry, optimized)
		if err != nil {
			return nil, fmt.Errorf("display list %06X: %w", entry, err)
		}
		lists[i] = area.Pointer(gbi.AreaPointer(offset))
	}
	out.Material = emitter.Stats()

	scrolling := make([]area.Pointer, len(a.ScrollingTextures))
	for i, pointer := range a.ScrollingTextures {
		offset, err := compacted.Table.Resolve("scrolling texture", pointer.Offset())
		if err != nil {
			return nil, err
		}
		scrolling[i] = area.Pointer(gbi.AreaPointer(offset))
	}

	var painting *area.Painting
	if a.Painting != nil {
		relocated := *a.Painting
		relocated.Textures = append([]area.Pointer(nil), a.Painting.Textures...)
		relocated.Keep = append([]area.Pointer(nil), a.Painting.Keep...)
		err := relocated.Relocate(func(old uint32) (uint32, error) {
			return compacted.Table.Resolve("painting", old)
		})
		if err != nil {
			return nil, err
		}
		painting = &relocated
	}

	a.Data = compacted.Arena.Bytes()
	a.DisplayLists = lists
	a.ScrollingTextures = scrolling
	a.Painting = painting

	out.NewSize = len(a.Data)
	out.Relocations = compacted.Table.Mappings()

	log.Info().
		Str("area", a.String()).
		Int("old", out.OldSize).
		Int("new", out.NewSize).
		Int("materials", out.Material.Materials).
		Int("cullTests", out.Material.CullTests).
		Msg("optimized area")

	return out, nil
}

// Run optimizes every area of a project in order. Areas before a failing
// one keep their rewritten data.
func (o *Optimizer) Run(ctx context.Context, project *area.Project) (*report.Report, error) {
	b, err := o.Bank(ctx, project.Areas)
	if err != nil {
		return nil, err
	}

	out := &report.Report{
		Version: version.Version,
		Bank:    report.FromBank(b, o.bankOptions()),
	}

	for _, a := range project.Areas {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		result, err := o.Area(a, b)
		if err != nil {
			return out, fmt.Errorf("%s: %w", a, err)
		}
		out.Areas = append(out.Areas, result)
	}

	log.Info().
		Int("areas", len(out.Areas)).
		Int("saved", out.Saved()).
		Int("bankSaved", b.Saved()).
		Msg("done")

	return out, nil
}
