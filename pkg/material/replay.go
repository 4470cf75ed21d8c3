// Package material splits display lists into geometry sub-lists guarded by
// bounding box cull tests and writes the rewritten lists into the arena.
package material

import (
	"fmt"

	"github.com/cfoust/f3dopt/pkg/gbi"
	"github.com/cfoust/f3dopt/pkg/geometry"
	"github.com/cfoust/f3dopt/pkg/rcp"
	"github.com/cfoust/f3dopt/pkg/reloc"
	"github.com/cfoust/f3dopt/pkg/scan"
	"github.com/cfoust/f3dopt/pkg/uvfix"

	"github.com/repeale/fp-go/option"
)

// Painting names the textures of an area's runtime painting. Draws using
// Base or any of Textures are removed unless listed in Keep.
type Painting struct {
	Base     uint32
	Textures []uint32
	Keep     []uint32
}

func contains(list []uint32, offset uint32) bool {
	for _, v := range list {
		if gbi.Offset(v) == offset {
			return true
		}
	}
	return false
}

// Purges reports whether draws with the given texture are removed.
func (p Painting) Purges(offset uint32) bool {
	if gbi.Offset(p.Base) == offset {
		return true
	}
	return contains(p.Textures, offset) && !contains(p.Keep, offset)
}

// step is one command of a list after rewriting.
type step struct {
	offset   uint32
	in       gbi.Command
	out      gbi.Command
	skip     bool
	geometry bool
}

type replayer struct {
	table *reloc.Table
	clamp uvfix.ClampTable
	opts  Options

	state    *rcp.State
	texture  opt.Option[uint32]
	envAlpha byte
	purge    bool
	inRun    bool
}

// relocate moves the address of cmd. Length is the number of bytes the
// command reads, all of which must land in one piece of the new buffer.
func (r *replayer) relocate(what string, cmd gbi.Command, length int) (gbi.Command, error) {
	addr, err := r.table.ResolveRange(what, gbi.Offset(cmd.W1()), length)
	if err != nil {
		return cmd, err
	}
	return cmd.WithAddress(gbi.AreaPointer(addr)), nil
}

func (r *replayer) purges(image uint32) bool {
	if r.envAlpha <= 1 {
		return true
	}
	if opt.IsSome(r.opts.Painting) {
		return r.opts.Painting.Value.Purges(image)
	}
	return false
}

// visit rewrites one command. The returned step has geometry set for
// commands that belong in a material.
func (r *replayer) visit(offset uint32, in, cmd gbi.Command) (step, error) {
	s := step{offset: offset, in: in, out: cmd}

	switch cmd.Op() {
	case gbi.OpSPNoOp, gbi.OpDPNoOp:
		s.skip = true
		return s, nil
	case gbi.OpMoveMem, gbi.OpVertex, gbi.OpTri1:
		s.geometry = true
	case gbi.OpLoadSync, gbi.OpPipeSync, gbi.OpTileSync, gbi.OpFullSync, gbi.OpLoadBlock:
		s.skip = r.purge
	case gbi.OpSetTextureImage:
		image := gbi.Offset(cmd.W1())
		r.texture = opt.Some(image)
		r.purge = r.purges(image)
		s.skip = r.purge
	}

	if s.geometry {
		s.skip = r.purge && cmd.Op() != gbi.OpMoveMem
		if !s.skip {
			r.inRun = true
		}
	} else if !s.skip && r.inRun {
		// Leaving geometry. Nothing is known about the state the next
		// material will be drawn with.
		r.inRun = false
		r.state.Reset()
	}

	if s.skip {
		return s, nil
	}

	var err error
	switch cmd.Op() {
	case gbi.OpMoveMem:
		s.out, err = r.relocate("light", cmd, cmd.MoveMemLength())
	case gbi.OpVertex:
		s.out, err = r.relocate("vertex", cmd, cmd.VertexLoad().Count*gbi.VertexSize)
	case gbi.OpSetTextureImage:
		s.out, err = r.relocate("texture", cmd, 1)
	case gbi.OpSetEnvColor:
		r.envAlpha = cmd.EnvAlpha()
		r.texture = opt.None[uint32]()
		r.purge = r.envAlpha <= 1
	case gbi.OpSetTile:
		if opt.IsSome(r.texture) {
			clamp := r.clamp.Get(r.texture.Value)
			s.out = cmd.WithClamp(clamp.S, clamp.T)
		}
		s.skip = !r.state.Apply(s.out)
	case gbi.OpSetGeometryMode, gbi.OpClearGeometryMode, gbi.OpSetOtherModeH, gbi.OpSetTileSize:
		s.skip = !r.state.Apply(cmd)
	}
	if err != nil {
		return s, fmt.Errorf("%s at %06X: %w", cmd.Op(), offset, err)
	}

	return s, nil
}

// replay walks the list at entry with the geometry overrides applied and
// returns every command up to, but not including, the end of the list.
func replay(buf []byte, entry uint32, overrides *geometry.Result, table *reloc.Table, clamp uvfix.ClampTable, opts Options) ([]step, error) {
	r := replayer{
		table:    table,
		clamp:    clamp,
		opts:     opts,
		state:    rcp.NewState(),
		envAlpha: 0xFF,
	}

	var steps []step
	err := gbi.Walk(buf, entry, func(offset uint32, in gbi.Command) error {
		cmd := overrides.Apply(offset, in)
		switch cmd.Op() {
		case gbi.OpDisplayList:
			return fmt.Errorf("%w: gsSPDisplayList at %06X", scan.ErrBranch, offset)
		case gbi.OpEndDisplayList:
			return gbi.ErrStop
		}

		s, err := r.visit(offset, in, cmd)
		if err != nil {
			return err
		}
		steps = append(steps, s)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return steps, nil
}
