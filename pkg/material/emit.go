package material

import (
	"github.com/cfoust/f3dopt/pkg/gbi"
	"github.com/cfoust/f3dopt/pkg/geometry"
	"github.com/cfoust/f3dopt/pkg/reloc"
	"github.com/cfoust/f3dopt/pkg/uvfix"

	"github.com/repeale/fp-go/option"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Painting opt.Option[Painting]
	// MinVertexLoads is the spacing between cull tests in one material.
	MinVertexLoads int
	// Tracer receives a side by side listing of every rewritten list.
	Tracer *gbi.Tracer
}

type Stats struct {
	Lists       int `cbor:"lists"`
	Materials   int `cbor:"materials"`
	CullTests   int `cbor:"cullTests"`
	Skipped     int `cbor:"skipped"`
	CommandsIn  int `cbor:"commandsIn"`
	CommandsOut int `cbor:"commandsOut"`
}

func (s *Stats) Add(other Stats) {
	s.Lists += other.Lists
	s.Materials += other.Materials
	s.CullTests += other.CullTests
	s.Skipped += other.Skipped
	s.CommandsIn += other.CommandsIn
	s.CommandsOut += other.CommandsOut
}

// material is a run of geometry steps that is emitted as its own list.
type material struct {
	start, end int
	body       []gbi.Command
	offset     uint32
}

// extract finds the maximal geometry runs of a list that load vertices.
// Skipped commands inside a run neither end it nor become part of it.
func extract(steps []step) []*material {
	var (
		materials []*material
		current   *material
		vertices  bool
	)

	closeRun := func(end int) {
		if current != nil && vertices {
			current.end = end
			materials = append(materials, current)
		}
		current = nil
		vertices = false
	}

	for i, s := range steps {
		if s.skip {
			continue
		}
		if !s.geometry {
			closeRun(i)
			continue
		}
		if current == nil {
			current = &material{start: i}
		}
		current.body = append(current.body, s.out)
		if s.out.Op() == gbi.OpVertex {
			vertices = true
		}
	}
	closeRun(len(steps))

	return materials
}

// Emitter writes rewritten display lists into a compacted arena.
type Emitter struct {
	arena *reloc.Arena
	table *reloc.Table
	clamp uvfix.ClampTable
	opts  Options
	stats Stats
}

func NewEmitter(arena *reloc.Arena, table *reloc.Table, clamp uvfix.ClampTable, opts Options) *Emitter {
	if opts.MinVertexLoads == 0 {
		opts.MinVertexLoads = DEFAULT_MIN_VERTEX_LOADS
	}
	return &Emitter{
		arena: arena,
		table: table,
		clamp: clamp,
		opts:  opts,
	}
}

func (e *Emitter) Stats() Stats {
	return e.stats
}

func (e *Emitter) command(cmd gbi.Command) {
	e.arena.AppendCommand(cmd)
	e.stats.CommandsOut++
}

// writeMaterial appends the bounds blocks of a material followed by its
// body, with a cull test ahead of every accepted vertex load.
func (e *Emitter) writeMaterial(m *material) error {
	points, err := suffixBounds(e.arena.Bytes(), m.body)
	if err != nil {
		return err
	}

	tests := make(map[int]uint32)
	for _, point := range accept(points, e.opts.MinVertexLoads) {
		tests[point.index] = e.arena.AppendBlock(gbi.EncodeVertices(point.bounds.Corners()))
	}

	e.arena.Align(gbi.CommandSize)
	m.offset = e.arena.Len()
	e.opts.Tracer.Header("material %06X", m.offset)

	for i, cmd := range m.body {
		if bounds, ok := tests[i]; ok {
			for _, test := range []gbi.Command{
				gbi.Vertex(gbi.AreaPointer(bounds), BOUNDS_VERTICES, 0),
				gbi.CullDisplayList(0, BOUNDS_VERTICES-1),
			} {
				e.opts.Tracer.Line(test)
				e.command(test)
			}
			e.stats.CullTests++
		}
		e.opts.Tracer.Line(cmd)
		e.command(cmd)
	}

	end := gbi.EndDisplayList()
	e.opts.Tracer.Line(end)
	e.command(end)
	e.stats.Materials++
	return nil
}

// List rewrites the display list at entry in buf and returns the arena
// offset of its replacement.
func (e *Emitter) List(buf []byte, entry uint32, overrides *geometry.Result) (uint32, error) {
	steps, err := replay(buf, entry, overrides, e.table, e.clamp, e.opts)
	if err != nil {
		return 0, err
	}

	materials := extract(steps)
	for _, m := range materials {
		if err := e.writeMaterial(m); err != nil {
			return 0, err
		}
	}

	e.arena.Align(gbi.CommandSize)
	offset := e.arena.Len()
	e.opts.Tracer.Header("list %06X -> %06X", entry, offset)

	next := 0
	for i := 0; i < len(steps); i++ {
		s := steps[i]
		e.stats.CommandsIn++

		if next < len(materials) && materials[next].start == i {
			m := materials[next]
			next++

			call := gbi.DisplayList(gbi.AreaPointer(m.offset))
			for j := m.start; j < m.end; j++ {
				if steps[j].skip {
					e.stats.Skipped++
				}
				e.opts.Tracer.Trace(steps[j].offset, steps[j].in, nil)
			}
			e.opts.Tracer.Line(call)
			e.command(call)

			e.stats.CommandsIn += m.end - m.start - 1
			i = m.end - 1
			continue
		}

		if s.skip {
			e.stats.Skipped++
			e.opts.Tracer.Trace(s.offset, s.in, nil)
			continue
		}

		e.opts.Tracer.Trace(s.offset, s.in, &s.out)
		e.command(s.out)
	}

	end := gbi.EndDisplayList()
	e.opts.Tracer.Line(end)
	e.command(end)

	e.stats.Lists++
	log.Debug().
		Uint32("entry", entry).
		Uint32("offset", offset).
		Int("materials", len(materials)).
		Msg("emitted display list")

	return offset, nil
}
