// Package geometry removes degenerate triangles and folds small vertex
// loads into the load before them, so fewer loads reach the RSP.
package geometry

import (
	"errors"
	"fmt"

	"github.com/cfoust/f3dopt/pkg/gbi"
	"github.com/cfoust/f3dopt/pkg/scan"
)

// ErrBadVertexLoad is returned when a triangle references a vertex slot
// its vertex load did not fill.
var ErrBadVertexLoad = errors.New("bad vertex load")

const (
	// VERTEX_SLOTS is the size of the F3D vertex buffer.
	VERTEX_SLOTS = 16
	// A load may only absorb the next one if it leaves room for it.
	MAX_MERGE_BASE = 13
)

type command struct {
	offset uint32
	cmd    gbi.Command
}

// Result holds replacement commands keyed by their offset in the original
// buffer.
type Result struct {
	Overrides  map[uint32]gbi.Command
	Degenerate int
	Merged     int
}

// Apply returns the command to use in place of the one at offset.
func (r *Result) Apply(offset uint32, cmd gbi.Command) gbi.Command {
	if r == nil {
		return cmd
	}
	if override, ok := r.Overrides[offset]; ok {
		return override
	}
	return cmd
}

type slots struct {
	address [VERTEX_SLOTS]uint32
	loaded  [VERTEX_SLOTS]bool
}

func (s *slots) load(load gbi.VertexLoad) {
	for i := 0; i < load.Count; i++ {
		slot := load.First + i
		if slot >= VERTEX_SLOTS {
			break
		}
		s.address[slot] = gbi.Offset(load.Address) + uint32(i*gbi.VertexSize)
		s.loaded[slot] = true
	}
}

func (s *slots) read(buf []byte, offset uint32, tri gbi.Triangle) ([3]gbi.Vtx, error) {
	var out [3]gbi.Vtx
	for i, slot := range tri.V {
		if slot >= VERTEX_SLOTS || !s.loaded[slot] {
			return out, fmt.Errorf("%w: triangle at %06X uses empty slot %d", ErrBadVertexLoad, offset, slot)
		}

		vertices, err := gbi.ReadVertices(buf, s.address[slot], 1)
		if err != nil {
			return out, fmt.Errorf("triangle at %06X: %w", offset, err)
		}
		out[i] = vertices[0]
	}
	return out, nil
}

// runs splits a display list into maximal runs of vertex loads and
// triangles. Degenerate triangles are replaced with no-ops and left out.
func runs(buf []byte, entry uint32, result *Result) ([][]command, error) {
	var (
		all     [][]command
		current []command
		loaded  slots
	)

	push := func() {
		if len(current) > 0 {
			all = append(all, current)
		}
		current = nil
	}

	err := gbi.Walk(buf, entry, func(offset uint32, cmd gbi.Command) error {
		switch cmd.Op() {
		case gbi.OpDisplayList:
			return fmt.Errorf("%w: gsSPDisplayList at %06X", scan.ErrBranch, offset)
		case gbi.OpEndDisplayList:
			push()
		case gbi.OpVertex:
			current = append(current, command{offset, cmd})
			loaded.load(cmd.VertexLoad())
		case gbi.OpTri1:
			tri := cmd.Triangle()
			if tri.Repeats() {
				result.Overrides[offset] = gbi.NoOp()
				result.Degenerate++
				return nil
			}

			v, err := loaded.read(buf, offset, tri)
			if err != nil {
				return err
			}
			if gbi.Degenerate(v[0], v[1], v[2]) {
				result.Overrides[offset] = gbi.NoOp()
				result.Degenerate++
				return nil
			}

			current = append(current, command{offset, cmd})
		default:
			push()
		}
		return nil
	})

	return all, err
}

// merge lets a vertex load absorb the triangles of the load that follows it
// when the two read contiguous vertex data. Absorbed triangles move up one
// command, and the slot freed at the end of them either reloads whatever
// vertices later triangles still need or becomes a no-op.
//
// carried is set when triangles after the run draw from the vertex buffer
// the run leaves behind. The final load of such a run is kept as is.
func merge(run []command, carried bool) int {
	var (
		merged      int
		last        = -1
		vertexPtr   uint32
		vertexCount int
	)

	final := -1
	if carried {
		for i, c := range run {
			if c.cmd.Op() == gbi.OpVertex {
				final = i
			}
		}
	}

	for i := 0; i < len(run); i++ {
		if run[i].cmd.Op() != gbi.OpVertex {
			continue
		}

		load := run[i].cmd.VertexLoad()
		loadedPtr := gbi.Offset(load.Address)
		loadedCount := load.Length / gbi.VertexSize

		newPtr, newCount, newIndex := loadedPtr, loadedCount, i

		contiguous := loadedPtr == vertexPtr+uint32(vertexCount*gbi.VertexSize)
		// Only loads into slot zero can be renumbered.
		zeroBased := load.First == 0 && last >= 0 && run[last].cmd.VertexLoad().First == 0
		if zeroBased && i != final && vertexCount > 0 && contiguous && vertexCount <= MAX_MERGE_BASE {
			perfect := false
			j := i + 1
		lookahead:
			for ; j < len(run); j++ {
				switch run[j].cmd.Op() {
				case gbi.OpTri1:
					if vertexCount+run[j].cmd.Triangle().Max() >= VERTEX_SLOTS {
						break lookahead
					}
				case gbi.OpVertex:
					perfect = true
					break lookahead
				}
			}
			j--

			for k := i + 1; k <= j; k++ {
				if run[k].cmd.Op() != gbi.OpTri1 {
					continue
				}

				tri := run[k].cmd.Triangle()
				if newPtr != vertexPtr {
					newPtr = vertexPtr
					newCount = 0
					newIndex = last
				}
				newCount = max(newCount, vertexCount+1+tri.Max())

				run[k-1].cmd = gbi.Tri1(
					vertexCount+tri.V[0],
					vertexCount+tri.V[1],
					vertexCount+tri.V[2],
					tri.Flag,
				)
				merged++
			}

			if j > i {
				offset := VERTEX_SLOTS
				for k := j + 1; k < len(run); k++ {
					op := run[k].cmd.Op()
					if op == gbi.OpVertex {
						break
					}
					if op == gbi.OpTri1 {
						offset = min(offset, run[k].cmd.Triangle().Min())
					}
				}

				for k := j + 1; k < len(run); k++ {
					op := run[k].cmd.Op()
					if op == gbi.OpVertex {
						break
					}
					if op == gbi.OpTri1 {
						tri := run[k].cmd.Triangle()
						run[k].cmd = gbi.Tri1(tri.V[0]-offset, tri.V[1]-offset, tri.V[2]-offset, tri.Flag)
					}
				}
				offset &= 0xF

				remaining := loadedCount - offset
				trailing := j+1 < len(run) && run[j+1].cmd.Op() == gbi.OpTri1
				if perfect || !trailing || remaining <= 0 {
					run[j].cmd = gbi.NoOp()
				} else {
					run[j].cmd = gbi.Vertex(
						gbi.AreaPointer(loadedPtr+uint32(offset*gbi.VertexSize)),
						remaining,
						0,
					)
				}

				run[last].cmd = gbi.Vertex(gbi.AreaPointer(newPtr), newCount, 0)
			}
		}

		vertexPtr = newPtr
		vertexCount = newCount
		last = newIndex
	}

	return merged
}

// carries reports whether the run after all[i] starts with triangles, which
// then read the vertices all[i] loaded. The vertex buffer survives the state
// commands between runs.
func carries(all [][]command, i int) bool {
	return i+1 < len(all) && all[i+1][0].cmd.Op() == gbi.OpTri1
}

// verify checks every triangle against the vertex load before it.
func verify(runs [][]command) error {
	low, high := 0, 0
	for _, run := range runs {
		for _, c := range run {
			switch c.cmd.Op() {
			case gbi.OpVertex:
				load := c.cmd.VertexLoad()
				low = load.First
				high = load.Length/gbi.VertexSize + low
			case gbi.OpTri1:
				for _, v := range c.cmd.Triangle().V {
					if v < low || v >= high {
						return fmt.Errorf(
							"%w: triangle at %06X uses slot %d outside %d..%d",
							ErrBadVertexLoad,
							c.offset,
							v,
							low,
							high-1,
						)
					}
				}
			}
		}
	}
	return nil
}

// Optimize rewrites the geometry of the display list at entry. The buffer
// is not modified; the result holds the replacement commands.
func Optimize(buf []byte, entry uint32) (*Result, error) {
	result := &Result{
		Overrides: make(map[uint32]gbi.Command),
	}

	all, err := runs(buf, entry, result)
	if err != nil {
		return nil, err
	}

	for i, run := range all {
		result.Merged += merge(run, carries(all, i))
	}

	if err := verify(all); err != nil {
		return nil, err
	}

	for _, run := range all {
		for _, c := range run {
			result.Overrides[c.offset] = c.cmd
		}
	}

	return result, nil
}
