package material

import (
	"fmt"
	"math"

	"github.com/cfoust/f3dopt/pkg/gbi"
)

const (
	// BOUNDS_VERTICES is the number of corners in a bounding box block.
	BOUNDS_VERTICES = 8
	// DEFAULT_MIN_VERTEX_LOADS is how many vertex loads must pass between
	// two cull tests of the same material.
	DEFAULT_MIN_VERTEX_LOADS = 20
)

// AABB is an axis aligned bounding box in model space.
type AABB struct {
	Min, Max [3]int16
}

func emptyAABB() AABB {
	return AABB{
		Min: [3]int16{math.MaxInt16, math.MaxInt16, math.MaxInt16},
		Max: [3]int16{math.MinInt16, math.MinInt16, math.MinInt16},
	}
}

func (b *AABB) add(v gbi.Vtx) {
	for i, c := range [3]int16{v.X, v.Y, v.Z} {
		b.Min[i] = min(b.Min[i], c)
		b.Max[i] = max(b.Max[i], c)
	}
}

// Volume returns the product of the three extents.
func (b AABB) Volume() uint64 {
	volume := uint64(1)
	for i := range b.Min {
		if b.Max[i] < b.Min[i] {
			return 0
		}
		volume *= uint64(int32(b.Max[i]) - int32(b.Min[i]))
	}
	return volume
}

// Corners returns the eight corners of the box. Corner x*4+y*2+z takes
// the maximum on every axis whose bit is set.
func (b AABB) Corners() []gbi.Vtx {
	pick := func(axis, bit int) int16 {
		if bit == 1 {
			return b.Max[axis]
		}
		return b.Min[axis]
	}

	corners := make([]gbi.Vtx, 0, BOUNDS_VERTICES)
	for x := 0; x <= 1; x++ {
		for y := 0; y <= 1; y++ {
			for z := 0; z <= 1; z++ {
				corners = append(corners, gbi.Vtx{
					X: pick(0, x),
					Y: pick(1, y),
					Z: pick(2, z),
				})
			}
		}
	}
	return corners
}

type checkpoint struct {
	// index of the vertex load within the material body
	index  int
	bounds AABB
}

// suffixBounds walks a material body backwards. For every vertex load it
// returns the bounds of everything drawn from that load onwards.
func suffixBounds(arena []byte, body []gbi.Command) ([]checkpoint, error) {
	var (
		points  []checkpoint
		running = emptyAABB()
	)

	for i := len(body) - 1; i >= 0; i-- {
		cmd := body[i]
		if cmd.Op() != gbi.OpVertex {
			continue
		}

		load := cmd.VertexLoad()
		vertices, err := gbi.ReadVertices(arena, gbi.Offset(load.Address), load.Count)
		if err != nil {
			return nil, fmt.Errorf("bounds: %w", err)
		}
		for _, v := range vertices {
			running.add(v)
		}

		points = append(points, checkpoint{index: i, bounds: running})
	}

	// Back to list order
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}

// accept picks which vertex loads get a cull test. A load qualifies when
// at least minLoads loads have passed since the last accepted one and its
// volume is less than half of that one's.
func accept(points []checkpoint, minLoads int) []checkpoint {
	if minLoads < 1 {
		minLoads = 1
	}

	var (
		accepted []checkpoint
		previous uint64 = math.MaxUint64
		skip     int
	)
	for _, point := range points {
		if skip > 0 {
			skip--
			continue
		}

		volume := point.bounds.Volume()
		if previous != math.MaxUint64 && 2*volume >= previous {
			continue
		}

		accepted = append(accepted, point)
		previous = volume
		skip = minLoads - 1
	}
	return accepted
}
