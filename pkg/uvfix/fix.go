// Package uvfix snaps the texture coordinates of vertex blocks onto texture
// period boundaries so filtered textures do not bleed across their edges,
// and decides which textures can be clamped instead of wrapped.
package uvfix

import (
	"math"

	"github.com/cfoust/f3dopt/pkg/gbi"
)

const (
	// UV_SNAP is one texture period in S10.5 coordinates for a 32 texel
	// texture.
	UV_SNAP = 1024
	// Blocks spanning more than this wrap too often to be snapped.
	MAX_SIZE   = 4096
	MARGIN     = 128
	HALF_PIXEL = 16
	U_OFFSET   = -16
	V_OFFSET   = -16
)

// Clamp says which axes of a texture may be clamped.
type Clamp struct {
	S bool
	T bool
}

// Bounds is an inclusive coordinate range.
type Bounds struct {
	Min int
	Max int
}

// Result describes what Fix did to a block.
type Result struct {
	// Applied is false when the block spans less than a period on either
	// axis and was left alone.
	Applied bool
	U       Bounds
	V       Bounds
	Clamp   Clamp
}

func wrap(x int) int {
	dist := (x + 65536) % UV_SNAP
	if dist > UV_SNAP/2 {
		dist -= UV_SNAP
	}
	return dist
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// snap moves bounds within MARGIN of a period boundary onto it, shifted
// inwards by half a texel.
func snap(b Bounds, offset int) Bounds {
	out := b
	if b.Max-b.Min >= MAX_SIZE {
		return out
	}

	if dist := wrap(b.Min); abs(dist) < MARGIN {
		out.Min = int(int16(b.Min - dist + HALF_PIXEL + offset))
	}
	if dist := wrap(b.Max); abs(dist) < MARGIN {
		out.Max = int(int16(b.Max - dist - HALF_PIXEL + offset))
	}
	return out
}

// fit forces bounds that cover exactly one period onto the first period.
// It reports whether they did.
func fit(b Bounds, doubled bool, offset int) (Bounds, bool) {
	periods := 1
	if doubled {
		periods = 2
	}

	span := UV_SNAP*periods - HALF_PIXEL*2
	end := span + HALF_PIXEL + offset
	if b.Max-b.Min == span {
		b = Bounds{Min: HALF_PIXEL + offset, Max: end}
	}

	return b, b.Min == HALF_PIXEL+offset && b.Max == end
}

func lerp(a, b, t float64) float64 {
	return a*(1.0-t) + b*t
}

func remap(value int16, from, to Bounds) int16 {
	t := (float64(value) - float64(from.Min)) / (float64(from.Max) - float64(from.Min))
	return int16(math.RoundToEven(lerp(float64(to.Min), float64(to.Max), t)))
}

func bounds(vertices []gbi.Vtx) (u, v Bounds) {
	u = Bounds{Min: math.MaxInt16, Max: math.MinInt16}
	v = u
	for _, vertex := range vertices {
		u.Min = min(u.Min, int(vertex.U))
		u.Max = max(u.Max, int(vertex.U))
		v.Min = min(v.Min, int(vertex.V))
		v.Max = max(v.Max, int(vertex.V))
	}
	return u, v
}

// Fix snaps the texture coordinates of a block of vertices in place. wide
// and tall mark textures twice the usual period on that axis.
func Fix(vertices []gbi.Vtx, wide, tall bool) Result {
	if len(vertices) == 0 {
		return Result{}
	}

	u, v := bounds(vertices)
	if !(u.Min < u.Max-(UV_SNAP-MARGIN*2) && v.Min < v.Max-(UV_SNAP-MARGIN*2)) {
		return Result{U: u, V: v}
	}

	newU := snap(u, U_OFFSET)
	newV := snap(v, V_OFFSET)

	result := Result{Applied: true}
	newU, result.Clamp.S = fit(newU, wide, U_OFFSET)
	newV, result.Clamp.T = fit(newV, tall, V_OFFSET)
	result.U = newU
	result.V = newV

	for i := range vertices {
		if u != newU {
			vertices[i].U = remap(vertices[i].U, u, newU)
		}
		if v != newV {
			vertices[i].V = remap(vertices[i].V, v, newV)
		}
	}

	return result
}

// Block decodes a vertex block, fixes it and re-encodes it. Blocks that are
// not a whole number of vertices are returned unchanged.
func Block(data []byte, wide, tall bool) ([]byte, Result) {
	if len(data) == 0 || len(data)%gbi.VertexSize != 0 {
		return data, Result{}
	}

	vertices, err := gbi.ReadVertices(data, 0, len(data)/gbi.VertexSize)
	if err != nil {
		return data, Result{}
	}

	result := Fix(vertices, wide, tall)
	if !result.Applied {
		return data, result
	}
	return gbi.EncodeVertices(vertices), result
}
