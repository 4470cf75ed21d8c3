package compact

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/cfoust/f3dopt/pkg/gbi"
	"github.com/cfoust/f3dopt/pkg/scan"
	"github.com/cfoust/f3dopt/pkg/texture"
	"github.com/cfoust/f3dopt/pkg/uvfix"

	"github.com/repeale/fp-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomBuffer(size int) []byte {
	rng := rand.New(rand.NewSource(1))
	buf := make([]byte, size)
	rng.Read(buf)
	return buf
}

func TestRelocationTotality(t *testing.T) {
	buf := randomBuffer(0x400)
	loads := scan.Merge([]scan.Descriptor{
		{Pointer: 0x010, Length: 0x30, Kind: scan.KindLight},
		{Pointer: 0x100, Length: 0x18, Kind: scan.KindLight},
		{Pointer: 0x200, Length: 0x100, Kind: scan.KindVertex},
		{Pointer: 0x3F0, Length: 0x08, Kind: scan.KindLight},
	})

	result := Compact(buf, loads, Options{})
	arena := result.Arena.Bytes()
	assert.Equal(t, 0, len(arena)%0x10)

	for _, load := range loads {
		for i := 0; i < load.Length; i++ {
			old := load.Pointer + uint32(i)
			new, ok := result.Table.Lookup(old)
			require.True(t, ok, "%06X", old)
			assert.Equal(t, buf[old], arena[new], "%06X", old)
		}
	}

	for _, mapping := range result.Table.Mappings() {
		assert.Equal(t, uint32(0), mapping.New%0x10)
	}
}

func TestDeduplication(t *testing.T) {
	buf := make([]byte, 0x100)
	copy(buf[0x00:], bytes.Repeat([]byte{7}, 0x20))
	copy(buf[0x80:], bytes.Repeat([]byte{7}, 0x20))
	copy(buf[0xC0:], bytes.Repeat([]byte{9}, 0x20))

	loads := []scan.Descriptor{
		{Pointer: 0x00, Length: 0x20, Kind: scan.KindLight},
		{Pointer: 0x80, Length: 0x20, Kind: scan.KindLight},
		{Pointer: 0xC0, Length: 0x20, Kind: scan.KindLight},
	}

	result := Compact(buf, loads, Options{})
	assert.Equal(t, 2, result.Stats.Copied)
	assert.Equal(t, 1, result.Stats.Deduplicated)
	assert.Equal(t, uint32(0x40), result.Arena.Len())

	a, _ := result.Table.Lookup(0x00)
	b, _ := result.Table.Lookup(0x80)
	c, _ := result.Table.Lookup(0xC0)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestIdempotent(t *testing.T) {
	buf := randomBuffer(0x300)
	loads := []scan.Descriptor{
		{Pointer: 0x000, Length: 0x40, Kind: scan.KindLight},
		{Pointer: 0x100, Length: 0x20, Kind: scan.KindLight},
		{Pointer: 0x200, Length: 0x40, Kind: scan.KindLight},
	}

	first := Compact(buf, loads, Options{})

	var again []scan.Descriptor
	for _, mapping := range first.Table.Mappings() {
		again = append(again, scan.Descriptor{
			Pointer: mapping.New,
			Length:  mapping.Length,
			Kind:    scan.KindLight,
		})
	}

	second := Compact(first.Arena.Bytes(), scan.Merge(again), Options{})
	assert.Equal(t, first.Arena.Bytes(), second.Arena.Bytes())
}

func TestPaintingReserve(t *testing.T) {
	buf := randomBuffer(0x800)
	loads := []scan.Descriptor{
		{Pointer: 0x000, Length: 0x20, Kind: scan.KindLight},
	}

	result := Compact(buf, loads, Options{
		Painting: opt.Some(Reserve{Base: 0x0E000400, Count: 2}),
	})

	new, ok := result.Table.Lookup(0x400)
	require.True(t, ok)
	assert.Equal(t, uint32(0), new)

	new, ok = result.Table.Lookup(0x4FF)
	require.True(t, ok)
	assert.Equal(t, uint32(0xFF), new)
	assert.Equal(t, make([]byte, 0x100), result.Arena.Slice(0, 0x100))

	new, ok = result.Table.Lookup(0x000)
	require.True(t, ok)
	assert.Equal(t, uint32(0x100), new)
}

func vertexLoad(pointer uint32, count int) scan.Descriptor {
	return scan.Descriptor{
		Pointer: pointer,
		Length:  count * gbi.VertexSize,
		Kind:    scan.KindVertex,
		Texture: scan.TextureRef{Set: true, Image: 0x800},
	}
}

func TestUVFix(t *testing.T) {
	vertices := []gbi.Vtx{
		{U: -16, V: -16},
		{U: 1023, V: -16},
		{U: 1023, V: 1023},
	}
	buf := gbi.EncodeVertices(vertices)

	result := Compact(buf, []scan.Descriptor{vertexLoad(0, 3)}, Options{})
	assert.Equal(t, 1, result.Stats.UVFixed)
	assert.Equal(t, uvfix.Clamp{S: true, T: true}, result.Clamp.Get(0x800))

	fixed, err := gbi.ReadVertices(result.Arena.Bytes(), 0, 3)
	require.NoError(t, err)
	assert.Equal(t, int16(0), fixed[0].U)
	assert.Equal(t, int16(992), fixed[2].V)

	// The source is never modified
	assert.Equal(t, gbi.EncodeVertices(vertices), buf)

	result = Compact(buf, []scan.Descriptor{vertexLoad(0, 3)}, Options{DisableUVFix: true})
	assert.Equal(t, 0, result.Stats.UVFixed)
	assert.Equal(t, uvfix.Clamp{}, result.Clamp.Get(0x800))
	assert.Equal(t, buf, result.Arena.Slice(0, len(buf)))
}

func TestCutout(t *testing.T) {
	// 2x2 RGBA16 with one opaque texel
	page := []byte{0x42, 0x11, 0x00, 0x00, 0x12, 0x34, 0x00, 0x00}
	load := scan.Descriptor{
		Pointer:      0,
		Length:       len(page),
		Kind:         scan.KindTexture,
		Format:       gbi.FormatRGBA,
		Size:         gbi.Size16b,
		Width:        2,
		Height:       2,
		BytesPerLine: 4,
	}

	result := Compact(page, []scan.Descriptor{load}, Options{})
	assert.Equal(t, 1, result.Stats.CutoutFixed)
	assert.Equal(t,
		[]byte{0x42, 0x11, 0x42, 0x10, 0x42, 0x10, 0x42, 0x10},
		result.Arena.Slice(0, len(page)),
	)

	hash := texture.Hash(texture.RiceCRC32(page, 2, 2, gbi.Size16b, 4))
	result = Compact(page, []scan.Descriptor{load}, Options{
		CutoutBlacklist: map[string]struct{}{hash: {}},
	})
	assert.Equal(t, 0, result.Stats.CutoutFixed)
	assert.Equal(t, page, result.Arena.Slice(0, len(page)))
}

func TestIncomplete(t *testing.T) {
	result := Compact([]byte{1, 2}, []scan.Descriptor{
		{Pointer: 0, Length: 4, Kind: scan.KindLight},
	}, Options{})
	assert.Equal(t, 1, result.Stats.Incomplete)
	assert.Equal(t, []byte{1, 2, 0, 0}, result.Arena.Slice(0, 4))
}
