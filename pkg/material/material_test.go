package material

import (
	"errors"
	"testing"

	"github.com/cfoust/f3dopt/pkg/gbi"
	"github.com/cfoust/f3dopt/pkg/reloc"
	"github.com/cfoust/f3dopt/pkg/scan"
	"github.com/cfoust/f3dopt/pkg/uvfix"

	"github.com/repeale/fp-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	vertexOld  = 0x400
	textureOld = 0x800
)

var (
	// Relocated offsets, see newFixture
	textureNew uint32 = 0x00
	vertexNew  uint32 = 0x20
	boundsNew  uint32 = 0x60
)

var tile = gbi.TileDescriptor{
	Format: gbi.FormatRGBA,
	Size:   gbi.Size16b,
	Line:   8,
	MaskS:  5,
	MaskT:  5,
}

type fixture struct {
	buf   []byte
	arena *reloc.Arena
	table *reloc.Table
	clamp uvfix.ClampTable
}

func newFixture(cmds ...gbi.Command) *fixture {
	buf := make([]byte, 0x900)
	for i, cmd := range cmds {
		copy(buf[i*gbi.CommandSize:], cmd[:])
	}
	vertices := []gbi.Vtx{
		{X: -10, Y: 0, Z: -5},
		{X: 10, Y: 20, Z: -5},
		{X: 10, Y: 0, Z: 5},
		{X: -10, Y: 20, Z: 5},
	}
	copy(buf[vertexOld:], gbi.EncodeVertices(vertices))

	f := &fixture{
		buf:   buf,
		arena: reloc.NewArena(),
		table: reloc.NewTable(),
		clamp: uvfix.ClampTable{},
	}
	f.table.Add(textureOld, f.arena.AppendBlock(make([]byte, 32)), 32)
	f.table.Add(vertexOld, f.arena.AppendBlock(buf[vertexOld:vertexOld+64]), 64)
	return f
}

func (f *fixture) emit(opts Options) (*Emitter, uint32, error) {
	emitter := NewEmitter(f.arena, f.table, f.clamp, opts)
	offset, err := emitter.List(f.buf, 0, nil)
	return emitter, offset, err
}

func listing(t *testing.T, buf []byte, offset uint32) []gbi.Command {
	var cmds []gbi.Command
	err := gbi.Walk(buf, offset, func(_ uint32, cmd gbi.Command) error {
		cmds = append(cmds, cmd)
		return nil
	})
	require.NoError(t, err)
	return cmds
}

func TestEmit(t *testing.T) {
	f := newFixture(
		gbi.SetTextureImage(gbi.FormatRGBA, gbi.Size16b, 1, gbi.AreaPointer(textureOld)),
		gbi.SetTile(tile),
		gbi.SetGeometryMode(0x4),
		gbi.SetGeometryMode(0x4),
		gbi.Vertex(gbi.AreaPointer(vertexOld), 4, 0),
		gbi.NoOp(),
		gbi.Tri1(0, 1, 2, 0),
		gbi.Tri1(0, 2, 3, 0),
		gbi.SetGeometryMode(0x4),
		gbi.EndDisplayList(),
	)
	f.clamp[textureOld] = uvfix.Clamp{S: true}

	emitter, offset, err := f.emit(Options{})
	require.NoError(t, err)

	materialOffset := boundsNew + BOUNDS_VERTICES*gbi.VertexSize
	assert.Equal(t, []gbi.Command{
		gbi.Vertex(gbi.AreaPointer(boundsNew), 8, 0),
		gbi.CullDisplayList(0, 7),
		gbi.Vertex(gbi.AreaPointer(vertexNew), 4, 0),
		gbi.Tri1(0, 1, 2, 0),
		gbi.Tri1(0, 2, 3, 0),
		gbi.EndDisplayList(),
	}, listing(t, f.arena.Bytes(), materialOffset))

	assert.Equal(t, materialOffset+6*gbi.CommandSize, offset)
	assert.Equal(t, []gbi.Command{
		gbi.SetTextureImage(gbi.FormatRGBA, gbi.Size16b, 1, gbi.AreaPointer(textureNew)),
		gbi.SetTile(tile).WithClamp(true, false),
		gbi.SetGeometryMode(0x4),
		gbi.DisplayList(gbi.AreaPointer(materialOffset)),
		gbi.SetGeometryMode(0x4),
		gbi.EndDisplayList(),
	}, listing(t, f.arena.Bytes(), offset))

	corners, err := gbi.ReadVertices(f.arena.Bytes(), boundsNew, BOUNDS_VERTICES)
	require.NoError(t, err)
	assert.Equal(t, gbi.Vtx{X: -10, Y: 0, Z: -5}, corners[0])
	assert.Equal(t, gbi.Vtx{X: 10, Y: 20, Z: 5}, corners[7])
	assert.Equal(t, gbi.Vtx{X: 10, Y: 0, Z: -5}, corners[4])

	stats := emitter.Stats()
	assert.Equal(t, 1, stats.Lists)
	assert.Equal(t, 1, stats.Materials)
	assert.Equal(t, 1, stats.CullTests)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 9, stats.CommandsIn)
	assert.Equal(t, 12, stats.CommandsOut)
}

func TestEnvAlphaPurge(t *testing.T) {
	f := newFixture(
		gbi.SetEnvColor(0, 0, 0, 0),
		gbi.SetTextureImage(gbi.FormatRGBA, gbi.Size16b, 1, gbi.AreaPointer(0x880)),
		gbi.Sync(gbi.OpLoadSync),
		gbi.LoadBlock(7, 0, 0, 1023, 256),
		gbi.Vertex(gbi.AreaPointer(0x300), 4, 0),
		gbi.Tri1(0, 1, 2, 0),
		gbi.SetEnvColor(255, 255, 255, 255),
		gbi.EndDisplayList(),
	)

	emitter, offset, err := f.emit(Options{})
	require.NoError(t, err)
	assert.Equal(t, []gbi.Command{
		gbi.SetEnvColor(0, 0, 0, 0),
		gbi.SetEnvColor(255, 255, 255, 255),
		gbi.EndDisplayList(),
	}, listing(t, f.arena.Bytes(), offset))
	assert.Equal(t, 0, emitter.Stats().Materials)
	assert.Equal(t, 5, emitter.Stats().Skipped)
}

func TestPaintingPurge(t *testing.T) {
	f := newFixture(
		gbi.SetTextureImage(gbi.FormatRGBA, gbi.Size16b, 1, gbi.AreaPointer(0x880)),
		gbi.Vertex(gbi.AreaPointer(0x300), 4, 0),
		gbi.Tri1(0, 1, 2, 0),
		gbi.SetTextureImage(gbi.FormatRGBA, gbi.Size16b, 1, gbi.AreaPointer(textureOld)),
		gbi.Vertex(gbi.AreaPointer(vertexOld), 4, 0),
		gbi.Tri1(0, 1, 2, 0),
		gbi.EndDisplayList(),
	)

	_, offset, err := f.emit(Options{
		Painting: opt.Some(Painting{Base: gbi.AreaPointer(0x880)}),
	})
	require.NoError(t, err)

	cmds := listing(t, f.arena.Bytes(), offset)
	require.Len(t, cmds, 3)
	assert.Equal(t, gbi.SetTextureImage(gbi.FormatRGBA, gbi.Size16b, 1, gbi.AreaPointer(textureNew)), cmds[0])
	assert.Equal(t, gbi.OpDisplayList, cmds[1].Op())
	assert.Equal(t, gbi.EndDisplayList(), cmds[2])
}

func TestPaintingPurges(t *testing.T) {
	painting := Painting{
		Base:     gbi.AreaPointer(0x100),
		Textures: []uint32{gbi.AreaPointer(0x200), gbi.AreaPointer(0x300)},
		Keep:     []uint32{gbi.AreaPointer(0x300)},
	}
	assert.True(t, painting.Purges(0x100))
	assert.True(t, painting.Purges(0x200))
	assert.False(t, painting.Purges(0x300))
	assert.False(t, painting.Purges(0x400))
}

func TestLightsInline(t *testing.T) {
	f := newFixture(
		gbi.MoveMem(16, 0x86, gbi.AreaPointer(vertexOld+0x10)),
		gbi.SetGeometryMode(0x4),
		gbi.EndDisplayList(),
	)

	emitter, offset, err := f.emit(Options{})
	require.NoError(t, err)
	assert.Equal(t, []gbi.Command{
		gbi.MoveMem(16, 0x86, gbi.AreaPointer(vertexNew+0x10)),
		gbi.SetGeometryMode(0x4),
		gbi.EndDisplayList(),
	}, listing(t, f.arena.Bytes(), offset))
	assert.Equal(t, 0, emitter.Stats().Materials)
}

func TestUnmapped(t *testing.T) {
	f := newFixture(
		gbi.Vertex(gbi.AreaPointer(0x500), 4, 0),
		gbi.Tri1(0, 1, 2, 0),
		gbi.EndDisplayList(),
	)

	_, _, err := f.emit(Options{})
	require.Error(t, err)

	var unmapped *reloc.UnmappedError
	require.True(t, errors.As(err, &unmapped))
	assert.Equal(t, "vertex", unmapped.What)
	assert.Equal(t, uint32(0x500), unmapped.Pointer)
}

func TestBranch(t *testing.T) {
	f := newFixture(
		gbi.DisplayList(gbi.AreaPointer(0x100)),
		gbi.EndDisplayList(),
	)

	_, _, err := f.emit(Options{})
	assert.ErrorIs(t, err, scan.ErrBranch)
}

func box(volume int16) checkpoint {
	return checkpoint{bounds: AABB{Max: [3]int16{volume, 1, 1}}}
}

func TestAccept(t *testing.T) {
	points := []checkpoint{box(1000), box(900), box(400), box(300), box(100)}
	for i := range points {
		points[i].index = i
	}

	var indices []int
	for _, point := range accept(points, 2) {
		indices = append(indices, point.index)
	}
	assert.Equal(t, []int{0, 2, 4}, indices)

	indices = nil
	for _, point := range accept(points, 1) {
		indices = append(indices, point.index)
	}
	assert.Equal(t, []int{0, 2, 4}, indices)

	assert.Len(t, accept(points, DEFAULT_MIN_VERTEX_LOADS), 1)
}

func TestSuffixBounds(t *testing.T) {
	arena := gbi.EncodeVertices([]gbi.Vtx{
		{X: -100, Y: -100, Z: -100},
		{X: 1, Y: 2, Z: 3},
		{X: 4, Y: 5, Z: 6},
	})
	body := []gbi.Command{
		gbi.Vertex(gbi.AreaPointer(0x00), 1, 0),
		gbi.Tri1(0, 0, 0, 0),
		gbi.Vertex(gbi.AreaPointer(0x10), 2, 0),
		gbi.Tri1(0, 1, 1, 0),
	}

	points, err := suffixBounds(arena, body)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, 0, points[0].index)
	assert.Equal(t, AABB{Min: [3]int16{-100, -100, -100}, Max: [3]int16{4, 5, 6}}, points[0].bounds)
	assert.Equal(t, 2, points[1].index)
	assert.Equal(t, AABB{Min: [3]int16{1, 2, 3}, Max: [3]int16{4, 5, 6}}, points[1].bounds)
	assert.Equal(t, uint64(27), points[1].bounds.Volume())

	_, err = suffixBounds(arena, []gbi.Command{gbi.Vertex(gbi.AreaPointer(0x20), 4, 0)})
	assert.Error(t, err)
}

func TestVolume(t *testing.T) {
	assert.Equal(t, uint64(0), emptyAABB().Volume())
	flat := AABB{Min: [3]int16{-5, 0, -5}, Max: [3]int16{5, 0, 5}}
	assert.Equal(t, uint64(0), flat.Volume())
	wide := AABB{Min: [3]int16{-32768, -32768, -32768}, Max: [3]int16{32767, 32767, 32767}}
	assert.Equal(t, uint64(65535*65535*65535), wide.Volume())
}

func TestVertexLoadSpansDeduplicatedBlock(t *testing.T) {
	f := newFixture(
		gbi.Vertex(gbi.AreaPointer(vertexOld), 8, 0),
		gbi.Tri1(0, 1, 2, 0),
		gbi.Tri1(4, 5, 6, 0),
		gbi.EndDisplayList(),
	)
	// The next four vertices repeat the first four and share their block.
	f.table.Add(vertexOld+0x40, vertexNew, 0x40)

	_, _, err := f.emit(Options{})
	var unmapped *reloc.UnmappedError
	require.True(t, errors.As(err, &unmapped))
	assert.Equal(t, "vertex", unmapped.What)
	assert.Equal(t, uint32(vertexOld+0x40), unmapped.Pointer)
}

func TestVertexLoadSpansAdjacentBlocks(t *testing.T) {
	f := newFixture(
		gbi.Vertex(gbi.AreaPointer(vertexOld), 8, 0),
		gbi.Tri1(0, 1, 2, 0),
		gbi.Tri1(4, 5, 6, 0),
		gbi.EndDisplayList(),
	)
	copy(f.buf[vertexOld+0x40:], f.buf[vertexOld:vertexOld+0x40])
	f.table.Add(vertexOld+0x40, f.arena.AppendBlock(f.buf[vertexOld+0x40:vertexOld+0x80]), 0x40)

	_, offset, err := f.emit(Options{})
	require.NoError(t, err)

	cmds := listing(t, f.arena.Bytes(), offset)
	require.Len(t, cmds, 2)
	body := gbi.Offset(cmds[0].W1())
	assert.Contains(t, listing(t, f.arena.Bytes(), body), gbi.Vertex(gbi.AreaPointer(vertexNew), 8, 0))
}
