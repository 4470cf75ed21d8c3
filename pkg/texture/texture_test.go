package texture

import (
	"encoding/binary"
	"testing"

	"github.com/cfoust/f3dopt/pkg/gbi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromBlock(t *testing.T) {
	// 32x32 RGBA16, as gsDPLoadTextureBlock emits it
	block := gbi.LoadBlock(7, 0, 0, 1023, CalculateDXT(32*2/8)).Block()
	dims, err := FromBlock(block, gbi.Size16b)
	require.NoError(t, err)
	assert.Equal(t, 32, dims.Width)
	assert.Equal(t, 32, dims.Height)
	assert.Equal(t, 2, dims.BytesPerTexel)
	assert.Equal(t, 2048, dims.Length)
	assert.Equal(t, uint32(64), dims.BytesPerLine(0))

	// 64x32 RGBA16
	block = gbi.LoadBlock(7, 0, 0, 2047, CalculateDXT(64*2/8)).Block()
	dims, err = FromBlock(block, gbi.Size16b)
	require.NoError(t, err)
	assert.Equal(t, 64, dims.Width)
	assert.Equal(t, 32, dims.Height)
	assert.Equal(t, uint32(128), dims.BytesPerLine(0))

	// 32x32 RGBA32
	block = gbi.LoadBlock(7, 0, 0, 1023, CalculateDXT(32*4/8)).Block()
	dims, err = FromBlock(block, gbi.Size32b)
	require.NoError(t, err)
	assert.Equal(t, 32, dims.Width)
	assert.Equal(t, 4096, dims.Length)
}

func TestFromBlockErrors(t *testing.T) {
	block := gbi.LoadBlock(7, 0, 0, 1023, 256).Block()
	_, err := FromBlock(block, gbi.Size8b)
	assert.ErrorIs(t, err, ErrUnsupportedSize)
	_, err = FromBlock(block, gbi.Size4b)
	assert.ErrorIs(t, err, ErrUnsupportedSize)

	_, err = FromBlock(gbi.LoadBlock(7, 0, 0, 1023, 0).Block(), gbi.Size16b)
	assert.ErrorIs(t, err, ErrDimensions)
	_, err = FromBlock(gbi.LoadBlock(7, 0, 0, 1023, 1).Block(), gbi.Size16b)
	assert.ErrorIs(t, err, ErrDimensions)

	// Fewer texels than one row
	_, err = FromBlock(gbi.LoadBlock(7, 0, 0, 3, CalculateDXT(32*2/8)).Block(), gbi.Size16b)
	assert.ErrorIs(t, err, ErrDimensions)
}

func TestLineStride(t *testing.T) {
	dims := Dimensions{Width: 32, Height: 32, BytesPerTexel: 2}
	assert.Equal(t, uint32(24), dims.BytesPerLine(3))

	dims.dxt = 1
	assert.Equal(t, uint32(8), dims.BytesPerLine(3))

	assert.Equal(t, uint32(0), Dimensions{}.BytesPerLine(3))
}

func TestReverseDXT(t *testing.T) {
	assert.Equal(t, uint32(1), ReverseDXT(0x800, 8, 2))
	assert.Equal(t, uint32(16), ReverseDXT(CalculateDXT(16)-1, 64, 2))
	for _, words := range []uint32{2, 4, 8, 16} {
		width := words * 8 / 2
		got := ReverseDXT(CalculateDXT(words)-1, width, 2)
		assert.Equal(t, words, got, "width %d", width)
	}
}

func TestTxl2Words(t *testing.T) {
	assert.Equal(t, uint32(1), Txl2Words(8, 0))
	assert.Equal(t, uint32(2), Txl2Words(32, 0))
	assert.Equal(t, uint32(8), Txl2Words(32, 2))
	assert.Equal(t, uint32(1), Txl2Words(1, 2))
	assert.Equal(t, uint32(1), CalculateDXT(0))
	assert.Equal(t, uint32(256), CalculateDXT(8))
}

func pack(pixels ...uint16) []byte {
	out := make([]byte, len(pixels)*2)
	for i, pixel := range pixels {
		binary.BigEndian.PutUint16(out[i*2:], pixel)
	}
	return out
}

func TestFixCutout(t *testing.T) {
	data := pack(0x4211, 0x0000, 0x1234, 0x0000)
	FixCutout(data, 2, 2)
	assert.Equal(t, pack(0x4211, 0x4210, 0x4210, 0x4210), data)

	// Fully opaque textures are untouched
	data = pack(0x4211, 0x0843, 0xFFFF, 0x0001)
	FixCutout(data, 2, 2)
	assert.Equal(t, pack(0x4211, 0x0843, 0xFFFF, 0x0001), data)
}

func TestRiceCRC32(t *testing.T) {
	assert.Equal(t, uint32(2), RiceCRC32([]byte{1, 0, 0, 0}, 2, 1, gbi.Size16b, 4))
	assert.Equal(t, "00000002", Hash(2))

	// Truncated input stops at the end of the buffer
	assert.Equal(t, uint32(1), RiceCRC32([]byte{1, 0, 0, 0}, 2, 2, gbi.Size16b, 4))
}
