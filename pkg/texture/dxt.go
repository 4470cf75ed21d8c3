package texture

import (
	"errors"
	"fmt"

	"github.com/cfoust/f3dopt/pkg/gbi"

	"github.com/rs/zerolog/log"
)

var (
	ErrUnsupportedSize = errors.New("unsupported texel size for a block load")
	ErrDimensions      = errors.New("could not derive texture dimensions")
)

// dxtFrac is the number of fractional bits of a LoadBlock DXT.
const dxtFrac = 11

// Dimensions describes a texture recovered from the load that brought it
// into TMEM.
type Dimensions struct {
	Width         int
	Height        int
	BytesPerTexel int
	// Length is the number of bytes the load transfers.
	Length int
	// dxt is the stored DXT value minus one, kept until the line stride is
	// known.
	dxt uint32
}

// BytesPerTexel maps a size class to the number of bytes a block load moves
// per texel. Four and eight bit textures are loaded as 16 bit and never
// reach here.
func BytesPerTexel(size int) (int, error) {
	switch size {
	case gbi.Size16b:
		return 2, nil
	case gbi.Size32b:
		return 4, nil
	}
	return 0, fmt.Errorf("%w: size class %d", ErrUnsupportedSize, size)
}

// FromBlock derives the width and height of the texture a LoadBlock
// transfers.
func FromBlock(block gbi.Block, size int) (Dimensions, error) {
	bpt, err := BytesPerTexel(size)
	if err != nil {
		return Dimensions{}, err
	}

	length := block.Texels() * bpt
	if block.DXT < 2 {
		return Dimensions{}, fmt.Errorf("%w: dxt %d", ErrDimensions, block.DXT)
	}

	dxt := block.DXT - 1
	width := int((((1 << dxtFrac) - 1) * 8) / (dxt * uint32(bpt)))
	if width <= 0 {
		return Dimensions{}, fmt.Errorf("%w: dxt %d gives zero width", ErrDimensions, block.DXT)
	}

	height := length / width / bpt
	if height <= 0 {
		return Dimensions{}, fmt.Errorf(
			"%w: %d bytes is less than one %d texel row",
			ErrDimensions,
			length,
			width,
		)
	}

	return Dimensions{
		Width:         width,
		Height:        height,
		BytesPerTexel: bpt,
		Length:        length,
		dxt:           dxt,
	}, nil
}

// BytesPerLine returns the row stride of the texture. line is the line
// field of the SetTile describing the render tile, used when the DXT does
// not encode the stride.
func (d Dimensions) BytesPerLine(line int) uint32 {
	if d.Width <= 0 || d.Height <= 0 {
		return 0
	}

	dxt := d.dxt
	if dxt == 0 {
		return uint32(line) << 3
	}
	if dxt > 1 {
		dxt = ReverseDXT(dxt, uint32(d.Width), uint32(d.BytesPerTexel))
	}
	return dxt << 3
}

// Txl2Words returns the number of 64 bit words in one row of texels.
func Txl2Words(width, size uint32) uint32 {
	if size == 0 {
		return max(1, width/16)
	}
	return max(1, width*size/8)
}

// CalculateDXT returns the DXT value gbi.h would emit for a row of the
// given length in words.
func CalculateDXT(words uint32) uint32 {
	if words == 0 {
		return 1
	}
	return ((1 << dxtFrac) + words - 1) / words
}

// ReverseDXT recovers the row length in words from a DXT. Several row
// lengths share a DXT; when the texture width does not settle it the
// midpoint of the candidates is returned.
func ReverseDXT(val, width, size uint32) uint32 {
	if val == 0x800 {
		return 1
	}
	if val <= 1 {
		return val
	}

	low := ((1 << dxtFrac) - 1) / val
	if CalculateDXT(low) > val {
		low++
	}
	high := ((1 << dxtFrac) - 1) / (val - 1)

	if low == high {
		return low
	}

	words := Txl2Words(width, size)
	if words >= low && words <= high {
		return words
	}

	mid := (low + high) / 2
	log.Debug().
		Uint32("dxt", val).
		Uint32("low", low).
		Uint32("high", high).
		Uint32("width", width).
		Msgf("ambiguous dxt, using %d words", mid)
	return mid
}
