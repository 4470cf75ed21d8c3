package scan

import (
	"errors"
	"fmt"

	"github.com/cfoust/f3dopt/pkg/gbi"
	"github.com/cfoust/f3dopt/pkg/texture"

	"github.com/repeale/fp-go/option"
)

var (
	// ErrBranch is returned for display lists that call other display lists.
	ErrBranch = errors.New("branching display lists are not supported")
	// ErrSegment is returned for texture images outside the area segment.
	ErrSegment = errors.New("texture image is not in segment 0x0E")
	// ErrNoImage is returned for a block load with no texture image set.
	ErrNoImage = errors.New("block load without a texture image")
)

// wideTexels is the largest lower-right tile coordinate (10.2 fixed point)
// of a texture no more than 32 texels across.
const wideTexels = 124

type Options struct {
	// Painting is the offset of the painting texture, which is never
	// scanned as it is replaced at runtime.
	Painting opt.Option[uint32]
}

type pending struct {
	load Descriptor
	dims texture.Dimensions
}

type scanner struct {
	opts Options

	image    gbi.TextureImage
	imageSet bool
	ref      TextureRef
	line     int

	pending *pending
	loads   []Descriptor
	seen    map[Descriptor]struct{}
}

func (s *scanner) flush() {
	p := s.pending
	if p == nil || p.load.Length <= 0 {
		s.pending = nil
		return
	}
	s.pending = nil

	load := p.load
	if load.Kind == KindTexture {
		load.BytesPerLine = p.dims.BytesPerLine(s.line)
	}
	s.line = 0

	if load.Kind == KindTexture && opt.IsSome(s.opts.Painting) && load.Pointer == s.opts.Painting.Value {
		return
	}

	if _, ok := s.seen[load]; ok {
		return
	}
	s.seen[load] = struct{}{}
	s.loads = append(s.loads, load)
}

func (s *scanner) visit(offset uint32, cmd gbi.Command) error {
	switch cmd.Op() {
	case gbi.OpDisplayList:
		return fmt.Errorf("%w: gsSPDisplayList at %06X", ErrBranch, offset)
	case gbi.OpEndDisplayList:
		s.flush()
	case gbi.OpLoadBlock:
		s.flush()
		if !s.imageSet {
			return fmt.Errorf("%w at %06X", ErrNoImage, offset)
		}

		dims, err := texture.FromBlock(cmd.Block(), s.image.Size)
		if err != nil {
			return fmt.Errorf("load block at %06X: %w", offset, err)
		}

		s.pending = &pending{
			load: Descriptor{
				Pointer: gbi.Offset(s.image.Address),
				Length:  dims.Length,
				Kind:    KindTexture,
				Format:  s.image.Format,
				Size:    s.image.Size,
				Width:   dims.Width,
				Height:  dims.Height,
			},
			dims: dims,
		}
	case gbi.OpSetEnvColor:
		s.ref.Epoch++
	case gbi.OpSetTextureImage:
		image := cmd.TextureImage()
		if gbi.Segment(image.Address) != gbi.SegmentArea {
			return fmt.Errorf("%w: %08X at %06X", ErrSegment, image.Address, offset)
		}
		s.image = image
		s.imageSet = true
		s.ref = TextureRef{
			Set:   true,
			Image: gbi.Offset(image.Address),
		}
	case gbi.OpSetTileSize:
		size := cmd.TileSize()
		if size.LRS > wideTexels {
			s.ref.Wide = true
		}
		if size.LRT > wideTexels {
			s.ref.Tall = true
		}
	case gbi.OpVertex:
		s.flush()
		load := cmd.VertexLoad()
		s.pending = &pending{
			load: Descriptor{
				Pointer: gbi.Offset(load.Address),
				Length:  load.Length,
				Kind:    KindVertex,
				Texture: s.ref,
			},
		}
	case gbi.OpTri1:
		s.flush()
	case gbi.OpMoveMem:
		s.flush()
		s.pending = &pending{
			load: Descriptor{
				Pointer: gbi.Offset(cmd.W1()),
				Length:  cmd.MoveMemLength(),
				Kind:    KindLight,
			},
		}
		s.flush()
	case gbi.OpSetTile:
		s.line = cmd.Tile().Line
	}

	return nil
}

// List returns the distinct loads performed by the display list at entry,
// in the order they occur.
func List(buf []byte, entry uint32, opts Options) ([]Descriptor, error) {
	s := scanner{
		opts: opts,
		seen: make(map[Descriptor]struct{}),
	}

	err := gbi.Walk(buf, entry, s.visit)
	if err != nil {
		return nil, err
	}
	s.flush()

	return s.loads, nil
}

// Area scans every display list of an area and returns the merged set of
// regions they read.
func Area(buf []byte, entries []uint32, opts Options) ([]Descriptor, error) {
	var loads []Descriptor
	for _, entry := range entries {
		list, err := List(buf, entry, opts)
		if err != nil {
			return nil, fmt.Errorf("display list %06X: %w", entry, err)
		}
		loads = append(loads, list...)
	}

	return Merge(loads), nil
}
