// Package compact copies the regions an area's display lists read into a
// fresh buffer, deduplicating identical blocks and recording where every
// region moved.
package compact

import (
	"bytes"

	"github.com/cfoust/f3dopt/pkg/bank"
	"github.com/cfoust/f3dopt/pkg/gbi"
	"github.com/cfoust/f3dopt/pkg/reloc"
	"github.com/cfoust/f3dopt/pkg/scan"
	"github.com/cfoust/f3dopt/pkg/texture"
	"github.com/cfoust/f3dopt/pkg/uvfix"

	"github.com/cespare/xxhash/v2"
	"github.com/repeale/fp-go/option"
	"github.com/rs/zerolog/log"
)

// PAINTING_SLOT_SIZE is the number of bytes reserved per painting.
const PAINTING_SLOT_SIZE = 0x80

// Reserve is a zero-filled region kept at a fixed source address, such as
// the painting image buffers filled in at runtime.
type Reserve struct {
	Base  uint32
	Count int
}

type Options struct {
	DisableUVFix    bool
	DisableCutout   bool
	CutoutBlacklist map[string]struct{}
	Painting        opt.Option[Reserve]

	// Bank and Group are only used to count bank hits.
	Bank  *bank.Bank
	Group int
}

type Stats struct {
	Loads        int `cbor:"loads"`
	Copied       int `cbor:"copied"`
	Deduplicated int `cbor:"deduplicated"`
	UVFixed      int `cbor:"uvFixed"`
	CutoutFixed  int `cbor:"cutoutFixed"`
	Incomplete   int `cbor:"incomplete"`
	BankGlobal   int `cbor:"bankGlobal"`
	BankLocal    int `cbor:"bankLocal"`
}

type Result struct {
	Arena *reloc.Arena
	Table *reloc.Table
	Clamp uvfix.ClampTable
	Stats Stats
}

type block struct {
	offset uint32
	length int
}

type compactor struct {
	opts   Options
	result *Result
	index  map[uint64][]block
}

// find returns the offset of an identical block already in the arena.
func (c *compactor) find(hash uint64, data []byte) (uint32, bool) {
	arena := c.result.Arena
	for _, existing := range c.index[hash] {
		if existing.length == len(data) && bytes.Equal(arena.Slice(existing.offset, existing.length), data) {
			return existing.offset, true
		}
	}
	return 0, false
}

func (c *compactor) place(old uint32, data []byte) {
	hash := xxhash.Sum64(data)
	if offset, ok := c.find(hash, data); ok {
		c.result.Table.Add(old, offset, len(data))
		c.result.Stats.Deduplicated++
		return
	}

	offset := c.result.Arena.AppendBlock(data)
	c.index[hash] = append(c.index[hash], block{offset: offset, length: len(data)})
	c.result.Table.Add(old, offset, len(data))
	c.result.Stats.Copied++
}

func (c *compactor) fixVertices(load scan.Descriptor, data []byte) []byte {
	if !load.Textured() {
		return data
	}

	fixed := data
	result := uvfix.Result{}
	if !c.opts.DisableUVFix && load.Length%gbi.VertexSize == 0 {
		fixed, result = uvfix.Block(data, load.Texture.Wide, load.Texture.Tall)
		if result.Applied {
			c.result.Stats.UVFixed++
		}
	}

	c.result.Clamp.Record(load.Texture.Image, result)
	return fixed
}

func (c *compactor) fixCutout(load scan.Descriptor, data []byte) {
	if c.opts.DisableCutout || load.Kind != scan.KindTexture {
		return
	}
	if load.Format != gbi.FormatRGBA || load.Size != gbi.Size16b || load.Width <= 0 || load.Height <= 0 {
		return
	}

	size := load.Width * load.Height * 2
	for i := 0; i+size <= len(data); i += size {
		page := data[i : i+size]
		hash := texture.Hash(texture.RiceCRC32(page, load.Width, load.Height, load.Size, int(load.BytesPerLine)))
		if _, skip := c.opts.CutoutBlacklist[hash]; skip {
			log.Debug().Str("crc", hash).Msg("cutout fix blacklisted")
			continue
		}

		texture.FixCutout(page, load.Width, load.Height)
		c.result.Stats.CutoutFixed++
	}
}

// Compact builds the new buffer from the merged loads of an area. Blocks
// are copied in the order given, each padded to 16 bytes, and identical
// blocks are stored once.
func Compact(buf []byte, loads []scan.Descriptor, opts Options) *Result {
	c := compactor{
		opts: opts,
		result: &Result{
			Arena: reloc.NewArena(),
			Table: reloc.NewTable(),
			Clamp: uvfix.ClampTable{},
		},
		index: make(map[uint64][]block),
	}

	if opt.IsSome(opts.Painting) {
		reserve := opts.Painting.Value
		length := reserve.Count * PAINTING_SLOT_SIZE
		if length > 0 {
			offset := c.result.Arena.AppendBlock(make([]byte, length))
			c.result.Table.Add(gbi.Offset(reserve.Base), offset, length)
		}
	}

	for _, load := range loads {
		c.result.Stats.Loads++

		switch opts.Bank.Classify(opts.Group, buf, load) {
		case bank.TierGlobal:
			c.result.Stats.BankGlobal++
		case bank.TierLocal:
			c.result.Stats.BankLocal++
		}

		data, complete := load.Fetch(buf)
		if !complete {
			c.result.Stats.Incomplete++
			log.Warn().Str("load", load.String()).Msg("load reads past the end of the area, zero filling")
		}

		switch load.Kind {
		case scan.KindVertex:
			data = c.fixVertices(load, data)
		case scan.KindTexture:
			c.fixCutout(load, data)
		}

		c.place(load.Pointer, data)
	}

	return c.result
}
