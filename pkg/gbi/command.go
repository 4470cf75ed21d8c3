package gbi

import (
	"encoding/binary"
	"fmt"
)

// Command is one big-endian 8-byte display list command. Byte 0 is the opcode.
type Command [CommandSize]byte

func shiftL(v, s, w uint32) uint32 {
	return (v & ((1 << w) - 1)) << s
}

// FromWords builds a command from its high and low words.
func FromWords(w0, w1 uint32) Command {
	var c Command
	binary.BigEndian.PutUint32(c[0:4], w0)
	binary.BigEndian.PutUint32(c[4:8], w1)
	return c
}

// Read decodes the command at offset.
func Read(buf []byte, offset uint32) (Command, error) {
	var c Command
	if uint64(offset)+CommandSize > uint64(len(buf)) {
		return c, fmt.Errorf("command at %06X runs past end of buffer (%X)", offset, len(buf))
	}
	copy(c[:], buf[offset:offset+CommandSize])
	return c, nil
}

// Op returns the opcode.
func (c Command) Op() Opcode { return Opcode(c[0]) }

// W0 returns the high word.
func (c Command) W0() uint32 { return binary.BigEndian.Uint32(c[0:4]) }

// W1 returns the low word.
func (c Command) W1() uint32 { return binary.BigEndian.Uint32(c[4:8]) }

// U16 reads the big-endian halfword starting at byte i.
func (c Command) U16(i int) uint16 { return binary.BigEndian.Uint16(c[i : i+2]) }

// Offset strips the segment from a segmented pointer.
func Offset(ptr uint32) uint32 { return ptr & 0xFFFFFF }

// Segment returns the segment number of a segmented pointer.
func Segment(ptr uint32) byte { return byte(ptr >> 24) }

// Segmented builds a segmented pointer.
func Segmented(segment byte, offset uint32) uint32 {
	return uint32(segment)<<24 | Offset(offset)
}

// AreaPointer tags an offset with the area segment.
func AreaPointer(offset uint32) uint32 {
	return Segmented(SegmentArea, offset)
}

func NoOp() Command { return Command{} }

func DPNoOp() Command { return FromWords(uint32(OpDPNoOp)<<24, 0) }

func EndDisplayList() Command { return FromWords(uint32(OpEndDisplayList)<<24, 0) }

func DisplayList(addr uint32) Command {
	return FromWords(uint32(OpDisplayList)<<24, addr)
}

// Sync builds one of the parameterless RDP sync commands.
func Sync(op Opcode) Command { return FromWords(uint32(op)<<24, 0) }

// Vertex loads n vertices from addr into slots v0..v0+n-1.
func Vertex(addr uint32, n, v0 int) Command {
	return FromWords(
		uint32(OpVertex)<<24|
			shiftL(uint32((n-1)<<4|v0), 16, 8)|
			shiftL(uint32(VertexSize*n), 0, 16),
		addr,
	)
}

// Tri1 draws one triangle from three vertex slots.
func Tri1(v0, v1, v2, flag int) Command {
	return FromWords(
		uint32(OpTri1)<<24,
		shiftL(uint32(flag), 24, 8)|
			shiftL(uint32(v0*10), 16, 8)|
			shiftL(uint32(v1*10), 8, 8)|
			shiftL(uint32(v2*10), 0, 8),
	)
}

// CullDisplayList ends the current display list if every vertex in
// vstart..vend is outside the view volume.
func CullDisplayList(vstart, vend int) Command {
	return FromWords(
		uint32(OpCullDisplayList)<<24|shiftL(uint32((vstart&0xF)*40), 0, 16),
		shiftL(uint32(((vend+1)&0xF)*40), 0, 16),
	)
}

func MoveMem(length int, index byte, addr uint32) Command {
	return FromWords(
		uint32(OpMoveMem)<<24|shiftL(uint32(index), 16, 8)|shiftL(uint32(length), 0, 16),
		addr,
	)
}

func SetGeometryMode(mask uint32) Command {
	return FromWords(uint32(OpSetGeometryMode)<<24, mask)
}

func ClearGeometryMode(mask uint32) Command {
	return FromWords(uint32(OpClearGeometryMode)<<24, mask)
}

func SetOtherModeH(shift, length int, data uint32) Command {
	return FromWords(
		uint32(OpSetOtherModeH)<<24|shiftL(uint32(shift), 8, 8)|shiftL(uint32(length), 0, 8),
		data,
	)
}

func SetTextureImage(format, size, width int, addr uint32) Command {
	return FromWords(
		uint32(OpSetTextureImage)<<24|
			shiftL(uint32(format), 21, 3)|
			shiftL(uint32(size), 19, 2)|
			shiftL(uint32(width-1), 0, 12),
		addr,
	)
}

func SetTileSize(tile int, uls, ult, lrs, lrt uint32) Command {
	return FromWords(
		uint32(OpSetTileSize)<<24|shiftL(uls, 12, 12)|shiftL(ult, 0, 12),
		shiftL(uint32(tile), 24, 3)|shiftL(lrs, 12, 12)|shiftL(lrt, 0, 12),
	)
}

func LoadBlock(tile int, uls, ult, lrs, dxt uint32) Command {
	return FromWords(
		uint32(OpLoadBlock)<<24|shiftL(uls, 12, 12)|shiftL(ult, 0, 12),
		shiftL(uint32(tile), 24, 3)|shiftL(lrs, 12, 12)|shiftL(dxt, 0, 12),
	)
}

func SetEnvColor(r, g, b, a byte) Command {
	return FromWords(
		uint32(OpSetEnvColor)<<24,
		uint32(r)<<24|uint32(g)<<16|uint32(b)<<8|uint32(a),
	)
}

// TileDescriptor holds the fields of a SetTile.
type TileDescriptor struct {
	Format  int
	Size    int
	Line    int
	TMem    int
	Tile    int
	Palette int
	CMT     uint32
	MaskT   uint32
	ShiftT  uint32
	CMS     uint32
	MaskS   uint32
	ShiftS  uint32
}

func SetTile(t TileDescriptor) Command {
	return FromWords(
		uint32(OpSetTile)<<24|
			shiftL(uint32(t.Format), 21, 3)|
			shiftL(uint32(t.Size), 19, 2)|
			shiftL(uint32(t.Line), 9, 9)|
			shiftL(uint32(t.TMem), 0, 9),
		shiftL(uint32(t.Tile), 24, 3)|
			shiftL(uint32(t.Palette), 20, 4)|
			shiftL(t.CMT, 18, 2)|
			shiftL(t.MaskT, 14, 4)|
			shiftL(t.ShiftT, 10, 4)|
			shiftL(t.CMS, 8, 2)|
			shiftL(t.MaskS, 4, 4)|
			shiftL(t.ShiftS, 0, 4),
	)
}

func (c Command) Tile() TileDescriptor {
	w0, w1 := c.W0(), c.W1()
	return TileDescriptor{
		Format:  int(w0>>21) & 0x7,
		Size:    int(w0>>19) & 0x3,
		Line:    int(w0>>9) & 0x1FF,
		TMem:    int(w0) & 0x1FF,
		Tile:    int(w1>>24) & 0x7,
		Palette: int(w1>>20) & 0xF,
		CMT:     (w1 >> 18) & 0x3,
		MaskT:   (w1 >> 14) & 0xF,
		ShiftT:  (w1 >> 10) & 0xF,
		CMS:     (w1 >> 8) & 0x3,
		MaskS:   (w1 >> 4) & 0xF,
		ShiftS:  w1 & 0xF,
	}
}

// WithClamp returns a copy of a SetTile with the clamp bits of the
// requested axes set.
func (c Command) WithClamp(s, t bool) Command {
	w1 := c.W1()
	if s {
		w1 |= ClampS
	}
	if t {
		w1 |= ClampT
	}
	return FromWords(c.W0(), w1)
}

// VertexLoad is a decoded gsSPVertex.
type VertexLoad struct {
	Address uint32
	Count   int
	First   int
	// Length is the byte length field, which is Count*16 for well formed
	// commands.
	Length int
}

func (c Command) VertexLoad() VertexLoad {
	return VertexLoad{
		Address: c.W1(),
		Count:   int(c[1]>>4) + 1,
		First:   int(c[1] & 0xF),
		Length:  int(c.U16(2)),
	}
}

// Triangle is a decoded gsSP1Triangle.
type Triangle struct {
	V    [3]int
	Flag int
}

func (c Command) Triangle() Triangle {
	return Triangle{
		V:    [3]int{int(c[5]) / 10, int(c[6]) / 10, int(c[7]) / 10},
		Flag: int(c[4]),
	}
}

// Max returns the largest vertex slot referenced.
func (t Triangle) Max() int {
	return max(t.V[0], t.V[1], t.V[2])
}

// Min returns the smallest vertex slot referenced.
func (t Triangle) Min() int {
	return min(t.V[0], t.V[1], t.V[2])
}

// Repeats reports whether any slot is used twice.
func (t Triangle) Repeats() bool {
	return t.V[0] == t.V[1] || t.V[1] == t.V[2] || t.V[0] == t.V[2]
}

// TextureImage is a decoded gsDPSetTextureImage.
type TextureImage struct {
	Format  int
	Size    int
	Width   int
	Address uint32
}

func (c Command) TextureImage() TextureImage {
	w0 := c.W0()
	return TextureImage{
		Format:  int(w0>>21) & 0x7,
		Size:    int(w0>>19) & 0x3,
		Width:   int(w0&0xFFF) + 1,
		Address: c.W1(),
	}
}

// TileSize is a decoded gsDPSetTileSize.
type TileSize struct {
	Tile int
	ULS  uint32
	ULT  uint32
	LRS  uint32
	LRT  uint32
}

func (c Command) TileSize() TileSize {
	w0, w1 := c.W0(), c.W1()
	return TileSize{
		Tile: int(w1>>24) & 0x7,
		ULS:  (w0 >> 12) & 0xFFF,
		ULT:  w0 & 0xFFF,
		LRS:  (w1 >> 12) & 0xFFF,
		LRT:  w1 & 0xFFF,
	}
}

// Block is a decoded gsDPLoadBlock.
type Block struct {
	Tile int
	ULS  uint32
	ULT  uint32
	LRS  uint32
	DXT  uint32
}

func (c Command) Block() Block {
	w0, w1 := c.W0(), c.W1()
	return Block{
		Tile: int(w1>>24) & 0x7,
		ULS:  (w0 >> 12) & 0xFFF,
		ULT:  w0 & 0xFFF,
		LRS:  (w1 >> 12) & 0xFFF,
		DXT:  w1 & 0xFFF,
	}
}

// Texels is the number of texels a LoadBlock transfers.
func (b Block) Texels() int {
	return int(b.LRS) + 1
}

// OtherMode is a decoded gsSPSetOtherModeH/L.
type OtherMode struct {
	Shift  int
	Length int
	Data   uint32
}

func (c Command) OtherMode() OtherMode {
	return OtherMode{
		Shift:  int(c[2]),
		Length: int(c[3]),
		Data:   c.W1(),
	}
}

// Mask returns the bits of the other-mode word this command writes.
func (o OtherMode) Mask() uint32 {
	if o.Length >= 32 {
		return 0xFFFFFFFF << uint(o.Shift)
	}
	return ((uint32(1) << uint(o.Length)) - 1) << uint(o.Shift)
}

// MoveMemLength returns the transfer length of a gsSPMoveMem.
func (c Command) MoveMemLength() int {
	return int(c.U16(2))
}

// EnvAlpha returns the alpha channel of a gsDPSetEnvColor.
func (c Command) EnvAlpha() byte {
	return c[7]
}

// WithAddress returns a copy of the command with its low word replaced.
func (c Command) WithAddress(addr uint32) Command {
	return FromWords(c.W0(), addr)
}
