package gbi

import (
	"fmt"
	"io"
	"strings"
)

// Format renders a command as a gbi.h style macro call.
func Format(c Command) string {
	op := c.Op()
	switch op {
	case OpSPNoOp, OpDPNoOp, OpEndDisplayList, OpLoadSync, OpPipeSync, OpTileSync, OpFullSync:
		return op.String() + "()"
	case OpVertex:
		v := c.VertexLoad()
		return fmt.Sprintf("%s(0x%08X, %d, %d)", op, v.Address, v.Count, v.First)
	case OpTri1:
		t := c.Triangle()
		return fmt.Sprintf("%s(%d, %d, %d, %d)", op, t.V[0], t.V[1], t.V[2], t.Flag)
	case OpDisplayList:
		return fmt.Sprintf("%s(0x%08X)", op, c.W1())
	case OpCullDisplayList:
		return fmt.Sprintf("%s(%d, %d)", op, int(c.U16(2))/40, int(c.U16(6))/40-1)
	case OpMoveMem:
		return fmt.Sprintf("%s(0x%08X, %d, 0x%02X)", op, c.W1(), c.MoveMemLength(), c[1])
	case OpSetGeometryMode, OpClearGeometryMode:
		return fmt.Sprintf("%s(0x%08X)", op, c.W1())
	case OpSetOtherModeH, OpSetOtherModeL:
		m := c.OtherMode()
		return fmt.Sprintf("%s(%d, %d, 0x%08X)", op, m.Shift, m.Length, m.Data)
	case OpSetTextureImage:
		t := c.TextureImage()
		return fmt.Sprintf("%s(%d, %d, %d, 0x%08X)", op, t.Format, t.Size, t.Width, t.Address)
	case OpSetTile:
		t := c.Tile()
		return fmt.Sprintf(
			"%s(%d, %d, %d, 0x%03X, %d, %d, %d, %d, %d, %d, %d, %d)",
			op, t.Format, t.Size, t.Line, t.TMem, t.Tile, t.Palette,
			t.CMT, t.MaskT, t.ShiftT, t.CMS, t.MaskS, t.ShiftS,
		)
	case OpSetTileSize:
		s := c.TileSize()
		return fmt.Sprintf("%s(%d, %d, %d, %d, %d)", op, s.Tile, s.ULS, s.ULT, s.LRS, s.LRT)
	case OpLoadBlock:
		b := c.Block()
		return fmt.Sprintf("%s(%d, %d, %d, %d, %d)", op, b.Tile, b.ULS, b.ULT, b.LRS, b.DXT)
	case OpSetEnvColor, OpSetPrimColor, OpSetFogColor, OpSetBlendColor:
		w1 := c.W1()
		return fmt.Sprintf("%s(%d, %d, %d, %d)", op, byte(w1>>24), byte(w1>>16), byte(w1>>8), byte(w1))
	}

	return fmt.Sprintf("%s(0x%08X, 0x%08X)", op, c.W0(), c.W1())
}

// Disassemble writes one line per command of the list at entry.
func Disassemble(w io.Writer, buf []byte, entry uint32) error {
	return Walk(buf, entry, func(offset uint32, cmd Command) error {
		_, err := fmt.Fprintf(w, "%06X: %s\n", offset, Format(cmd))
		return err
	})
}

// Tracer prints original and rewritten commands side by side.
type Tracer struct {
	w io.Writer
}

func NewTracer(w io.Writer) *Tracer {
	return &Tracer{w: w}
}

// Header prints a labelled separator.
func (t *Tracer) Header(format string, args ...interface{}) {
	if t == nil {
		return
	}
	fmt.Fprintf(t.w, "---- %s ----\n", fmt.Sprintf(format, args...))
}

// Trace prints a command before and after rewriting. A nil out means the
// command was dropped.
func (t *Tracer) Trace(offset uint32, in Command, out *Command) {
	if t == nil {
		return
	}
	left := fmt.Sprintf("%06X: %s", offset, Format(in))
	right := "-"
	if out != nil {
		right = Format(*out)
	}
	fmt.Fprintf(t.w, "%-64s %s\n", left, right)
}

// Line prints a command that exists only in the output.
func (t *Tracer) Line(out Command) {
	if t == nil {
		return
	}
	fmt.Fprintf(t.w, "%-64s %s\n", strings.Repeat(" ", 8)+"+", Format(out))
}
