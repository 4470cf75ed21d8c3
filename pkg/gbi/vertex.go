package gbi

import (
	"encoding/binary"
	"fmt"
)

// VertexSize is the size in bytes of one Vtx_tn record.
const VertexSize = 16

// Vtx is a vertex with a position, texture coordinates and either a normal
// or a colour, depending on whether lighting is enabled.
type Vtx struct {
	X, Y, Z int16
	Flag    uint16
	U, V    int16
	NX      int8
	NY      int8
	NZ      int8
	A       uint8
}

func DecodeVtx(b []byte) Vtx {
	return Vtx{
		X:    int16(binary.BigEndian.Uint16(b[0:])),
		Y:    int16(binary.BigEndian.Uint16(b[2:])),
		Z:    int16(binary.BigEndian.Uint16(b[4:])),
		Flag: binary.BigEndian.Uint16(b[6:]),
		U:    int16(binary.BigEndian.Uint16(b[8:])),
		V:    int16(binary.BigEndian.Uint16(b[10:])),
		NX:   int8(b[12]),
		NY:   int8(b[13]),
		NZ:   int8(b[14]),
		A:    b[15],
	}
}

// Put encodes the vertex into the first 16 bytes of b.
func (v Vtx) Put(b []byte) {
	binary.BigEndian.PutUint16(b[0:], uint16(v.X))
	binary.BigEndian.PutUint16(b[2:], uint16(v.Y))
	binary.BigEndian.PutUint16(b[4:], uint16(v.Z))
	binary.BigEndian.PutUint16(b[6:], v.Flag)
	binary.BigEndian.PutUint16(b[8:], uint16(v.U))
	binary.BigEndian.PutUint16(b[10:], uint16(v.V))
	b[12] = byte(v.NX)
	b[13] = byte(v.NY)
	b[14] = byte(v.NZ)
	b[15] = v.A
}

// ReadVertices decodes n consecutive vertices starting at offset.
func ReadVertices(buf []byte, offset uint32, n int) ([]Vtx, error) {
	end := uint64(offset) + uint64(n*VertexSize)
	if end > uint64(len(buf)) {
		return nil, fmt.Errorf("%d vertices at %06X run past end of buffer (%X)", n, offset, len(buf))
	}

	vertices := make([]Vtx, n)
	for i := range vertices {
		vertices[i] = DecodeVtx(buf[offset+uint32(i*VertexSize):])
	}
	return vertices, nil
}

// EncodeVertices packs vertices back to back.
func EncodeVertices(vertices []Vtx) []byte {
	out := make([]byte, len(vertices)*VertexSize)
	for i, v := range vertices {
		v.Put(out[i*VertexSize:])
	}
	return out
}

// Degenerate reports whether three positions have zero area. The cross
// product is computed in 64 bits so it cannot overflow.
func Degenerate(a, b, c Vtx) bool {
	abx := int64(b.X) - int64(a.X)
	aby := int64(b.Y) - int64(a.Y)
	abz := int64(b.Z) - int64(a.Z)
	acx := int64(c.X) - int64(a.X)
	acy := int64(c.Y) - int64(a.Y)
	acz := int64(c.Z) - int64(a.Z)

	cx := aby*acz - abz*acy
	cy := abz*acx - abx*acz
	cz := abx*acy - aby*acx
	return cx == 0 && cy == 0 && cz == 0
}
