package reloc

import "github.com/cfoust/f3dopt/pkg/gbi"

const BLOCK_ALIGNMENT = 0x10

// Arena is the output buffer of an area. It only grows.
type Arena struct {
	data []byte
}

func NewArena() *Arena {
	return &Arena{}
}

func (a *Arena) Len() uint32 {
	return uint32(len(a.data))
}

func (a *Arena) Bytes() []byte {
	return a.data
}

// Append copies data to the end of the arena and returns its offset.
func (a *Arena) Append(data []byte) uint32 {
	offset := a.Len()
	a.data = append(a.data, data...)
	return offset
}

// Align pads the arena with zeros to a multiple of n.
func (a *Arena) Align(n int) {
	if rem := len(a.data) % n; rem != 0 {
		a.data = append(a.data, make([]byte, n-rem)...)
	}
}

// AppendBlock appends data at the next block boundary and pads after it.
func (a *Arena) AppendBlock(data []byte) uint32 {
	a.Align(BLOCK_ALIGNMENT)
	offset := a.Append(data)
	a.Align(BLOCK_ALIGNMENT)
	return offset
}

func (a *Arena) AppendCommand(cmd gbi.Command) uint32 {
	return a.Append(cmd[:])
}

// Slice returns the bytes at [offset, offset+length), clamped to the arena.
func (a *Arena) Slice(offset uint32, length int) []byte {
	if uint64(offset) >= uint64(len(a.data)) {
		return nil
	}
	end := min(uint64(offset)+uint64(length), uint64(len(a.data)))
	return a.data[offset:end]
}
