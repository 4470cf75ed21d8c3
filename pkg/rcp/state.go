// Package rcp tracks which bits of RCP state are known so commands that
// would not change anything can be dropped.
package rcp

import "github.com/cfoust/f3dopt/pkg/gbi"

// Channel is an independent piece of RCP state.
type Channel int

const (
	GeometryMode Channel = iota
	OtherModeH
	TileSize
	Tile
)

type channel struct {
	value uint64
	known uint64
}

// State is a per-channel (value, known-mask) pair. The zero value knows
// nothing.
type State struct {
	channels map[Channel]*channel
}

func NewState() *State {
	return &State{
		channels: make(map[Channel]*channel),
	}
}

// Set writes the masked bits of value. It reports whether anything would
// change, which is false only when every bit under mask is already known
// to hold the same value.
func (s *State) Set(ch Channel, value, mask uint64) bool {
	if s.channels == nil {
		s.channels = make(map[Channel]*channel)
	}

	c, ok := s.channels[ch]
	if !ok {
		c = &channel{}
		s.channels[ch] = c
	}

	if c.known&mask == mask && c.value&mask == value&mask {
		return false
	}

	c.value = (c.value &^ mask) | (value & mask)
	c.known |= mask
	return true
}

// Reset forgets everything.
func (s *State) Reset() {
	s.channels = make(map[Channel]*channel)
}

const commandMask = 0x00FFFFFFFFFFFFFF

func wholeCommand(cmd gbi.Command) uint64 {
	return uint64(cmd.W0()&0xFFFFFF)<<32 | uint64(cmd.W1())
}

// Apply feeds a state-setting command through the tracker. It reports
// whether the command must be kept; commands that do not touch tracked
// state are always kept.
func (s *State) Apply(cmd gbi.Command) bool {
	switch cmd.Op() {
	case gbi.OpSetGeometryMode:
		return s.Set(GeometryMode, 0xFFFFFFFF, uint64(cmd.W1()))
	case gbi.OpClearGeometryMode:
		return s.Set(GeometryMode, 0, uint64(cmd.W1()))
	case gbi.OpSetOtherModeH:
		mode := cmd.OtherMode()
		return s.Set(OtherModeH, uint64(mode.Data), uint64(mode.Mask()))
	case gbi.OpSetTileSize:
		return s.Set(TileSize, wholeCommand(cmd), commandMask)
	case gbi.OpSetTile:
		return s.Set(Tile, wholeCommand(cmd), commandMask)
	}
	return true
}
