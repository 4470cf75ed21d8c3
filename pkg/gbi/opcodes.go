package gbi

// Opcode is the first byte of a Fast3D command.
type Opcode byte

// Fast3D (F3D) opcodes as used by SM64.
const (
	OpSPNoOp             Opcode = 0x00
	OpMtx                Opcode = 0x01
	OpMoveMem            Opcode = 0x03
	OpVertex             Opcode = 0x04
	OpDisplayList        Opcode = 0x06
	OpClearGeometryMode  Opcode = 0xB6
	OpSetGeometryMode    Opcode = 0xB7
	OpEndDisplayList     Opcode = 0xB8
	OpSetOtherModeL      Opcode = 0xB9
	OpSetOtherModeH      Opcode = 0xBA
	OpTexture            Opcode = 0xBB
	OpMoveWord           Opcode = 0xBC
	OpPopMtx             Opcode = 0xBD
	OpCullDisplayList    Opcode = 0xBE
	OpTri1               Opcode = 0xBF
	OpDPNoOp             Opcode = 0xC0
	OpTexRect            Opcode = 0xE4
	OpLoadSync           Opcode = 0xE6
	OpPipeSync           Opcode = 0xE7
	OpTileSync           Opcode = 0xE8
	OpFullSync           Opcode = 0xE9
	OpSetScissor         Opcode = 0xED
	OpSetPrimDepth       Opcode = 0xEE
	OpSetOtherMode       Opcode = 0xEF
	OpLoadTLUT           Opcode = 0xF0
	OpSetTileSize        Opcode = 0xF2
	OpLoadBlock          Opcode = 0xF3
	OpLoadTile           Opcode = 0xF4
	OpSetTile            Opcode = 0xF5
	OpFillRect           Opcode = 0xF6
	OpSetFillColor       Opcode = 0xF7
	OpSetFogColor        Opcode = 0xF8
	OpSetBlendColor      Opcode = 0xF9
	OpSetPrimColor       Opcode = 0xFA
	OpSetEnvColor        Opcode = 0xFB
	OpSetCombine         Opcode = 0xFC
	OpSetTextureImage    Opcode = 0xFD
	OpSetZImage          Opcode = 0xFE
	OpSetColorImage      Opcode = 0xFF
)

var opcodeNames = map[Opcode]string{
	OpSPNoOp:            "gsSPNoOp",
	OpMtx:               "gsSPMatrix",
	OpMoveMem:           "gsSPMoveMem",
	OpVertex:            "gsSPVertex",
	OpDisplayList:       "gsSPDisplayList",
	OpClearGeometryMode: "gsSPClearGeometryMode",
	OpSetGeometryMode:   "gsSPSetGeometryMode",
	OpEndDisplayList:    "gsSPEndDisplayList",
	OpSetOtherModeL:     "gsSPSetOtherModeL",
	OpSetOtherModeH:     "gsSPSetOtherModeH",
	OpTexture:           "gsSPTexture",
	OpMoveWord:          "gsSPMoveWord",
	OpPopMtx:            "gsSPPopMatrix",
	OpCullDisplayList:   "gsSPCullDisplayList",
	OpTri1:              "gsSP1Triangle",
	OpDPNoOp:            "gsDPNoOp",
	OpTexRect:           "gsSPTextureRectangle",
	OpLoadSync:          "gsDPLoadSync",
	OpPipeSync:          "gsDPPipeSync",
	OpTileSync:          "gsDPTileSync",
	OpFullSync:          "gsDPFullSync",
	OpSetScissor:        "gsDPSetScissor",
	OpSetPrimDepth:      "gsDPSetPrimDepth",
	OpSetOtherMode:      "gsDPSetOtherMode",
	OpLoadTLUT:          "gsDPLoadTLUTCmd",
	OpSetTileSize:       "gsDPSetTileSize",
	OpLoadBlock:         "gsDPLoadBlock",
	OpLoadTile:          "gsDPLoadTile",
	OpSetTile:           "gsDPSetTile",
	OpFillRect:          "gsDPFillRectangle",
	OpSetFillColor:      "gsDPSetFillColor",
	OpSetFogColor:       "gsDPSetFogColor",
	OpSetBlendColor:     "gsDPSetBlendColor",
	OpSetPrimColor:      "gsDPSetPrimColor",
	OpSetEnvColor:       "gsDPSetEnvColor",
	OpSetCombine:        "gsDPSetCombineLERP",
	OpSetTextureImage:   "gsDPSetTextureImage",
	OpSetZImage:         "gsDPSetDepthImage",
	OpSetColorImage:     "gsDPSetColorImage",
}

func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return "gsUnknown"
}

// IsSync reports whether the opcode is one of the RDP sync commands.
func (o Opcode) IsSync() bool {
	switch o {
	case OpLoadSync, OpPipeSync, OpTileSync, OpFullSync:
		return true
	}
	return false
}

// IsNoOp reports whether the opcode does nothing on either the RSP or RDP.
func (o Opcode) IsNoOp() bool {
	return o == OpSPNoOp || o == OpDPNoOp
}

// Image formats.
const (
	FormatRGBA = 0
	FormatYUV  = 1
	FormatCI   = 2
	FormatIA   = 3
	FormatI    = 4
)

// Texel size classes.
const (
	Size4b  = 0
	Size8b  = 1
	Size16b = 2
	Size32b = 3
)

// Tile descriptor flags in the low word of a SetTile.
const (
	ClampS  uint32 = 1 << 9
	MirrorS uint32 = 1 << 8
	ClampT  uint32 = 1 << 19
	MirrorT uint32 = 1 << 18
)

// SegmentArea is the segment every area-local pointer lives in.
const SegmentArea = 0x0E

// CommandSize is the size in bytes of one display list command.
const CommandSize = 8
