package texture

import (
	"encoding/binary"
	"fmt"
)

// RiceCRC32 computes the texture hash used by Rice-style texture packs.
// Rows are read bottom up with the given stride; reading stops at the end
// of src.
func RiceCRC32(src []byte, width, height, size int, rowStride int) uint32 {
	var crc uint32
	bytesPerLine := (width << size) >> 1

	offset := 0
	for y := height - 1; y >= 0; y-- {
		var esi uint32
		for x := bytesPerLine - 4; x >= 0; x -= 4 {
			if offset+x+4 > len(src) {
				return crc
			}
			esi = binary.LittleEndian.Uint32(src[offset+x:]) ^ uint32(x)

			crc = (crc << 4) + ((crc >> 28) & 0xF)
			crc += esi
		}

		esi ^= uint32(y)
		crc += esi

		offset += rowStride
	}

	return crc
}

// Hash formats a Rice CRC the way texture packs name it.
func Hash(crc uint32) string {
	return fmt.Sprintf("%08X", crc)
}
