package texture

import "encoding/binary"

// cutoutPasses is how many times transparent pixels are bled. One pass
// leaves a pixel whose only opaque neighbour is diagonal untouched.
const cutoutPasses = 2

// FixCutout cleans up an RGBA16 texture in place. Every pixel with a clear
// alpha bit is zeroed, then transparent pixels take the average colour of
// their opaque neighbours so bilinear filtering does not fringe.
func FixCutout(data []byte, width, height int) {
	n := width * height
	if width <= 0 || height <= 0 || len(data) < n*2 {
		return
	}

	pixels := make([]uint16, n)
	for i := range pixels {
		pixel := binary.BigEndian.Uint16(data[i*2:])
		if pixel&1 == 0 {
			pixel = 0
		}
		pixels[i] = pixel
	}

	for i := 0; i < cutoutPasses; i++ {
		pixels = bleed(pixels, width, height)
	}

	for i, pixel := range pixels {
		binary.BigEndian.PutUint16(data[i*2:], pixel)
	}
}

type mix struct {
	r, g, b, count uint32
}

func (m *mix) add(pixels []uint16, width, height, x, y int) {
	// Textures tile, so neighbours wrap.
	if x < 0 {
		x += width
	}
	if y < 0 {
		y += height
	}
	if x >= width {
		x -= width
	}
	if y >= height {
		y -= height
	}

	pixel := pixels[y*width+x]
	m.r += uint32(pixel>>11) & 0x1F
	m.g += uint32(pixel>>6) & 0x1F
	m.b += uint32(pixel>>1) & 0x1F
	if pixel != 0 {
		m.count++
	}
}

func bleed(pixels []uint16, width, height int) []uint16 {
	out := make([]uint16, len(pixels))
	copy(out, pixels)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if pixels[y*width+x] != 0 {
				continue
			}

			m := mix{}
			m.add(pixels, width, height, x-1, y)
			m.add(pixels, width, height, x+1, y)
			m.add(pixels, width, height, x, y-1)
			m.add(pixels, width, height, x, y+1)

			if m.r == 0 || m.g == 0 || m.b == 0 {
				continue
			}

			out[y*width+x] = uint16(
				((m.r/m.count)&0x1F)<<11 |
					((m.g/m.count)&0x1F)<<6 |
					((m.b/m.count)&0x1F)<<1,
			)
		}
	}

	return out
}
