package scan

import (
	"fmt"
	"sort"
)

// Kind is the type of data a load brings in.
type Kind int

const (
	KindLight Kind = iota
	KindTexture
	KindVertex
)

func (k Kind) String() string {
	switch k {
	case KindLight:
		return "light"
	case KindTexture:
		return "texture"
	case KindVertex:
		return "vertex"
	}
	return "unknown"
}

// TextureRef identifies the texture state vertex data was drawn with.
type TextureRef struct {
	Set bool
	// Image is the area offset of the texture image.
	Image uint32
	// Epoch counts gsDPSetEnvColor commands seen since the image was set.
	Epoch int
	Wide  bool
	Tall  bool
}

// Descriptor is a region of the area buffer a display list reads.
type Descriptor struct {
	// Pointer is an area offset with the segment stripped.
	Pointer uint32
	Length  int
	Kind    Kind

	// Set for vertex data.
	Texture TextureRef

	// Set for textures.
	Format       int
	Size         int
	Width        int
	Height       int
	BytesPerLine uint32
}

func (d Descriptor) End() uint32 {
	return d.Pointer + uint32(d.Length)
}

// Textured reports whether the descriptor is vertex data drawn with a
// known texture.
func (d Descriptor) Textured() bool {
	return d.Kind == KindVertex && d.Texture.Set
}

func (d Descriptor) String() string {
	switch d.Kind {
	case KindTexture:
		return fmt.Sprintf(
			"%s %06X+%X %dx%d fmt=%d siz=%d bpl=%d",
			d.Kind, d.Pointer, d.Length, d.Width, d.Height, d.Format, d.Size, d.BytesPerLine,
		)
	case KindVertex:
		return fmt.Sprintf("%s %06X+%X tex=%06X", d.Kind, d.Pointer, d.Length, d.Texture.Image)
	}
	return fmt.Sprintf("%s %06X+%X", d.Kind, d.Pointer, d.Length)
}

// similar reports whether two descriptors may be coalesced when they touch.
func similar(a, b Descriptor) bool {
	if a.Kind != b.Kind {
		return false
	}

	switch a.Kind {
	case KindTexture:
		return a.Format == b.Format &&
			a.Size == b.Size &&
			a.Width == b.Width &&
			a.Height == b.Height &&
			a.BytesPerLine == b.BytesPerLine
	case KindVertex:
		return a.Textured() && a.Texture == b.Texture
	}
	return false
}

func extend(a, b Descriptor) Descriptor {
	a.Length = max(a.Length, int(b.Pointer-a.Pointer)+b.Length)
	return a
}

// Dedupe removes exact duplicates, keeping first occurrences in order.
func Dedupe(loads []Descriptor) []Descriptor {
	seen := make(map[Descriptor]struct{}, len(loads))
	out := make([]Descriptor, 0, len(loads))
	for _, load := range loads {
		if _, ok := seen[load]; ok {
			continue
		}
		seen[load] = struct{}{}
		out = append(out, load)
	}
	return out
}

// Merge sorts descriptors by pointer, folds overlapping ranges together and
// then coalesces touching ranges of the same kind and metadata. The result
// never contains two overlapping descriptors.
func Merge(loads []Descriptor) []Descriptor {
	merged := Dedupe(loads)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Pointer < merged[j].Pointer
	})

	for i := 0; i < len(merged)-1; {
		a, b := merged[i], merged[i+1]
		if a.End() > b.Pointer {
			merged[i] = extend(a, b)
			merged = append(merged[:i+1], merged[i+2:]...)
			continue
		}
		i++
	}

	for i := 0; i < len(merged)-1; {
		a, b := merged[i], merged[i+1]
		if a.End() >= b.Pointer && similar(a, b) {
			merged[i] = extend(a, b)
			merged = append(merged[:i+1], merged[i+2:]...)
			continue
		}
		i++
	}

	return merged
}

// Read copies length bytes at pointer out of buf. Bytes past the end of buf
// read as zero; complete is false when that happened.
func Read(buf []byte, pointer uint32, length int) (data []byte, complete bool) {
	data = make([]byte, length)
	if uint64(pointer) >= uint64(len(buf)) {
		return data, length == 0
	}
	n := copy(data, buf[pointer:])
	return data, n == length
}

// Fetch reads the bytes the descriptor covers.
func (d Descriptor) Fetch(buf []byte) ([]byte, bool) {
	return Read(buf, d.Pointer, d.Length)
}
