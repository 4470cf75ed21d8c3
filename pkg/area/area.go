// Package area describes the level areas a project is made of and reads and
// writes the project manifest.
package area

import (
	"fmt"
	"strconv"

	"github.com/cfoust/f3dopt/pkg/gbi"

	"gopkg.in/yaml.v3"
)

// Pointer is a segmented address. It is written to manifests in hex.
type Pointer uint32

func (p Pointer) Offset() uint32 {
	return gbi.Offset(uint32(p))
}

func (p Pointer) String() string {
	return fmt.Sprintf("0x%08X", uint32(p))
}

func (p Pointer) MarshalYAML() (interface{}, error) {
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!int",
		Value: p.String(),
	}, nil
}

func (p *Pointer) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := strconv.ParseUint(value.Value, 0, 32)
	if err != nil {
		return fmt.Errorf("line %d: invalid pointer %q", value.Line, value.Value)
	}
	*p = Pointer(parsed)
	return nil
}

func Pointers(pointers []Pointer) []uint32 {
	out := make([]uint32, len(pointers))
	for i, pointer := range pointers {
		out[i] = uint32(pointer)
	}
	return out
}

// Painting describes the runtime painting of an area.
type Painting struct {
	// Base is the texture the painting is drawn into at runtime.
	Base Pointer `yaml:"base"`
	// Count is the number of 0x80 byte slots reserved at Base.
	Count int `yaml:"count"`
	// Textures are draws removed from the area unless also in Keep.
	Textures []Pointer `yaml:"textures,omitempty"`
	Keep     []Pointer `yaml:"keep,omitempty"`
	// Config is the painting configuration text, which refers to the
	// textures by address.
	Config string `yaml:"config,omitempty"`
}

type Area struct {
	Level int    `yaml:"level"`
	Area  int    `yaml:"area"`
	Name  string `yaml:"name,omitempty"`
	// Buffer is the path of the area's data, relative to the manifest.
	Buffer            string    `yaml:"buffer"`
	DisplayLists      []Pointer `yaml:"displayLists"`
	ScrollingTextures []Pointer `yaml:"scrollingTextures,omitempty"`
	Painting          *Painting `yaml:"painting,omitempty"`

	Data []byte `yaml:"-"`
}

func (a *Area) String() string {
	return fmt.Sprintf("level %02X area %d", a.Level, a.Area)
}

// Entries returns the offsets of the area's display lists.
func (a *Area) Entries() []uint32 {
	entries := make([]uint32, len(a.DisplayLists))
	for i, pointer := range a.DisplayLists {
		entries[i] = pointer.Offset()
	}
	return entries
}
