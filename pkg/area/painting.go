package area

import (
	"fmt"
	"io"
	"strings"

	"github.com/cfoust/f3dopt/pkg/gbi"
)

// Relocate moves every address of the painting and rewrites the config
// text to match. The text is lower cased and relocated addresses are
// written as 0x00EXXXXXX.
func (p *Painting) Relocate(resolve func(old uint32) (uint32, error)) error {
	var pairs []string

	move := func(pointer *Pointer) error {
		old := pointer.Offset()
		new, err := resolve(old)
		if err != nil {
			return err
		}

		replacement := fmt.Sprintf("0x00E%06X", new)
		pairs = append(pairs,
			fmt.Sprintf("0x0e%06x", old), replacement,
			fmt.Sprintf("0xe%06x", old), replacement,
		)
		*pointer = Pointer(gbi.AreaPointer(new))
		return nil
	}

	for i := range p.Textures {
		if err := move(&p.Textures[i]); err != nil {
			return err
		}
	}
	for i := range p.Keep {
		if err := move(&p.Keep[i]); err != nil {
			return err
		}
	}
	if err := move(&p.Base); err != nil {
		return err
	}

	p.Config = strings.NewReplacer(pairs...).Replace(strings.ToLower(p.Config))
	return nil
}

// WritePaintingConfig writes the painting configuration of every area that
// has one.
func WritePaintingConfig(w io.Writer, areas []*Area) error {
	for _, area := range areas {
		if area.Painting == nil {
			continue
		}

		_, err := fmt.Fprintf(w, "LEVEL_ID=%d\n%s\n", area.Level, area.Painting.Config)
		if err != nil {
			return err
		}
	}
	return nil
}
