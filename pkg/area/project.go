package area

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cfoust/f3dopt/pkg/assets"

	"gopkg.in/yaml.v3"
)

type Project struct {
	Areas []*Area `yaml:"areas"`
}

// Load reads a manifest and the data of every area in it. Area buffers
// are resolved relative to the manifest.
func Load(ctx context.Context, path string) (*Project, error) {
	store := assets.FSStore(filepath.Dir(path))

	data, err := store.Get(ctx, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("could not read project %s: %w", path, err)
	}

	project := Project{}
	if err := yaml.Unmarshal(data, &project); err != nil {
		return nil, fmt.Errorf("could not parse project %s: %w", path, err)
	}

	for _, area := range project.Areas {
		if area.Buffer == "" {
			return nil, fmt.Errorf("%s has no buffer", area)
		}

		area.Data, err = store.Get(ctx, area.Buffer)
		if err != nil {
			return nil, fmt.Errorf("%s: could not read %s: %w", area, area.Buffer, err)
		}
	}

	return &project, nil
}

// Save writes the data of every area and then the manifest under the
// given key.
func (p *Project) Save(ctx context.Context, store assets.Store, manifest string) error {
	for _, area := range p.Areas {
		if err := store.Set(ctx, area.Buffer, area.Data); err != nil {
			return fmt.Errorf("%s: could not write %s: %w", area, area.Buffer, err)
		}
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return store.Set(ctx, manifest, data)
}
