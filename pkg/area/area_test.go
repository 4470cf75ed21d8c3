package area

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/cfoust/f3dopt/pkg/assets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const manifest = `
areas:
  - level: 0x24
    area: 1
    name: Bob-omb Battlefield
    buffer: bob.bin.zst
    displayLists: [0x0E000100, 0x0E000200]
    scrollingTextures: [0x0E000400]
    painting:
      base: 0x0E001000
      count: 2
      textures: [0x0E002000]
      config: "TEX=0x0E002000 BASE=0xE001000"
  - level: 9
    area: 2
    buffer: wf.bin
    displayLists: []
`

func TestLoadSave(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := assets.FSStore(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "project.yaml"), []byte(manifest), 0644))
	require.NoError(t, store.Set(ctx, "bob.bin.zst", []byte{1, 2, 3, 4}))
	require.NoError(t, store.Set(ctx, "wf.bin", []byte{5, 6}))

	project, err := Load(ctx, filepath.Join(dir, "project.yaml"))
	require.NoError(t, err)
	require.Len(t, project.Areas, 2)

	bob := project.Areas[0]
	assert.Equal(t, 0x24, bob.Level)
	assert.Equal(t, "level 24 area 1", bob.String())
	assert.Equal(t, []byte{1, 2, 3, 4}, bob.Data)
	assert.Equal(t, []uint32{0x100, 0x200}, bob.Entries())
	assert.Equal(t, []Pointer{0x0E000400}, bob.ScrollingTextures)
	require.NotNil(t, bob.Painting)
	assert.Equal(t, Pointer(0x0E001000), bob.Painting.Base)
	assert.Equal(t, 2, bob.Painting.Count)
	assert.Nil(t, project.Areas[1].Painting)
	assert.Empty(t, project.Areas[1].Entries())

	out := assets.FSStore(t.TempDir())
	bob.Data = []byte{9, 9}
	require.NoError(t, project.Save(ctx, out, "project.yaml"))

	written, err := out.Get(ctx, "bob.bin.zst")
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9}, written)

	data, err := out.Get(ctx, "project.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "0x0E000100")

	reloaded, err := Load(ctx, filepath.Join(string(out), "project.yaml"))
	require.NoError(t, err)
	assert.Equal(t, project.Areas[0].DisplayLists, reloaded.Areas[0].DisplayLists)
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	_, err := Load(ctx, filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, assets.Missing)

	path := filepath.Join(dir, "project.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0644))
	_, err = Load(ctx, path)
	assert.ErrorIs(t, err, assets.Missing)

	require.NoError(t, os.WriteFile(path, []byte("areas: [{level: 1, buffer: x, displayLists: [zzz]}]"), 0644))
	_, err = Load(ctx, path)
	assert.Error(t, err)
}

func TestPointerYAML(t *testing.T) {
	data, err := yaml.Marshal(map[string]Pointer{"p": 0x0E00ABCD})
	require.NoError(t, err)
	assert.Equal(t, "p: 0x0E00ABCD\n", string(data))

	var p Pointer
	require.NoError(t, yaml.Unmarshal([]byte("1234"), &p))
	assert.Equal(t, Pointer(1234), p)
	assert.Equal(t, uint32(1234), p.Offset())
}

func TestPaintingRelocate(t *testing.T) {
	painting := Painting{
		Base:     0x0E001000,
		Textures: []Pointer{0x0E002000, 0x0E002800},
		Keep:     []Pointer{0x0E002800},
		Config:   "TEX=0x0E002000 KEEP=0x0e002800 BASE=0xE001000 OTHER=0x0E009000",
	}

	moved := map[uint32]uint32{
		0x1000: 0x000,
		0x2000: 0x100,
		0x2800: 0x180,
	}
	err := painting.Relocate(func(old uint32) (uint32, error) {
		new, ok := moved[old]
		if !ok {
			return 0, fmt.Errorf("unmapped %X", old)
		}
		return new, nil
	})
	require.NoError(t, err)

	assert.Equal(t, "tex=0x00E000100 keep=0x00E000180 base=0x00E000000 other=0x0e009000", painting.Config)
	assert.Equal(t, Pointer(0x0E000000), painting.Base)
	assert.Equal(t, []Pointer{0x0E000100, 0x0E000180}, painting.Textures)
	assert.Equal(t, []Pointer{0x0E000180}, painting.Keep)

	painting.Base = 0x0E005000
	assert.Error(t, painting.Relocate(func(old uint32) (uint32, error) {
		return 0, fmt.Errorf("unmapped %X", old)
	}))
}

func TestWritePaintingConfig(t *testing.T) {
	areas := []*Area{
		{Level: 0x24, Painting: &Painting{Config: "a=1"}},
		{Level: 9},
		{Level: 0x0E, Painting: &Painting{Config: "b=2"}},
	}

	var b bytes.Buffer
	require.NoError(t, WritePaintingConfig(&b, areas))
	assert.Equal(t, "LEVEL_ID=36\na=1\nLEVEL_ID=14\nb=2\n", b.String())
}
