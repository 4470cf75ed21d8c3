package assets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
}

// FSStore keeps blobs as files below a root directory. Keys ending in
// .zst are compressed with zstd on disk.
type FSStore string

var Missing = fmt.Errorf("asset missing")

const COMPRESSED_EXTENSION = ".zst"

func compressed(key string) bool {
	return strings.HasSuffix(key, COMPRESSED_EXTENSION)
}

func (f FSStore) getPath(key string) string {
	if filepath.IsAbs(key) {
		return key
	}
	return filepath.Join(string(f), key)
}

func (f FSStore) Get(ctx context.Context, key string) ([]byte, error) {
	target := f.getPath(key)

	if !FileExists(target) {
		return nil, Missing
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return nil, err
	}

	if compressed(key) {
		return Decompress(data)
	}
	return data, nil
}

func (f FSStore) Set(ctx context.Context, key string, data []byte) error {
	target := f.getPath(key)

	if compressed(key) {
		data = Compress(data)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	return WriteBytes(data, target)
}

var _ Store = (*FSStore)(nil)
