package assets

import (
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
)

func FileExists(path string) bool {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return true
	}
	return false
}

func WriteBytes(data []byte, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = out.Write(data)
	if err != nil {
		return err
	}

	return nil
}

// Both are safe for concurrent use through EncodeAll and DecodeAll.
var (
	encoder, _ = zstd.NewWriter(nil)
	decoder, _ = zstd.NewReader(nil)
)

func Compress(data []byte) []byte {
	return encoder.EncodeAll(data, make([]byte, 0, len(data)))
}

func Decompress(data []byte) ([]byte, error) {
	out, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("could not decompress: %w", err)
	}
	return out, nil
}
