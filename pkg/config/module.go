package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DEFAULT []byte

var hashPattern = regexp.MustCompile(`^[0-9A-Fa-f]{8}$`)

// decode overlays a document onto config. Fields missing from the
// document keep their current value. JSON documents are valid YAML.
func decode(config *Config, data []byte) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	err := decoder.Decode(config)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func readFile(config *Config, path string) error {
	// Check if this is a valid file
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("does not exist")
	}

	extension := filepath.Ext(path)
	switch extension {
	case ".json", ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return decode(config, data)
	}

	return fmt.Errorf(
		"not in a valid format",
	)
}

// Validate checks that the limits are usable and drops empty area
// patterns.
func (c *Config) Validate() error {
	if c.GlobalBankLimit < 0 {
		return fmt.Errorf("globalBankLimit must not be negative")
	}
	if c.LocalBankLimit < 0 {
		return fmt.Errorf("localBankLimit must not be negative")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.BoundsMinVertexLoads < 1 {
		return fmt.Errorf("boundsMinVertexLoads must be at least 1")
	}

	for _, hash := range c.TextureCutoutHashBlacklist {
		if !hashPattern.MatchString(hash) {
			return fmt.Errorf("invalid texture hash %q", hash)
		}
	}

	for _, patterns := range []*AreaPatterns{&c.VerboseDebugAreas, &c.UVFixBlacklist} {
		kept := (*patterns)[:0]
		for _, pattern := range *patterns {
			if !pattern.Empty() {
				kept = append(kept, pattern)
			}
		}
		*patterns = kept
	}

	return nil
}

// Process reads the default configuration and then overlays the provided
// configuration files in order. The result is validated.
func Process(configPaths []string) (*Config, error) {
	config := Config{}
	if err := decode(&config, DEFAULT); err != nil {
		return nil, fmt.Errorf(
			"invalid default config file: %v",
			err,
		)
	}

	for _, path := range configPaths {
		err := readFile(&config, path)
		if err != nil {
			return nil, fmt.Errorf(
				"could not process config file %s: %v",
				path,
				err,
			)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf(
			"config is not valid: %v",
			err,
		)
	}

	return &config, nil
}
