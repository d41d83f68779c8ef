package fsstore

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bitfsorg/hoard-go/codec"
)

// ConfigFile is the name of the config file under the store root.
const ConfigFile = "config"

// Config is the on-disk store configuration. Depth is only set for hashed stores.
type Config struct {
	Compression string `yaml:"compression"`
	Codec       string `yaml:"codec"`
	Depth       *int   `yaml:"depth,omitempty"`
}

// Sharded reports whether the config describes a hashed store.
func (c Config) Sharded() bool { return c.Depth != nil }

func (c Config) validate() error {
	if _, err := normalizeCompression(c.Compression); err != nil {
		return err
	}
	if _, err := codec.Get(c.Codec); err != nil {
		return err
	}
	if c.Depth != nil && *c.Depth < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidDepth, *c.Depth)
	}
	return nil
}

func readConfig(root string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(filepath.Join(root, ConfigFile))
	if err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if cfg.Codec == "" {
		cfg.Codec = codec.Default
	}
	cfg.Compression, err = normalizeCompression(cfg.Compression)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.validate()
}

func writeConfig(root string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return atomicWrite(filepath.Join(root, ConfigFile), data, 0o600)
}
