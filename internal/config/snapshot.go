package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// SnapshotFile is the copy of the effective configuration kept with each
// analysis directory.
const SnapshotFile = "config.toml"

// WriteSnapshot records the effective configuration, defaults included, so an
// analysis directory documents exactly what produced it.
func WriteSnapshot(path string, cfg *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config snapshot: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
