package bake

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/treebake/pkg/scene"
)

// Settings holds all bake configuration.
type Settings struct {
	Atlas      AtlasSettings     `yaml:"atlas"`
	LOD        LODSettings       `yaml:"lod"`
	Billboard  BillboardSettings `yaml:"billboard"`
	Components []scene.Component `yaml:"components,omitempty"`
	Logging    LoggingSettings   `yaml:"logging"`
}

// AtlasSettings holds texture atlas limits.
type AtlasSettings struct {
	// MaxSize is the maximum atlas page dimension in pixels.
	MaxSize int `yaml:"max_size"`
}

// LODSettings holds LOD hierarchy options.
type LODSettings struct {
	// RecenterPivot re-centers every LOD mesh horizontally around the
	// highest-detail pass's bounds center.
	RecenterPivot bool `yaml:"recenter_pivot"`
}

// BillboardSettings holds billboard LOD options.
type BillboardSettings struct {
	Enabled     bool `yaml:"enabled"`
	TextureSize int  `yaml:"texture_size"`
}

// LoggingSettings holds logging options for NewLogger.
type LoggingSettings struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// DefaultSettings returns Settings with sensible default values.
func DefaultSettings() Settings {
	return Settings{
		Atlas: AtlasSettings{
			MaxSize: 4096,
		},
		LOD: LODSettings{
			RecenterPivot: true,
		},
		Billboard: BillboardSettings{
			Enabled:     false,
			TextureSize: 256,
		},
		Logging: LoggingSettings{
			Level:   "info",
			LogFile: "",
		},
	}
}

// LoadSettings loads settings with priority defaults < file. A missing file
// is not an error; the defaults are returned unchanged.
func LoadSettings(path string) (Settings, error) {
	cfg := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("loading settings from %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("loading settings from %s: %w", path, err)
	}
	return cfg, nil
}

// SaveTo writes the settings to a specific path, creating parent directories
// as needed.
func (s *Settings) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
