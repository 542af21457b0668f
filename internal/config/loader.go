package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/piano-fire/internal/tiles"
)

// ConfigDir is the per-user directory holding configs, scores and keys.
const ConfigDir = ".pianofire"

// LoadTiles loads the tile configuration.
// Search order: customPath -> ~/.pianofire/configs/tiles.yaml -> ./configs/tiles.yaml -> embedded default
func LoadTiles(customPath string) (TilesConfig, error) {
	cfg := DefaultTilesConfig()

	// An explicit path must exist and parse
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("config: failed to read %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: failed to parse %s: %w", customPath, err)
		}
		if err := cfg.Validate(); err != nil {
			return cfg, fmt.Errorf("config: %s: %w", customPath, err)
		}
		return cfg, nil
	}

	candidates := []string{filepath.Join("configs", "tiles.yaml")}
	if userCfgPath := userConfigPath("tiles.yaml"); userCfgPath != "" {
		candidates = append([]string{userCfgPath}, candidates...)
	}
	for _, path := range candidates {
		if loaded, ok := tryLoad(path); ok {
			return loaded, nil
		}
	}

	// Use embedded default YAML
	embedded := DefaultTilesConfig()
	if err := yaml.Unmarshal(defaultTilesYAML, &embedded); err != nil || embedded.Validate() != nil {
		return DefaultTilesConfig(), nil // Fallback to hardcoded if embed fails
	}
	return embedded, nil
}

// tryLoad reads an optional config file; unreadable or invalid files are skipped.
func tryLoad(path string) (TilesConfig, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TilesConfig{}, false
	}
	cfg := DefaultTilesConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return TilesConfig{}, false
	}
	if cfg.Validate() != nil {
		return TilesConfig{}, false
	}
	return cfg, true
}

// userConfigPath returns the path to a user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ConfigDir, "configs", filename)
}

// Validate checks that timings are positive and thresholds are ordered.
func (c TilesConfig) Validate() error {
	var errs []error
	if c.Timing.TickMS <= 0 {
		errs = append(errs, fmt.Errorf("timing.tick_ms must be positive, got %d", c.Timing.TickMS))
	}
	if c.Timing.SpawnMS <= 0 {
		errs = append(errs, fmt.Errorf("timing.spawn_ms must be positive, got %d", c.Timing.SpawnMS))
	}
	if c.Timing.ReplaceMS < 0 {
		errs = append(errs, fmt.Errorf("timing.replace_ms must not be negative, got %d", c.Timing.ReplaceMS))
	}
	if c.Field.FallStep <= 0 {
		errs = append(errs, fmt.Errorf("field.fall_step must be positive, got %g", c.Field.FallStep))
	}
	if c.Field.TileHeight <= 0 {
		errs = append(errs, fmt.Errorf("field.tile_height must be positive, got %g", c.Field.TileHeight))
	}
	if c.Field.SpawnPosition >= c.Field.HitWindow {
		errs = append(errs, errors.New("field.spawn_position must be above field.hit_window"))
	}
	if c.Field.HitExit < c.Field.HitWindow || c.Field.MissExit < c.Field.HitWindow {
		errs = append(errs, errors.New("field exit thresholds must not be above field.hit_window"))
	}
	return errors.Join(errs...)
}

// ApplyTilesPreset modifies the config based on a difficulty preset.
func ApplyTilesPreset(cfg *TilesConfig, preset DifficultyPreset) {
	switch preset {
	case "":
		return
	case DifficultyFixed:
		cfg.Difficulty.Enabled = false
	default:
		cfg.Difficulty.Enabled = true
		cfg.Difficulty.InitialLevel = InitialLevelForPreset(preset)
	}

	// Spawn pressure follows the preset too
	switch preset {
	case DifficultyEasy:
		cfg.Timing.SpawnMS = cfg.Timing.SpawnMS * 3 / 2
	case DifficultyHard:
		cfg.Timing.SpawnMS = cfg.Timing.SpawnMS * 2 / 3
	}
}

// Engine converts the config into tile loop settings.
func (c TilesConfig) Engine() tiles.Config {
	return tiles.Config{
		TickInterval:  time.Duration(c.Timing.TickMS) * time.Millisecond,
		SpawnInterval: time.Duration(c.Timing.SpawnMS) * time.Millisecond,
		ReplaceDelay:  time.Duration(c.Timing.ReplaceMS) * time.Millisecond,
		FallStep:      c.Field.FallStep,
		Field: tiles.Field{
			SpawnPosition: c.Field.SpawnPosition,
			HitWindow:     c.Field.HitWindow,
			HitExit:       c.Field.HitExit,
			MissExit:      c.Field.MissExit,
			TileHeight:    c.Field.TileHeight,
		},
	}
}
