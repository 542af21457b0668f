// Package config provides YAML-based game configuration loading and
// difficulty management.
package config

// TilesConfig contains all configuration for the tile game.
type TilesConfig struct {
	Timing     TilesTiming      `yaml:"timing"`
	Field      TilesField       `yaml:"field"`
	Difficulty DifficultyConfig `yaml:"difficulty"`
}

// TilesTiming defines task periods in milliseconds.
type TilesTiming struct {
	TickMS    int `yaml:"tick_ms"`    // Fall tick period
	SpawnMS   int `yaml:"spawn_ms"`   // Periodic spawn period
	ReplaceMS int `yaml:"replace_ms"` // Delay before a hit tile is replaced
}

// TilesField defines play-field geometry in percent of its height.
type TilesField struct {
	FallStep      float64 `yaml:"fall_step"`
	SpawnPosition float64 `yaml:"spawn_position"`
	HitWindow     float64 `yaml:"hit_window"`
	HitExit       float64 `yaml:"hit_exit"`
	MissExit      float64 `yaml:"miss_exit"`
	TileHeight    float64 `yaml:"tile_height"`
}

// DifficultyConfig defines the difficulty progression system.
type DifficultyConfig struct {
	Enabled      bool              `yaml:"enabled"`
	InitialLevel float64           `yaml:"initial_level"` // 0.0 = easy, 1.0 = hard
	Progression  ProgressionConfig `yaml:"progression"`
	Scaling      ScalingConfig     `yaml:"scaling"`
}

// ProgressionConfig defines how difficulty increases.
type ProgressionConfig struct {
	Type  string `yaml:"type"`   // "score", "time", or "none"
	MaxAt int    `yaml:"max_at"` // Score/ticks at which max difficulty is reached
}

// ScalingConfig defines the magnitude of difficulty changes.
type ScalingConfig struct {
	SpeedMultiplier float64 `yaml:"speed_multiplier"` // Added to fall speed at max difficulty
}

// DifficultyPreset represents a named difficulty level.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
	DifficultyFixed  DifficultyPreset = "fixed"
)

// ParsePreset validates a preset name. The empty string means no preset.
func ParsePreset(s string) (DifficultyPreset, bool) {
	switch p := DifficultyPreset(s); p {
	case "", DifficultyEasy, DifficultyNormal, DifficultyHard, DifficultyFixed:
		return p, true
	}
	return "", false
}

// InitialLevelForPreset returns the initial_level for a difficulty preset.
func InitialLevelForPreset(preset DifficultyPreset) float64 {
	switch preset {
	case DifficultyEasy:
		return 0.0
	case DifficultyNormal:
		return 0.3
	case DifficultyHard:
		return 0.7
	default:
		return 0.0
	}
}
