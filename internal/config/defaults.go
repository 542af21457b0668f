package config

import (
	_ "embed"
)

//go:embed defaults/tiles.yaml
var defaultTilesYAML []byte

// DefaultTilesConfig returns the built-in tile configuration.
func DefaultTilesConfig() TilesConfig {
	return TilesConfig{
		Timing: TilesTiming{
			TickMS:    16,
			SpawnMS:   2000,
			ReplaceMS: 100,
		},
		Field: TilesField{
			FallStep:      1.0,
			SpawnPosition: -25,
			HitWindow:     100,
			HitExit:       110,
			MissExit:      105,
			TileHeight:    25,
		},
		Difficulty: DifficultyConfig{
			Enabled:      true,
			InitialLevel: 0.0,
			Progression: ProgressionConfig{
				Type:  "score",
				MaxAt: 100,
			},
			Scaling: ScalingConfig{
				SpeedMultiplier: 1.5,
			},
		},
	}
}

// DefaultYAML returns the embedded default YAML, used by `pianofire config`.
func DefaultYAML() []byte {
	return defaultTilesYAML
}
