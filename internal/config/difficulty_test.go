package config

import (
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDifficultyLevel(t *testing.T) {
	cfg := DefaultTilesConfig().Difficulty // score progression, max at 100

	tests := []struct {
		name   string
		modify func(*DifficultyConfig)
		score  int
		ticks  int
		want   float64
	}{
		{"start", func(*DifficultyConfig) {}, 0, 0, 0},
		{"halfway", func(*DifficultyConfig) {}, 50, 0, 0.5},
		{"capped", func(*DifficultyConfig) {}, 500, 0, 1},
		{"initial level", func(c *DifficultyConfig) { c.InitialLevel = 0.5 }, 50, 0, 0.75},
		{"disabled", func(c *DifficultyConfig) { c.Enabled = false; c.InitialLevel = 0.3 }, 80, 0, 0.3},
		{"none", func(c *DifficultyConfig) { c.Progression.Type = "none" }, 80, 0, 0},
		{"time", func(c *DifficultyConfig) { c.Progression.Type = "time"; c.Progression.MaxAt = 1000 }, 0, 250, 0.25},
		{"zero max_at", func(c *DifficultyConfig) { c.Progression.MaxAt = 0 }, 1, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cfg
			tt.modify(&c)
			got := NewDifficultyManager(c).Level(tt.score, tt.ticks)
			if !approx(got, tt.want) {
				t.Errorf("Level(%d, %d) = %g, want %g", tt.score, tt.ticks, got, tt.want)
			}
		})
	}
}

func TestDifficultySpeedAndPace(t *testing.T) {
	d := NewDifficultyManager(DefaultTilesConfig().Difficulty)

	if got := d.Speed(1, 0, 0); !approx(got, 1) {
		t.Errorf("Speed at start = %g, want 1", got)
	}
	// Max difficulty adds the full multiplier
	if got := d.Speed(1, 100, 0); !approx(got, 2.5) {
		t.Errorf("Speed at max = %g, want 2.5", got)
	}

	pace := d.Pace(2)
	if got := pace(50, 0); !approx(got, d.Speed(2, 50, 0)) {
		t.Errorf("pace(50) = %g, want %g", got, d.Speed(2, 50, 0))
	}
}
