// Package tiles implements the tile loop: falling tiles in four columns,
// hit and miss detection, scoring and game over.
//
// State transitions are pure functions over a State value. Engine binds them
// to a Scheduler that drives the fall tick, the spawn timer and the delayed
// replacement spawns.
package tiles

// Columns is the number of lanes tiles fall in.
const Columns = 4

// TileID identifies a tile for the lifetime of an engine, across restarts.
type TileID uint64

// Tile is a single falling tile.
type Tile struct {
	ID       TileID  `json:"id"`
	Column   int     `json:"column"`
	Position float64 `json:"position"` // Top edge, percent of field height
	Hit      bool    `json:"hit"`
	Missed   bool    `json:"missed"`
}

// Field holds the vertical thresholds of the play field, in percent.
type Field struct {
	SpawnPosition float64 // Where new tiles appear (above the visible area)
	HitWindow     float64 // An unhit tile reaching this is missed
	HitExit       float64 // Hit tiles are removed past this
	MissExit      float64 // Unhit tiles are removed past this
	TileHeight    float64 // Visual height of a tile
}

// DefaultField returns the standard thresholds.
func DefaultField() Field {
	return Field{
		SpawnPosition: -25,
		HitWindow:     100,
		HitExit:       110,
		MissExit:      105,
		TileHeight:    25,
	}
}

// State is the complete game state.
// Playing and GameOver are never both true.
type State struct {
	Tiles    []Tile `json:"tiles"` // Spawn order
	Score    int    `json:"score"`
	Playing  bool   `json:"playing"`
	GameOver bool   `json:"game_over"`
	Ticks    int    `json:"ticks"`   // Ticks in the current round
	Version  uint64 `json:"version"` // Bumped on every change
	NextID   TileID `json:"-"`
}

// Clone returns a copy that shares no memory with s.
func (s State) Clone() State {
	c := s
	if s.Tiles != nil {
		c.Tiles = make([]Tile, len(s.Tiles))
		copy(c.Tiles, s.Tiles)
	}
	return c
}

// Find returns the tile with the given id.
func (s State) Find(id TileID) (Tile, bool) {
	for _, t := range s.Tiles {
		if t.ID == id {
			return t, true
		}
	}
	return Tile{}, false
}

// Visible reports whether any part of t is inside the field.
func (f Field) Visible(t Tile) bool {
	return t.Position > -f.TileHeight
}

// Lowest returns the visible, unhit, unmissed tile furthest down a column.
func (s State) Lowest(column int, f Field) (Tile, bool) {
	var best Tile
	found := false
	for _, t := range s.Tiles {
		if t.Column != column || t.Hit || t.Missed || !f.Visible(t) {
			continue
		}
		if !found || t.Position > best.Position {
			best = t
			found = true
		}
	}
	return best, found
}

// Start resets s for a new round. Tile IDs keep counting.
func Start(s State) State {
	return State{
		Tiles:    []Tile{},
		Score:    0,
		Playing:  true,
		GameOver: false,
		Version:  s.Version + 1,
		NextID:   s.NextID,
	}
}

// Spawn appends a tile in the given column at the field's spawn position.
// It is a no-op unless a round is in progress.
func Spawn(s State, column int, f Field) State {
	if !s.Playing {
		return s
	}
	next := s.Clone()
	next.NextID++
	next.Tiles = append(next.Tiles, Tile{
		ID:       next.NextID,
		Column:   column,
		Position: f.SpawnPosition,
	})
	next.Version++
	return next
}

// Advance moves every tile down by step. An unhit tile reaching the hit
// window is marked missed and ends the round; the tile list is then left
// unfiltered so the miss stays visible. Otherwise tiles past their exit
// threshold are dropped. The second result reports whether the round ended.
func Advance(s State, step float64, f Field) (State, bool) {
	if !s.Playing {
		return s, false
	}

	next := s.Clone()
	next.Ticks++
	next.Version++

	missed := false
	for i := range next.Tiles {
		t := &next.Tiles[i]
		t.Position += step
		if !t.Hit && t.Position >= f.HitWindow {
			t.Missed = true
		}
		if t.Missed {
			missed = true
		}
	}

	if missed {
		next.Playing = false
		next.GameOver = true
		return next, true
	}

	kept := next.Tiles[:0]
	for _, t := range next.Tiles {
		if (t.Hit && t.Position <= f.HitExit) || (!t.Hit && t.Position <= f.MissExit) {
			kept = append(kept, t)
		}
	}
	next.Tiles = kept
	return next, false
}

// Hit marks a tile as hit and scores one point. It reports false, leaving s
// unchanged, when no round is in progress or the tile is unknown, already
// hit or missed.
func Hit(s State, id TileID) (State, bool) {
	if !s.Playing || s.GameOver {
		return s, false
	}

	idx := -1
	for i, t := range s.Tiles {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 || s.Tiles[idx].Hit || s.Tiles[idx].Missed {
		return s, false
	}

	next := s.Clone()
	next.Tiles[idx].Hit = true
	next.Score++
	next.Version++
	return next, true
}
