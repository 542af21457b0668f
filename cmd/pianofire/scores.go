package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/piano-fire/internal/registry"
	"github.com/vovakirdan/piano-fire/internal/storage"
)

var (
	flagScoresLimit  int
	flagScoresPlayer string
	flagScoresStats  bool
	flagScoresClear  bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores [mode]",
	Short: "Show high scores",
	Long: `Display the best rounds of a mode (classic if omitted).

Examples:
  pianofire scores
  pianofire scores rush --limit 20
  pianofire scores --player ann
  pianofire scores --stats
  pianofire scores rush --clear`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScores,
}

func init() {
	scoresCmd.Flags().IntVar(&flagScoresLimit, "limit", 10, "Number of rounds to show")
	scoresCmd.Flags().StringVar(&flagScoresPlayer, "player", "", "Only show rounds of this player")
	scoresCmd.Flags().BoolVar(&flagScoresStats, "stats", false, "Show totals for every mode")
	scoresCmd.Flags().BoolVar(&flagScoresClear, "clear", false, "Delete every recorded round of the mode")
}

func runScores(_ *cobra.Command, args []string) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("opening scores database: %w", err)
	}
	defer store.Close()

	if flagScoresStats {
		return printStats(store)
	}

	mode := "classic"
	if len(args) > 0 {
		mode = args[0]
	}
	if !registry.Exists(mode) {
		return fmt.Errorf("unknown mode %q, run 'pianofire list' to see the modes", mode)
	}

	if flagScoresClear {
		if err := store.ClearScores(mode); err != nil {
			return fmt.Errorf("clearing scores: %w", err)
		}
		fmt.Printf("Cleared all %s scores.\n", mode)
		return nil
	}

	var scores []storage.ScoreEntry
	if flagScoresPlayer != "" {
		scores, err = store.PlayerScores(mode, flagScoresPlayer, flagScoresLimit)
	} else {
		scores, err = store.TopScores(mode, flagScoresLimit)
	}
	if err != nil {
		return fmt.Errorf("retrieving scores: %w", err)
	}

	title := mode
	for _, m := range registry.List() {
		if m.ID == mode {
			title = m.Title
		}
	}
	fmt.Printf("High Scores - %s\n", title)
	fmt.Println()

	if len(scores) == 0 {
		fmt.Println("No scores recorded yet.")
		fmt.Println()
		fmt.Printf("Play 'pianofire play %s' to set the first high score!\n", mode)
		return nil
	}

	fmt.Printf("  %-4s  %-16s  %-8s  %s\n", "Rank", "Player", "Score", "Date")
	fmt.Printf("  %-4s  %-16s  %-8s  %s\n", "----", "------", "-----", "----")
	for i, entry := range scores {
		fmt.Printf("  %-4d  %-16s  %-8d  %s\n", i+1, entry.Player, entry.Score, entry.CreatedAt.Format("2006-01-02 15:04"))
	}

	fmt.Println()
	if highScore, err := store.HighScore(mode); err == nil {
		fmt.Printf("Best: %d\n", highScore)
	}
	return nil
}

func printStats(store *storage.Store) error {
	stats, err := store.GetAllGamesStats()
	if err != nil {
		return fmt.Errorf("retrieving stats: %w", err)
	}
	if len(stats) == 0 {
		fmt.Println("No rounds recorded yet.")
		return nil
	}

	ids := make([]string, 0, len(stats))
	for id := range stats {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	fmt.Printf("  %-10s  %-7s  %-7s  %-6s  %-7s  %s\n", "Mode", "Rounds", "Players", "Best", "Avg", "Last played")
	fmt.Printf("  %-10s  %-7s  %-7s  %-6s  %-7s  %s\n", "----", "------", "-------", "----", "---", "-----------")
	for _, id := range ids {
		s := stats[id]
		fmt.Printf("  %-10s  %-7d  %-7d  %-6d  %-7.1f  %s\n",
			id, s.GamesCount, s.Players, s.HighScore, s.AvgScore, s.LastPlayed.Format("2006-01-02 15:04"))
	}
	return nil
}
