package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-codequest/internal/registry"
	"github.com/vovakirdan/tui-codequest/internal/storage"
)

var (
	flagScoresLimit int
	flagScoresClear bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores <level>",
	Short: "Show the best runs of a level",
	Long: `Display the best runs recorded for the specified level, highest score
first.

Examples:
  codequest scores meadow
  codequest scores meadow --limit 3
  codequest scores meadow --clear`,
	Args: cobra.ExactArgs(1),
	RunE: runScores,
}

func init() {
	scoresCmd.Flags().IntVar(&flagScoresLimit, "limit", 10, "Number of runs to show")
	scoresCmd.Flags().BoolVar(&flagScoresClear, "clear", false, "Delete every recorded run of the level")
}

func runScores(_ *cobra.Command, args []string) error {
	set, err := loadSettings(os.Stderr)
	if err != nil {
		return err
	}

	levelID := args[0]
	def, err := registry.Create(levelID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Run 'codequest levels' to see available levels.")
		return err
	}
	title := def.Name
	if title == "" {
		title = def.ID
	}

	store, err := storage.Open(set.Config.StoragePath())
	if err != nil {
		return fmt.Errorf("opening run history: %w", err)
	}
	defer store.Close()

	if flagScoresClear {
		if err := store.ClearRuns(levelID); err != nil {
			return err
		}
		fmt.Printf("Cleared the run history of %s.\n", title)
		return nil
	}

	runs, err := store.TopRuns(levelID, flagScoresLimit)
	if err != nil {
		return fmt.Errorf("retrieving runs: %w", err)
	}

	fmt.Printf("Best Runs - %s\n", title)
	fmt.Println()

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Printf("Play 'codequest play %s' to set the first score!\n", levelID)
		return nil
	}

	fmt.Printf("  %-4s  %-6s  %-5s  %-4s  %-12s  %s\n", "Rank", "Score", "Cells", "Goal", "Player", "Date")
	fmt.Printf("  %-4s  %-6s  %-5s  %-4s  %-12s  %s\n", "----", "-----", "-----", "----", "------", "----")

	for i, run := range runs {
		goal := ""
		if run.GoalReached {
			goal = "★"
		}
		fmt.Printf("  %-4d  %-6d  %-5d  %-4s  %-12s  %s\n",
			i+1, run.Score, run.Cells, goal, run.Player, run.CreatedAt.Format("2006-01-02 15:04"))
	}

	stats, err := store.GetLevelStats(levelID)
	if err == nil && stats != nil {
		fmt.Println()
		fmt.Printf("Best: %d   Runs: %d   Goal reached: %d\n", stats.BestScore, stats.Runs, stats.Completed)
	}
	return nil
}
