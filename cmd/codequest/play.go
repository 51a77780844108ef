package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-codequest/internal/config"
	"github.com/vovakirdan/tui-codequest/internal/platform/tui"
	"github.com/vovakirdan/tui-codequest/internal/registry"
	"github.com/vovakirdan/tui-codequest/internal/storage"
)

var playCmd = &cobra.Command{
	Use:   "play [level]",
	Short: "Play in the terminal",
	Long: `Open a level with the program editor, or the level menu when no level
is given. Leaving a level returns to the menu.

Controls:
  ctrl+r     - Run the program
  ctrl+x     - Reset the level
  ctrl+s     - Save the program to ~/.codequest/programs
  tab        - Switch between editor and log
  esc        - Back to the level menu
  ctrl+c     - Quit

Examples:
  codequest play
  codequest play meadow
  codequest play meadow --pace fast
  codequest play --levels ./my-levels`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func runPlay(_ *cobra.Command, args []string) error {
	logOut, closeLog := openLogFile()
	defer closeLog()

	set, err := loadSettings(logOut)
	if err != nil {
		return err
	}

	var levelID string
	if len(args) == 1 {
		levelID = args[0]
		if !registry.Exists(levelID) {
			fmt.Fprintln(os.Stderr, "Run 'codequest levels' to see available levels.")
			return fmt.Errorf("unknown level %q", levelID)
		}
	}

	// Open run history
	store, err := storage.Open(set.Config.StoragePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open run history: %v\n", err)
		// Continue without storage - the game still works
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	rt := set.Runtime
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		rt.ScreenW = w
		rt.ScreenH = h
	}

	opts := tui.PlayOptions{
		Config:     set.Config,
		Runtime:    rt,
		Store:      store,
		Logger:     set.Logger,
		ProgramDir: programDir(),
	}

	if levelID != "" {
		back, err := playLevel(levelID, &opts)
		if err != nil || !back {
			return err
		}
	}
	return menuLoop(&opts)
}

// menuLoop shows the level menu until the player quits.
func menuLoop(opts *tui.PlayOptions) error {
	theme := tui.ThemeByName(opts.Config.Render.Theme)
	for {
		result, err := tui.RunMenu(opts.Store, opts.Runtime, theme, opts.Logger)
		if err != nil {
			return err
		}
		// Update config with any size changes
		opts.Runtime = result.Config

		if result.Quit {
			return nil
		}

		if result.WantsScoreboard {
			goBack, err := tui.RunScoreboard(opts.Store, "", opts.Runtime.ScreenW, opts.Runtime.ScreenH, opts.Logger)
			if err != nil {
				return err
			}
			if goBack {
				continue
			}
			return nil
		}

		if result.LevelID == "" {
			return nil
		}
		back, err := playLevel(result.LevelID, opts)
		if err != nil {
			return err
		}
		if !back {
			return nil
		}
	}
}

// playLevel plays one level and reports whether the player went back to
// the menu.
func playLevel(levelID string, opts *tui.PlayOptions) (bool, error) {
	def, err := registry.Create(levelID)
	if err != nil {
		return false, err
	}

	rt := opts.Runtime
	if rt.Seed == 0 {
		// Fresh random placement each time a level is opened
		rt.Seed = time.Now().UnixNano()
	}
	play := *opts
	play.Runtime = rt

	back, updated, err := tui.RunPlay(def, play)
	if err != nil {
		return false, fmt.Errorf("playing %s: %w", levelID, err)
	}
	opts.Runtime.ScreenW = updated.ScreenW
	opts.Runtime.ScreenH = updated.ScreenH
	return back, nil
}

func programDir() string {
	dir := config.DataDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "programs")
}
