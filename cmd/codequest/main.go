// codequest is a grid game for learning to program: write a short program,
// run it, and watch the character walk the level.
//
// Usage:
//
//	codequest levels                     - List available levels
//	codequest play [level]               - Play in the terminal
//	codequest run <level> <program.js>   - Run a program without the TUI
//	codequest scores <level>             - Show the best runs of a level
//	codequest serve                      - Start SSH server for remote play
//	codequest web                        - Start the HTTP API
//
// Global flags:
//
//	--fps <rate>     - Animation frame rate (default: from config)
//	--seed <value>   - RNG seed for random placement
//	--db <path>      - Run history database (default: ~/.codequest/runs.db)
//	--config <path>  - Custom config YAML
//	--levels <path>  - Extra level file or directory
//	--pace <preset>  - slow, normal, fast or instant
//
// Every global flag can also be set with a CODEQUEST_<FLAG> environment
// variable, e.g. CODEQUEST_PACE=fast.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vovakirdan/tui-codequest/internal/config"
	"github.com/vovakirdan/tui-codequest/internal/core"
	"github.com/vovakirdan/tui-codequest/internal/levels" // registers the built-in levels
)

// vp layers CODEQUEST_* environment variables over the persistent flags.
var vp = viper.New()

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "codequest",
	Short: "CodeQuest - learn to program by guiding a character across a grid",
	Long: `CodeQuest is a grid game for learning to program. Each level is a
small map with a start, a goal and things to collect; you write a short
program with moveForward(), turnLeft(), jump() and friends, and watch it run.

Available commands:
  levels   - Show all available levels
  play     - Play in the terminal (level menu when no level is given)
  run      - Run a program file headless and print what happened
  scores   - View the best runs of a level
  serve    - Start SSH server for remote play
  web      - Start the HTTP API and live websocket stream

Examples:
  codequest levels
  codequest play meadow
  codequest run meadow ./meadow.js --require-goal
  codequest serve --ssh :2222
  codequest web --http :8080`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.Int("fps", 0, "Animation frame rate (0 = from config)")
	flags.Int64("seed", 0, "RNG seed (0 = random based on time)")
	flags.String("db", "", "Path to run history database (default ~/.codequest/runs.db)")
	flags.String("config", "", "Path to custom config YAML")
	flags.String("levels", "", "Extra level YAML file, or a directory of them")
	flags.String("pace", "", "Animation pace: slow, normal, fast, instant")
	flags.String("player", "", "Name recorded with saved runs (default $USER)")
	flags.String("theme", "", "Colour theme: default, mono")
	flags.Bool("verbose", false, "Log debug messages")

	vp.SetEnvPrefix("codequest")
	vp.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vp.AutomaticEnv()
	if err := vp.BindPFlags(flags); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(levelsCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(webCmd)
}

// settings is everything the global flags resolve to.
type settings struct {
	Config  config.Config
	Runtime core.RuntimeConfig
	Logger  *log.Logger
	// Pace is the preset chosen on the command line, empty when none was.
	Pace config.PacePreset
}

// loadSettings reads the configuration, applies flag and environment
// overrides and registers extra levels. Operational logs go to logOut.
func loadSettings(logOut io.Writer) (settings, error) {
	logger := log.NewWithOptions(logOut, log.Options{
		ReportTimestamp: true,
		Prefix:          "codequest",
	})
	if vp.GetBool("verbose") {
		logger.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load(vp.GetString("config"))
	if err != nil {
		return settings{}, err
	}

	var set settings

	if pace := vp.GetString("pace"); pace != "" {
		preset, err := config.ParsePacePreset(pace)
		if err != nil {
			return settings{}, err
		}
		config.ApplyPacePreset(&cfg, preset)
		set.Pace = preset
	}
	if db := vp.GetString("db"); db != "" {
		cfg.Storage.Path = db
	}
	if fps := vp.GetInt("fps"); fps > 0 {
		cfg.Render.FrameRate = fps
	}
	if theme := vp.GetString("theme"); theme != "" {
		cfg.Render.Theme = theme
	}

	if path := vp.GetString("levels"); path != "" {
		n, errs := levels.LoadPath(path)
		for _, err := range errs {
			logger.Warn("skipped level", "path", path, "error", err)
		}
		logger.Debug("loaded levels", "path", path, "count", n)
	}

	rt := core.DefaultConfig()
	rt.TickRate = cfg.Render.FrameRate
	rt.Seed = vp.GetInt64("seed")
	rt.Player = playerName()

	set.Config, set.Runtime, set.Logger = cfg, rt, logger
	return set, nil
}

func playerName() string {
	if p := vp.GetString("player"); p != "" {
		return p
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}

// openLogFile returns the log file used while a full-screen UI owns the
// terminal, falling back to discarding logs.
func openLogFile() (io.Writer, func()) {
	dir := config.DataDir()
	if dir == "" {
		return io.Discard, func() {}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return io.Discard, func() {}
	}
	f, err := os.OpenFile(filepath.Join(dir, "codequest.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return io.Discard, func() {}
	}
	return f, func() { f.Close() }
}
