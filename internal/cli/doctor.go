package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Draphar/redditrip/internal/config"
	"github.com/Draphar/redditrip/internal/fetch"
	"github.com/Draphar/redditrip/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and external dependencies",
	RunE:  doctorAction,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func doctorAction(cmd *cobra.Command, _ []string) error {
	ok := true

	// Config file
	path := flagConfig
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err == nil {
		err = cfg.Normalize()
	}
	if err != nil {
		printCheck(false, "config %s: %v", path, err)
		ok = false
		cfg = nil
	} else {
		printCheck(true, "config %s", path)
	}

	if cfg != nil {
		// Output directory
		if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
			printCheck(false, "output directory %s: %v", cfg.Output, err)
			ok = false
		} else if probe, err := os.CreateTemp(cfg.Output, ".redditrip-doctor-*"); err != nil {
			printCheck(false, "output directory %s not writable: %v", cfg.Output, err)
			ok = false
		} else {
			_ = probe.Close()
			_ = os.Remove(probe.Name())
			printCheck(true, "output directory %s", cfg.Output)
		}

		// ffmpeg, only needed for merged v.redd.it audio
		if cfg.VRedditMode == string(fetch.VRedditFfmpeg) {
			if err := fetch.FfmpegAvailable(); err != nil {
				printCheck(false, "ffmpeg not found: %v", err)
				ok = false
			} else {
				printCheck(true, "ffmpeg")
			}
		}

		// History database
		if cfg.HistoryEnabled() {
			db, err := store.Open(cfg.History)
			if err != nil {
				printCheck(false, "history database %s: %v", cfg.History, err)
				ok = false
			} else {
				stats, err := db.Stats(cmd.Context())
				_ = db.Close()
				if err != nil {
					printCheck(false, "history database %s: %v", cfg.History, err)
					ok = false
				} else {
					printCheck(true, "history database %s (%d targets)", cfg.History, len(stats))
				}
			}
		}
	}

	if !ok {
		return fmt.Errorf("some checks failed")
	}
	fmt.Println("\nAll checks passed.")
	return nil
}

func printCheck(pass bool, format string, args ...any) {
	mark := "FAIL"
	if pass {
		mark = " OK "
	}
	fmt.Printf("[%s] %s\n", mark, fmt.Sprintf(format, args...))
}
