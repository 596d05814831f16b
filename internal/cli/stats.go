package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Draphar/redditrip/internal/config"
	"github.com/Draphar/redditrip/internal/store"
)

var statsFormat string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show download history per target",
	RunE:  statsAction,
}

func init() {
	statsCmd.Flags().StringVar(&statsFormat, "format", "terminal", "output format: terminal, json")
	rootCmd.AddCommand(statsCmd)
}

func statsAction(cmd *cobra.Command, _ []string) error {
	path := flagConfig
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Normalize(); err != nil {
		return err
	}
	if !cfg.HistoryEnabled() {
		fmt.Fprintln(os.Stdout, "Download history is disabled.")
		return nil
	}

	db, err := store.Open(cfg.History)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() { _ = db.Close() }()

	stats, err := db.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	switch statsFormat {
	case "json":
		return printStatsJSON(os.Stdout, stats)
	case "terminal", "":
		printStats(os.Stdout, stats)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want terminal or json)", statsFormat)
	}
}

type jsonTargetStats struct {
	Target  string    `json:"target"`
	Saved   int       `json:"saved"`
	Failed  int       `json:"failed"`
	LastRun time.Time `json:"last_run"`
}

func printStatsJSON(w io.Writer, stats []store.TargetStats) error {
	out := make([]jsonTargetStats, 0, len(stats))
	for _, ts := range stats {
		out = append(out, jsonTargetStats{
			Target:  ts.Target,
			Saved:   ts.Saved,
			Failed:  ts.Failed,
			LastRun: ts.LastRun,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printStats(w io.Writer, stats []store.TargetStats) {
	if len(stats) == 0 {
		fmt.Fprintln(w, "No downloads recorded yet.")
		return
	}

	totalSaved, totalFailed := 0, 0
	maxTarget := 6 // minimum "Target"
	for _, ts := range stats {
		totalSaved += ts.Saved
		totalFailed += ts.Failed
		if len(ts.Target) > maxTarget {
			maxTarget = len(ts.Target)
		}
	}

	fmt.Fprintf(w, "redditrip stats — %d saved, %d failed across %d targets\n\n", totalSaved, totalFailed, len(stats))
	fmt.Fprintf(w, "  %-*s  %6s  %6s  %s\n", maxTarget, "Target", "Saved", "Failed", "Last run")
	for _, ts := range stats {
		fmt.Fprintf(w, "  %-*s  %6d  %6d  %s\n", maxTarget, ts.Target, ts.Saved, ts.Failed, ts.LastRun.Format("2006-01-02 15:04"))
	}
}
