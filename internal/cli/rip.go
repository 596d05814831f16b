package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Draphar/redditrip/internal/config"
	"github.com/Draphar/redditrip/internal/fetch"
	"github.com/Draphar/redditrip/internal/logger"
	"github.com/Draphar/redditrip/internal/pushshift"
	"github.com/Draphar/redditrip/internal/rip"
	"github.com/Draphar/redditrip/internal/store"
	"github.com/Draphar/redditrip/internal/title"
	"github.com/Draphar/redditrip/internal/web"
)

var (
	flagVerbose  int
	flagQuiet    bool
	flagColor    string
	flagConfig   string
	flagAfter    string
	flagBefore   string
	flagOutput   string
	flagNoParent bool
	flagForce    bool
	flagUpdate   bool
	flagSelf     bool

	flagQueueSize   int
	flagNameLength  int
	flagTitle       string
	flagGfycatType  string
	flagVRedditMode string
	flagAllow       []string
	flagExclude     []string
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.CountVarP(&flagVerbose, "verbose", "v", "increase log verbosity, repeatable")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "only log errors")
	pf.StringVar(&flagColor, "color", "auto", "colorize output: auto, always, never")
	pf.StringVar(&flagConfig, "config", "", "config file (default ~/.redditrip.yaml)")

	f := rootCmd.Flags()
	f.StringVarP(&flagOutput, "output", "o", "", "output directory")
	f.BoolVar(&flagNoParent, "no-parent", false, "save directly into the output directory")
	f.BoolVar(&flagForce, "force", false, "download from unsupported domains as-is")
	f.BoolVarP(&flagUpdate, "update", "u", false, "stop at the newest post of the previous run")
	f.BoolVarP(&flagSelf, "selfposts", "s", false, "include self posts, saved as text files")
	f.StringVar(&flagAfter, "after", "", "only posts after this date")
	f.StringVar(&flagBefore, "before", "", "only posts before this date")
	f.IntVarP(&flagQueueSize, "queue-size", "b", 0, "maximum concurrent downloads")
	f.IntVar(&flagNameLength, "max-file-name-length", 0, "byte budget for generated file names")
	f.StringVarP(&flagTitle, "title", "t", "", "file name template, see 'redditrip fields'")
	f.StringVar(&flagGfycatType, "gfycat-type", "", "preferred gfycat format: mp4, webm")
	f.StringVar(&flagVRedditMode, "vreddit-mode", "", "v.redd.it handling: no-audio, ffmpeg, or a URL pattern")
	f.StringSliceVar(&flagAllow, "allow", nil, "only download from these domains")
	f.StringSliceVar(&flagExclude, "exclude", nil, "never download from these domains")
}

func ripAction(cmd *cobra.Command, args []string) error {
	if err := initLogger(); err != nil {
		return err
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	if err := checkTools(cfg); err != nil {
		return err
	}

	targets := make([]pushshift.Target, 0, len(args))
	for _, arg := range args {
		target, err := pushshift.ParseTarget(arg)
		if err != nil {
			return err
		}
		targets = append(targets, target)
	}

	template := title.Compile(cfg.Title)
	if !template.UsesID() {
		logger.Warnf("The file name template does not contain {id}, posts with equal titles will overwrite each other")
	}

	client := web.NewClient()

	var history rip.History
	if cfg.HistoryEnabled() {
		db, err := store.Open(cfg.History)
		if err != nil {
			logger.Warnf("Download history disabled: %v", err)
		} else {
			defer func() { _ = db.Close() }()
			history = db
		}
	}

	ripper := &rip.Ripper{
		Client:  client,
		Pager:   pushshift.NewClient(client),
		Config:  cfg,
		Title:   template,
		History: history,
		TempDir: os.TempDir(),
	}

	summary, err := ripper.Run(cmd.Context(), targets)
	if summary.Saved > 0 || summary.Failed > 0 {
		logger.Infof("Done, saved %d files, %d failed", summary.Saved, summary.Failed)
	}
	return err
}

// buildConfig layers the command line over the config file and validates
// the result.
func buildConfig() (*config.Config, error) {
	path := flagConfig
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if flagOutput != "" {
		cfg.Output = flagOutput
	}
	if flagNoParent {
		cfg.NoParent = true
	}
	if flagForce {
		cfg.Force = true
	}
	if flagUpdate {
		cfg.Update = true
	}
	if flagSelf {
		cfg.SelfPosts = true
	}
	if flagQueueSize != 0 {
		cfg.QueueSize = flagQueueSize
	}
	if flagNameLength != 0 {
		cfg.MaxFileNameLength = flagNameLength
	}
	if flagTitle != "" {
		cfg.Title = flagTitle
	}
	if flagGfycatType != "" {
		cfg.GfycatType = flagGfycatType
	}
	if flagVRedditMode != "" {
		cfg.VRedditMode = flagVRedditMode
	}
	if len(flagAllow) > 0 {
		cfg.Allow = flagAllow
	}
	if len(flagExclude) > 0 {
		cfg.Exclude = flagExclude
	}

	for i, d := range cfg.Allow {
		if cfg.Allow[i], err = config.ParseDomain(d); err != nil {
			return nil, err
		}
	}
	for i, d := range cfg.Exclude {
		if cfg.Exclude[i], err = config.ParseDomain(d); err != nil {
			return nil, err
		}
	}

	if flagAfter != "" {
		if cfg.After, err = config.ParseDate(flagAfter); err != nil {
			return nil, fmt.Errorf("invalid --after: %w", err)
		}
	}
	if flagBefore != "" {
		if cfg.Before, err = config.ParseDate(flagBefore); err != nil {
			return nil, fmt.Errorf("invalid --before: %w", err)
		}
	}

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// checkTools verifies external dependencies up front, so a long rip does
// not fail one post at a time on a tool that was never installed.
func checkTools(cfg *config.Config) error {
	if cfg.VRedditMode == string(fetch.VRedditFfmpeg) {
		if err := fetch.FfmpegAvailable(); err != nil {
			return err
		}
	}
	return nil
}

func initLogger() error {
	level := logger.LevelInfo
	switch {
	case flagQuiet:
		level = logger.LevelError
	case flagVerbose == 1:
		level = logger.LevelDebug
	case flagVerbose >= 2:
		level = logger.LevelTrace
	}

	var mode logger.ColorMode
	switch flagColor {
	case "auto", "":
		mode = logger.ColorAuto
	case "always":
		mode = logger.ColorAlways
	case "never":
		mode = logger.ColorNever
	default:
		return fmt.Errorf("unknown color mode %q (want auto, always or never)", flagColor)
	}

	logger.Init(level, mode)
	return nil
}
