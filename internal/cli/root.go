// Package cli provides the command-line interface for redditrip.
package cli

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/Draphar/redditrip/internal/logger"
	"github.com/Draphar/redditrip/internal/pushshift"
	"github.com/Draphar/redditrip/internal/rip"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

// Exit codes. Zero means at least one file was saved.
const (
	ExitOK       = 0
	ExitUsage    = 1
	ExitNetwork  = 2
	ExitUpstream = 3
)

var rootCmd = &cobra.Command{
	Use:   "redditrip [flags] TARGETS...",
	Short: "Download all media from subreddits and user profiles",
	Long: "redditrip walks the Pushshift archive of a subreddit or user profile " +
		"backward in time and downloads every linked image and video it can, " +
		"with support for i.redd.it, v.redd.it, imgur, gfycat, redgifs and more.",
	Args:          cobra.MinimumNArgs(1),
	RunE:          ripAction,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("redditrip %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command and maps its error to a process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return ExitOK
	}

	logger.Errorf("%v", err)
	return exitCode(err)
}

// exitCode classifies a fatal error. Setup and usage problems are 1,
// transport failures 2, and a misbehaving or incomprehensible upstream 3.
func exitCode(err error) int {
	var upstream *pushshift.UpstreamError
	var malformed *pushshift.MalformedError
	if errors.As(err, &upstream) || errors.As(err, &malformed) {
		return ExitUpstream
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ExitNetwork
	}

	var setup *rip.SetupError
	var pathErr *os.PathError
	if errors.As(err, &setup) || errors.As(err, &pathErr) {
		return ExitUsage
	}

	return ExitUsage
}
