// Package config holds the run configuration: command-line flags merged
// over an optional yaml config file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultQueueSize         = 16
	DefaultMaxFileNameLength = 255
	DefaultTitle             = "{id}-{title}"
	DefaultGfycatType        = "mp4"
	DefaultVRedditMode       = "no-audio"

	// MaxQueueSize bounds the concurrency a run may request.
	MaxQueueSize = 1000

	// The marker file in a target directory is named ".redditrip", and
	// with no_parent the output root is a target directory. The history
	// directory needs a distinct name or it would shadow the marker there.
	historyDir  = ".redditrip-history"
	historyFile = "history.db"
)

// Config is the complete run configuration. Zero values mean "use the
// default"; Normalize fills them in.
type Config struct {
	// Output is the directory targets are saved under.
	Output string `yaml:"output"`

	// NoParent puts files directly into Output instead of one
	// subdirectory per target.
	NoParent bool `yaml:"no_parent"`

	// QueueSize is the number of simultaneous download jobs.
	QueueSize int `yaml:"queue_size"`

	// MaxFileNameLength is the file name budget in bytes, not characters.
	MaxFileNameLength int `yaml:"max_file_name_length"`

	// Title is the file name template.
	Title string `yaml:"title"`

	// GfycatType is the media type for gfycat videos: mp4 or webm.
	GfycatType string `yaml:"gfycat_type"`

	// VRedditMode is no-audio, ffmpeg, or a URL pattern with `{}`.
	VRedditMode string `yaml:"vreddit_mode"`

	// Force downloads unsupported domains by writing the raw page.
	Force bool `yaml:"force"`

	// Update stops each target at the first already-seen post.
	Update bool `yaml:"update"`

	// SelfPosts downloads self posts as text files.
	SelfPosts bool `yaml:"selfposts"`

	// Allow and Exclude filter by domain. Mutually exclusive.
	Allow   []string `yaml:"allow"`
	Exclude []string `yaml:"exclude"`

	// After and Before bound posts by time, unix seconds. Zero means
	// unbounded. Set from flags, not the config file.
	After  int64 `yaml:"-"`
	Before int64 `yaml:"-"`

	// History is the sqlite download-history path. "off" disables it.
	History string `yaml:"history"`
}

// Load reads the yaml config at path. A missing file is not an error; the
// zero Config is returned for the flags to fill.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".redditrip.yaml"
	}
	return filepath.Join(home, ".redditrip.yaml")
}

// Normalize applies defaults and validates the result.
func (c *Config) Normalize() error {
	if c.Output == "" {
		c.Output = "."
	}
	if c.QueueSize == 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.MaxFileNameLength == 0 {
		c.MaxFileNameLength = DefaultMaxFileNameLength
	}
	if c.Title == "" {
		c.Title = DefaultTitle
	}
	if c.GfycatType == "" {
		c.GfycatType = DefaultGfycatType
	}
	if c.VRedditMode == "" {
		c.VRedditMode = DefaultVRedditMode
	}
	if c.History == "" {
		c.History = filepath.Join(c.Output, historyDir, historyFile)
	}

	return c.validate()
}

func (c *Config) validate() error {
	if c.QueueSize < 1 || c.QueueSize > MaxQueueSize {
		return fmt.Errorf("queue size must be between 1 and %d, got %d", MaxQueueSize, c.QueueSize)
	}
	if c.GfycatType != "mp4" && c.GfycatType != "webm" {
		return fmt.Errorf("gfycat type must be mp4 or webm, got %q", c.GfycatType)
	}
	if c.MaxFileNameLength < 16 {
		return fmt.Errorf("max file name length %d is too small to be usable", c.MaxFileNameLength)
	}
	if len(c.Allow) > 0 && len(c.Exclude) > 0 {
		return errors.New("allow and exclude cannot be combined")
	}
	if c.After > 0 && c.Before > 0 && c.After >= c.Before {
		return errors.New("the after date must come before the before date")
	}
	return nil
}

// HistoryEnabled reports whether outcomes should be recorded.
func (c *Config) HistoryEnabled() bool {
	return c.History != "off"
}

// ParseDate accepts "YYYY-MM-DD", "YYYY-MM-DD HH:MM:SS", or a unix
// timestamp with second precision.
func ParseDate(input string) (int64, error) {
	if t, err := time.Parse("2006-01-02 15:04:05", input); err == nil {
		return t.Unix(), nil
	}
	if t, err := time.Parse("2006-01-02", input); err == nil {
		return t.Unix(), nil
	}
	if n, err := strconv.ParseInt(input, 10, 64); err == nil && n >= 0 {
		return n, nil
	}
	return 0, fmt.Errorf("invalid date format %q", input)
}

// ParseDomain normalizes a domain argument. URL-like input is accepted
// for ergonomics and reduced to its host.
func ParseDomain(input string) (string, error) {
	if input == "" {
		return "", errors.New("no domain found")
	}
	if strings.Contains(input, "/") {
		u, err := url.Parse(input)
		if err != nil {
			return "", fmt.Errorf("invalid domain %q: %w", input, err)
		}
		if u.Host == "" {
			return "", errors.New("no domain found")
		}
		return u.Host, nil
	}
	return input, nil
}
