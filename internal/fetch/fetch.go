// Package fetch resolves a post's linked media through host-specific
// download strategies.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/Draphar/redditrip/internal/logger"
	"github.com/Draphar/redditrip/internal/pushshift"
	"github.com/Draphar/redditrip/internal/web"
)

// Host is the closed set of content hosts with a dedicated strategy.
type Host int

const (
	HostUnknown Host = iota
	HostRedditImage
	HostRedditVideo
	HostImgurDirect
	HostImgurAlbum
	HostGfycat
	HostGfycatGiant
	HostGfycatThumbs
	HostRedgifs
	HostRedgifsThumbs
	HostPinterest
	HostPostimages
)

var hostDomains = map[string]Host{
	"i.redd.it":           HostRedditImage,
	"v.redd.it":           HostRedditVideo,
	"i.imgur.com":         HostImgurDirect,
	"imgur.com":           HostImgurAlbum,
	"gfycat.com":          HostGfycat,
	"giant.gfycat.com":    HostGfycatGiant,
	"thumbs.gfycat.com":   HostGfycatThumbs,
	"redgifs.com":         HostRedgifs,
	"thumbs1.redgifs.com": HostRedgifsThumbs,
	"i.pinimg.com":        HostPinterest,
	"i.postimg.cc":        HostPostimages,
}

// ParseHost maps a post's domain to a known host. Unmatched domains return
// HostUnknown, which dispatches to the force-mode fallback.
func ParseHost(domain string) Host {
	return hostDomains[domain]
}

// SupportedDomains returns the host list for the `domains` command.
func SupportedDomains() []string {
	return []string{
		"i.redd.it",
		"v.redd.it",
		"i.imgur.com",
		"imgur.com",
		"gfycat.com",
		"thumbs.gfycat.com",
		"giant.gfycat.com",
		"redgifs.com",
		"thumbs1.redgifs.com",
		"i.pinimg.com",
		"i.postimg.cc",
	}
}

// UnsupportedDomainError is returned for posts linking to a domain without
// a strategy when force mode is off.
type UnsupportedDomainError struct {
	Domain string
}

func (e *UnsupportedDomainError) Error() string {
	return fmt.Sprintf("unsupported domain %q", e.Domain)
}

// ToolError is a failure of the external merge tool: either it is not
// installed at all or it exited with an error.
type ToolError struct {
	Missing bool
	Err     error
}

func (e *ToolError) Error() string {
	if e.Missing {
		return fmt.Sprintf("ffmpeg is not installed: %v", e.Err)
	}
	return fmt.Sprintf("ffmpeg failed: %v", e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// errNoMedia is a v.redd.it post without usable secure_media metadata.
var errNoMedia = errors.New("no downloadable media found")

// Task is one immutable download job. Built once by the coordinator and
// from then on owned by the queue; never mutated after construction.
type Task struct {
	// Client is the shared HTTP client, safe for concurrent use.
	Client *web.Client

	// ID is the post id the task was built from.
	ID string

	// Host is the dispatch key; Domain keeps the raw value for messages.
	Host   Host
	Domain string

	// URL is the link the post carries. Not necessarily a reddit URL.
	URL string

	// Output is the resolved destination path.
	Output string

	// IsSelf marks a self post; Text is its body. Self posts bypass host
	// dispatch entirely.
	IsSelf  bool
	Text    string
	HasText bool

	// Video carries v.redd.it metadata when present.
	Video *pushshift.RedditVideo

	// TempDir hosts the scratch files of a video merge.
	TempDir string

	// Force downloads unknown domains by writing the raw body to disk.
	Force bool

	VRedditMode VRedditMode
	GfycatType  GfycatType
}

// Outcome pairs a finished task with its result for reporting.
type Outcome struct {
	Task *Task
	Err  error
}

type strategy func(ctx context.Context, t *Task) error

// strategies is the dispatch table. Exactly one strategy runs per task.
var strategies = map[Host]strategy{
	HostRedditImage:   direct,
	HostRedditVideo:   fetchRedditVideo,
	HostImgurDirect:   fetchImgurImage,
	HostImgurAlbum:    fetchImgurAlbum,
	HostGfycat:        fetchGfycat,
	HostGfycatGiant:   direct,
	HostGfycatThumbs:  direct,
	HostRedgifs:       fetchRedgifs,
	HostRedgifsThumbs: direct,
	HostPinterest:     direct,
	HostPostimages:    direct,
}

// Run executes the task and returns its typed failure, if any. Every error
// is recoverable at the run level: the caller logs it and moves on.
func (t *Task) Run(ctx context.Context) error {
	if t.IsSelf {
		logger.Debugf("Detected self post %q", t.URL)
		if !t.HasText {
			// Seriously reddit?
			return errors.New("malformed self post: field 'selftext' missing")
		}
		return writeSelfPost(t.Output, t.Text)
	}

	logger.Debugf("Fetching %q", t.URL)

	if s, ok := strategies[t.Host]; ok {
		return s(ctx, t)
	}
	if t.Force {
		return direct(ctx, t)
	}
	return &UnsupportedDomainError{Domain: t.Domain}
}

// direct streams the linked URL straight to the output file.
func direct(ctx context.Context, t *Task) error {
	return t.Client.Download(ctx, t.URL, t.Output)
}

func writeSelfPost(output, text string) error {
	return os.WriteFile(output, []byte(text), 0o644)
}

func urlPath(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	return u.Path, nil
}
