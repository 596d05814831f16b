// Package rip coordinates a run: it drives the paginator per target,
// consults the resume marker, builds fetch tasks and feeds the bounded
// queue.
package rip

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Draphar/redditrip/internal/config"
	"github.com/Draphar/redditrip/internal/fetch"
	"github.com/Draphar/redditrip/internal/logger"
	"github.com/Draphar/redditrip/internal/marker"
	"github.com/Draphar/redditrip/internal/pushshift"
	"github.com/Draphar/redditrip/internal/queue"
	"github.com/Draphar/redditrip/internal/store"
	"github.com/Draphar/redditrip/internal/title"
	"github.com/Draphar/redditrip/internal/web"
)

// Pager abstracts the search API for the coordinator.
type Pager interface {
	NextPage(ctx context.Context, target pushshift.Target, q pushshift.Query, cursor int64) ([]pushshift.Post, int64, error)
}

// History receives one record per executed task. Satisfied by
// *store.Store.
type History interface {
	Add(ctx context.Context, r store.Record) error
}

// SetupError is a failure before any download could start, such as an
// uncreatable output directory.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string {
	return e.Err.Error()
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// Summary counts the outcomes of a whole run.
type Summary struct {
	Saved  int
	Failed int
}

// Ripper holds the run-wide collaborators. All fields must be set except
// History, which may be nil to disable recording.
type Ripper struct {
	Client  *web.Client
	Pager   Pager
	Config  *config.Config
	Title   *title.Template
	History History
	TempDir string
}

// Run rips every target in order. The returned summary covers the targets
// that completed; the error, if any, is the fatal condition that ended the
// run early.
func (r *Ripper) Run(ctx context.Context, targets []pushshift.Target) (Summary, error) {
	var summary Summary

	for _, target := range targets {
		if err := r.ripTarget(ctx, target, &summary); err != nil {
			return summary, fmt.Errorf("%s: %w", target, err)
		}
	}

	return summary, nil
}

func (r *Ripper) ripTarget(ctx context.Context, target pushshift.Target, summary *Summary) error {
	cfg := r.Config

	dir := cfg.Output
	if !cfg.NoParent {
		dir = filepath.Join(cfg.Output, target.Dir())
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &SetupError{Err: fmt.Errorf("failed to create directory: %w", err)}
	}

	// The marker of the previous run. The one this run writes is only read
	// by the next run.
	lastID, resumable := marker.Read(dir)

	logger.Infof("Started ripping %s to %q", target, dir)

	q := queue.New[fetch.Outcome](cfg.QueueSize)
	query := pushshift.Query{
		Size:      cfg.QueueSize,
		After:     cfg.After,
		SelfPosts: cfg.SelfPosts,
		Allow:     cfg.Allow,
		Exclude:   cfg.Exclude,
		Fields:    r.Title.Fields(),
	}

	cursor := cfg.Before
	markerWritten := false
	caughtUp := false

	for !caughtUp {
		posts, next, err := r.Pager.NextPage(ctx, target, query, cursor)
		if err != nil {
			return err
		}
		if len(posts) == 0 {
			break
		}
		cursor = next

		for _, post := range posts {
			id, ok := post.ID()
			if !ok {
				logger.Warnf("Skipping post without id")
				continue
			}
			rawURL, ok := post.URL()
			if !ok {
				logger.Warnf("Skipping post %q without URL", id)
				continue
			}
			domain, ok := post.Domain()
			if !ok {
				logger.Warnf("Skipping post %q without domain", id)
				continue
			}

			if cfg.Update && resumable && id == lastID {
				logger.Infof("Found already ripped post %q, stopping", id)
				caughtUp = true
				break
			}

			// The marker must be on disk before the first task is queued:
			// if this run dies, the next one may only skip posts whose
			// downloads were fully drained by a previous complete run.
			if !markerWritten {
				_ = marker.Write(dir, id)
				markerWritten = true
			}

			isSelf := post.IsSelf() || domain == target.SelfDomain()
			if isSelf && !cfg.SelfPosts {
				continue
			}

			task := r.buildTask(post, dir, id, rawURL, domain, isSelf)
			run := func(ctx context.Context) fetch.Outcome {
				return fetch.Outcome{Task: task, Err: task.Run(ctx)}
			}
			if err := q.Submit(ctx, run); err != nil {
				q.Drain(r.reporter(ctx, target, summary))
				return err
			}
		}

		q.Drain(r.reporter(ctx, target, summary))
	}

	q.Drain(r.reporter(ctx, target, summary))
	return nil
}

func (r *Ripper) buildTask(post pushshift.Post, dir, id, rawURL, domain string, isSelf bool) *fetch.Task {
	cfg := r.Config

	ext := fetch.Extension(rawURL, fetch.GfycatType(cfg.GfycatType), isSelf)
	name := r.Title.Format(map[string]any(post), cfg.MaxFileNameLength-len(ext)) + ext

	text, hasText := post.SelfText()
	video, _ := post.Video()

	return &fetch.Task{
		Client:      r.Client,
		ID:          id,
		Host:        fetch.ParseHost(domain),
		Domain:      domain,
		URL:         rawURL,
		Output:      filepath.Join(dir, name),
		IsSelf:      isSelf,
		Text:        text,
		HasText:     hasText,
		Video:       video,
		TempDir:     r.TempDir,
		Force:       cfg.Force,
		VRedditMode: fetch.VRedditMode(cfg.VRedditMode),
		GfycatType:  fetch.GfycatType(cfg.GfycatType),
	}
}

// reporter logs each outcome, updates the summary, and records the result
// in the history store.
func (r *Ripper) reporter(ctx context.Context, target pushshift.Target, summary *Summary) func(fetch.Outcome) {
	return func(out fetch.Outcome) {
		rec := store.Record{
			Target:    target.String(),
			PostID:    out.Task.ID,
			File:      filepath.Base(out.Task.Output),
			URL:       out.Task.URL,
			FetchedAt: time.Now(),
		}

		if out.Err != nil {
			summary.Failed++
			rec.Error = out.Err.Error()
			logger.Warnf("Failed to retrieve %s:\n    %v", out.Task.URL, out.Err)
		} else {
			summary.Saved++
			rec.OK = true
			logger.Infof("Saved %q", filepath.Base(out.Task.Output))
		}

		if r.History != nil {
			if err := r.History.Add(ctx, rec); err != nil {
				logger.Warnf("Failed to record download history: %v", err)
			}
		}
	}
}
