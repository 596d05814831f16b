package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Draphar/redditrip/internal/logger"
)

// VRedditMode specifies how videos from v.redd.it are downloaded. Any
// value other than the two constants is treated as a URL pattern in which
// `{}` is replaced by the video id.
type VRedditMode string

const (
	// VRedditNoAudio downloads the fallback stream, which has no audio.
	VRedditNoAudio VRedditMode = "no-audio"

	// VRedditFfmpeg downloads video and audio separately and merges them
	// with a local ffmpeg.
	VRedditFfmpeg VRedditMode = "ffmpeg"
)

func fetchRedditVideo(ctx context.Context, t *Task) error {
	if t.Video == nil {
		return errNoMedia
	}

	path, err := urlPath(t.URL)
	if err != nil {
		return err
	}
	id := strings.TrimPrefix(path, "/")

	switch t.VRedditMode {
	case VRedditNoAudio:
		return t.Client.Download(ctx, t.Video.FallbackURL, t.Output)
	case VRedditFfmpeg:
		return mergeVideo(ctx, t, id)
	default:
		return t.Client.Download(ctx, replaceID(string(t.VRedditMode), id), t.Output)
	}
}

// mergeVideo downloads the DASH video and audio streams into scratch files
// and merges them with `ffmpeg -y -i video -i audio -c copy`. The scratch
// files are removed on every exit path.
func mergeVideo(ctx context.Context, t *Task, id string) error {
	videoURL := fmt.Sprintf("https://v.redd.it/%s/DASH_%d", id, t.Video.Height)
	audioURL := fmt.Sprintf("https://v.redd.it/%s/audio", id)
	videoPath := filepath.Join(t.TempDir, fmt.Sprintf("v_redd_it_%s_video", id))
	audioPath := filepath.Join(t.TempDir, fmt.Sprintf("v_redd_it_%s_audio", id))

	defer func() {
		for _, p := range []string{videoPath, audioPath} {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				logger.Warnf("Failed to remove temporary file %q: %v", p, err)
			}
		}
	}()

	if err := t.Client.Download(ctx, videoURL, videoPath); err != nil {
		return fmt.Errorf("failed to combine audio and video: %w", err)
	}
	if err := t.Client.Download(ctx, audioURL, audioPath); err != nil {
		return fmt.Errorf("failed to combine audio and video: %w", err)
	}

	logger.Debugf("Generating file %q with ffmpeg", t.Output)

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-c", "copy",
		t.Output,
	)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return &ToolError{Missing: true, Err: err}
		}
		return &ToolError{Err: err}
	}
	return nil
}

// FfmpegAvailable reports whether ffmpeg can be started, for the upfront
// check when `--vreddit-mode ffmpeg` is configured.
func FfmpegAvailable() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return &ToolError{Missing: true, Err: err}
	}
	return nil
}
