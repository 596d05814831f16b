package fetch

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Draphar/redditrip/internal/logger"
	"github.com/Draphar/redditrip/internal/web"
)

// imgurImage is one entry of an album or gallery.
type imgurImage struct {
	Hash string `json:"hash"`
	Ext  string `json:"ext"`
}

// fetchImgurImage downloads a direct i.imgur.com link. Imgur answers with
// a 302 to its landing page instead of a plain 404 for removed images.
func fetchImgurImage(ctx context.Context, t *Task) error {
	return downloadImgur(ctx, t.Client, t.URL, t.Output)
}

func downloadImgur(ctx context.Context, client *web.Client, url, output string) error {
	resp, err := client.Get(ctx, url)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusFound:
		return web.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &web.StatusError{Code: resp.StatusCode}
	}

	return web.ToDisk(resp.Body, output)
}

// fetchImgurAlbum handles imgur.com links: albums and galleries are
// resolved to their image lists and saved into a directory, anything else
// is assumed to be a direct link missing its `i.` prefix.
func fetchImgurAlbum(ctx context.Context, t *Task) error {
	path, err := urlPath(t.URL)
	if err != nil {
		return err
	}

	switch {
	case strings.HasPrefix(path, "/a/"):
		images, err := imgurAlbum(ctx, t.Client, path)
		if err != nil {
			return err
		}
		return downloadImages(ctx, t, images)
	case strings.HasPrefix(path, "/gallery/"):
		id := strings.TrimSuffix(path[len("/gallery/"):], "/")
		images, err := imgurGallery(ctx, t.Client, id)
		if err != nil {
			return err
		}
		return downloadImages(ctx, t, images)
	default:
		// An imgur.com/* link redirects to i.imgur.com/*, so download from
		// there directly.
		logger.Debugf("Trying to directly download image %q", t.URL)
		return downloadImgur(ctx, t.Client, "https://i.imgur.com"+path, t.Output)
	}
}

// imgurAlbum scrapes the image list out of the album embed page, which
// inlines it as a JavaScript assignment.
func imgurAlbum(ctx context.Context, client *web.Client, path string) ([]imgurImage, error) {
	id := path[len("/a/"):]
	if slash := strings.IndexByte(id, '/'); slash >= 0 {
		id = id[:slash]
	}
	url := fmt.Sprintf("https://imgur.com/a/%s/embed", id)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, web.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &web.StatusError{Code: resp.StatusCode}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(strings.TrimSpace(line), "album") {
			continue
		}

		// The line is `album : {...},` with the image list inside.
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			return nil, errors.New("imgur parser error")
		}
		payload := strings.TrimRight(strings.TrimSpace(line[colon+1:]), ",")

		var album struct {
			AlbumImages struct {
				Images []imgurImage `json:"images"`
			} `json:"album_images"`
		}
		if err := json.Unmarshal([]byte(payload), &album); err != nil {
			return nil, fmt.Errorf("imgur album JSON: %w", err)
		}
		return album.AlbumImages.Images, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return nil, errors.New("imgur parser error")
}

// imgurGallery resolves a gallery through the JSON endpoint.
func imgurGallery(ctx context.Context, client *web.Client, id string) ([]imgurImage, error) {
	url := fmt.Sprintf("https://imgur.com/gallery/%s.json", id)

	var gallery struct {
		Data struct {
			Image struct {
				AlbumImages struct {
					Images []imgurImage `json:"images"`
				} `json:"album_images"`
			} `json:"image"`
		} `json:"data"`
	}
	if err := client.GetJSON(ctx, url, &gallery); err != nil {
		return nil, err
	}
	return gallery.Data.Image.AlbumImages.Images, nil
}

// downloadImages saves each album entry as `{index}{ext}` inside a
// directory at the task's output path. Individual failures are logged and
// skipped so one broken image does not lose the album.
func downloadImages(ctx context.Context, t *Task, images []imgurImage) error {
	logger.Debugf("Found Imgur gallery containing %d entries", len(images))

	if err := os.MkdirAll(t.Output, 0o755); err != nil {
		return fmt.Errorf("create album directory: %w", err)
	}

	for i, image := range images {
		name := fmt.Sprintf("%d%s", i, image.Ext)
		url := fmt.Sprintf("https://i.imgur.com/%s%s", image.Hash, image.Ext)
		logger.Debugf("Saving individual image %q", image.Hash+image.Ext)
		if err := downloadImgur(ctx, t.Client, url, filepath.Join(t.Output, name)); err != nil {
			logger.Warnf("Failed to retrieve album image %q: %v", url, err)
		}
	}

	return nil
}
