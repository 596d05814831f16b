package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Draphar/redditrip/internal/logger"
)

// gfyItem is the metadata API's description of one video.
type gfyItem struct {
	GfyItem struct {
		Mp4URL  string `json:"mp4Url"`
		WebmURL string `json:"webmUrl"`
	} `json:"gfyItem"`
}

func fetchGfycat(ctx context.Context, t *Task) error {
	path, err := urlPath(t.URL)
	if err != nil {
		return err
	}
	id, wellFormed := extractGfyID(path)

	// A well-formed id can skip the API and hit the CDN directly.
	if wellFormed {
		logger.Debugf("Trying to download directly from Gfycat %q", id)
		url := fmt.Sprintf("https://giant.gfycat.com/%s.%s", id, t.GfycatType)
		if t.Client.Download(ctx, url, t.Output) == nil {
			return nil
		}
	}

	return gfyAPI(ctx, t, "https://api.gfycat.com/v1/gfycats/"+id)
}

func fetchRedgifs(ctx context.Context, t *Task) error {
	path, err := urlPath(t.URL)
	if err != nil {
		return err
	}
	id, wellFormed := extractGfyID(strings.TrimPrefix(path, "/watch"))

	if wellFormed {
		logger.Debugf("Trying to download directly from Redgifs %q", id)
		url := fmt.Sprintf("https://thumbs1.redgifs.com/%s.%s", id, t.GfycatType)
		if t.Client.Download(ctx, url, t.Output) == nil {
			return nil
		}
	}

	return gfyAPI(ctx, t, "https://api.redgifs.com/v1/gfycats/"+id)
}

// gfyAPI asks the metadata API for the media URLs, then downloads the one
// matching the configured type. Rate limits may be encountered because an
// API key is required to thoroughly use the API.
func gfyAPI(ctx context.Context, t *Task, url string) error {
	logger.Debugf("Querying Gfycat api about %q", url)

	var item gfyItem
	if err := t.Client.GetJSON(ctx, url, &item); err != nil {
		return err
	}

	media := item.GfyItem.Mp4URL
	if t.GfycatType == GfycatWebm {
		media = item.GfyItem.WebmURL
	}
	if media == "" {
		return errors.New("gfycat API returned no media URL")
	}

	return t.Client.Download(ctx, media, t.Output)
}

// extractGfyID pulls the id out of a URL path. Gfycat URLs occur in the
// wild as all-lowercase, well-formed (mixed case), and with the title
// appended after a dash; only a well-formed id addresses the CDN directly.
func extractGfyID(path string) (string, bool) {
	id := strings.TrimPrefix(path, "/")
	if dash := strings.IndexByte(id, '-'); dash >= 0 {
		id = id[:dash]
	}
	return id, strings.ContainsFunc(id, func(r rune) bool { return r >= 'A' && r <= 'Z' })
}
