package fetch

import (
	"net/url"
	"strings"
)

// GfycatType selects the media format for gfycat and redgifs videos.
type GfycatType string

const (
	GfycatMp4  GfycatType = "mp4"
	GfycatWebm GfycatType = "webm"
)

// Extension resolves the file extension for a post, dot included. Self
// posts are text, v.redd.it is always mp4, gfycat follows the configured
// type, and everything else uses the trailing dot-suffix of the URL path's
// final segment, if it has one.
func Extension(rawURL string, gfycatType GfycatType, isSelf bool) string {
	if isSelf {
		return ".txt"
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	switch u.Host {
	case "v.redd.it":
		return ".mp4"
	case "gfycat.com":
		return "." + string(gfycatType)
	}

	path := u.Path
	for i := len(path) - 1; i >= 0; i-- {
		switch path[i] {
		case '.':
			return path[i:]
		case '/':
			// The final segment has no extension.
			return ""
		}
	}
	return ""
}

// replaceID substitutes the first `{}` in a URL pattern with id. Used by
// the website v.redd.it mode.
func replaceID(pattern, id string) string {
	return strings.Replace(pattern, "{}", id, 1)
}
