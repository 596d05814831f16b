package pushshift

// Post is one search result. The API is asked for exactly the fields the
// run needs (dispatch fields plus whatever the title template references),
// so the shape is dynamic and values are accessed through typed getters.
type Post map[string]any

func (p Post) str(key string) (string, bool) {
	v, ok := p[key].(string)
	return v, ok
}

// ID returns the post id.
func (p Post) ID() (string, bool) {
	return p.str("id")
}

// Domain returns the linked content's host, e.g. `i.redd.it`.
func (p Post) Domain() (string, bool) {
	return p.str("domain")
}

// URL returns the URL the post links to. Not necessarily a reddit URL.
func (p Post) URL() (string, bool) {
	return p.str("url")
}

// Title returns the post title.
func (p Post) Title() string {
	v, _ := p.str("title")
	return v
}

// IsSelf reports whether the post is a self (text-only) post.
func (p Post) IsSelf() bool {
	v, _ := p["is_self"].(bool)
	return v
}

// SelfText returns the text body of a self post.
func (p Post) SelfText() (string, bool) {
	return p.str("selftext")
}

// CreatedUTC returns the creation timestamp in unix seconds.
func (p Post) CreatedUTC() (int64, bool) {
	v, ok := p["created_utc"].(float64)
	return int64(v), ok
}

// RedditVideo describes a video hosted on v.redd.it.
type RedditVideo struct {
	// FallbackURL is the no-audio URL of the video.
	FallbackURL string

	// Height is the vertical resolution, which names the DASH stream.
	Height int64
}

// Video extracts the `secure_media.reddit_video` object, if present.
func (p Post) Video() (*RedditVideo, bool) {
	media, ok := p["secure_media"].(map[string]any)
	if !ok {
		return nil, false
	}
	video, ok := media["reddit_video"].(map[string]any)
	if !ok {
		return nil, false
	}

	url, ok := video["fallback_url"].(string)
	if !ok {
		return nil, false
	}
	height, ok := video["height"].(float64)
	if !ok {
		return nil, false
	}
	return &RedditVideo{FallbackURL: url, Height: int64(height)}, true
}
