package pushshift

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/time/rate"

	"github.com/Draphar/redditrip/internal/web"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testClient(rt roundTripFunc) *Client {
	c := NewClient(web.NewClientWithTransport(rt))
	c.baseURL = "https://pushshift.test/search"
	c.limiter = rate.NewLimiter(rate.Inf, 1)
	return c
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseTarget(t *testing.T) {
	cases := []struct {
		input   string
		name    string
		profile bool
	}{
		{"pics", "pics", false},
		{"r/pics", "pics", false},
		{"/r/pics", "pics", false},
		{"u/spez", "spez", true},
		{"/u/spez", "spez", true},
	}
	for _, tc := range cases {
		target, err := ParseTarget(tc.input)
		if err != nil {
			t.Errorf("ParseTarget(%q): %v", tc.input, err)
			continue
		}
		if target.Name != tc.name || target.Profile != tc.profile {
			t.Errorf("ParseTarget(%q) = %+v, want name %q profile %v", tc.input, target, tc.name, tc.profile)
		}
	}
}

func TestParseTargetInvalid(t *testing.T) {
	for _, input := range []string{
		"",
		"r/",
		"this-name-is-way-too-long-for-reddit",
		"spaced name",
		"dot.name",
	} {
		if _, err := ParseTarget(input); err == nil {
			t.Errorf("ParseTarget(%q): expected error", input)
		}
	}
}

func TestTargetDir(t *testing.T) {
	if got := (Target{Name: "pics"}).Dir(); got != "pics" {
		t.Errorf("dir = %q, want pics", got)
	}
	if got := (Target{Name: "pics", Profile: true}).Dir(); got != "u_pics" {
		t.Errorf("profile dir = %q, want u_pics", got)
	}
}

func TestNextPageBuildsQuery(t *testing.T) {
	var query url.Values
	c := testClient(func(r *http.Request) (*http.Response, error) {
		query = r.URL.Query()
		return response(http.StatusOK, `{"data":[]}`), nil
	})

	q := Query{
		Size:    25,
		After:   1000,
		Exclude: []string{"example.com", "other.net"},
		Fields:  []string{"author", "id"},
	}
	_, _, err := c.NextPage(context.Background(), Target{Name: "pics"}, q, 2000)
	if err != nil {
		t.Fatalf("next page: %v", err)
	}

	checks := map[string]string{
		"sort_type": "created_utc",
		"sort":      "desc",
		"size":      "25",
		"subreddit": "pics",
		"is_self":   "false",
		"after":     "1000",
		"before":    "2000",
		"domain":    "!example.com,!other.net",
		"fields":    "created_utc,id,title,domain,url,secure_media,is_self,author",
	}
	for key, want := range checks {
		if got := query.Get(key); got != want {
			t.Errorf("query[%s] = %q, want %q", key, got, want)
		}
	}
}

func TestNextPageProfileAndSelfPosts(t *testing.T) {
	var query url.Values
	c := testClient(func(r *http.Request) (*http.Response, error) {
		query = r.URL.Query()
		return response(http.StatusOK, `{"data":[]}`), nil
	})

	q := Query{Size: 25, SelfPosts: true, Allow: []string{"i.redd.it"}}
	_, _, err := c.NextPage(context.Background(), Target{Name: "spez", Profile: true}, q, 0)
	if err != nil {
		t.Fatalf("next page: %v", err)
	}

	if got := query.Get("author"); got != "spez" {
		t.Errorf("author = %q, want spez", got)
	}
	if query.Has("subreddit") {
		t.Error("profile query should not set subreddit")
	}
	if query.Has("is_self") {
		t.Error("self-post query should not filter is_self")
	}
	if query.Has("before") {
		t.Error("zero cursor should not set before")
	}
	if got := query.Get("domain"); got != "i.redd.it" {
		t.Errorf("domain = %q, want i.redd.it", got)
	}
	if fields := query.Get("fields"); !strings.Contains(fields, "selftext") {
		t.Errorf("fields = %q, want selftext included", fields)
	}
}

func TestNextPageAdvancesCursor(t *testing.T) {
	c := testClient(func(*http.Request) (*http.Response, error) {
		return response(http.StatusOK, `{"data":[
			{"id":"a","created_utc":300},
			{"id":"b","created_utc":200},
			{"id":"c","created_utc":100}
		]}`), nil
	})

	posts, cursor, err := c.NextPage(context.Background(), Target{Name: "pics"}, Query{Size: 3}, 0)
	if err != nil {
		t.Fatalf("next page: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("got %d posts, want 3", len(posts))
	}
	if cursor != 100 {
		t.Errorf("cursor = %d, want 100 (oldest post of the page)", cursor)
	}
}

func TestNextPageEmptyKeepsCursor(t *testing.T) {
	c := testClient(func(*http.Request) (*http.Response, error) {
		return response(http.StatusOK, `{"data":[]}`), nil
	})

	posts, cursor, err := c.NextPage(context.Background(), Target{Name: "pics"}, Query{Size: 3}, 500)
	if err != nil {
		t.Fatalf("next page: %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("got %d posts, want 0", len(posts))
	}
	if cursor != 500 {
		t.Errorf("cursor = %d, want unchanged 500", cursor)
	}
}

func TestNextPageUpstreamError(t *testing.T) {
	c := testClient(func(*http.Request) (*http.Response, error) {
		return response(http.StatusServiceUnavailable, ""), nil
	})

	_, _, err := c.NextPage(context.Background(), Target{Name: "pics"}, Query{Size: 3}, 0)
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("err = %v, want *UpstreamError", err)
	}
	if upstream.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d, want 503", upstream.Code)
	}
}

func TestNextPageNotFoundIsUpstream(t *testing.T) {
	c := testClient(func(*http.Request) (*http.Response, error) {
		return response(http.StatusNotFound, ""), nil
	})

	_, _, err := c.NextPage(context.Background(), Target{Name: "pics"}, Query{Size: 3}, 0)
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("err = %v, want *UpstreamError", err)
	}
	if upstream.Code != http.StatusNotFound {
		t.Errorf("code = %d, want 404", upstream.Code)
	}
}

func TestNextPageMalformed(t *testing.T) {
	for name, body := range map[string]string{
		"missing data":    `{"posts":[]}`,
		"bad created_utc": `{"data":[{"id":"a","created_utc":"yesterday"}]}`,
		"not JSON at all": `<html>`,
	} {
		c := testClient(func(*http.Request) (*http.Response, error) {
			return response(http.StatusOK, body), nil
		})

		_, _, err := c.NextPage(context.Background(), Target{Name: "pics"}, Query{Size: 3}, 0)
		var malformed *MalformedError
		if !errors.As(err, &malformed) {
			t.Errorf("%s: err = %v, want *MalformedError", name, err)
		}
	}
}

func TestPostVideo(t *testing.T) {
	p := Post{
		"secure_media": map[string]any{
			"reddit_video": map[string]any{
				"fallback_url": "https://v.redd.it/abc/DASH_720",
				"height":       float64(720),
			},
		},
	}
	video, ok := p.Video()
	if !ok {
		t.Fatal("expected video")
	}
	if video.FallbackURL != "https://v.redd.it/abc/DASH_720" || video.Height != 720 {
		t.Errorf("video = %+v", video)
	}

	if _, ok := (Post{}).Video(); ok {
		t.Error("expected no video on empty post")
	}
	if _, ok := (Post{"secure_media": nil}).Video(); ok {
		t.Error("expected no video for null secure_media")
	}
}
