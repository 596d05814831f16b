// Package pushshift walks the submission search API backward through time.
//
// Pages are newest-first, so repeatedly querying with the `before` cursor
// set to the timestamp of the previous page's oldest post enumerates a
// target completely. An empty page means the target is exhausted.
package pushshift

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Draphar/redditrip/internal/logger"
	"github.com/Draphar/redditrip/internal/web"
)

const defaultBaseURL = "https://api.pushshift.io/reddit/search/submission"

// baseFields are always requested, whatever the title template needs:
// they drive dedup, dispatch and cursor advancement.
var baseFields = []string{"created_utc", "id", "title", "domain", "url", "secure_media", "is_self"}

// UpstreamError is a non-2xx response from the search API. Fatal to the
// run for the current target.
type UpstreamError struct {
	Code int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("invalid response code %d from API", e.Code)
}

// MalformedError is a response whose shape does not match the expected
// schema. Fatal to the run for the current target.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return "malformed API response: " + e.Reason
}

// Query carries the run-wide search parameters shared by every page.
type Query struct {
	// Size is the maximum number of posts per page.
	Size int

	// After is an optional lower time bound, unix seconds. Zero means
	// unbounded.
	After int64

	// SelfPosts includes self posts and requests their text.
	SelfPosts bool

	// Allow restricts results to these domains. Mutually exclusive with
	// Exclude.
	Allow []string

	// Exclude drops results from these domains.
	Exclude []string

	// Fields is the extra attribute set referenced by the title template.
	Fields []string
}

// Client queries the search API. Requests are paced so a deep rip does not
// hammer the endpoint.
type Client struct {
	web     *web.Client
	baseURL string
	limiter *rate.Limiter
}

// NewClient creates a search client on top of the shared HTTP client.
func NewClient(w *web.Client) *Client {
	return &Client{
		web:     w,
		baseURL: defaultBaseURL,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

type listing struct {
	Data *[]Post `json:"data"`
}

// NextPage fetches one page of posts for the target, newest first. The
// cursor is the exclusive upper time bound; zero means "from the newest
// post". It returns the page and the cursor for the following page, which
// the caller feeds back in unchanged.
func (c *Client) NextPage(ctx context.Context, target Target, q Query, cursor int64) ([]Post, int64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, cursor, err
	}

	u := c.buildURL(target, q, cursor)
	logger.Tracef("NextPage(%s, %d)", target, cursor)

	var page listing
	if err := c.web.GetJSON(ctx, u, &page); err != nil {
		// Every upstream misbehavior gets its typed error here, so the
		// caller can derive the exit code without knowing about HTTP.
		if errors.Is(err, web.ErrNotFound) {
			return nil, cursor, &UpstreamError{Code: 404}
		}
		var status *web.StatusError
		if errors.As(err, &status) {
			return nil, cursor, &UpstreamError{Code: status.Code}
		}
		var decode *web.DecodeError
		if errors.As(err, &decode) {
			return nil, cursor, &MalformedError{Reason: decode.Error()}
		}
		return nil, cursor, err
	}

	if page.Data == nil {
		return nil, cursor, &MalformedError{Reason: "missing 'data' array"}
	}

	posts := *page.Data
	if len(posts) == 0 {
		return nil, cursor, nil
	}

	logger.Debugf("Read %d posts from %s", len(posts), target)

	// The next page starts where this one ended.
	last, ok := posts[len(posts)-1].CreatedUTC()
	if !ok {
		return nil, cursor, &MalformedError{Reason: "missing or non-numeric 'created_utc' on last post"}
	}
	return posts, last, nil
}

func (c *Client) buildURL(target Target, q Query, cursor int64) string {
	fields := make([]string, 0, len(baseFields)+len(q.Fields)+1)
	fields = append(fields, baseFields...)
	if q.SelfPosts {
		fields = append(fields, "selftext")
	}
	for _, f := range q.Fields {
		if !containsField(fields, f) {
			fields = append(fields, f)
		}
	}

	params := url.Values{}
	params.Set("sort_type", "created_utc")
	params.Set("sort", "desc")
	params.Set("size", fmt.Sprint(q.Size))
	params.Set("fields", strings.Join(fields, ","))
	if target.Profile {
		params.Set("author", target.Name)
	} else {
		params.Set("subreddit", target.Name)
	}
	if !q.SelfPosts {
		params.Set("is_self", "false")
	}
	if len(q.Allow) > 0 {
		params.Set("domain", strings.Join(q.Allow, ","))
	} else if len(q.Exclude) > 0 {
		negated := make([]string, len(q.Exclude))
		for i, d := range q.Exclude {
			negated[i] = "!" + d
		}
		params.Set("domain", strings.Join(negated, ","))
	}
	if q.After > 0 {
		params.Set("after", fmt.Sprint(q.After))
	}
	if cursor > 0 {
		params.Set("before", fmt.Sprint(cursor))
	}

	return c.baseURL + "?" + params.Encode()
}

func containsField(fields []string, f string) bool {
	for _, v := range fields {
		if v == f {
			return true
		}
	}
	return false
}
