package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Draphar/redditrip/internal/pushshift"
	"github.com/Draphar/redditrip/internal/web"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func fakeClient(rt roundTripFunc) *web.Client {
	return web.NewClientWithTransport(rt)
}

func TestParseHost(t *testing.T) {
	cases := map[string]Host{
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
		"example.com":         HostUnknown,
		"":                    HostUnknown,
	}
	for domain, want := range cases {
		if got := ParseHost(domain); got != want {
			t.Errorf("ParseHost(%q) = %v, want %v", domain, got, want)
		}
	}
}

func TestExtension(t *testing.T) {
	cases := []struct {
		url    string
		typ    GfycatType
		isSelf bool
		want   string
	}{
		{"http://example.com/", GfycatMp4, true, ".txt"},
		{"http://example.com/a/b.c", GfycatMp4, false, ".c"},
		{"http://example.com/a.bc", GfycatMp4, false, ".bc"},
		{"http://example.com/", GfycatMp4, false, ""},
		{"http://example.com/none", GfycatMp4, false, ""},
		{"http://imgur.com/a/id/", GfycatMp4, false, ""},
		{"http://imgur.com/image.jpg", GfycatMp4, false, ".jpg"},
		{"https://gfycat.com/", GfycatMp4, false, ".mp4"},
		{"https://gfycat.com/", GfycatWebm, false, ".webm"},
		{"http://gfycat.com/.webm", GfycatMp4, false, ".mp4"},
		{"https://v.redd.it/abc123", GfycatWebm, false, ".mp4"},
	}
	for _, tc := range cases {
		if got := Extension(tc.url, tc.typ, tc.isSelf); got != tc.want {
			t.Errorf("Extension(%q, %v, %v) = %q, want %q", tc.url, tc.typ, tc.isSelf, got, tc.want)
		}
	}
}

func TestSelfPost(t *testing.T) {
	out := filepath.Join(t.TempDir(), "post.txt")
	task := &Task{
		IsSelf:  true,
		Text:    "Lorem ipsum",
		HasText: true,
		Output:  out,
	}

	if err := task.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "Lorem ipsum" {
		t.Errorf("content = %q", data)
	}
}

func TestSelfPostMissingText(t *testing.T) {
	task := &Task{IsSelf: true}
	if err := task.Run(context.Background()); err == nil {
		t.Error("expected error for self post without text")
	}
}

func TestUnsupportedDomain(t *testing.T) {
	task := &Task{
		Host:   HostUnknown,
		Domain: "example.com",
		URL:    "https://example.com/file",
	}

	err := task.Run(context.Background())
	var unsupported *UnsupportedDomainError
	if !errors.As(err, &unsupported) {
		t.Fatalf("err = %v, want *UnsupportedDomainError", err)
	}
	if unsupported.Domain != "example.com" {
		t.Errorf("domain = %q", unsupported.Domain)
	}
}

func TestForceDownloadsUnknownDomain(t *testing.T) {
	out := filepath.Join(t.TempDir(), "page")
	task := &Task{
		Client: fakeClient(func(*http.Request) (*http.Response, error) {
			return response(http.StatusOK, "raw body"), nil
		}),
		Host:   HostUnknown,
		Domain: "example.com",
		URL:    "https://example.com/file",
		Output: out,
		Force:  true,
	}

	if err := task.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, _ := os.ReadFile(out)
	if string(data) != "raw body" {
		t.Errorf("content = %q, want raw body", data)
	}
}

func TestRedditImageDirect(t *testing.T) {
	out := filepath.Join(t.TempDir(), "img.jpg")
	var requested string
	task := &Task{
		Client: fakeClient(func(r *http.Request) (*http.Response, error) {
			requested = r.URL.String()
			return response(http.StatusOK, "jpeg bytes"), nil
		}),
		Host:   HostRedditImage,
		Domain: "i.redd.it",
		URL:    "https://i.redd.it/img.jpg",
		Output: out,
	}

	if err := task.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if requested != "https://i.redd.it/img.jpg" {
		t.Errorf("requested %q", requested)
	}
}

func TestVRedditNoAudio(t *testing.T) {
	var requested string
	task := &Task{
		Client: fakeClient(func(r *http.Request) (*http.Response, error) {
			requested = r.URL.String()
			return response(http.StatusOK, "video"), nil
		}),
		Host:        HostRedditVideo,
		Domain:      "v.redd.it",
		URL:         "https://v.redd.it/abc123",
		Output:      filepath.Join(t.TempDir(), "out.mp4"),
		Video:       &pushshift.RedditVideo{FallbackURL: "https://v.redd.it/abc123/DASH_720", Height: 720},
		VRedditMode: VRedditNoAudio,
	}

	if err := task.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if requested != "https://v.redd.it/abc123/DASH_720" {
		t.Errorf("requested %q, want fallback URL", requested)
	}
}

func TestVRedditWebsiteMode(t *testing.T) {
	var requested string
	task := &Task{
		Client: fakeClient(func(r *http.Request) (*http.Response, error) {
			requested = r.URL.String()
			return response(http.StatusOK, "video"), nil
		}),
		Host:        HostRedditVideo,
		URL:         "https://v.redd.it/abc123",
		Output:      filepath.Join(t.TempDir(), "out.mp4"),
		Video:       &pushshift.RedditVideo{FallbackURL: "ignored", Height: 720},
		VRedditMode: "https://downloader.test/fetch/{}",
	}

	if err := task.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if requested != "https://downloader.test/fetch/abc123" {
		t.Errorf("requested %q", requested)
	}
}

func TestVRedditNoMedia(t *testing.T) {
	task := &Task{
		Host:        HostRedditVideo,
		URL:         "https://v.redd.it/abc123",
		VRedditMode: VRedditNoAudio,
	}
	if err := task.Run(context.Background()); !errors.Is(err, errNoMedia) {
		t.Errorf("err = %v, want errNoMedia", err)
	}
}

func TestExtractGfyID(t *testing.T) {
	cases := []struct {
		path       string
		id         string
		wellFormed bool
	}{
		{"/loremipsum", "loremipsum", false},
		{"/LoremIpsum", "LoremIpsum", true},
		{"/loremipsum-some-text", "loremipsum", false},
		{"/LoremIpsum-some-text", "LoremIpsum", true},
	}
	for _, tc := range cases {
		id, wellFormed := extractGfyID(tc.path)
		if id != tc.id || wellFormed != tc.wellFormed {
			t.Errorf("extractGfyID(%q) = (%q, %v), want (%q, %v)", tc.path, id, wellFormed, tc.id, tc.wellFormed)
		}
	}
}

func TestGfycatFallsBackToAPI(t *testing.T) {
	var urls []string
	task := &Task{
		Client: fakeClient(func(r *http.Request) (*http.Response, error) {
			urls = append(urls, r.URL.String())
			switch {
			case r.URL.Host == "giant.gfycat.com":
				return response(http.StatusNotFound, ""), nil
			case r.URL.Host == "api.gfycat.com":
				return response(http.StatusOK, `{"gfyItem":{"mp4Url":"https://giant.gfycat.com/Resolved.mp4","webmUrl":""}}`), nil
			default:
				return response(http.StatusOK, "video"), nil
			}
		}),
		Host:       HostGfycat,
		URL:        "https://gfycat.com/LoremIpsum",
		Output:     filepath.Join(t.TempDir(), "out.mp4"),
		GfycatType: GfycatMp4,
	}

	if err := task.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []string{
		"https://giant.gfycat.com/LoremIpsum.mp4",
		"https://api.gfycat.com/v1/gfycats/LoremIpsum",
		"https://giant.gfycat.com/Resolved.mp4",
	}
	if len(urls) != len(want) {
		t.Fatalf("urls = %v, want %v", urls, want)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
}

func TestImgurNotFoundOnRedirect(t *testing.T) {
	task := &Task{
		Client: fakeClient(func(*http.Request) (*http.Response, error) {
			return response(http.StatusFound, ""), nil
		}),
		Host:   HostImgurDirect,
		URL:    "https://i.imgur.com/removed.jpg",
		Output: filepath.Join(t.TempDir(), "out.jpg"),
	}

	if err := task.Run(context.Background()); !errors.Is(err, web.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestImgurAlbum(t *testing.T) {
	embed := `<script>
	posts : {},
	album : {"id":"dFz23","album_images":{"count":2,"images":[{"hash":"bxv008g","ext":".gif"},{"hash":"s3XOVHt","ext":".png"}]}},
	</script>`

	dir := t.TempDir()
	out := filepath.Join(dir, "album")
	var downloads []string
	task := &Task{
		Client: fakeClient(func(r *http.Request) (*http.Response, error) {
			if r.URL.Host == "imgur.com" {
				return response(http.StatusOK, embed), nil
			}
			downloads = append(downloads, r.URL.String())
			return response(http.StatusOK, "img"), nil
		}),
		Host:   HostImgurAlbum,
		URL:    "https://imgur.com/a/dFz23",
		Output: out,
	}

	if err := task.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(downloads) != 2 {
		t.Fatalf("downloads = %v, want 2 images", downloads)
	}
	if downloads[0] != "https://i.imgur.com/bxv008g.gif" {
		t.Errorf("downloads[0] = %q", downloads[0])
	}
	for _, name := range []string{"0.gif", "1.png"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("album image %s not saved: %v", name, err)
		}
	}
}

func TestImgurGallery(t *testing.T) {
	body := `{"data":{"image":{"album_images":{"images":[{"hash":"oXx9m52","ext":".gif"}]}}}}`

	out := filepath.Join(t.TempDir(), "gallery")
	var downloads []string
	task := &Task{
		Client: fakeClient(func(r *http.Request) (*http.Response, error) {
			if strings.HasSuffix(r.URL.Path, ".json") {
				return response(http.StatusOK, body), nil
			}
			downloads = append(downloads, r.URL.String())
			return response(http.StatusOK, "img"), nil
		}),
		Host:   HostImgurAlbum,
		URL:    "https://imgur.com/gallery/dFz23/",
		Output: out,
	}

	if err := task.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(downloads) != 1 || downloads[0] != "https://i.imgur.com/oXx9m52.gif" {
		t.Errorf("downloads = %v", downloads)
	}
}

func TestSupportedDomainsMatchDispatchTable(t *testing.T) {
	for _, domain := range SupportedDomains() {
		if ParseHost(domain) == HostUnknown {
			t.Errorf("domain %q listed but not dispatchable", domain)
		}
	}
	if len(SupportedDomains()) != len(hostDomains) {
		t.Errorf("domain list has %d entries, dispatch table %d", len(SupportedDomains()), len(hostDomains))
	}
}
