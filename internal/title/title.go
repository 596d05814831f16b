// Package title turns a placeholder template and a post's attributes into a
// safe file name.
package title

import (
	"fmt"
	"sort"
	"strings"
)

// Fields is the closed vocabulary of placeholder names, with their types.
// Not every field is set on every post.
var Fields = map[string]string{
	"test": "string", // used by tests only

	"allow_live_comments":         "bool",
	"author":                      "string",
	"author_flair_text":           "string",
	"author_fullname":             "string",
	"author_patreon_flair":        "bool",
	"author_premium":              "bool",
	"can_mod_post":                "bool",
	"contest_mode":                "bool",
	"created_utc":                 "integer",
	"crosspost_parent":            "string",
	"domain":                      "string",
	"full_link":                   "string",
	"id":                          "string",
	"is_crosspostable":            "bool",
	"is_meta":                     "bool",
	"is_original_content":         "bool",
	"is_reddit_media_domain":      "bool",
	"is_robot_indexable":          "bool",
	"is_self":                     "bool",
	"is_video":                    "bool",
	"link_flair_background_color": "string",
	"link_flair_text":             "string",
	"link_flair_text_color":       "string",
	"link_flair_type":             "string",
	"locked":                      "bool",
	"media_only":                  "bool",
	"no_follow":                   "bool",
	"num_comments":                "integer",
	"num_crossposts":              "integer",
	"over_18":                     "bool",
	"parent_whitelist_status":     "string",
	"permalink":                   "string",
	"pinned":                      "bool",
	"post_hint":                   "string",
	"pwls":                        "integer",
	"removed_by_category":         "string",
	"retrieved_on":                "integer",
	"score":                       "integer",
	"selftext":                    "string",
	"send_replies":                "bool",
	"spoiler":                     "bool",
	"stickied":                    "bool",
	"subreddit":                   "string",
	"subreddit_id":                "string",
	"subreddit_subscribers":       "integer",
	"subreddit_type":              "string",
	"thumbnail":                   "string",
	"title":                       "string",
	"total_awards_received":       "integer",
	"url":                         "string",
	"whitelist_status":            "string",
	"wls":                         "integer",
}

// segment is either a run of literal text or a single field placeholder.
type segment struct {
	literal string
	field   string
}

// Template is a compiled title template. Compile once per run, then call
// Format per post.
type Template struct {
	segments []segment
	fields   []string
}

// Compile parses a template string. Placeholders are `{field}` for any name
// in Fields; anything else, including braces that do not form a known
// placeholder, is kept as literal text. Literal text is sanitized once here
// so Format only has to sanitize field values.
func Compile(template string) *Template {
	t := &Template{}
	rest := Sanitize(template)

	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			break
		}
		name := rest[open+1 : open+end]
		if _, ok := Fields[name]; !ok {
			// Not a recognized placeholder, leave it alone. Scanning
			// continues after the opening brace so overlapping candidates
			// like "{{id}" still resolve.
			t.appendLiteral(rest[:open+1])
			rest = rest[open+1:]
			continue
		}
		t.appendLiteral(rest[:open])
		t.segments = append(t.segments, segment{field: name})
		if !contains(t.fields, name) {
			t.fields = append(t.fields, name)
		}
		rest = rest[open+end+1:]
	}
	t.appendLiteral(rest)

	return t
}

func (t *Template) appendLiteral(s string) {
	if s == "" {
		return
	}
	if n := len(t.segments); n > 0 && t.segments[n-1].field == "" {
		t.segments[n-1].literal += s
		return
	}
	t.segments = append(t.segments, segment{literal: s})
}

// Fields returns the distinct placeholder names used by the template, in
// order of first appearance.
func (t *Template) Fields() []string {
	return t.fields
}

// UsesID reports whether the template contains the {id} placeholder.
// Without it, generated file names are likely to collide.
func (t *Template) UsesID() bool {
	return contains(t.fields, "id")
}

// Format substitutes the post's values into the template and truncates the
// result to at most budget bytes. Absent or null fields become the empty
// string; non-string values are stringified. Field values are sanitized
// 1:1, so substitution never changes the length of surrounding literals.
//
// Truncation counts bytes, not runes, to match file system limits; it can
// split a multi-byte character at the boundary.
func (t *Template) Format(values map[string]any, budget int) string {
	var buf strings.Builder

	for _, seg := range t.segments {
		if seg.field == "" {
			buf.WriteString(seg.literal)
			continue
		}
		v, ok := values[seg.field]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			s = stringify(v)
		}
		buf.WriteString(Sanitize(s))
	}

	name := buf.String()
	if len(name) > budget {
		name = name[:budget]
	}
	return name
}

func stringify(v any) string {
	switch v := v.(type) {
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		// JSON numbers decode as float64; the fields in the vocabulary are
		// all integral.
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprint(v)
	}
}

// Sanitize replaces every character that is unsafe in a file name with '_'.
// The output always has exactly len(s) bytes.
func Sanitize(s string) string {
	if !strings.ContainsAny(s, `/\|?<>:*"`) {
		return s
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '|', '?', '<', '>', ':', '*', '"':
			return '_'
		}
		return r
	}, s)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// FormattingHelp returns the placeholder names and their types, one per
// line, for the `fields` command.
func FormattingHelp() string {
	names := make([]string, 0, len(Fields))
	for name := range Fields {
		if name == "test" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var buf strings.Builder
	for _, name := range names {
		fmt.Fprintf(&buf, "%s: %s\n", name, Fields[name])
	}
	return buf.String()
}
