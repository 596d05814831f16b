package pushshift

import (
	"fmt"
	"strings"
	"unicode"
)

// Target identifies one collection to rip: a subreddit or a user profile.
type Target struct {
	Name    string
	Profile bool
}

// ParseTarget interprets a command-line argument as a subreddit or profile.
// The input is assumed to be a subreddit unless prefixed with `u/` or
// `/u/`; the prefixes `r/`, `/r/`, `u/` and `/u/` are stripped.
func ParseTarget(input string) (Target, error) {
	name := input
	profile := false

	switch {
	case strings.HasPrefix(input, "/u/"):
		name, profile = input[3:], true
	case strings.HasPrefix(input, "u/"):
		name, profile = input[2:], true
	case strings.HasPrefix(input, "/r/"):
		name = input[3:]
	case strings.HasPrefix(input, "r/"):
		name = input[2:]
	}

	if err := verifyName(name); err != nil {
		return Target{}, err
	}
	return Target{Name: name, Profile: profile}, nil
}

func verifyName(name string) error {
	if name == "" {
		return fmt.Errorf("empty target name")
	}
	if len(name) > 21 {
		return fmt.Errorf("%q: names have a maximum length of 21 characters", name)
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return fmt.Errorf("names can only contain alphanumeric characters, %q found", r)
		}
	}
	return nil
}

// String renders the target the way reddit writes it, e.g. /r/pics or
// /u/spez.
func (t Target) String() string {
	if t.Profile {
		return "/u/" + t.Name
	}
	return "/r/" + t.Name
}

// Dir returns the storage directory segment for the target. Profiles get a
// `u_` prefix so they cannot collide with a subreddit of the same name.
func (t Target) Dir() string {
	if t.Profile {
		return "u_" + t.Name
	}
	return t.Name
}

// SelfDomain returns the domain reddit assigns to self posts on this
// target, e.g. `self.pics`.
func (t Target) SelfDomain() string {
	return "self." + t.Name
}
