package playlist

import (
	"fmt"
	"maps"
	"net/url"
	"strings"
)

// Source describes one remote playlist feed.
type Source struct {
	ID      string
	Alias   string
	Dialect Dialect
	URL     string
	// Policy is nil when every genre is kept as is.
	Policy Policy
}

// NewSource creates a validated Source. Whitespace around id, alias and url
// is trimmed and the policy is copied so later changes to the caller's map
// do not leak into the source.
func NewSource(id, alias string, dialect Dialect, rawURL string, policy Policy) (Source, error) {
	s := Source{
		ID:      strings.TrimSpace(id),
		Alias:   strings.TrimSpace(alias),
		Dialect: dialect,
		URL:     strings.TrimSpace(rawURL),
	}
	if policy != nil {
		s.Policy = maps.Clone(policy)
	}

	if err := s.Validate(); err != nil {
		return Source{}, err
	}
	return s, nil
}

// Validate checks that the source can be synced.
func (s Source) Validate() error {
	if s.ID == "" {
		return ErrEmptyID
	}
	if s.URL == "" {
		return fmt.Errorf("source %s: %w", s.ID, ErrEmptyURL)
	}

	u, err := url.Parse(s.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("source %s: %w: %q", s.ID, ErrInvalidURL, s.URL)
	}

	if s.Alias != "" && s.Alias == s.ID {
		return fmt.Errorf("source %s: %w", s.ID, ErrInvalidAlias)
	}

	if _, err := Normalize(s.Dialect, ""); err != nil {
		return fmt.Errorf("source %s: %w", s.ID, err)
	}

	return nil
}

// Identities returns the names the source's artifacts are published under:
// its id, then its alias if it has one.
func (s Source) Identities() []string {
	if s.Alias == "" {
		return []string{s.ID}
	}
	return []string{s.ID, s.Alias}
}
