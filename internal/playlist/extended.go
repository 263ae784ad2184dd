package playlist

import "strings"

const extinfPrefix = "#EXTINF:"

// ExtractGroupTitle extracts the group-title attribute from an EXTINF line.
// The second return value reports whether the attribute was present.
func ExtractGroupTitle(extinf string) (string, bool) {
	if !strings.HasPrefix(extinf, extinfPrefix) {
		return "", false
	}

	matches := groupTitleRegex.FindStringSubmatch(extinf)
	if len(matches) > 1 {
		return matches[1], true
	}
	return "", false
}

// ExtractDisplayName extracts the channel display name from an EXTINF line:
// the trimmed text after the first comma. Returns "" if the line is not an
// EXTINF line or has no comma.
func ExtractDisplayName(extinf string) string {
	if !strings.HasPrefix(extinf, extinfPrefix) {
		return ""
	}

	_, name, found := strings.Cut(extinf, ",")
	if !found {
		return ""
	}
	return strings.TrimSpace(name)
}

func isStreamURL(line string) bool {
	return strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://")
}

// extendedScanner carries the state of a left-to-right scan over an
// Extended document.
type extendedScanner struct {
	genre       string
	channel     string
	lastEmitted string
	lines       []string
}

func (s *extendedScanner) scan(line string) {
	line = strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(line, extinfPrefix):
		if genre, ok := ExtractGroupTitle(line); ok {
			s.genre = genre
		}
		s.channel = ExtractDisplayName(line)
	case isStreamURL(line):
		s.lines = append(s.lines, s.channel+","+line)
	}

	// Checked on every line, so the header of a new group is emitted right
	// after its metadata line, before the URL line is seen.
	if s.genre != s.lastEmitted {
		s.lines = append(s.lines, "", genreHeader(s.genre))
		s.lastEmitted = s.genre
	}
}

// ConvertExtended converts an Extended (M3U) document into the canonical
// block format. Entries are grouped by their group-title attribute; a new
// header is emitted whenever the group changes, so non-contiguous groups
// produce several blocks with the same name.
func ConvertExtended(doc string) string {
	var s extendedScanner
	for _, line := range strings.Split(doc, "\n") {
		s.scan(line)
	}
	return strings.TrimSpace(strings.Join(s.lines, "\n"))
}
