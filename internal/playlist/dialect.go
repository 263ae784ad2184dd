package playlist

import (
	"fmt"
	"strings"
)

// Dialect identifies the text format a source publishes its playlist in.
type Dialect string

const (
	// Canonical is the flat "<name>,#genre#" block format (also known as DIYP/txt).
	Canonical Dialect = "canonical"
	// Extended is the #EXTINF based M3U format.
	Extended Dialect = "extended"
)

// CanonicalExt is the artifact extension of canonical documents.
const CanonicalExt = ".txt"

var dialectAliases = map[string]Dialect{
	"canonical": Canonical,
	"diyp":      Canonical,
	"txt":       Canonical,
	"extended":  Extended,
	"m3u":       Extended,
	"m3u8":      Extended,
}

// ParseDialect resolves a dialect name or one of its aliases.
func ParseDialect(s string) (Dialect, error) {
	d, ok := dialectAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDialect, s)
	}
	return d, nil
}

// String returns the dialect name.
func (d Dialect) String() string {
	return string(d)
}

// NativeExt returns the extension under which the raw document of this
// dialect is published, or "" when the raw document is not published
// separately.
func (d Dialect) NativeExt() string {
	if d == Extended {
		return ".m3u"
	}
	return ""
}

// Normalize converts a raw document of dialect d into the canonical format.
func Normalize(d Dialect, raw string) (string, error) {
	switch d {
	case Canonical:
		return raw, nil
	case Extended:
		return ConvertExtended(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDialect, string(d))
	}
}
