package driven

import "context"

// ArtifactWriter defines the interface for publishing sync results.
// This is a driven port that will be implemented by concrete adapters (e.g., local files).
type ArtifactWriter interface {
	// WriteArtifact stores content under identity and extension (e.g. "fmml", ".txt"),
	// replacing any existing artifact with the same identity and extension.
	// Implementations must not leave a partially written artifact behind on failure.
	WriteArtifact(ctx context.Context, identity, ext, content string) error
}
