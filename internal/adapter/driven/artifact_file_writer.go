package driven

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
)

var (
	// ErrInvalidIdentity is returned for identities that are empty or would escape the output directory
	ErrInvalidIdentity = errors.New("invalid artifact identity")
	// ErrInvalidExt is returned for extensions that do not start with a dot
	ErrInvalidExt = errors.New("invalid artifact extension")
)

// WriteError describes a failed artifact write.
type WriteError struct {
	Identity string
	Ext      string
	Err      error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing artifact %s%s: %v", e.Identity, e.Ext, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// ArtifactFileWriter publishes artifacts as <dir>/<identity><ext>.
// It implements the driven.ArtifactWriter port.
type ArtifactFileWriter struct {
	dir string
}

// NewArtifactFileWriter creates a writer rooted at dir. The directory is
// created on first write if it does not exist.
func NewArtifactFileWriter(dir string) *ArtifactFileWriter {
	return &ArtifactFileWriter{dir: dir}
}

// Dir returns the output directory.
func (w *ArtifactFileWriter) Dir() string {
	return w.dir
}

// Path returns the file path an artifact is published to.
func (w *ArtifactFileWriter) Path(identity, ext string) string {
	return filepath.Join(w.dir, identity+ext)
}

// WriteArtifact replaces <dir>/<identity><ext> with content.
// The content goes to a temporary file in the same directory which is then
// renamed over the target, so readers never observe a partial artifact.
func (w *ArtifactFileWriter) WriteArtifact(ctx context.Context, identity, ext, content string) error {
	if err := validateArtifactName(identity, ext); err != nil {
		return &WriteError{Identity: identity, Ext: ext, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return &WriteError{Identity: identity, Ext: ext, Err: err}
	}

	if err := w.writeAtomic(w.Path(identity, ext), content); err != nil {
		return &WriteError{Identity: identity, Ext: ext, Err: err}
	}
	return nil
}

func (w *ArtifactFileWriter) writeAtomic(path, content string) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := renameio.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("replacing artifact: %w", err)
	}
	return nil
}

func validateArtifactName(identity, ext string) error {
	if identity == "" || identity == "." || identity == ".." ||
		strings.ContainsAny(identity, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentity, identity)
	}
	if !strings.HasPrefix(ext, ".") || len(ext) < 2 || strings.ContainsAny(ext, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidExt, ext)
	}
	return nil
}
