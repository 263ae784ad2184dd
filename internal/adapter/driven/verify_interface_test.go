package driven

import (
	port "github.com/alorle/iptv-sync/internal/port/driven"
)

// Compile-time check that PlaylistHTTPFetcher implements PlaylistFetcher interface
var _ port.PlaylistFetcher = (*PlaylistHTTPFetcher)(nil)

// Compile-time check that ArtifactFileWriter implements ArtifactWriter interface
var _ port.ArtifactWriter = (*ArtifactFileWriter)(nil)
