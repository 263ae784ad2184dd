package driven

import "context"

// PlaylistFetcher defines the interface for retrieving raw playlist documents.
// This is a driven port that will be implemented by concrete adapters (e.g., HTTP client).
type PlaylistFetcher interface {
	// FetchText retrieves the full document at url.
	// Returns an error if the retrieval fails or the response is not successful.
	FetchText(ctx context.Context, url string) (string, error)
}
