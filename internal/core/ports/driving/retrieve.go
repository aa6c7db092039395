package driving

import (
	"context"

	"github.com/studyloop/studyloop-cli/internal/core/domain"
)

// Retriever answers similarity queries over the indexed chunks.
type Retriever interface {
	// Retrieve embeds the query and returns the top-K most similar chunks
	// with normalised scores in [0,1].
	Retrieve(ctx context.Context, query string, opts RetrieveOptions) ([]domain.RetrievalResult, error)
}

// RetrieveOptions configures a retrieval call.
type RetrieveOptions struct {
	// K is the number of results to return. Must be > 0.
	K int

	// ModulePath restricts results to one structural path when set.
	ModulePath string

	// MaxPerUnit caps chunks per content unit in the result
	// (0 = use the configured default).
	MaxPerUnit int
}
