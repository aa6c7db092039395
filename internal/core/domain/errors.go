package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyInput indicates text that is empty or whitespace-only
	// was given to an operation that needs content.
	ErrEmptyInput = errors.New("empty input")

	// ErrInvalidConfiguration indicates a fatal configuration problem
	// (chunk overlap >= chunk size, incompatible provider combination).
	// It is never retried: every subsequent item would fail identically.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrDimensionMismatch indicates an embedding's dimensionality does not
	// match the vector index. The offending write is rejected atomically;
	// the rest of the index is untouched.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrProviderUnavailable indicates an embedding or generation backend
	// is unreachable. Recoverable: the assistant retries once with a
	// degraded prompt, ingestion skips the unit and continues.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrGenerationTimeout indicates a generation call exceeded its
	// deadline. Recoverable, same policy as ErrProviderUnavailable.
	ErrGenerationTimeout = errors.New("generation timed out")

	// ErrModelNotFound indicates the backend does not know the requested
	// model.
	ErrModelNotFound = errors.New("model not found")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Retrieval and ingestion are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// The assistant cannot answer without a generation provider.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not
	// configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrIngestInProgress indicates an ingestion run is already active.
	// The index supports a single writer at a time.
	ErrIngestInProgress = errors.New("ingestion in progress")
)

// IsRecoverable reports whether an error is transient per the retry
// policy: provider outages and timeouts are retried with degraded input,
// everything else surfaces immediately.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable) || errors.Is(err, ErrGenerationTimeout)
}
