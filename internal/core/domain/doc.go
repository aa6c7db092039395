// Package domain defines the core business entities for the Studyloop
// RAG pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ContentUnit: An atomic piece of published learning material
//   - Chunk: A bounded text span derived from a content unit
//   - IndexEntry: A vector plus chunk metadata stored in the vector index
//   - RetrievalResult: A scored chunk returned for a query
//   - Answer: A grounded completion with citations
//   - RecommendationScore: A scored content unit for a user
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
