// Package vector provides helpers shared by the vector index backends:
// the float32 byte codec used for persistence and cosine similarity.
package vector

import (
	"encoding/binary"
	"math"

	"github.com/studyloop/studyloop-cli/internal/core/ports/driven"
)

// EncodeFloat32s serialises a vector as little-endian float32 bytes.
func EncodeFloat32s(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeFloat32s deserialises little-endian float32 bytes into a vector.
func DecodeFloat32s(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// Cosine computes cosine similarity between two equal-length vectors.
// Returns 0 when either vector has zero magnitude.
func Cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// MatchesModule reports whether an entry's module path falls under the
// filter path: an exact match or any descendant ("python" matches
// "python/basics/intro").
func MatchesModule(entryPath, filterPath string) bool {
	if filterPath == "" || entryPath == filterPath {
		return true
	}
	return len(entryPath) > len(filterPath) &&
		entryPath[:len(filterPath)] == filterPath &&
		entryPath[len(filterPath)] == '/'
}

// MatchesFilter applies a query filter to an entry's metadata.
func MatchesFilter(unitID, modulePath string, filter *driven.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if !MatchesModule(modulePath, filter.ModulePath) {
		return false
	}
	if len(filter.UnitIDs) > 0 {
		for _, id := range filter.UnitIDs {
			if id == unitID {
				return true
			}
		}
		return false
	}
	return true
}
