package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkID(t *testing.T) {
	assert.Equal(t, "unit-1#0", ChunkID("unit-1", 0))
	assert.Equal(t, "unit-1#12", ChunkID("unit-1", 12))
}

func TestDifficulty_Rank(t *testing.T) {
	assert.Less(t, DifficultyBeginner.Rank(), DifficultyIntermediate.Rank())
	assert.Less(t, DifficultyIntermediate.Rank(), DifficultyAdvanced.Rank())

	// Unknown levels sort after every known level.
	assert.Greater(t, Difficulty("expert").Rank(), DifficultyAdvanced.Rank())
}

func TestContextPolicy_IsValid(t *testing.T) {
	assert.True(t, ContextPolicyDecline.IsValid())
	assert.True(t, ContextPolicyGeneral.IsValid())
	assert.False(t, ContextPolicy("").IsValid())
	assert.False(t, ContextPolicy("refuse").IsValid())
}

func TestRecommendationKind_IsValid(t *testing.T) {
	assert.True(t, RecommendationNextContent.IsValid())
	assert.False(t, RecommendationKind("similar_users").IsValid())
}
