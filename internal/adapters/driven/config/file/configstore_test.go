package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfigStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := newTestConfigStore(t)

	err := store.Set("assistant.policy", "decline")
	require.NoError(t, err)

	val, ok := store.Get("assistant.policy")
	assert.True(t, ok)
	assert.Equal(t, "decline", val)

	_, ok = store.Get("nonexistent")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newTestConfigStore(t)

	require.NoError(t, store.Set("embedding.model", "nomic-embed-text"))
	require.NoError(t, store.Set("retrieval.top_k", 7))
	require.NoError(t, store.Set("retrieval.min_similarity", 0.6))
	require.NoError(t, store.Set("chat.verbose", true))

	assert.Equal(t, "nomic-embed-text", store.GetString("embedding.model"))
	assert.Equal(t, 7, store.GetInt("retrieval.top_k"))
	assert.InDelta(t, 0.6, store.GetFloat("retrieval.min_similarity"), 1e-9)
	assert.True(t, store.GetBool("chat.verbose"))

	// Missing keys yield zero values.
	assert.Equal(t, "", store.GetString("missing"))
	assert.Equal(t, 0, store.GetInt("missing"))
	assert.Equal(t, 0.0, store.GetFloat("missing"))
	assert.False(t, store.GetBool("missing"))

	// Wrong types yield zero values too.
	assert.Equal(t, "", store.GetString("retrieval.top_k"))
	assert.Equal(t, 0, store.GetInt("embedding.model"))
	assert.False(t, store.GetBool("embedding.model"))
}

func TestConfigStore_GetFloat_AcceptsIntegers(t *testing.T) {
	store := newTestConfigStore(t)

	// Users may write `temperature = 1` in the TOML by hand.
	store.mu.Lock()
	store.data["assistant.temperature"] = int64(1)
	store.mu.Unlock()

	assert.Equal(t, 1.0, store.GetFloat("assistant.temperature"))
}

func TestConfigStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()

	store1, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store1.Set("llm.provider", "ollama"))
	require.NoError(t, store1.Set("retrieval.top_k", 5))
	require.NoError(t, store1.Set("assistant.temperature", 0.3))

	// A fresh instance loads the same data from disk.
	store2, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "ollama", store2.GetString("llm.provider"))
	assert.Equal(t, 5, store2.GetInt("retrieval.top_k"))
	assert.InDelta(t, 0.3, store2.GetFloat("assistant.temperature"), 1e-9)
}

func TestConfigStore_Load_FlattensNestedTables(t *testing.T) {
	tmpDir := t.TempDir()

	// Hand-written configs use TOML tables rather than dotted keys.
	content := []byte("[embedding]\nprovider = \"ollama\"\nmodel = \"all-minilm\"\n")
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), content, 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "ollama", store.GetString("embedding.provider"))
	assert.Equal(t, "all-minilm", store.GetString("embedding.model"))
}

func TestConfigStore_Load_NonExistent(t *testing.T) {
	store := newTestConfigStore(t)

	// No config file yet: starts empty with no error.
	val, ok := store.Get("any_key")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_Load_CorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()

	corrupted := []byte("this is not valid TOML {{{[[")
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), corrupted, 0600))

	store, err := NewConfigStore(tmpDir)
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("test", "value"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_OverwriteValue(t *testing.T) {
	store := newTestConfigStore(t)

	require.NoError(t, store.Set("key", "original"))
	require.NoError(t, store.Set("key", "updated"))
	assert.Equal(t, "updated", store.GetString("key"))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := newTestConfigStore(t)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			key := "key" + string(rune('0'+id))
			_ = store.Set(key, id)
			_ = store.GetInt(key)
			_ = store.GetString(key)
			_, _ = store.Get(key)
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
