package file

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doclens-ai/doclens-cli/internal/core/ports/driven"
)

func TestNewPromptStore_WithCustomDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPromptStore(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".doclens", "prompts"), store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	// Load triggers lazy init
	_, err = store.Load(driven.PromptSufficiency)
	require.NoError(t, err)

	for name := range defaultPrompts {
		path := filepath.Join(dir, name+".txt")
		assert.FileExists(t, path, "default file for %s", name)
	}
	assert.FileExists(t, filepath.Join(dir, "README.md"))
}

func TestPromptStore_Load_ReturnsDefaults(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptTransform)

	require.NoError(t, err)
	assert.Contains(t, prompt, "perspective")
	assert.Contains(t, prompt, "%s")
}

func TestPromptStore_Load_PrefersUserFile(t *testing.T) {
	dir := t.TempDir()
	custom := "my custom analysis prompt: %s"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "analysis.txt"), []byte(custom+"\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnalysis)

	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("no_such_prompt")

	assert.Error(t, err)
}

func TestPromptStore_Reload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	first, err := store.Load(driven.PromptTitle)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "title.txt"), []byte("changed %s"), 0600))
	store.Reload()

	second, err := store.Load(driven.PromptTitle)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, "changed %s", second)
}

func TestPromptStore_ConcurrentLoads(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prompt, err := store.Load(driven.PromptSufficiency)
			assert.NoError(t, err)
			assert.True(t, strings.Contains(prompt, "documentSearch"))
		}()
	}
	wg.Wait()
}
