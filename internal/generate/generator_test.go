package generate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/comicbench/comicbench/internal/config"
	"github.com/comicbench/comicbench/internal/corpus"
	"github.com/comicbench/comicbench/internal/domain"
	"github.com/comicbench/comicbench/internal/provider"
	"github.com/comicbench/comicbench/internal/runner"
	"github.com/comicbench/comicbench/internal/store"
)

// countingCompleter answers every request with a canned explanation and
// counts calls, optionally failing permanently.
type countingCompleter struct {
	name domain.Provider

	mu    sync.Mutex
	calls int
	fail  bool
}

func (c *countingCompleter) Name() domain.Provider { return c.name }

func (c *countingCompleter) Complete(_ context.Context, req provider.CompletionRequest) (provider.CompletionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.fail {
		return provider.CompletionResult{}, &provider.Error{
			Provider: c.name,
			Kind:     provider.KindBadResponse,
			Err:      errors.New("empty completion"),
		}
	}
	return provider.CompletionResult{Text: "explained by " + req.Model}, nil
}

func (c *countingCompleter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

const generatorModelsYAML = `
models:
  claude:
    provider: anthropic
    model: claude-test
    api_key_env: ANTHROPIC_API_KEY
  gemini:
    provider: google
    model: gemini-test
    api_key_env: GOOGLE_API_KEY
phase1_models:
  - claude
  - gemini
retry:
  max_attempts: 1
`

func testFixture(t *testing.T, anthropicFail bool) (*Generator, *countingCompleter, *countingCompleter, *store.MemoryStore[domain.ComicExplanations]) {
	t.Helper()

	dir := t.TempDir()
	metaFile := filepath.Join(dir, "comics_metadata.json")
	require.NoError(t, os.WriteFile(metaFile, []byte(`[
  {"filename": "PBF-One.png", "comic_title": "One", "local_path": ""},
  {"filename": "PBF-Two.png", "comic_title": "Two", "local_path": ""}
]`), 0o644))
	for _, name := range []string{"PBF-One.png", "PBF-Two.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("img"), 0o644))
	}

	c, err := corpus.Load(metaFile, dir)
	require.NoError(t, err)

	models, err := config.ParseModels([]byte(generatorModelsYAML))
	require.NoError(t, err)

	claude := &countingCompleter{name: domain.ProviderAnthropic, fail: anthropicFail}
	gemini := &countingCompleter{name: domain.ProviderGoogle}
	r := runner.New([]provider.Completer{claude, gemini}, models, zap.NewNop())

	s := store.NewMemoryStore[domain.ComicExplanations]()
	return New(c, r, models, s, zap.NewNop()), claude, gemini, s
}

func TestRunGeneratesAllPairs(t *testing.T) {
	g, claude, gemini, s := testFixture(t, false)

	require.NoError(t, g.Run(context.Background(), Options{}))

	assert.Equal(t, 2, claude.count())
	assert.Equal(t, 2, gemini.count())

	record, ok, err := s.Get("PBF-One.png")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "One", record.ComicTitle)
	assert.Equal(t, "explained by claude-test", record.Explanations["claude"])
	assert.Equal(t, "explained by gemini-test", record.Explanations["gemini"])

	// Persisted once per comic, not once at the end.
	assert.Equal(t, 2, s.Puts)
}

func TestRunSkipsExistingPairs(t *testing.T) {
	g, claude, gemini, s := testFixture(t, false)

	require.NoError(t, s.Put("PBF-One.png", domain.ComicExplanations{
		ComicTitle: "One",
		Explanations: map[string]string{
			"claude": "already explained",
			"gemini": "already explained",
		},
	}))
	s.Puts = 0

	require.NoError(t, g.Run(context.Background(), Options{}))

	// Only the second comic needed calls.
	assert.Equal(t, 1, claude.count())
	assert.Equal(t, 1, gemini.count())

	record, _, err := s.Get("PBF-One.png")
	require.NoError(t, err)
	assert.Equal(t, "already explained", record.Explanations["claude"])
}

func TestRunRetriesErrorEntries(t *testing.T) {
	g, claude, _, s := testFixture(t, false)

	require.NoError(t, s.Put("PBF-One.png", domain.ComicExplanations{
		Explanations: map[string]string{
			"claude": "[Error: connection reset]",
			"gemini": "fine",
		},
	}))

	require.NoError(t, g.Run(context.Background(), Options{}))

	// Comic one retried claude only; comic two ran both.
	assert.Equal(t, 2, claude.count())

	record, _, err := s.Get("PBF-One.png")
	require.NoError(t, err)
	assert.Equal(t, "explained by claude-test", record.Explanations["claude"])
	assert.Equal(t, "fine", record.Explanations["gemini"])
}

func TestRunNoSkipRegenerates(t *testing.T) {
	g, claude, gemini, s := testFixture(t, false)

	require.NoError(t, s.Put("PBF-One.png", domain.ComicExplanations{
		Explanations: map[string]string{"claude": "old", "gemini": "old"},
	}))

	require.NoError(t, g.Run(context.Background(), Options{NoSkip: true}))

	assert.Equal(t, 2, claude.count())
	assert.Equal(t, 2, gemini.count())

	record, _, err := s.Get("PBF-One.png")
	require.NoError(t, err)
	assert.Equal(t, "explained by claude-test", record.Explanations["claude"])
}

func TestRunRecordsFailuresAsErrorEntries(t *testing.T) {
	g, _, _, s := testFixture(t, true)

	require.NoError(t, g.Run(context.Background(), Options{}))

	record, ok, err := s.Get("PBF-One.png")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, domain.IsErrorEntry(record.Explanations["claude"]))
	assert.Equal(t, "explained by gemini-test", record.Explanations["gemini"])
}

func TestRunRecordsUnreadableImagePerPendingModel(t *testing.T) {
	g, claude, gemini, s := testFixture(t, false)
	require.NoError(t, os.Remove(g.corpus.ImagePath(&g.corpus.Comics[0])))

	require.NoError(t, g.Run(context.Background(), Options{}))

	// No provider call for the broken comic, one each for the second.
	assert.Equal(t, 1, claude.count())
	assert.Equal(t, 1, gemini.count())

	record, ok, err := s.Get("PBF-One.png")
	require.NoError(t, err)
	require.True(t, ok, "the failure must be visible in the store")
	assert.True(t, domain.IsErrorEntry(record.Explanations["claude"]))
	assert.True(t, domain.IsErrorEntry(record.Explanations["gemini"]))

	// Both comics persisted.
	assert.Equal(t, 2, s.Puts)
}

func TestRunHonorsLimit(t *testing.T) {
	g, claude, _, s := testFixture(t, false)

	require.NoError(t, g.Run(context.Background(), Options{Limit: 1}))

	assert.Equal(t, 1, claude.count())
	_, ok, err := s.Get("PBF-Two.png")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStatisticsExcludeErrorEntries(t *testing.T) {
	g, _, _, s := testFixture(t, false)

	require.NoError(t, s.Put("PBF-One.png", domain.ComicExplanations{
		Explanations: map[string]string{
			"claude": "good",
			"gemini": "[Error: boom]",
		},
	}))

	stats, err := g.Statistics()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalComics)
	assert.Equal(t, 1, stats.ComicsWithExplanations)
	assert.Equal(t, 1, stats.ModelCounts["claude"])
	assert.Zero(t, stats.ModelCounts["gemini"])
}

func TestStatisticsIgnoreAllErrorRecords(t *testing.T) {
	g, _, _, s := testFixture(t, false)

	require.NoError(t, s.Put("PBF-One.png", domain.ComicExplanations{
		Explanations: map[string]string{
			"claude": "[Error: timeout]",
			"gemini": "[Error: boom]",
		},
	}))

	stats, err := g.Statistics()
	require.NoError(t, err)
	// Nothing usable for labeling, so the comic is not explained.
	assert.Zero(t, stats.ComicsWithExplanations)
	assert.Empty(t, stats.ModelCounts)
}
