package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/comicbench/comicbench/internal/config"
)

const containerModelsYAML = `
models:
  claude-3-5-sonnet:
    provider: anthropic
    model: claude-3-5-sonnet-20241022
    api_key_env: CONTAINER_TEST_ANTHROPIC_KEY
    max_tokens: 1024
  gpt-4o:
    provider: openai
    model: gpt-4o-2024-08-06
    api_key_env: CONTAINER_TEST_OPENAI_KEY
    max_tokens: 1024
phase1_models:
  - claude-3-5-sonnet
  - gpt-4o
benchmark_models:
  - claude-3-5-sonnet
judge_model: claude-3-5-sonnet
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	modelsFile := filepath.Join(dir, "models.yaml")
	require.NoError(t, os.WriteFile(modelsFile, []byte(containerModelsYAML), 0o644))
	return &config.Config{
		Paths: config.PathsConfig{
			ModelsFile:   modelsFile,
			CorpusDir:    dir,
			MetadataFile: filepath.Join(dir, "comics_metadata.json"),
			Explanations: filepath.Join(dir, "ai_explanations.json"),
			GroundTruth:  filepath.Join(dir, "ground_truth_labels.json"),
		},
	}
}

func TestBuildFailsWhenProviderKeyMissing(t *testing.T) {
	cfg := testConfig(t)
	t.Setenv("CONTAINER_TEST_ANTHROPIC_KEY", "")
	t.Setenv("CONTAINER_TEST_OPENAI_KEY", "sk-test")

	c, err := Build(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.Nil(t, c)
	assert.Contains(t, err.Error(), "CONTAINER_TEST_ANTHROPIC_KEY")
	assert.Contains(t, err.Error(), "anthropic")
}

func TestBuildWithAllKeysSet(t *testing.T) {
	cfg := testConfig(t)
	t.Setenv("CONTAINER_TEST_ANTHROPIC_KEY", "sk-ant-test")
	t.Setenv("CONTAINER_TEST_OPENAI_KEY", "sk-test")

	c, err := Build(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.NotNil(t, c.Runner)
	assert.NotNil(t, c.Explanations)
	assert.NotNil(t, c.GroundTruth)
}
