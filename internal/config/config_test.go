package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/papergest/internal/chunker"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir()) // keep a stray .env out of the test
	t.Setenv("PAPERGEST_API_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, "json", cfg.PaperStore)
	assert.Equal(t, "hash", cfg.EmbedProvider)
	assert.Equal(t, "chromem", cfg.VectorStore)
	assert.Equal(t, "papers", cfg.DefaultCollection)
	assert.Equal(t, time.Hour, cfg.JobTTL)
	assert.Equal(t, int64(52428800), cfg.MaxUploadBytes)
	assert.True(t, cfg.PDFFallbackPdftotext)
	assert.Equal(t, chunker.DefaultConfig(), cfg.ChunkerConfig())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PAPERGEST_API_KEY", "secret")
	t.Setenv("VECTOR_STORE", "qdrant")
	t.Setenv("JOB_TTL", "15m")
	t.Setenv("CHUNK_TARGET_MAX", "500")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "qdrant", cfg.VectorStore)
	assert.Equal(t, 15*time.Minute, cfg.JobTTL)
	assert.Equal(t, 500, cfg.ChunkerConfig().TargetMax)
	assert.False(t, cfg.PDFFallbackPdftotext)
}

func TestLoadBadValue(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WORKER_COUNT", "lots")

	_, err := Load()
	assert.Error(t, err)
}

func TestChunkProfileOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("target_min: 200\ntarget_max: 400\noverlap_max: 0\n"), 0o644))
	t.Setenv("PAPERGEST_API_KEY", "secret")
	t.Setenv("CHUNK_PROFILE_FILE", path)
	t.Setenv("CHUNK_HARD_CEILING", "700")

	cfg, err := Load()
	require.NoError(t, err)
	cc := cfg.ChunkerConfig()
	assert.Equal(t, 200, cc.TargetMin)
	assert.Equal(t, 400, cc.TargetMax)
	assert.Equal(t, 700, cc.HardCeiling, "keys missing from the profile keep the env value")
	assert.Equal(t, 0, cc.OverlapMax, "an explicit zero in the profile disables overlap")
	assert.NoError(t, cfg.Validate())
}

func TestChunkProfileMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CHUNK_PROFILE_FILE", "does-not-exist.yaml")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) Config {
		t.Chdir(t.TempDir())
		t.Setenv("PAPERGEST_API_KEY", "secret")
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing api key", func(c *Config) { c.APIKey = "" }},
		{"unknown paper store", func(c *Config) { c.PaperStore = "s3" }},
		{"unknown embed provider", func(c *Config) { c.EmbedProvider = "magic" }},
		{"openai without key", func(c *Config) { c.EmbedProvider = "openai" }},
		{"unknown vector store", func(c *Config) { c.VectorStore = "pinecone" }},
		{"qdrant without url", func(c *Config) { c.VectorStore = "qdrant"; c.QdrantURL = "" }},
		{"no workers", func(c *Config) { c.WorkerCount = 0 }},
		{"no upload budget", func(c *Config) { c.MaxUploadBytes = 0 }},
		{"no job ttl", func(c *Config) { c.JobTTL = 0 }},
		{"inverted window", func(c *Config) { c.ChunkTargetMin = 700 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid(t)
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
