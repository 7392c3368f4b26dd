package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/papergest/internal/chunker"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8090"`

	// Auth
	APIKey string `env:"PAPERGEST_API_KEY"`

	// Paper store
	PaperStore string `env:"PAPER_STORE" envDefault:"json"` // json or sqlite
	PaperDir   string `env:"PAPER_DIR" envDefault:"./pmc_articles"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"./papergest.db"`

	// Embeddings
	EmbedProvider  string `env:"EMBED_PROVIDER" envDefault:"hash"` // hash, ollama or openai
	EmbedModel     string `env:"EMBED_MODEL"`
	EmbedURL       string `env:"EMBED_URL"`
	EmbedAPIKey    string `env:"EMBED_API_KEY"`
	EmbedCacheSize int    `env:"EMBED_CACHE_SIZE" envDefault:"4096"`
	HashDimension  int    `env:"HASH_DIMENSION" envDefault:"384"`

	// Vector store
	VectorStore       string `env:"VECTOR_STORE" envDefault:"chromem"` // chromem or qdrant
	ChromemDir        string `env:"CHROMEM_DIR"`                       // empty keeps vectors in memory
	QdrantURL         string `env:"QDRANT_URL" envDefault:"http://localhost:6333"`
	QdrantAPIKey      string `env:"QDRANT_API_KEY"`
	DefaultCollection string `env:"DEFAULT_COLLECTION" envDefault:"papers"`

	// Answers
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	AnthropicModel  string `env:"ANTHROPIC_MODEL" envDefault:"claude-sonnet-4-5-20250929"`

	// Worker pool
	WorkerCount        int `env:"WORKER_COUNT" envDefault:"4"`
	MaxQueueSize       int `env:"MAX_QUEUE_SIZE" envDefault:"100"`
	MaxConcurrentEmbed int `env:"MAX_CONCURRENT_EMBED" envDefault:"8"`

	// Upload limits
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"` // 50MB

	// Job state
	JobTTL time.Duration `env:"JOB_TTL" envDefault:"1h"`

	// Chunking
	ChunkProfileFile  string `env:"CHUNK_PROFILE_FILE"`
	ChunkTargetMin    int    `env:"CHUNK_TARGET_MIN" envDefault:"300"`
	ChunkTargetMax    int    `env:"CHUNK_TARGET_MAX" envDefault:"600"`
	ChunkHardCeiling  int    `env:"CHUNK_HARD_CEILING" envDefault:"800"`
	ChunkOverlapMin   int    `env:"CHUNK_OVERLAP_MIN" envDefault:"50"`
	ChunkOverlapMax   int    `env:"CHUNK_OVERLAP_MAX" envDefault:"100"`
	ChunkBatchWorkers int    `env:"CHUNK_BATCH_WORKERS" envDefault:"4"`

	// PDF
	PDFFallbackPdftotext bool `env:"PDF_FALLBACK_PDFTOTEXT" envDefault:"true"`
}

// ChunkProfile is the YAML chunking profile. Only keys present in the file
// override the environment.
type ChunkProfile struct {
	TargetMin   *int `yaml:"target_min"`
	TargetMax   *int `yaml:"target_max"`
	HardCeiling *int `yaml:"hard_ceiling"`
	OverlapMin  *int `yaml:"overlap_min"`
	OverlapMax  *int `yaml:"overlap_max"`
	Workers     *int `yaml:"workers"`
}

// Load reads .env (if present), then the environment, then the chunk profile file.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.ChunkProfileFile != "" {
		if err := cfg.applyChunkProfile(cfg.ChunkProfileFile); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

func (c *Config) applyChunkProfile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read chunk profile: %w", err)
	}
	var p ChunkProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("parse chunk profile %s: %w", path, err)
	}
	set := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	set(&c.ChunkTargetMin, p.TargetMin)
	set(&c.ChunkTargetMax, p.TargetMax)
	set(&c.ChunkHardCeiling, p.HardCeiling)
	set(&c.ChunkOverlapMin, p.OverlapMin)
	set(&c.ChunkOverlapMax, p.OverlapMax)
	set(&c.ChunkBatchWorkers, p.Workers)
	return nil
}

// ChunkerConfig maps the chunking keys onto a chunker.Config.
func (c Config) ChunkerConfig() chunker.Config {
	return chunker.Config{
		TargetMin:   c.ChunkTargetMin,
		TargetMax:   c.ChunkTargetMax,
		HardCeiling: c.ChunkHardCeiling,
		OverlapMin:  c.ChunkOverlapMin,
		OverlapMax:  c.ChunkOverlapMax,
		Workers:     c.ChunkBatchWorkers,
		Separator:   chunker.DefaultSeparator,
	}
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("PAPERGEST_API_KEY is required")
	}
	switch c.PaperStore {
	case "json", "sqlite":
	default:
		return fmt.Errorf("PAPER_STORE must be json or sqlite, got %q", c.PaperStore)
	}
	switch c.EmbedProvider {
	case "hash", "ollama":
	case "openai":
		if c.EmbedAPIKey == "" {
			return fmt.Errorf("EMBED_API_KEY is required for the openai provider")
		}
	default:
		return fmt.Errorf("EMBED_PROVIDER must be hash, ollama or openai, got %q", c.EmbedProvider)
	}
	switch c.VectorStore {
	case "chromem":
	case "qdrant":
		if c.QdrantURL == "" {
			return fmt.Errorf("QDRANT_URL is required for the qdrant vector store")
		}
	default:
		return fmt.Errorf("VECTOR_STORE must be chromem or qdrant, got %q", c.VectorStore)
	}
	if c.WorkerCount <= 0 || c.MaxQueueSize <= 0 || c.MaxConcurrentEmbed <= 0 {
		return fmt.Errorf("WORKER_COUNT, MAX_QUEUE_SIZE and MAX_CONCURRENT_EMBED must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.JobTTL <= 0 {
		return fmt.Errorf("JOB_TTL must be positive")
	}
	if err := c.ChunkerConfig().Validate(); err != nil {
		return errors.Join(errors.New("invalid chunk profile"), err)
	}
	return nil
}
