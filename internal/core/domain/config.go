package domain

import (
	"fmt"
	"time"
)

// Default configuration values.
const (
	DefaultOpenAIBaseURL   = "https://api.openai.com/v1"
	DefaultEmbedModel      = "text-embedding-3-small"
	DefaultChatModel       = "gpt-4o-mini"
	DefaultOpenAITimeout   = 60 * time.Second
	DefaultDoclingURL      = "http://localhost:8001/parse"
	DefaultDoclingTimeout  = 120 * time.Second
	DefaultDocumentPath    = "SSP.docx"
	DefaultReportPath      = "grype-results.json"
	DefaultChunkSize       = 1200
	DefaultChunkOverlap    = 200
	DefaultBatchSize       = 16
	DefaultTopK            = 4
	DefaultMinPerSource    = 3
	DefaultMaxPerSource    = 8
	DefaultTemperature     = 0.2
	DefaultServerAddr      = ":8080"
	DefaultLeaseTTL        = 30 * time.Minute
	DefaultWatchDebounce   = 2 * time.Second
	DefaultEvidenceLimit   = 200
	DefaultRefreshInterval = time.Duration(0)
)

// Config is the explicit runtime configuration handed to every collaborator
// at construction. Nothing reads configuration from the environment after
// the config has been built.
type Config struct {
	OpenAI    OpenAIConfig
	Docling   DoclingConfig
	Sources   SourcesConfig
	Store     StoreConfig
	Ingest    IngestConfig
	Retrieval RetrievalConfig
	Answer    AnswerConfig
	Server    ServerConfig
	Prompts   PromptsConfig
}

// OpenAIConfig configures the embedding and chat-completion services.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	EmbedModel string
	ChatModel  string
	Timeout    time.Duration

	// RequestsPerSecond paces embedding requests. 0 disables pacing.
	RequestsPerSecond float64
}

// DoclingConfig configures the document conversion worker.
type DoclingConfig struct {
	// URL is the parse endpoint. Empty disables the worker and goes
	// straight to local extraction.
	URL     string
	Timeout time.Duration
}

// SourcesConfig locates the three data sources.
type SourcesConfig struct {
	DocumentPath string

	// DocumentID is the source_id of document chunks. Defaults to the
	// document file's base name.
	DocumentID string

	ReportPath string
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	// DataDir holds rag.db. Empty means ~/.evidence-rag/data.
	DataDir string

	// LeaseTTL bounds how long a crashed ingestion can block the next one.
	LeaseTTL time.Duration
}

// IngestConfig tunes ingestion.
type IngestConfig struct {
	ChunkSize    int
	ChunkOverlap int
	BatchSize    int

	// RefreshInterval re-runs ingestion periodically under serve. 0 disables it.
	RefreshInterval time.Duration

	// WatchDebounce coalesces file events in watch mode.
	WatchDebounce time.Duration
}

// RetrievalConfig tunes per-source allocation.
type RetrievalConfig struct {
	DefaultTopK  int
	MinPerSource int
	MaxPerSource int
}

// AnswerConfig tunes answer composition.
type AnswerConfig struct {
	Temperature float64
}

// ServerConfig configures the HTTP entry point.
type ServerConfig struct {
	Addr string

	// EvidenceLimit caps the evidence-request listing.
	EvidenceLimit int
}

// PromptsConfig locates user-editable prompt files.
type PromptsConfig struct {
	// Dir holds prompt files. Empty means ~/.evidence-rag/prompts.
	Dir string
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	return Config{
		OpenAI: OpenAIConfig{
			BaseURL:    DefaultOpenAIBaseURL,
			EmbedModel: DefaultEmbedModel,
			ChatModel:  DefaultChatModel,
			Timeout:    DefaultOpenAITimeout,
		},
		Docling: DoclingConfig{
			URL:     DefaultDoclingURL,
			Timeout: DefaultDoclingTimeout,
		},
		Sources: SourcesConfig{
			DocumentPath: DefaultDocumentPath,
			ReportPath:   DefaultReportPath,
		},
		Store: StoreConfig{
			LeaseTTL: DefaultLeaseTTL,
		},
		Ingest: IngestConfig{
			ChunkSize:       DefaultChunkSize,
			ChunkOverlap:    DefaultChunkOverlap,
			BatchSize:       DefaultBatchSize,
			RefreshInterval: DefaultRefreshInterval,
			WatchDebounce:   DefaultWatchDebounce,
		},
		Retrieval: RetrievalConfig{
			DefaultTopK:  DefaultTopK,
			MinPerSource: DefaultMinPerSource,
			MaxPerSource: DefaultMaxPerSource,
		},
		Answer: AnswerConfig{
			Temperature: DefaultTemperature,
		},
		Server: ServerConfig{
			Addr:          DefaultServerAddr,
			EvidenceLimit: DefaultEvidenceLimit,
		},
	}
}

// Validate checks structural invariants. It does not require an API key;
// use RequireAPIKey for commands that call upstream services.
func (c *Config) Validate() error {
	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("%w: ingest.chunk_size must be positive", ErrInvalidInput)
	}
	if c.Ingest.ChunkOverlap < 0 {
		return fmt.Errorf("%w: ingest.chunk_overlap must not be negative", ErrInvalidInput)
	}
	if c.Ingest.BatchSize <= 0 {
		return fmt.Errorf("%w: ingest.batch_size must be positive", ErrInvalidInput)
	}
	if c.Retrieval.MinPerSource <= 0 {
		return fmt.Errorf("%w: retrieval.min_per_source must be positive", ErrInvalidInput)
	}
	if c.Retrieval.MinPerSource > c.Retrieval.MaxPerSource {
		return fmt.Errorf("%w: retrieval.min_per_source exceeds max_per_source", ErrInvalidInput)
	}
	if c.OpenAI.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: openai.requests_per_second must not be negative", ErrInvalidInput)
	}
	return nil
}

// RequireAPIKey fails when no OpenAI API key is configured.
func (c *Config) RequireAPIKey() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("%w: missing OPENAI_API_KEY", ErrInvalidInput)
	}
	return nil
}

// ClampPerSource converts a requested top-k into the per-source limit.
// Zero means absent and uses the default top-k; negative requests clamp to
// the floor like any other out-of-range value.
func (r RetrievalConfig) ClampPerSource(topK int) int {
	if topK == 0 {
		topK = r.DefaultTopK
	}
	return min(max(topK, r.MinPerSource), r.MaxPerSource)
}
