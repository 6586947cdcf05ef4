package file

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driven"
)

// Config keys understood by ApplyConfig.
const (
	KeyOpenAIAPIKey            = "openai.api_key"
	KeyOpenAIBaseURL           = "openai.base_url"
	KeyOpenAIEmbedModel        = "openai.embed_model"
	KeyOpenAIChatModel         = "openai.chat_model"
	KeyOpenAITimeout           = "openai.timeout"
	KeyOpenAIRequestsPerSecond = "openai.requests_per_second"
	KeyDoclingURL              = "docling.url"
	KeyDoclingTimeout          = "docling.timeout"
	KeyDocumentPath            = "sources.document_path"
	KeyDocumentID              = "sources.document_id"
	KeyReportPath              = "sources.report_path"
	KeyDataDir                 = "store.data_dir"
	KeyLeaseTTL                = "store.lease_ttl"
	KeyChunkSize               = "ingest.chunk_size"
	KeyChunkOverlap            = "ingest.chunk_overlap"
	KeyBatchSize               = "ingest.batch_size"
	KeyRefreshInterval         = "ingest.refresh_interval"
	KeyWatchDebounce           = "ingest.watch_debounce"
	KeyDefaultTopK             = "retrieval.default_top_k"
	KeyMinPerSource            = "retrieval.min_per_source"
	KeyMaxPerSource            = "retrieval.max_per_source"
	KeyTemperature             = "answer.temperature"
	KeyServerAddr              = "server.addr"
	KeyEvidenceLimit           = "server.evidence_limit"
	KeyPromptsDir              = "prompts.dir"
)

// Environment variables understood by ApplyEnv.
const (
	EnvOpenAIAPIKey     = "OPENAI_API_KEY"
	EnvOpenAIBaseURL    = "OPENAI_BASE_URL"
	EnvOpenAIEmbedModel = "OPENAI_EMBED_MODEL"
	EnvOpenAIChatModel  = "OPENAI_CHAT_MODEL"
	EnvDoclingURL       = "DOCLING_URL"
	EnvDataDir          = "EVIDENCE_RAG_DATA_DIR"
)

// KnownKeys lists every key ApplyConfig reads, in display order.
var KnownKeys = []string{
	KeyOpenAIAPIKey, KeyOpenAIBaseURL, KeyOpenAIEmbedModel, KeyOpenAIChatModel,
	KeyOpenAITimeout, KeyOpenAIRequestsPerSecond,
	KeyDoclingURL, KeyDoclingTimeout,
	KeyDocumentPath, KeyDocumentID, KeyReportPath,
	KeyDataDir, KeyLeaseTTL,
	KeyChunkSize, KeyChunkOverlap, KeyBatchSize, KeyRefreshInterval, KeyWatchDebounce,
	KeyDefaultTopK, KeyMinPerSource, KeyMaxPerSource,
	KeyTemperature,
	KeyServerAddr, KeyEvidenceLimit,
	KeyPromptsDir,
}

// ApplyConfig overlays every key present in store onto cfg.
// Keys that are absent leave the existing value untouched.
func ApplyConfig(store driven.ConfigStore, cfg *domain.Config) error {
	a := applier{store: store}

	a.str(KeyOpenAIAPIKey, &cfg.OpenAI.APIKey)
	a.str(KeyOpenAIBaseURL, &cfg.OpenAI.BaseURL)
	a.str(KeyOpenAIEmbedModel, &cfg.OpenAI.EmbedModel)
	a.str(KeyOpenAIChatModel, &cfg.OpenAI.ChatModel)
	a.duration(KeyOpenAITimeout, &cfg.OpenAI.Timeout)
	a.float(KeyOpenAIRequestsPerSecond, &cfg.OpenAI.RequestsPerSecond)

	a.str(KeyDoclingURL, &cfg.Docling.URL)
	a.duration(KeyDoclingTimeout, &cfg.Docling.Timeout)

	a.str(KeyDocumentPath, &cfg.Sources.DocumentPath)
	a.str(KeyDocumentID, &cfg.Sources.DocumentID)
	a.str(KeyReportPath, &cfg.Sources.ReportPath)

	a.str(KeyDataDir, &cfg.Store.DataDir)
	a.duration(KeyLeaseTTL, &cfg.Store.LeaseTTL)

	a.integer(KeyChunkSize, &cfg.Ingest.ChunkSize)
	a.integer(KeyChunkOverlap, &cfg.Ingest.ChunkOverlap)
	a.integer(KeyBatchSize, &cfg.Ingest.BatchSize)
	a.duration(KeyRefreshInterval, &cfg.Ingest.RefreshInterval)
	a.duration(KeyWatchDebounce, &cfg.Ingest.WatchDebounce)

	a.integer(KeyDefaultTopK, &cfg.Retrieval.DefaultTopK)
	a.integer(KeyMinPerSource, &cfg.Retrieval.MinPerSource)
	a.integer(KeyMaxPerSource, &cfg.Retrieval.MaxPerSource)

	a.float(KeyTemperature, &cfg.Answer.Temperature)

	a.str(KeyServerAddr, &cfg.Server.Addr)
	a.integer(KeyEvidenceLimit, &cfg.Server.EvidenceLimit)

	a.str(KeyPromptsDir, &cfg.Prompts.Dir)

	return a.err
}

// ApplyEnv applies environment overrides. Empty variables are ignored.
func ApplyEnv(cfg *domain.Config, getenv func(string) string) {
	set := func(name string, dst *string) {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			*dst = v
		}
	}

	set(EnvOpenAIAPIKey, &cfg.OpenAI.APIKey)
	set(EnvOpenAIBaseURL, &cfg.OpenAI.BaseURL)
	set(EnvOpenAIEmbedModel, &cfg.OpenAI.EmbedModel)
	set(EnvOpenAIChatModel, &cfg.OpenAI.ChatModel)
	set(EnvDoclingURL, &cfg.Docling.URL)
	set(EnvDataDir, &cfg.Store.DataDir)
}

// ParseValue converts a command-line string into the type stored for key,
// so "ingest.chunk_size 800" is saved as an integer.
func ParseValue(key, raw string) (any, error) {
	switch key {
	case KeyChunkSize, KeyChunkOverlap, KeyBatchSize, KeyDefaultTopK,
		KeyMinPerSource, KeyMaxPerSource, KeyEvidenceLimit:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		return int64(n), nil
	case KeyTemperature, KeyOpenAIRequestsPerSecond:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		return f, nil
	case KeyOpenAITimeout, KeyDoclingTimeout, KeyLeaseTTL, KeyRefreshInterval, KeyWatchDebounce:
		if _, err := time.ParseDuration(raw); err != nil {
			return nil, fmt.Errorf("%w: %s must be a duration such as 30s", domain.ErrInvalidInput, key)
		}
		return raw, nil
	default:
		return raw, nil
	}
}

// applier reads typed values, remembering the first conversion error.
type applier struct {
	store driven.ConfigStore
	err   error
}

func (a *applier) str(key string, dst *string) {
	if _, ok := a.store.Get(key); ok {
		*dst = a.store.GetString(key)
	}
}

func (a *applier) integer(key string, dst *int) {
	if _, ok := a.store.Get(key); ok {
		*dst = a.store.GetInt(key)
	}
}

func (a *applier) float(key string, dst *float64) {
	if _, ok := a.store.Get(key); ok {
		*dst = a.store.GetFloat(key)
	}
}

// duration accepts a Go duration string or a number of seconds.
func (a *applier) duration(key string, dst *time.Duration) {
	val, ok := a.store.Get(key)
	if !ok {
		return
	}

	switch v := val.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			a.fail(fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err))
			return
		}
		*dst = d
	case int, int64, float64:
		*dst = time.Duration(a.store.GetFloat(key) * float64(time.Second))
	default:
		a.fail(fmt.Errorf("%w: %s must be a duration", domain.ErrInvalidInput, key))
	}
}

func (a *applier) fail(err error) {
	if a.err == nil {
		a.err = err
	}
}
