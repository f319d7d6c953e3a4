package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "papercast/0.1"). Per prd001-search R5.3, prd002-ingestion R5.2.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// LLMProvider identifies a completion backend. Per prd003-classification R5.1.
type LLMProvider string

const (
	ProviderAnthropic  LLMProvider = "anthropic"
	ProviderOpenRouter LLMProvider = "openrouter"
)

// LLMConfig holds shared settings for stages that call a generative model.
// Embedded by the classification, summary, and synthesis stage configs.
type LLMConfig struct {
	// Provider selects the completion backend: anthropic or openrouter.
	Provider LLMProvider `json:"provider" yaml:"provider"`

	// Model is the model identifier (e.g. "claude-sonnet-4-5" or
	// "mistralai/mistral-7b-instruct-v0.2").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the retry budget for transient adapter failures
	// (default 3). Permanent failures are never retried.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// MaxTokens is the completion token budget for one call.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Temperature is the sampling temperature for this stage.
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// RequestsPerMinute caps outbound call rate per provider client.
	// Zero means unlimited.
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute"`
}

// SearchConfig holds settings for the search stage.
// Per prd001-search R1.4, R5.1-R5.5.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of results to return (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// EnableArxiv controls whether the arXiv backend is used.
	EnableArxiv bool `json:"enable_arxiv" yaml:"enable_arxiv"`

	// EnableSemanticScholar controls whether the Semantic Scholar backend is used.
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar"`

	// EnableOpenAlex controls whether the OpenAlex backend is used.
	EnableOpenAlex bool `json:"enable_openalex" yaml:"enable_openalex"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// OpenAlexEmail is sent as the mailto parameter for OpenAlex polite
	// pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`

	// InterBackendDelay is the delay between API calls to different backends (default 1s).
	InterBackendDelay time.Duration `json:"inter_backend_delay" yaml:"inter_backend_delay"`

	// RecencyBiasWindow is the time window for boosting recent papers (default 2 years).
	RecencyBiasWindow time.Duration `json:"recency_bias_window" yaml:"recency_bias_window"`
}

// IngestConfig holds settings for the ingestion stage.
// Per prd002-ingestion R2.1-R2.5, R5.1-R5.3.
type IngestConfig struct {
	HTTPConfig `yaml:",inline"`

	// DownloadDelay is the delay between consecutive downloads (default 1s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`

	// WorkDir is the directory fetched PDFs are written to before text
	// extraction (default "papers").
	WorkDir string `json:"work_dir" yaml:"work_dir"`

	// MaxPDFBytes caps the size of a downloaded PDF (default 50 MiB).
	MaxPDFBytes int64 `json:"max_pdf_bytes" yaml:"max_pdf_bytes"`

	// AbstractOnly skips PDF download and extraction, building papers
	// from search metadata alone.
	AbstractOnly bool `json:"abstract_only" yaml:"abstract_only"`
}

// ClassifyConfig holds settings for the topic classification stage.
// Per prd003-classification R5.1-R5.4.
type ClassifyConfig struct {
	LLMConfig `yaml:",inline"`

	// MaxInputChars is the character budget for the title+abstract
	// portion of a classification prompt (default 2000).
	MaxInputChars int `json:"max_input_chars" yaml:"max_input_chars"`

	// Workers bounds concurrent classification calls (default 4).
	Workers int `json:"workers" yaml:"workers"`
}

// SummaryConfig holds settings for the individual summary stage.
// Per prd004-summaries R5.1-R5.3.
type SummaryConfig struct {
	LLMConfig `yaml:",inline"`

	// MaxInputChars is the character budget for the paper text included
	// in a summary prompt (default 4000).
	MaxInputChars int `json:"max_input_chars" yaml:"max_input_chars"`

	// Workers bounds concurrent summary calls (default 4).
	Workers int `json:"workers" yaml:"workers"`
}

// CitationStyle selects the reference formatting used in synthesis output.
// Per prd005-synthesis R4.2.
type CitationStyle string

const (
	StyleAPA CitationStyle = "apa"
	StyleMLA CitationStyle = "mla"
)

// SynthesisConfig holds settings for the cross-paper synthesis stage.
// Per prd005-synthesis R3.2, R4.2.
type SynthesisConfig struct {
	LLMConfig `yaml:",inline"`

	// MaxInputChars is the character budget for the combined member
	// summaries in a synthesis prompt (default 6000). When exceeded,
	// whole member entries are dropped from the tail.
	MaxInputChars int `json:"max_input_chars" yaml:"max_input_chars"`

	// Citations selects the reference style: apa or mla.
	Citations CitationStyle `json:"citations" yaml:"citations"`
}

// AudioConfig holds settings for the audio rendering stage.
// Per prd006-audio R1.1-R1.3, R5.1-R5.2.
type AudioConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey authenticates against the speech endpoint.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Model is the TTS model identifier (default "tts-1").
	Model string `json:"model" yaml:"model"`

	// Voice selects the TTS voice (default "alloy").
	Voice string `json:"voice" yaml:"voice"`

	// Format is the audio container requested from the endpoint (default "mp3").
	Format string `json:"format" yaml:"format"`

	// OutputDir is the directory rendered audio files are written to
	// (default "output/audio").
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// PipelineConfig groups all stage configurations for one papercast run.
type PipelineConfig struct {
	Search    SearchConfig    `json:"search" yaml:"search"`
	Ingest    IngestConfig    `json:"ingest" yaml:"ingest"`
	Classify  ClassifyConfig  `json:"classify" yaml:"classify"`
	Summary   SummaryConfig   `json:"summary" yaml:"summary"`
	Synthesis SynthesisConfig `json:"synthesis" yaml:"synthesis"`
	Audio     AudioConfig     `json:"audio" yaml:"audio"`

	// OutputDir is the base directory for episode artifacts
	// (default "output/episodes").
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}
