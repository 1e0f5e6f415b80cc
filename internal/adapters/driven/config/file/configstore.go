package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/doclens-ai/doclens-cli/internal/core/domain"
)

// Config is the persisted doclens configuration, stored as TOML.
type Config struct {
	// DataDir is where databases live (default: ~/.doclens/databases).
	DataDir string `toml:"data_dir,omitempty"`

	Embedding ProviderConfig `toml:"embedding"`
	Chat      ProviderConfig `toml:"chat"`
	Chunking  ChunkingConfig `toml:"chunking"`
	Answer    AnswerConfig   `toml:"answer"`
}

// ProviderConfig configures one AI provider connection.
type ProviderConfig struct {
	Provider string `toml:"provider,omitempty"`
	Model    string `toml:"model,omitempty"`
	BaseURL  string `toml:"base_url,omitempty"`
	APIKey   string `toml:"api_key,omitempty"`
}

// ChunkingConfig configures the token-bounded splitter.
type ChunkingConfig struct {
	ChunkSize      int `toml:"chunk_size,omitempty"`
	OverlapPercent int `toml:"overlap_percent,omitempty"`
}

// AnswerConfig configures answer generation.
type AnswerConfig struct {
	SystemMessage      string  `toml:"system_message,omitempty"`
	Temperature        float64 `toml:"temperature,omitempty"`
	MaxTokens          int     `toml:"max_tokens,omitempty"`
	MaxHistoryLength   int     `toml:"max_history_length,omitempty"`
	SearchResultsLimit int     `toml:"search_results_limit,omitempty"`
}

// defaultSystemMessage is used when the config has no custom template.
const defaultSystemMessage = `You are a helpful assistant answering questions about ` + domain.PlaceholderTopic + `.

Base your answers on the following document excerpts. If the excerpts do
not contain the answer, say so instead of guessing.

Documents:
` + domain.PlaceholderDocuments

// ConfigStore reads and writes the doclens TOML configuration file.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	dataDir  string
	cfg      Config
}

// NewConfigStore creates a config store rooted at configDir.
// If configDir is empty, defaults to ~/.doclens/.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".doclens")
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		dataDir:  filepath.Join(configDir, "databases"),
	}

	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads the configuration file. A missing file yields defaults.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// No config file yet - that's fine, start from defaults
			s.cfg = Config{}
			return nil
		}
		return err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse %s: %w", s.filePath, err)
	}
	s.cfg = cfg
	return nil
}

// Save persists the configuration with restricted permissions.
func (s *ConfigStore) Save(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		return err
	}
	s.cfg = cfg
	return nil
}

// Config returns the loaded configuration.
func (s *ConfigStore) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// DataDir returns the database directory, honouring a config override.
func (s *ConfigStore) DataDir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cfg.DataDir != "" {
		return s.cfg.DataDir
	}
	return s.dataDir
}

// EmbeddingSettings converts the embedding section to domain settings.
func (s *ConfigStore) EmbeddingSettings() *domain.EmbeddingSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &domain.EmbeddingSettings{
		Provider: domain.AIProvider(s.cfg.Embedding.Provider),
		Model:    s.cfg.Embedding.Model,
		BaseURL:  s.cfg.Embedding.BaseURL,
		APIKey:   s.cfg.Embedding.APIKey,
	}
}

// ChatProviderSettings converts the chat section to domain settings.
func (s *ConfigStore) ChatProviderSettings() *domain.ChatProviderSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &domain.ChatProviderSettings{
		Provider: domain.AIProvider(s.cfg.Chat.Provider),
		Model:    s.cfg.Chat.Model,
		BaseURL:  s.cfg.Chat.BaseURL,
		APIKey:   s.cfg.Chat.APIKey,
	}
}

// ChunkingSettings converts the chunking section to domain settings,
// with zero values replaced by defaults.
func (s *ConfigStore) ChunkingSettings() domain.ChunkingSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.ChunkingSettings{
		ChunkSize:      s.cfg.Chunking.ChunkSize,
		OverlapPercent: s.cfg.Chunking.OverlapPercent,
	}.Normalised()
}

// ChatSettings converts the answer section to domain settings, with
// zero values replaced by defaults.
func (s *ConfigStore) ChatSettings() domain.ChatSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings := domain.ChatSettings{
		SystemMessage:      s.cfg.Answer.SystemMessage,
		Temperature:        s.cfg.Answer.Temperature,
		MaxTokens:          s.cfg.Answer.MaxTokens,
		MaxHistoryLength:   s.cfg.Answer.MaxHistoryLength,
		SearchResultsLimit: s.cfg.Answer.SearchResultsLimit,
	}
	if settings.SystemMessage == "" {
		settings.SystemMessage = defaultSystemMessage
	}
	if settings.Temperature == 0 {
		settings.Temperature = 0.7
	}
	if settings.MaxTokens == 0 {
		settings.MaxTokens = 2048
	}
	if settings.MaxHistoryLength == 0 {
		settings.MaxHistoryLength = 20
	}
	if settings.SearchResultsLimit == 0 {
		settings.SearchResultsLimit = 5
	}
	return settings
}
