// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/quire/ai"
	"github.com/poiesic/quire/budget"
	"github.com/poiesic/quire/chunking"
	"github.com/poiesic/quire/core"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "QUIRE"

// Config holds every process-level setting.
type Config struct {
	DataDir   string `mapstructure:"data_dir"`
	OutputDir string `mapstructure:"output_dir"`

	MaxTokensPerChunk int `mapstructure:"max_tokens_per_chunk"`
	ExcerptTokens     int `mapstructure:"excerpt_tokens"`
	MaxWorkers        int `mapstructure:"max_workers"`
	CacheTTLHours     int `mapstructure:"cache_ttl_hours"`
	CacheCapacity     int `mapstructure:"cache_capacity"`

	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`

	EnableSmartSummaries bool `mapstructure:"enable_smart_summaries"`

	ChunkedThreshold       int `mapstructure:"chunked_threshold"`
	SummarizedThreshold    int `mapstructure:"summarized_threshold"`
	StructureOnlyThreshold int `mapstructure:"structure_only_threshold"`

	MaxChunkSize  int `mapstructure:"max_chunk_size"`
	WindowSize    int `mapstructure:"window_size"`
	WindowOverlap int `mapstructure:"window_overlap"`

	AI AIConfig `mapstructure:"ai"`
}

// AIConfig mirrors ai.Config for file and environment loading.
type AIConfig struct {
	BaseURL            string  `mapstructure:"base_url"`
	APIKey             string  `mapstructure:"api_key"`
	Model              string  `mapstructure:"model"`
	Temperature        float64 `mapstructure:"temperature"`
	SummaryModel       string  `mapstructure:"summary_model"`
	SummaryTemperature float64 `mapstructure:"summary_temperature"`
}

func setDefaults(v *viper.Viper) {
	thresholds := budget.DefaultThresholds()
	aiDefaults := ai.DefaultConfig()

	v.SetDefault("data_dir", "./data")
	v.SetDefault("output_dir", "")
	v.SetDefault("max_tokens_per_chunk", 4000)
	v.SetDefault("excerpt_tokens", 4000)
	v.SetDefault("max_workers", 3)
	v.SetDefault("cache_ttl_hours", 24)
	v.SetDefault("cache_capacity", 4096)
	v.SetDefault("max_retries", 3)
	v.SetDefault("retry_base_delay", time.Second)
	v.SetDefault("enable_smart_summaries", true)
	v.SetDefault("chunked_threshold", thresholds.Chunked)
	v.SetDefault("summarized_threshold", thresholds.Summarized)
	v.SetDefault("structure_only_threshold", thresholds.StructureOnly)
	v.SetDefault("max_chunk_size", chunking.DefaultMaxChunkSize)
	v.SetDefault("window_size", chunking.DefaultWindow)
	v.SetDefault("window_overlap", chunking.DefaultOverlap)
	v.SetDefault("ai.base_url", aiDefaults.Host)
	v.SetDefault("ai.api_key", aiDefaults.APIKey)
	v.SetDefault("ai.model", aiDefaults.Model)
	v.SetDefault("ai.temperature", aiDefaults.Temperature)
	v.SetDefault("ai.summary_model", "")
	v.SetDefault("ai.summary_temperature", aiDefaults.SummaryTemperature)
}

// legacyEnv lists environment names accepted besides the prefixed form.
var legacyEnv = map[string]string{
	"max_tokens_per_chunk":   "DOC_MAX_TOKENS_PER_CHUNK",
	"max_workers":            "DOC_MAX_WORKERS",
	"cache_ttl_hours":        "DOC_CACHE_TTL_HOURS",
	"max_retries":            "OPENAI_MAX_RETRIES",
	"enable_smart_summaries": "ENABLE_SMART_SUMMARIES",
	"ai.summary_model":       "SUMMARY_MODEL",
	"ai.api_key":             "OPENAI_API_KEY",
	"ai.base_url":            "OPENAI_BASE_URL",
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, legacy)
	}
}

// Load builds a Config. path names an optional YAML, TOML or JSON file.
// envFiles are loaded into the environment first without overriding
// variables that are already set; missing env files are ignored. With no
// envFiles, ".env" in the working directory is tried.
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: loading %s: %w", core.ErrValidation, f, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: reading config file: %w", core.ErrValidation, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: decoding config: %w", core.ErrValidation, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration Load produces with no file and an
// empty environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate checks ranges and cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	if c.MaxTokensPerChunk <= 0 {
		errs = append(errs, errors.New("max_tokens_per_chunk must be positive"))
	}
	if c.ExcerptTokens <= 0 {
		errs = append(errs, errors.New("excerpt_tokens must be positive"))
	}
	if c.MaxWorkers < 1 {
		errs = append(errs, errors.New("max_workers must be at least 1"))
	}
	if c.CacheTTLHours <= 0 {
		errs = append(errs, errors.New("cache_ttl_hours must be positive"))
	}
	if c.CacheCapacity <= 0 {
		errs = append(errs, errors.New("cache_capacity must be positive"))
	}
	if c.MaxRetries < 1 {
		errs = append(errs, errors.New("max_retries must be at least 1"))
	}
	if c.RetryBaseDelay < 0 {
		errs = append(errs, errors.New("retry_base_delay cannot be negative"))
	}
	if err := c.Thresholds().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.WindowSize <= 0 || c.WindowOverlap < 0 || c.WindowOverlap >= c.WindowSize {
		errs = append(errs, errors.New("window_overlap must be in [0, window_size)"))
	}
	if c.WindowSize > c.MaxChunkSize {
		errs = append(errs, errors.New("window_size cannot exceed max_chunk_size"))
	}
	if err := c.Provider().Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", core.ErrValidation, errors.Join(errs...))
	}
	return nil
}

// Thresholds returns the strategy threshold table.
func (c *Config) Thresholds() budget.Thresholds {
	return budget.Thresholds{
		Chunked:       c.ChunkedThreshold,
		Summarized:    c.SummarizedThreshold,
		StructureOnly: c.StructureOnlyThreshold,
	}
}

// CacheTTL returns the content cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// Provider returns the normalized model provider configuration.
func (c *Config) Provider() *ai.Config {
	cfg := ai.NewConfig(
		ai.WithHost(c.AI.BaseURL),
		ai.WithAPIKey(c.AI.APIKey),
		ai.WithModel(c.AI.Model),
		ai.WithTemperature(c.AI.Temperature),
		ai.WithSummaryModel(c.AI.SummaryModel),
		ai.WithSummaryTemperature(c.AI.SummaryTemperature),
	)
	cfg.Normalize()
	return cfg
}

// MetaDir is the badger directory for version records and summaries.
func (c *Config) MetaDir() string {
	return filepath.Join(c.DataDir, "meta")
}

// VersionsDir holds one storage directory per version.
func (c *Config) VersionsDir() string {
	return filepath.Join(c.DataDir, "versions")
}

// DocumentationDir is where documentation trees are written.
func (c *Config) DocumentationDir() string {
	if c.OutputDir != "" {
		return c.OutputDir
	}
	return filepath.Join(c.DataDir, "documentation")
}
