// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/ragchat/internal/params"
	"github.com/jeranaias/ragchat/internal/rag"
	"github.com/jeranaias/ragchat/internal/storage"
	"github.com/jeranaias/ragchat/internal/util"
)

// CurrentVersion is the config schema version written by SaveTOML.
const CurrentVersion = "1"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete ragchat configuration.
type Config struct {
	Version string `toml:"version"`

	Endpoints EndpointsConfig `toml:"endpoints"`
	Storage   StorageConfig   `toml:"storage"`
	Params    ParamsConfig    `toml:"params"`
	Models    ModelsConfig    `toml:"models"`
	Log       LogConfig       `toml:"log"`
	Metrics   MetricsConfig   `toml:"metrics"`
	UI        UIConfig        `toml:"ui"`
}

// EndpointsConfig locates the backend.
type EndpointsConfig struct {
	ChatURL  string `toml:"chat_url"`
	IndexURL string `toml:"index_url"`
	ImageURL string `toml:"image_url"`
	// TimeoutSecs bounds upload requests; chat streams are not bounded.
	TimeoutSecs int `toml:"timeout_secs"`
	// UploadLimitMB is the largest accepted upload.
	UploadLimitMB int `toml:"upload_limit_mb"`
}

// StorageConfig selects where conversations are kept.
type StorageConfig struct {
	// Backend is one of: file, sqlite, bolt, redis, memory
	Backend string `toml:"backend"`
	// Dir holds one JSON file per key (file backend). Empty = ~/.ragchat/chats
	Dir string `toml:"dir"`
	// SQLitePath is the database file (sqlite backend). Empty = ~/.ragchat/ragchat.db
	SQLitePath string `toml:"sqlite_path"`
	// BoltPath is the database file (bolt backend). Empty = ~/.ragchat/ragchat.bolt
	BoltPath string `toml:"bolt_path"`

	RedisAddr      string `toml:"redis_addr"`
	RedisPassword  string `toml:"-" json:"-"`
	RedisDB        int    `toml:"redis_db"`
	RedisNamespace string `toml:"redis_namespace"`
}

// ParamsConfig holds the startup generation parameters.
type ParamsConfig struct {
	LLM         string  `toml:"llm"`
	EmbedModel  string  `toml:"embed_model"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
	TopP        float64 `toml:"top_p"`

	// Keys come from RAGCHAT_LLM_API_KEY / RAGCHAT_EMBED_API_KEY only.
	LLMAPIKey   string `toml:"-" json:"-"`
	EmbedAPIKey string `toml:"-" json:"-"`
}

// ModelsConfig classifies model ids by prefix.
type ModelsConfig struct {
	Hosted []string `toml:"hosted"`
	Local  []string `toml:"local"`
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Level string `toml:"level"`
	// File receives logs in TUI mode. Empty = ~/.ragchat/ragchat.log
	File string `toml:"file"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Listen is the address of /metrics; empty disables it.
	Listen string `toml:"listen"`
}

// UIConfig holds display preferences.
type UIConfig struct {
	// MarkdownStyle is "auto", "dark", "light" or "plain".
	MarkdownStyle string `toml:"markdown_style"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Endpoints: EndpointsConfig{
			ChatURL:       rag.DefaultChatURL,
			IndexURL:      rag.DefaultIndexURL,
			ImageURL:      rag.DefaultImageURL,
			TimeoutSecs:   int(rag.DefaultTimeout / time.Second),
			UploadLimitMB: 100,
		},
		Storage: StorageConfig{
			Backend:        string(storage.KindFile),
			RedisNamespace: storage.DefaultRedisNamespace,
		},
		Params: ParamsConfig{
			Temperature: params.DefaultTemperature,
			MaxTokens:   params.DefaultMaxTokens,
			TopP:        params.DefaultTopP,
		},
		Models: ModelsConfig{
			Hosted: append([]string(nil), params.DefaultHostedPrefixes...),
			Local:  append([]string(nil), params.DefaultLocalPrefixes...),
		},
		Log: LogConfig{
			Level: "info",
		},
		UI: UIConfig{
			MarkdownStyle: "auto",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the ragchat configuration directory path.
// RAGCHAT_HOME overrides the default ~/.ragchat.
func ConfigDir() (string, error) {
	if dir := os.Getenv("RAGCHAT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".ragchat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only).
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		if err := os.Chmod(path, 0o600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads ~/.ragchat/config.toml when present, falling back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		return LoadFromPath(path)
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes path into cfg and fills missing values.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	// Endpoints
	if cfg.Endpoints.ChatURL == "" {
		cfg.Endpoints.ChatURL = defaults.Endpoints.ChatURL
	}
	if cfg.Endpoints.IndexURL == "" {
		cfg.Endpoints.IndexURL = defaults.Endpoints.IndexURL
	}
	if cfg.Endpoints.ImageURL == "" {
		cfg.Endpoints.ImageURL = defaults.Endpoints.ImageURL
	}
	if cfg.Endpoints.TimeoutSecs == 0 {
		cfg.Endpoints.TimeoutSecs = defaults.Endpoints.TimeoutSecs
	}
	if cfg.Endpoints.UploadLimitMB == 0 {
		cfg.Endpoints.UploadLimitMB = defaults.Endpoints.UploadLimitMB
	}

	// Storage
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaults.Storage.Backend
	}
	if cfg.Storage.RedisNamespace == "" {
		cfg.Storage.RedisNamespace = defaults.Storage.RedisNamespace
	}

	// Params
	if cfg.Params.MaxTokens == 0 {
		cfg.Params.MaxTokens = defaults.Params.MaxTokens
	}

	// Models
	if len(cfg.Models.Hosted) == 0 {
		cfg.Models.Hosted = defaults.Models.Hosted
	}
	if len(cfg.Models.Local) == 0 {
		cfg.Models.Local = defaults.Models.Local
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.UI.MarkdownStyle == "" {
		cfg.UI.MarkdownStyle = defaults.UI.MarkdownStyle
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# ragchat configuration file")
	fmt.Fprintln(&buf, "# API keys are read from RAGCHAT_LLM_API_KEY and RAGCHAT_EMBED_API_KEY")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0o600, 0o700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Endpoints
	for field, raw := range map[string]string{
		"endpoints.chat_url":  c.Endpoints.ChatURL,
		"endpoints.index_url": c.Endpoints.IndexURL,
		"endpoints.image_url": c.Endpoints.ImageURL,
	} {
		if msg := checkURL(raw); msg != "" {
			errs = append(errs, ValidationError{Field: field, Message: msg})
		}
	}
	if c.Endpoints.TimeoutSecs < 1 || c.Endpoints.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "endpoints.timeout_secs",
			Message: fmt.Sprintf("must be between 1 and 600, got %d", c.Endpoints.TimeoutSecs),
		})
	}
	if c.Endpoints.UploadLimitMB < 1 {
		errs = append(errs, ValidationError{
			Field:   "endpoints.upload_limit_mb",
			Message: fmt.Sprintf("must be positive, got %d", c.Endpoints.UploadLimitMB),
		})
	}

	// Storage
	kind, err := storage.ParseKind(c.Storage.Backend)
	if err != nil {
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite, bolt, redis, memory", c.Storage.Backend),
		})
	}
	if kind == storage.KindRedis && c.Storage.RedisAddr == "" {
		errs = append(errs, ValidationError{Field: "storage.redis_addr", Message: "required for the redis backend"})
	}
	if c.Storage.RedisDB < 0 {
		errs = append(errs, ValidationError{Field: "storage.redis_db", Message: "must not be negative"})
	}

	// Params
	if c.Params.Temperature < params.MinTemperature || c.Params.Temperature > params.MaxTemperature {
		errs = append(errs, ValidationError{
			Field:   "params.temperature",
			Message: fmt.Sprintf("must be between %.1f and %.1f, got %g", params.MinTemperature, params.MaxTemperature, c.Params.Temperature),
		})
	}
	if c.Params.TopP < params.MinTopP || c.Params.TopP > params.MaxTopP {
		errs = append(errs, ValidationError{
			Field:   "params.top_p",
			Message: fmt.Sprintf("must be between %.1f and %.1f, got %g", params.MinTopP, params.MaxTopP, c.Params.TopP),
		})
	}
	if c.Params.MaxTokens < 1 {
		errs = append(errs, ValidationError{
			Field:   "params.max_tokens",
			Message: fmt.Sprintf("must be positive, got %d", c.Params.MaxTokens),
		})
	}

	// Models
	for i, p := range c.Models.Hosted {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("models.hosted[%d]", i), Message: "empty prefix"})
		}
	}
	for i, p := range c.Models.Local {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("models.local[%d]", i), Message: "empty prefix"})
		}
	}

	// Log
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	// UI
	validStyles := map[string]bool{"auto": true, "dark": true, "light": true, "plain": true, "notty": true}
	if !validStyles[strings.ToLower(c.UI.MarkdownStyle)] {
		errs = append(errs, ValidationError{
			Field:   "ui.markdown_style",
			Message: fmt.Sprintf("invalid style '%s', must be one of: auto, dark, light, plain", c.UI.MarkdownStyle),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func checkURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Sprintf("URL scheme must be http or https, got '%s'", u.Scheme)
	}
	if u.Host == "" {
		return "URL must include a host"
	}
	return ""
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - RAGCHAT_CHAT_URL, RAGCHAT_INDEX_URL, RAGCHAT_IMAGE_URL
//   - RAGCHAT_TIMEOUT_SECS: overrides endpoints.timeout_secs
//   - RAGCHAT_STORAGE: overrides storage.backend
//   - RAGCHAT_DATA_DIR: overrides storage.dir
//   - RAGCHAT_REDIS_ADDR, RAGCHAT_REDIS_PASSWORD
//   - RAGCHAT_LLM, RAGCHAT_EMBED_MODEL
//   - RAGCHAT_LLM_API_KEY, RAGCHAT_EMBED_API_KEY
//   - RAGCHAT_LOG_LEVEL, RAGCHAT_METRICS_ADDR
func (c *Config) ApplyEnvOverrides() {
	setString := func(env string, dst *string) {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}

	setString("RAGCHAT_CHAT_URL", &c.Endpoints.ChatURL)
	setString("RAGCHAT_INDEX_URL", &c.Endpoints.IndexURL)
	setString("RAGCHAT_IMAGE_URL", &c.Endpoints.ImageURL)
	if v := os.Getenv("RAGCHAT_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Endpoints.TimeoutSecs = n
		}
	}

	setString("RAGCHAT_STORAGE", &c.Storage.Backend)
	setString("RAGCHAT_DATA_DIR", &c.Storage.Dir)
	setString("RAGCHAT_REDIS_ADDR", &c.Storage.RedisAddr)
	setString("RAGCHAT_REDIS_PASSWORD", &c.Storage.RedisPassword)

	setString("RAGCHAT_LLM", &c.Params.LLM)
	setString("RAGCHAT_EMBED_MODEL", &c.Params.EmbedModel)
	setString("RAGCHAT_LLM_API_KEY", &c.Params.LLMAPIKey)
	setString("RAGCHAT_EMBED_API_KEY", &c.Params.EmbedAPIKey)

	setString("RAGCHAT_LOG_LEVEL", &c.Log.Level)
	setString("RAGCHAT_METRICS_ADDR", &c.Metrics.Listen)
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// Timeout returns the upload request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Endpoints.TimeoutSecs) * time.Second
}

// UploadLimit returns the upload size limit in bytes.
func (c *Config) UploadLimit() int64 {
	return int64(c.Endpoints.UploadLimitMB) * 1024 * 1024
}

// StorageOptions resolves the storage section into backend options.
func (c *Config) StorageOptions() (storage.Options, error) {
	kind, err := storage.ParseKind(c.Storage.Backend)
	if err != nil {
		return storage.Options{}, err
	}
	opts := storage.Options{
		Kind:           kind,
		Dir:            c.Storage.Dir,
		SQLitePath:     c.Storage.SQLitePath,
		BoltPath:       c.Storage.BoltPath,
		RedisAddr:      c.Storage.RedisAddr,
		RedisPassword:  c.Storage.RedisPassword,
		RedisDB:        c.Storage.RedisDB,
		RedisNamespace: c.Storage.RedisNamespace,
	}
	needsDir := (kind == storage.KindFile && opts.Dir == "") ||
		(kind == storage.KindSQLite && opts.SQLitePath == "") ||
		(kind == storage.KindBolt && opts.BoltPath == "")
	if needsDir {
		dir, err := ConfigDir()
		if err != nil {
			return storage.Options{}, err
		}
		if opts.Dir == "" {
			opts.Dir = filepath.Join(dir, "chats")
		}
		if opts.SQLitePath == "" {
			opts.SQLitePath = filepath.Join(dir, "ragchat.db")
		}
		if opts.BoltPath == "" {
			opts.BoltPath = filepath.Join(dir, "ragchat.bolt")
		}
	}
	return opts, nil
}

// LogFile returns the TUI log file path.
func (c *Config) LogFile() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ragchat.log"), nil
}

// ParamValues returns the startup parameters, keys included.
func (c *Config) ParamValues() params.Values {
	return params.Values{
		LLM:         c.Params.LLM,
		LLMAPIKey:   c.Params.LLMAPIKey,
		EmbedModel:  c.Params.EmbedModel,
		EmbedAPIKey: c.Params.EmbedAPIKey,
		Temperature: c.Params.Temperature,
		MaxTokens:   c.Params.MaxTokens,
		TopP:        c.Params.TopP,
	}
}

// Catalog returns the configured model classification.
func (c *Config) Catalog() params.Catalog {
	return params.Catalog{
		Hosted: append([]string(nil), c.Models.Hosted...),
		Local:  append([]string(nil), c.Models.Local...),
	}
}

// =============================================================================
// GET HELPER (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "endpoints.chat_url").
func (c *Config) Get(key string) (interface{}, error) {
	if key == "" {
		return nil, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		match := func(name string) bool {
			return strings.EqualFold(name, fieldName)
		}
		sf, ok := v.Type().FieldByNameFunc(match)
		if !ok {
			return nil, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		// SECURITY: secrets never leave the process through Get.
		if sf.Tag.Get("toml") == "-" {
			return nil, fmt.Errorf("field '%s' is not readable", strings.Join(parts[:i+1], "."))
		}
		field := v.FieldByIndex(sf.Index)
		if i == len(parts)-1 {
			return field.Interface(), nil
		}
		if field.Kind() != reflect.Struct {
			return nil, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return nil, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})
	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// String renders the config as TOML. Secrets are tagged out of the encoding.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return buf.String()
}
