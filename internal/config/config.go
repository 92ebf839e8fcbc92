/*-------------------------------------------------------------------------
 *
 * pgEdge Sales Analyst
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete dashboard configuration
type Config struct {
	// HTTP server configuration
	HTTP HTTPConfig `yaml:"http"`

	// Database connection configuration
	Database DatabaseConfig `yaml:"database"`

	// LLM configuration for natural language to SQL translation
	LLM LLMConfig `yaml:"llm"`

	// Dashboard login configuration
	Auth AuthConfig `yaml:"auth"`

	// Query execution limits
	Query QueryConfig `yaml:"query"`
}

// HTTPConfig holds HTTP/HTTPS server settings
type HTTPConfig struct {
	Address string    `yaml:"address"`
	TLS     TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS/HTTPS settings
type TLSConfig struct {
	Enabled   bool   `yaml:"enabled"`
	CertFile  string `yaml:"cert_file"`
	KeyFile   string `yaml:"key_file"`
	ChainFile string `yaml:"chain_file"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL      string `yaml:"url"`      // Full postgres:// URL; overrides the component fields when set
	Host     string `yaml:"host"`     // Database host (default: localhost)
	Port     int    `yaml:"port"`     // Database port (default: 5432)
	Database string `yaml:"database"` // Database name (default: postgres)
	User     string `yaml:"user"`     // Database user (required unless url is set)
	Password string `yaml:"password"` // Database password (optional, .pgpass is used when empty)
	SSLMode  string `yaml:"sslmode"`  // SSL mode: disable, require, verify-ca, verify-full (default: require)

	// Connection pool settings
	PoolMaxConns        int    `yaml:"pool_max_conns"`
	PoolMinConns        int    `yaml:"pool_min_conns"`
	PoolMaxConnIdleTime string `yaml:"pool_max_conn_idle_time"`
}

// LLMConfig holds completion service settings
type LLMConfig struct {
	Provider            string  `yaml:"provider"`               // "openai", "anthropic", or "ollama"
	Model               string  `yaml:"model"`                  // Provider-specific model name
	OpenAIAPIKey        string  `yaml:"openai_api_key"`         // Direct key - discouraged, prefer env var or key file
	OpenAIAPIKeyFile    string  `yaml:"openai_api_key_file"`    // Path to file containing OpenAI API key
	AnthropicAPIKey     string  `yaml:"anthropic_api_key"`      // Direct key - discouraged, prefer env var or key file
	AnthropicAPIKeyFile string  `yaml:"anthropic_api_key_file"` // Path to file containing Anthropic API key
	OllamaURL           string  `yaml:"ollama_url"`             // URL for Ollama service (default: http://localhost:11434)
	MaxTokens           int     `yaml:"max_tokens"`             // Maximum tokens for the completion (default: 1000)
	Temperature         float64 `yaml:"temperature"`            // Sampling temperature (default: 0.1)
	TimeoutSeconds      int     `yaml:"timeout_seconds"`        // Request timeout (default: 30)
}

// AuthConfig holds dashboard login settings
type AuthConfig struct {
	PasswordHash     string `yaml:"password_hash"`      // Bcrypt hash of the dashboard password
	PasswordHashFile string `yaml:"password_hash_file"` // Path to file containing the hash; reloaded on change
}

// QueryConfig holds query execution limits
type QueryConfig struct {
	MaxRows        int  `yaml:"max_rows"`        // Hard cap on materialized result rows (default: 10000)
	TimeoutSeconds int  `yaml:"timeout_seconds"` // Statement timeout (default: 60)
	AllowWrites    bool `yaml:"allow_writes"`    // Skip the SELECT/WITH statement guard (default: false)
}

// CLIFlags represents command line flag values and whether they were explicitly set
type CLIFlags struct {
	ConfigFileSet bool
	ConfigFile    string

	HTTPAddr    string
	HTTPAddrSet bool

	TLSEnabled    bool
	TLSEnabledSet bool
	TLSCertFile   string
	TLSCertSet    bool
	TLSKeyFile    string
	TLSKeySet     bool
	TLSChainFile  string
	TLSChainSet   bool

	DBURL      string
	DBURLSet   bool
	DBHost     string
	DBHostSet  bool
	DBPort     int
	DBPortSet  bool
	DBName     string
	DBNameSet  bool
	DBUser     string
	DBUserSet  bool
	DBPassword string
	DBPassSet  bool
	DBSSLMode  string
	DBSSLSet   bool

	LLMProvider    string
	LLMProviderSet bool
	LLMModel       string
	LLMModelSet    bool

	MaxRows    int
	MaxRowsSet bool
}

// LoadConfig loads configuration with proper priority:
// 1. Command line flags (highest priority)
// 2. Environment variables
// 3. Configuration file
// 4. Hard-coded defaults (lowest priority)
func LoadConfig(configPath string, cliFlags CLIFlags) (*Config, error) {
	cfg := defaultConfig()

	if configPath != "" {
		fileCfg, err := loadConfigFile(configPath)
		if err != nil {
			// If file was explicitly specified, error out
			if cliFlags.ConfigFileSet {
				return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
			}
			// Otherwise just use defaults (file may not exist and that's ok)
		} else {
			mergeConfig(cfg, fileCfg)
		}
	}

	applyEnvironmentVariables(cfg)
	applyCLIFlags(cfg, cliFlags)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns configuration with hard-coded defaults
func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address: ":8080",
			TLS: TLSConfig{
				Enabled:   false,
				CertFile:  "./server.crt",
				KeyFile:   "./server.key",
				ChainFile: "",
			},
		},
		Database: DatabaseConfig{
			Host:                "localhost",
			Port:                5432,
			Database:            "postgres",
			User:                "",
			Password:            "",
			SSLMode:             "require",
			PoolMaxConns:        4,
			PoolMinConns:        0,
			PoolMaxConnIdleTime: "30m",
		},
		LLM: LLMConfig{
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			OllamaURL:      "http://localhost:11434",
			MaxTokens:      1000,
			Temperature:    0.1,
			TimeoutSeconds: 30,
		},
		Auth: AuthConfig{
			PasswordHash:     "",
			PasswordHashFile: "",
		},
		Query: QueryConfig{
			MaxRows:        10000,
			TimeoutSeconds: 60,
			AllowWrites:    false,
		},
	}
}

// loadConfigFile loads configuration from a YAML file
func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &cfg, nil
}

// mergeConfig merges source config into dest, only overriding non-zero values
func mergeConfig(dest, src *Config) {
	// HTTP
	if src.HTTP.Address != "" {
		dest.HTTP.Address = src.HTTP.Address
	}
	if src.HTTP.TLS.Enabled {
		dest.HTTP.TLS.Enabled = src.HTTP.TLS.Enabled
	}
	if src.HTTP.TLS.CertFile != "" {
		dest.HTTP.TLS.CertFile = src.HTTP.TLS.CertFile
	}
	if src.HTTP.TLS.KeyFile != "" {
		dest.HTTP.TLS.KeyFile = src.HTTP.TLS.KeyFile
	}
	if src.HTTP.TLS.ChainFile != "" {
		dest.HTTP.TLS.ChainFile = src.HTTP.TLS.ChainFile
	}

	// Database
	if src.Database.URL != "" {
		dest.Database.URL = src.Database.URL
	}
	if src.Database.Host != "" {
		dest.Database.Host = src.Database.Host
	}
	if src.Database.Port != 0 {
		dest.Database.Port = src.Database.Port
	}
	if src.Database.Database != "" {
		dest.Database.Database = src.Database.Database
	}
	if src.Database.User != "" {
		dest.Database.User = src.Database.User
	}
	if src.Database.Password != "" {
		dest.Database.Password = src.Database.Password
	}
	if src.Database.SSLMode != "" {
		dest.Database.SSLMode = src.Database.SSLMode
	}
	if src.Database.PoolMaxConns != 0 {
		dest.Database.PoolMaxConns = src.Database.PoolMaxConns
	}
	if src.Database.PoolMinConns != 0 {
		dest.Database.PoolMinConns = src.Database.PoolMinConns
	}
	if src.Database.PoolMaxConnIdleTime != "" {
		dest.Database.PoolMaxConnIdleTime = src.Database.PoolMaxConnIdleTime
	}

	// LLM
	if src.LLM.Provider != "" {
		dest.LLM.Provider = src.LLM.Provider
	}
	if src.LLM.Model != "" {
		dest.LLM.Model = src.LLM.Model
	}
	if src.LLM.OpenAIAPIKey != "" {
		dest.LLM.OpenAIAPIKey = src.LLM.OpenAIAPIKey
	}
	if src.LLM.OpenAIAPIKeyFile != "" {
		dest.LLM.OpenAIAPIKeyFile = src.LLM.OpenAIAPIKeyFile
	}
	if src.LLM.AnthropicAPIKey != "" {
		dest.LLM.AnthropicAPIKey = src.LLM.AnthropicAPIKey
	}
	if src.LLM.AnthropicAPIKeyFile != "" {
		dest.LLM.AnthropicAPIKeyFile = src.LLM.AnthropicAPIKeyFile
	}
	if src.LLM.OllamaURL != "" {
		dest.LLM.OllamaURL = src.LLM.OllamaURL
	}
	if src.LLM.MaxTokens != 0 {
		dest.LLM.MaxTokens = src.LLM.MaxTokens
	}
	if src.LLM.Temperature != 0 {
		dest.LLM.Temperature = src.LLM.Temperature
	}
	if src.LLM.TimeoutSeconds != 0 {
		dest.LLM.TimeoutSeconds = src.LLM.TimeoutSeconds
	}

	// Auth
	if src.Auth.PasswordHash != "" {
		dest.Auth.PasswordHash = src.Auth.PasswordHash
	}
	if src.Auth.PasswordHashFile != "" {
		dest.Auth.PasswordHashFile = src.Auth.PasswordHashFile
	}

	// Query
	if src.Query.MaxRows != 0 {
		dest.Query.MaxRows = src.Query.MaxRows
	}
	if src.Query.TimeoutSeconds != 0 {
		dest.Query.TimeoutSeconds = src.Query.TimeoutSeconds
	}
	if src.Query.AllowWrites {
		dest.Query.AllowWrites = src.Query.AllowWrites
	}
}

// setStringFromEnv sets a string config value from an environment variable if it exists
func setStringFromEnv(dest *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dest = val
	}
}

// setStringFromEnvWithFallback sets a string config value from an environment variable,
// checking multiple environment variable names in priority order
func setStringFromEnvWithFallback(dest *string, keys ...string) {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			*dest = val
			return
		}
	}
}

// setBoolFromEnv sets a boolean config value from an environment variable if it exists
// Accepts "true", "1", or "yes" as true values
func setBoolFromEnv(dest *bool, key string) {
	if val := os.Getenv(key); val != "" {
		*dest = val == "true" || val == "1" || val == "yes"
	}
}

// setIntFromEnv sets an integer config value from an environment variable if it exists
func setIntFromEnv(dest *int, key string) {
	if val := os.Getenv(key); val != "" {
		var intVal int
		_, err := fmt.Sscanf(val, "%d", &intVal)
		if err == nil {
			*dest = intVal
		}
	}
}

// applyEnvironmentVariables overrides config with environment variables if they exist.
// All environment variables use the PGEDGE_ANALYST_ prefix; the standard Postgres
// variables and the variables the original deployment used (POSTGRES_SERVER,
// OPENAI_API_KEY, HASHED_PASSWORD) are honored as fallbacks.
func applyEnvironmentVariables(cfg *Config) {
	// HTTP
	setStringFromEnv(&cfg.HTTP.Address, "PGEDGE_ANALYST_HTTP_ADDRESS")
	setBoolFromEnv(&cfg.HTTP.TLS.Enabled, "PGEDGE_ANALYST_TLS_ENABLED")
	setStringFromEnv(&cfg.HTTP.TLS.CertFile, "PGEDGE_ANALYST_TLS_CERT_FILE")
	setStringFromEnv(&cfg.HTTP.TLS.KeyFile, "PGEDGE_ANALYST_TLS_KEY_FILE")
	setStringFromEnv(&cfg.HTTP.TLS.ChainFile, "PGEDGE_ANALYST_TLS_CHAIN_FILE")

	// Database
	setStringFromEnvWithFallback(&cfg.Database.URL, "PGEDGE_ANALYST_DB_URL", "POSTGRES_SERVER")
	// POSTGRES_SERVER may hold a bare hostname rather than a URL
	if cfg.Database.URL != "" && !strings.HasPrefix(cfg.Database.URL, "postgres://") && !strings.HasPrefix(cfg.Database.URL, "postgresql://") {
		cfg.Database.Host = cfg.Database.URL
		cfg.Database.URL = ""
	}
	setStringFromEnv(&cfg.Database.Host, "PGEDGE_ANALYST_DB_HOST")
	setIntFromEnv(&cfg.Database.Port, "PGEDGE_ANALYST_DB_PORT")
	setStringFromEnv(&cfg.Database.Database, "PGEDGE_ANALYST_DB_NAME")
	setStringFromEnv(&cfg.Database.User, "PGEDGE_ANALYST_DB_USER")
	setStringFromEnv(&cfg.Database.Password, "PGEDGE_ANALYST_DB_PASSWORD")
	setStringFromEnv(&cfg.Database.SSLMode, "PGEDGE_ANALYST_DB_SSLMODE")

	// Also support standard PostgreSQL environment variables for convenience
	if cfg.Database.Host == "localhost" {
		setStringFromEnv(&cfg.Database.Host, "PGHOST")
	}
	if cfg.Database.Port == 5432 {
		setIntFromEnv(&cfg.Database.Port, "PGPORT")
	}
	if cfg.Database.Database == "postgres" {
		setStringFromEnv(&cfg.Database.Database, "PGDATABASE")
	}
	if cfg.Database.User == "" {
		setStringFromEnvWithFallback(&cfg.Database.User, "PGUSER", "POSTGRES_USERNAME")
	}
	if cfg.Database.Password == "" {
		setStringFromEnvWithFallback(&cfg.Database.Password, "PGPASSWORD", "POSTGRES_PASSWORD")
	}
	if cfg.Database.Database == "postgres" {
		setStringFromEnv(&cfg.Database.Database, "POSTGRES_DATABASE")
	}

	// LLM
	setStringFromEnv(&cfg.LLM.Provider, "PGEDGE_ANALYST_LLM_PROVIDER")
	setStringFromEnv(&cfg.LLM.Model, "PGEDGE_ANALYST_LLM_MODEL")
	// API key loading priority: env vars > api_key_file > direct config value
	setStringFromEnvWithFallback(&cfg.LLM.OpenAIAPIKey, "PGEDGE_ANALYST_OPENAI_API_KEY", "OPENAI_API_KEY")
	setStringFromEnvWithFallback(&cfg.LLM.AnthropicAPIKey, "PGEDGE_ANALYST_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	if cfg.LLM.OpenAIAPIKey == "" && cfg.LLM.OpenAIAPIKeyFile != "" {
		if key, err := readSecretFromFile(cfg.LLM.OpenAIAPIKeyFile); err == nil && key != "" {
			cfg.LLM.OpenAIAPIKey = key
		}
		// Note: errors are silently ignored - file may not exist and that's ok
	}
	if cfg.LLM.AnthropicAPIKey == "" && cfg.LLM.AnthropicAPIKeyFile != "" {
		if key, err := readSecretFromFile(cfg.LLM.AnthropicAPIKeyFile); err == nil && key != "" {
			cfg.LLM.AnthropicAPIKey = key
		}
	}
	setStringFromEnv(&cfg.LLM.OllamaURL, "PGEDGE_ANALYST_OLLAMA_URL")
	setIntFromEnv(&cfg.LLM.MaxTokens, "PGEDGE_ANALYST_LLM_MAX_TOKENS")
	setIntFromEnv(&cfg.LLM.TimeoutSeconds, "PGEDGE_ANALYST_LLM_TIMEOUT_SECONDS")
	if val := os.Getenv("PGEDGE_ANALYST_LLM_TEMPERATURE"); val != "" {
		var floatVal float64
		_, err := fmt.Sscanf(val, "%f", &floatVal)
		if err == nil {
			cfg.LLM.Temperature = floatVal
		}
	}

	// Auth
	setStringFromEnvWithFallback(&cfg.Auth.PasswordHash, "PGEDGE_ANALYST_PASSWORD_HASH", "HASHED_PASSWORD")
	setStringFromEnv(&cfg.Auth.PasswordHashFile, "PGEDGE_ANALYST_PASSWORD_HASH_FILE")
	if cfg.Auth.PasswordHash == "" && cfg.Auth.PasswordHashFile != "" {
		if hash, err := readSecretFromFile(cfg.Auth.PasswordHashFile); err == nil && hash != "" {
			cfg.Auth.PasswordHash = hash
		}
	}

	// Query
	setIntFromEnv(&cfg.Query.MaxRows, "PGEDGE_ANALYST_QUERY_MAX_ROWS")
	setIntFromEnv(&cfg.Query.TimeoutSeconds, "PGEDGE_ANALYST_QUERY_TIMEOUT_SECONDS")
	setBoolFromEnv(&cfg.Query.AllowWrites, "PGEDGE_ANALYST_QUERY_ALLOW_WRITES")
}

// applyCLIFlags overrides config with CLI flags if they were explicitly set
func applyCLIFlags(cfg *Config, flags CLIFlags) {
	if flags.HTTPAddrSet {
		cfg.HTTP.Address = flags.HTTPAddr
	}

	if flags.TLSEnabledSet {
		cfg.HTTP.TLS.Enabled = flags.TLSEnabled
	}
	if flags.TLSCertSet {
		cfg.HTTP.TLS.CertFile = flags.TLSCertFile
	}
	if flags.TLSKeySet {
		cfg.HTTP.TLS.KeyFile = flags.TLSKeyFile
	}
	if flags.TLSChainSet {
		cfg.HTTP.TLS.ChainFile = flags.TLSChainFile
	}

	if flags.DBURLSet {
		cfg.Database.URL = flags.DBURL
	}
	if flags.DBHostSet {
		cfg.Database.Host = flags.DBHost
	}
	if flags.DBPortSet {
		cfg.Database.Port = flags.DBPort
	}
	if flags.DBNameSet {
		cfg.Database.Database = flags.DBName
	}
	if flags.DBUserSet {
		cfg.Database.User = flags.DBUser
	}
	if flags.DBPassSet {
		cfg.Database.Password = flags.DBPassword
	}
	if flags.DBSSLSet {
		cfg.Database.SSLMode = flags.DBSSLMode
	}

	if flags.LLMProviderSet {
		cfg.LLM.Provider = flags.LLMProvider
	}
	if flags.LLMModelSet {
		cfg.LLM.Model = flags.LLMModel
	}

	if flags.MaxRowsSet {
		cfg.Query.MaxRows = flags.MaxRows
	}
}

// validateConfig checks if the configuration is valid.
// Missing startup configuration is the only fatal condition in the system;
// everything that can fail per-request is validated at request time instead.
func validateConfig(cfg *Config) error {
	if cfg.HTTP.TLS.Enabled {
		if cfg.HTTP.TLS.CertFile == "" {
			return fmt.Errorf("TLS certificate file is required when HTTPS is enabled")
		}
		if cfg.HTTP.TLS.KeyFile == "" {
			return fmt.Errorf("TLS key file is required when HTTPS is enabled")
		}
	}

	if cfg.Database.URL == "" && cfg.Database.User == "" {
		return fmt.Errorf("database user is required (set via -db-user, PGEDGE_ANALYST_DB_USER, PGUSER, or config file)")
	}

	switch cfg.LLM.Provider {
	case "openai":
		if cfg.LLM.OpenAIAPIKey == "" {
			return fmt.Errorf("OpenAI API key is required (set OPENAI_API_KEY or llm.openai_api_key_file)")
		}
	case "anthropic":
		if cfg.LLM.AnthropicAPIKey == "" {
			return fmt.Errorf("Anthropic API key is required (set ANTHROPIC_API_KEY or llm.anthropic_api_key_file)")
		}
	case "ollama":
		if cfg.LLM.OllamaURL == "" {
			return fmt.Errorf("Ollama URL is required when llm.provider is ollama")
		}
	default:
		return fmt.Errorf("unsupported LLM provider: %s", cfg.LLM.Provider)
	}

	if cfg.Auth.PasswordHash == "" {
		return fmt.Errorf("dashboard password hash is required (set HASHED_PASSWORD, PGEDGE_ANALYST_PASSWORD_HASH, or auth.password_hash_file)")
	}

	if cfg.Query.MaxRows <= 0 {
		return fmt.Errorf("query.max_rows must be positive")
	}

	return nil
}

// readSecretFromFile reads a secret value (API key or password hash) from a file.
// Returns the value with whitespace trimmed, or empty string if the file doesn't exist.
func readSecretFromFile(filePath string) (string, error) {
	if filePath == "" {
		return "", nil
	}

	// Expand tilde to home directory
	if filePath[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(homeDir, filePath[1:])
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return "", nil // File doesn't exist, return empty (not an error)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}

	return strings.TrimSpace(string(data)), nil
}

// ReadSecretFile is the exported form used by the hash reload watcher
func ReadSecretFile(filePath string) (string, error) {
	return readSecretFromFile(filePath)
}

// GetDefaultConfigPath returns the default config file path
// Searches /etc/pgedge/sales-analyst/ first, then binary directory
func GetDefaultConfigPath(binaryPath string) string {
	systemPath := "/etc/pgedge/sales-analyst/pgedge-sales-analyst.yaml"
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath
	}

	dir := filepath.Dir(binaryPath)
	return filepath.Join(dir, "pgedge-sales-analyst.yaml")
}

// BuildConnectionString creates a PostgreSQL connection string from DatabaseConfig.
// A full URL takes precedence over the component fields; if the password is not
// set, pgx will look it up from the .pgpass file automatically.
func (cfg *DatabaseConfig) BuildConnectionString() string {
	if cfg.URL != "" {
		return cfg.URL
	}

	connStr := fmt.Sprintf("postgres://%s", cfg.User)

	if cfg.Password != "" {
		connStr += ":" + cfg.Password
	}

	connStr += fmt.Sprintf("@%s:%d/%s", cfg.Host, cfg.Port, cfg.Database)

	if cfg.SSLMode != "" {
		connStr += "?sslmode=" + cfg.SSLMode
	}

	return connStr
}
