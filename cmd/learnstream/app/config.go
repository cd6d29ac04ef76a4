package app

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/learnstream/pkg/constants"
	"github.com/agentstation/learnstream/pkg/errors"
)

// EnvPrefix prefixes every environment variable the CLI reads.
const EnvPrefix = "LEARNSTREAM"

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	Format  string

	// Config file
	ConfigFile string

	// Stream configuration
	APIOrigin  string
	StreamPath string
	StreamURL  string // overrides APIOrigin + StreamPath when set
	Token      string
	TokenFile  string

	// Development server
	ServerPort  int
	ServerToken string

	// Logging configuration. LogLevel is the --log-level flag and EnvLogLevel
	// is LOG_LEVEL; see NewLogger for precedence.
	LogLevel    string
	EnvLogLevel string
	LogFormat   string
	LogOutput   string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (applied later by UpdateFromFlags)
//  2. LEARNSTREAM_* environment variables
//  3. .env and .env.local files
//  4. Config file (~/.learnstream.yaml or ./.learnstream.yaml)
//  5. Defaults
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("")
}

// LoadConfigFrom is LoadConfig with an explicit config file. An empty path
// falls back to LEARNSTREAM_CONFIG and then the standard locations.
func LoadConfigFrom(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("api_origin", constants.DefaultAPIOrigin)
	v.SetDefault("stream_path", constants.DefaultStreamPath)
	v.SetDefault("port", constants.DefaultPort)
	v.SetDefault("output", "")

	if path == "" {
		path = v.GetString("config")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".learnstream")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.NewConfigError("config", "reading "+v.ConfigFileUsed(), err)
		}
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		Format:  v.GetString("output"),

		ConfigFile: v.ConfigFileUsed(),

		APIOrigin:  v.GetString("api_origin"),
		StreamPath: v.GetString("stream_path"),
		StreamURL:  v.GetString("stream_url"),
		Token:      v.GetString("token"),
		TokenFile:  v.GetString("token_file"),

		ServerPort:  v.GetInt("port"),
		ServerToken: v.GetString("server_token"),

		EnvLogLevel: os.Getenv("LOG_LEVEL"),
		LogFormat:   getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput:   getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the stream settings.
func (c *Config) Validate() error {
	if c.StreamURL != "" {
		return nil
	}
	u, err := url.Parse(c.APIOrigin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.NewConfigError("config", "api_origin must be an absolute URL, got "+c.APIOrigin, err)
	}
	if !strings.HasPrefix(c.StreamPath, "/") {
		return errors.NewConfigError("config", "stream_path must start with /, got "+c.StreamPath, nil)
	}
	return nil
}

// ResolvedStreamURL returns StreamURL when set and otherwise joins
// APIOrigin and StreamPath.
func (c *Config) ResolvedStreamURL() string {
	if c.StreamURL != "" {
		return c.StreamURL
	}
	return strings.TrimSuffix(c.APIOrigin, "/") + c.StreamPath
}

// ResolvedToken returns Token, or the trimmed content of TokenFile when no
// token is set. A missing token file yields "".
func (c *Config) ResolvedToken() string {
	if c.Token != "" || c.TokenFile == "" {
		return c.Token
	}
	data, err := os.ReadFile(filepath.Clean(c.TokenFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// UpdateFromFlags applies parsed persistent flags so they take precedence
// over config file and environment values.
func (c *Config) UpdateFromFlags(verbose, quiet bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	if format != "" {
		c.Format = format
	}
	c.LogLevel = logLevel
}

// loadEnvFiles loads .env files; .env.local overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		// Load keeps variables that are already set.
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
