package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort           = 8081
	DefaultHost           = "127.0.0.1"
	DefaultAPIURL         = "http://localhost:8080/api"
	DefaultLogLevel       = "info"
	DefaultMaxFileSize    = 100 * 1024 * 1024 // 100MB
	DefaultRequestTimeout = 5 * time.Minute
	DefaultDownloadDelay  = 200 * time.Millisecond
	DefaultOutputDir      = "pdf-ops-output"

	// Directory permissions
	DefaultDirPerm = 0o750

	// EnvPrefix is prepended to every environment variable
	EnvPrefix = "PDF_OPS"
)

// Flag and viper keys
const (
	keyMode          = "mode"
	keyHost          = "host"
	keyPort          = "port"
	keyAPIURL        = "api-url"
	keyTimeout       = "timeout"
	keyDownloadDelay = "download-delay"
	keyInputDir      = "input-dir"
	keyOutputDir     = "output-dir"
	keyOverwrite     = "overwrite"
	keyMaxFileSize   = "max-file-size"
	keyLogLevel      = "log-level"
	keyLicenseKey    = "viewer-license-key"
)

// ErrVersionRequested is returned by LoadFromFlags when --version is given
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration shared by the MCP server and the CLI
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Backend configuration
	APIURL         string
	RequestTimeout time.Duration
	DownloadDelay  time.Duration

	// File configuration
	InputDirectory  string
	OutputDirectory string
	Overwrite       bool
	MaxFileSize     int64 // Maximum PDF file size in bytes

	// Viewer configuration, read once at startup
	ViewerLicenseKey string

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		Mode:            ModeStdio, // Default to stdio mode for MCP compatibility
		Host:            DefaultHost,
		Port:            DefaultPort,
		APIURL:          DefaultAPIURL,
		RequestTimeout:  DefaultRequestTimeout,
		DownloadDelay:   DefaultDownloadDelay,
		InputDirectory:  currentDir,
		OutputDirectory: filepath.Join(currentDir, DefaultOutputDir),
		MaxFileSize:     DefaultMaxFileSize,
		Version:         "1.0.0",
		ServerName:      "mcp-pdf-ops",
		LogLevel:        DefaultLogLevel,
	}
}

// LoadFromFlags parses the process command line and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	if err := checkVersionFlag(os.Args[1:]); err != nil {
		return nil, err
	}

	v := NewViper(cfg)
	BindFlags(pflag.CommandLine, v, cfg)
	setupUsageMessage()

	pflag.Parse()

	return FromViper(v)
}

// NewViper loads any .env file and returns a viper instance reading the
// PDF_OPS_ environment with cfg as defaults.
func NewViper(cfg *Config) *viper.Viper {
	loadDotEnv()

	v := viper.New()
	setupViperEnvironment(v, cfg)
	return v
}

// loadDotEnv loads .env, or the file named by PDF_OPS_ENV_FILE. Variables
// already set in the environment win.
func loadDotEnv() {
	path := os.Getenv(EnvPrefix + "_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(keyMode, cfg.Mode)
	v.SetDefault(keyHost, cfg.Host)
	v.SetDefault(keyPort, cfg.Port)
	v.SetDefault(keyAPIURL, cfg.APIURL)
	v.SetDefault(keyTimeout, cfg.RequestTimeout)
	v.SetDefault(keyDownloadDelay, cfg.DownloadDelay)
	v.SetDefault(keyInputDir, cfg.InputDirectory)
	v.SetDefault(keyOutputDir, cfg.OutputDirectory)
	v.SetDefault(keyOverwrite, cfg.Overwrite)
	v.SetDefault(keyMaxFileSize, cfg.MaxFileSize)
	v.SetDefault(keyLogLevel, cfg.LogLevel)
	v.SetDefault(keyLicenseKey, cfg.ViewerLicenseKey)
}

// BindFlags defines every configuration flag on fs and binds it to v. The
// MCP server passes the global pflag set and the CLI its cobra flags.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper, cfg *Config) {
	fs.String(keyMode, cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP/SSE server")
	fs.String(keyHost, cfg.Host, "Server host address (server mode only)")
	fs.Int(keyPort, cfg.Port, "Server port (server mode only)")
	fs.String(keyAPIURL, cfg.APIURL, "Base URL of the PDF processing backend")
	fs.Duration(keyTimeout, cfg.RequestTimeout, "Ceiling for one backend request")
	fs.Duration(keyDownloadDelay, cfg.DownloadDelay, "Minimum delay between consecutive artifact saves (0 disables)")
	fs.String(keyInputDir, cfg.InputDirectory, "Directory input PDF files are read from")
	fs.String(keyOutputDir, cfg.OutputDirectory, "Directory artifacts are saved to")
	fs.Bool(keyOverwrite, cfg.Overwrite, "Overwrite existing files instead of numbering new ones")
	fs.Int64(keyMaxFileSize, cfg.MaxFileSize, "Maximum input file size in bytes")
	fs.String(keyLogLevel, cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.String(keyLicenseKey, cfg.ViewerLicenseKey, "License key for the document viewer")

	for _, key := range []string{
		keyMode, keyHost, keyPort, keyAPIURL, keyTimeout, keyDownloadDelay,
		keyInputDir, keyOutputDir, keyOverwrite, keyMaxFileSize, keyLogLevel, keyLicenseKey,
	} {
		_ = v.BindPFlag(key, fs.Lookup(key))
	}
}

// FromViper builds and validates a configuration from v
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	populateConfigFromViper(v, cfg)

	// Expand paths if needed
	for _, dir := range []*string{&cfg.InputDirectory, &cfg.OutputDirectory} {
		if *dir == "" {
			continue
		}
		if expandedPath, err := filepath.Abs(*dir); err == nil {
			*dir = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP PDF Ops - A Model Context Protocol server for remote PDF operations\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --api-url=http://localhost:8080/api          # stdio mode (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --input-dir=/pdfs --output-dir=/pdfs/out     # custom directories\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --port=8081     # SSE server\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables (also read from .env):\n")
		fmt.Fprintf(os.Stderr, "  PDF_OPS_MODE                Server mode\n")
		fmt.Fprintf(os.Stderr, "  PDF_OPS_API_URL             Backend base URL\n")
		fmt.Fprintf(os.Stderr, "  PDF_OPS_TIMEOUT             Request timeout\n")
		fmt.Fprintf(os.Stderr, "  PDF_OPS_DOWNLOAD_DELAY      Delay between saves\n")
		fmt.Fprintf(os.Stderr, "  PDF_OPS_INPUT_DIR           Input directory\n")
		fmt.Fprintf(os.Stderr, "  PDF_OPS_OUTPUT_DIR          Output directory\n")
		fmt.Fprintf(os.Stderr, "  PDF_OPS_LOG_LEVEL           Log level\n")
		fmt.Fprintf(os.Stderr, "  PDF_OPS_VIEWER_LICENSE_KEY  Viewer license key\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag(args []string) error {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = v.GetString(keyMode)
	cfg.Host = v.GetString(keyHost)
	cfg.Port = v.GetInt(keyPort)
	cfg.APIURL = v.GetString(keyAPIURL)
	cfg.RequestTimeout = v.GetDuration(keyTimeout)
	cfg.DownloadDelay = v.GetDuration(keyDownloadDelay)
	cfg.InputDirectory = v.GetString(keyInputDir)
	cfg.OutputDirectory = v.GetString(keyOutputDir)
	cfg.Overwrite = v.GetBool(keyOverwrite)
	cfg.MaxFileSize = v.GetInt64(keyMaxFileSize)
	cfg.LogLevel = v.GetString(keyLogLevel)
	cfg.ViewerLicenseKey = v.GetString(keyLicenseKey)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Port only matters when serving
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if err := validateAPIURL(c.APIURL); err != nil {
		return err
	}

	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}

	if c.DownloadDelay < 0 {
		return errors.New("download delay cannot be negative")
	}

	if c.InputDirectory == "" {
		return errors.New("input directory cannot be empty")
	}

	if c.OutputDirectory == "" {
		return errors.New("output directory cannot be empty")
	}

	// Check if output directory exists, create if it doesn't
	if _, err := os.Stat(c.OutputDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.OutputDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create output directory %s: %w", c.OutputDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access output directory %s: %w", c.OutputDirectory, err)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

func validateAPIURL(raw string) error {
	if raw == "" {
		return errors.New("API URL cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid API URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid API URL %s: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid API URL %s: missing host", raw)
	}
	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration. The
// license key is never printed.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, APIURL: %s, Timeout: %s, DownloadDelay: %s, "+
		"InputDirectory: %s, OutputDirectory: %s, LogLevel: %s, MaxFileSize: %d, ViewerLicensed: %t}",
		c.Mode, c.Host, c.Port, c.APIURL, c.RequestTimeout, c.DownloadDelay,
		c.InputDirectory, c.OutputDirectory, c.LogLevel, c.MaxFileSize, c.ViewerLicenseKey != "")
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
