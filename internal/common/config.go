package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Storage    StorageConfig    `yaml:"storage" toml:"storage"`
	Parser     ParserConfig     `yaml:"parser" toml:"parser"`
	Ledger     LedgerConfig     `yaml:"ledger" toml:"ledger"`
	Server     ServerConfig     `yaml:"server" toml:"server"`
	Log        LogConfig        `yaml:"log" toml:"log"`
	Extraction ExtractionConfig `yaml:"extraction" toml:"extraction"`
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Backend         string `yaml:"backend" toml:"backend"` // "s3" | "fs"
	Endpoint        string `yaml:"endpoint" toml:"endpoint"`
	Region          string `yaml:"region" toml:"region"`
	AccessKey       string `yaml:"access_key" toml:"access_key"`
	SecretKey       string `yaml:"secret_key" toml:"secret_key"`
	UseSSL          bool   `yaml:"use_ssl" toml:"use_ssl"`
	RawBucket       string `yaml:"raw_bucket" toml:"raw_bucket"`
	ProcessedBucket string `yaml:"processed_bucket" toml:"processed_bucket"`
	LocalRoot       string `yaml:"local_root" toml:"local_root"`
}

// ParserConfig selects and tunes the document parser.
// LayoutServiceURL non-empty selects the structured parser.
type ParserConfig struct {
	LayoutServiceURL  string `yaml:"layout_service_url" toml:"layout_service_url"`
	LayoutServicePath string `yaml:"layout_service_path" toml:"layout_service_path"`
	TimeoutSeconds    int    `yaml:"timeout_seconds" toml:"timeout_seconds"`
	Pdftotext         string `yaml:"pdftotext" toml:"pdftotext"`
	Pdftoppm          string `yaml:"pdftoppm" toml:"pdftoppm"`
	Tesseract         string `yaml:"tesseract" toml:"tesseract"`
	TesseractLang     string `yaml:"tesseract_lang" toml:"tesseract_lang"`
	TessdataDir       string `yaml:"tessdata_dir" toml:"tessdata_dir"`
	DPI               int    `yaml:"dpi" toml:"dpi"`
	MaxPages          int    `yaml:"max_pages" toml:"max_pages"`
}

// LedgerConfig holds extraction ledger configuration
type LedgerConfig struct {
	DSN      string `yaml:"dsn" toml:"dsn"`
	LockFile string `yaml:"lock_file" toml:"lock_file"`
}

// ServerConfig holds daemon configuration
type ServerConfig struct {
	HTTPAddr              string `yaml:"http_addr" toml:"http_addr"`
	GRPCAddr              string `yaml:"grpc_addr" toml:"grpc_addr"`
	Workers               int    `yaml:"workers" toml:"workers"`
	QueueSize             int    `yaml:"queue_size" toml:"queue_size"`
	ProcessTimeoutSeconds int    `yaml:"process_timeout_seconds" toml:"process_timeout_seconds"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // json, text
}

// ExtractionConfig tunes record assembly.
type ExtractionConfig struct {
	ExtractorVersion string  `yaml:"extractor_version" toml:"extractor_version"`
	PenaltyFactor    float64 `yaml:"penalty_factor" toml:"penalty_factor"`
	TempDir          string  `yaml:"temp_dir" toml:"temp_dir"`
}

// DefaultConfig returns the configuration used when no file or env is set.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:   "s3",
			Endpoint:  "s3.amazonaws.com",
			Region:    "us-east-1",
			UseSSL:    true,
			LocalRoot: "./data",
		},
		Parser: ParserConfig{
			LayoutServicePath: "/v1/convert/file",
			TimeoutSeconds:    120,
			Pdftotext:         "pdftotext",
			Pdftoppm:          "pdftoppm",
			Tesseract:         "tesseract",
			TesseractLang:     "eng",
			DPI:               300,
		},
		Ledger: LedgerConfig{
			DSN:      "file:contract-extractor.db",
			LockFile: "contract-extractor.lock",
		},
		Server: ServerConfig{
			HTTPAddr:              ":8080",
			GRPCAddr:              ":9090",
			Workers:               4,
			QueueSize:             256,
			ProcessTimeoutSeconds: 180,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Extraction: ExtractionConfig{
			ExtractorVersion: "1.0.0",
			PenaltyFactor:    0.7,
		},
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML or
// TOML file, and environment variables, in that order of precedence.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewAppError("CONFIG_ERROR", "read config file", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml":
		err = toml.Unmarshal(data, c)
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unsupported config extension %q", filepath.Ext(path)), ErrInvalidInput)
	}
	if err != nil {
		return NewAppError("CONFIG_ERROR", "decode config file", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Storage.Backend = getEnv("STORAGE_BACKEND", c.Storage.Backend)
	c.Storage.Endpoint = getEnv("S3_ENDPOINT", c.Storage.Endpoint)
	c.Storage.Region = getEnv("AWS_REGION", c.Storage.Region)
	c.Storage.AccessKey = getEnv("AWS_ACCESS_KEY_ID", c.Storage.AccessKey)
	c.Storage.SecretKey = getEnv("AWS_SECRET_ACCESS_KEY", c.Storage.SecretKey)
	c.Storage.UseSSL = getEnvAsBool("S3_USE_SSL", c.Storage.UseSSL)
	c.Storage.RawBucket = getEnv("S3_RAW_BUCKET", c.Storage.RawBucket)
	c.Storage.ProcessedBucket = getEnv("S3_PROCESSED_BUCKET", c.Storage.ProcessedBucket)
	c.Storage.LocalRoot = getEnv("LOCAL_STORAGE_ROOT", c.Storage.LocalRoot)

	c.Parser.LayoutServiceURL = getEnv("LAYOUT_SERVICE_URL", c.Parser.LayoutServiceURL)
	c.Parser.TimeoutSeconds = getEnvAsInt("LAYOUT_SERVICE_TIMEOUT_SECONDS", c.Parser.TimeoutSeconds)
	c.Parser.TessdataDir = getEnv("TESSDATA_PREFIX", c.Parser.TessdataDir)

	c.Ledger.DSN = getEnv("LEDGER_DSN", c.Ledger.DSN)
	c.Ledger.LockFile = getEnv("LEDGER_LOCK_FILE", c.Ledger.LockFile)

	c.Server.HTTPAddr = getEnv("HTTP_ADDR", c.Server.HTTPAddr)
	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)
	c.Server.Workers = getEnvAsInt("QUEUE_WORKERS", c.Server.Workers)
	c.Server.QueueSize = getEnvAsInt("QUEUE_SIZE", c.Server.QueueSize)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.Extraction.ExtractorVersion = getEnv("EXTRACTOR_VERSION", c.Extraction.ExtractorVersion)
	c.Extraction.PenaltyFactor = getEnvAsFloat("FALLBACK_PENALTY_FACTOR", c.Extraction.PenaltyFactor)
	c.Extraction.TempDir = getEnv("EXTRACTION_TEMP_DIR", c.Extraction.TempDir)
}

// ParserTimeout returns the layout service timeout as a duration.
func (c *Config) ParserTimeout() time.Duration {
	return time.Duration(c.Parser.TimeoutSeconds) * time.Second
}

// ProcessTimeout returns the per-document timeout used by the queue.
func (c *Config) ProcessTimeout() time.Duration {
	return time.Duration(c.Server.ProcessTimeoutSeconds) * time.Second
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Storage.RawBucket == "" {
		return NewAppError("CONFIG_ERROR", "S3_RAW_BUCKET is required", ErrInvalidInput)
	}
	if c.Storage.ProcessedBucket == "" {
		return NewAppError("CONFIG_ERROR", "S3_PROCESSED_BUCKET is required", ErrInvalidInput)
	}
	switch c.Storage.Backend {
	case "s3":
		if c.Storage.Endpoint == "" {
			return NewAppError("CONFIG_ERROR", "S3_ENDPOINT is required for the s3 backend", ErrInvalidInput)
		}
	case "fs":
		if c.Storage.LocalRoot == "" {
			return NewAppError("CONFIG_ERROR", "LOCAL_STORAGE_ROOT is required for the fs backend", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown storage backend %q", c.Storage.Backend), ErrInvalidInput)
	}
	if c.Extraction.PenaltyFactor <= 0 || c.Extraction.PenaltyFactor > 1 {
		return NewAppError("CONFIG_ERROR", "penalty_factor must be in (0, 1]", ErrInvalidInput)
	}
	return nil
}
