// Package config resolves the process configuration once at startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Storage struct {
	Type           string
	LocalPath      string
	DataSourceName string
	S3Bucket       string
	S3Prefix       string
}

// GenAI configures the generative service client.
type GenAI struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
	Timeout    time.Duration

	InputUSDPerMTok  float64
	OutputUSDPerMTok float64
	USDToIDR         float64
}

type Config struct {
	ListenAddr string
	LogLevel   string

	Storage Storage
	GenAI   GenAI

	JWTSecret             string
	AllowedOrigins        []string
	AppendOnlyCollections []string
}

const (
	DefaultListenAddr = ":3001"
	DefaultBaseURL    = "https://openrouter.ai/api/v1"
	DefaultTextModel  = "google/gemini-2.5-flash"
	DefaultImageModel = "google/gemini-2.5-flash-image-preview"
)

// Load builds a Config from the environment. Callers are expected to have
// loaded any .env file beforehand.
func Load() (*Config, error) {
	timeout, err := durationEnv("GENAI_TIMEOUT", 2*time.Minute)
	if err != nil {
		return nil, err
	}
	inPrice, err := floatEnv("GENAI_INPUT_USD_PER_MTOK", 0.30)
	if err != nil {
		return nil, err
	}
	outPrice, err := floatEnv("GENAI_OUTPUT_USD_PER_MTOK", 30.0)
	if err != nil {
		return nil, err
	}
	idr, err := floatEnv("USD_TO_IDR", 16000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ListenAddr: stringEnv("LISTEN_ADDR", DefaultListenAddr),
		LogLevel:   stringEnv("LOG_LEVEL", "info"),
		Storage: Storage{
			Type:           stringEnv("STORAGE_TYPE", "memory"),
			LocalPath:      stringEnv("LOCAL_STORAGE_PATH", "./database"),
			DataSourceName: stringEnv("DATA_SOURCE_NAME", "dnastudio.db"),
			S3Bucket:       os.Getenv("S3_BUCKET_NAME"),
			S3Prefix:       stringEnv("S3_PREFIX", "collections/"),
		},
		GenAI: GenAI{
			APIKey:           os.Getenv("GENAI_API_KEY"),
			BaseURL:          strings.TrimRight(stringEnv("GENAI_BASE_URL", DefaultBaseURL), "/"),
			TextModel:        stringEnv("GENAI_TEXT_MODEL", DefaultTextModel),
			ImageModel:       stringEnv("GENAI_IMAGE_MODEL", DefaultImageModel),
			Timeout:          timeout,
			InputUSDPerMTok:  inPrice,
			OutputUSDPerMTok: outPrice,
			USDToIDR:         idr,
		},
		JWTSecret:             os.Getenv("JWT_SECRET"),
		AllowedOrigins:        listEnv("CORS_ALLOWED_ORIGINS", []string{"https://*", "http://*"}),
		AppendOnlyCollections: listEnv("APPEND_ONLY_COLLECTIONS", []string{"usage_logs"}),
	}

	if cfg.Storage.Type == "s3" && cfg.Storage.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET_NAME must be set for s3 storage")
	}
	return cfg, nil
}

// IsAppendOnly reports whether POSTs of single objects to the collection
// are appended rather than stored.
func (c *Config) IsAppendOnly(collection string) bool {
	for _, name := range c.AppendOnlyCollections {
		if name == collection {
			return true
		}
	}
	return false
}

func stringEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func listEnv(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
