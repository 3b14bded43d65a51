package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingAPIKey is reported when neither GENAI_API_KEY nor GEMINI_API_KEY is set.
var ErrMissingAPIKey = errors.New("GENAI_API_KEY is not set")

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string

	GenAIAPIKey  string
	GenAIModel   string
	GenAITimeout time.Duration

	MaxUploadBytes int64
	RenderDPI      int
	JPEGQuality    int
	PdftoppmPath   string

	RateLimitRPS   float64
	RateLimitBurst int

	DatabaseURL string

	ReportStore   string
	LocalStoreDir string
	AWSRegion     string
	S3Bucket      string
	S3Prefix      string
	SSEKMSKeyID   string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files; real env vars win.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		GenAIAPIKey:     strings.TrimSpace(getEnv("GENAI_API_KEY", os.Getenv("GEMINI_API_KEY"))),
		GenAIModel:      getEnv("GENAI_MODEL", "gemini-2.5-flash"),
		GenAITimeout:    time.Duration(getEnvInt("GENAI_TIMEOUT_SECONDS", 0)) * time.Second,
		MaxUploadBytes:  int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		RenderDPI:       getEnvInt("RENDER_DPI", 200),
		JPEGQuality:     clamp(getEnvInt("JPEG_QUALITY", 75), 1, 100),
		PdftoppmPath:    getEnv("PDFTOPPM_PATH", "pdftoppm"),
		RateLimitRPS:    getEnvFloat("RATE_LIMIT_RPS", 0.5),
		RateLimitBurst:  getEnvInt("RATE_LIMIT_BURST", 5),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		ReportStore:     normalizeStoreType(getEnv("REPORT_STORE", "none")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
	}
}

// Validate reports configuration that prevents assessments from running.
func (c Config) Validate() error {
	if strings.TrimSpace(c.GenAIAPIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			log.Printf("config: failed to load %s: %v", path, err)
		}
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: %s invalid int %q, using %d", key, raw, def)
		return def
	}
	return val
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config: %s invalid float %q, using %v", key, raw, def)
		return def
	}
	return val
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "local":
		return "local"
	default:
		return "none"
	}
}
