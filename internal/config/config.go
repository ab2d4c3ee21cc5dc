package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mind-engage/worksheets/internal/llm"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode      Mode
	HTTPAddr  string
	PublicURL string

	DBDriver string
	DBDSN    string

	BlobDriver     string // fs|minio
	BlobBasePath   string // fs root, or key prefix for minio
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	AuthHMACSecret string
	TokenTTL       time.Duration

	CORSOrigins []string

	LogLevel string
	LogFile  string // empty logs to stdout only

	LLM llm.Config

	FreeMonthlyGenerations int // 0 disables the quota
	RateLimitPerMinute     int

	PDFPageSize string // A4|Letter
	PDFMarginMM float64

	MaxMarkupBytes int
}

// FromEnv reads configuration from the environment, layered over an
// optional YAML file named by CONFIG_FILE.
func FromEnv() (Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	mode := Mode(v.GetString("MODE"))
	corsDef := "http://localhost:3000,http://localhost:5173"
	if mode == ModeOnline {
		corsDef = strings.TrimSuffix(v.GetString("PUBLIC_URL"), "/")
	}

	lc := llm.DefaultConfig()
	lc.Provider = v.GetString("LLM_PROVIDER")
	lc.Anthropic.APIKey = v.GetString("ANTHROPIC_API_KEY")
	lc.Anthropic.Model = strOr(v.GetString("ANTHROPIC_MODEL"), lc.Anthropic.Model)
	lc.OpenAI.APIKey = v.GetString("OPENAI_API_KEY")
	lc.OpenAI.Model = strOr(v.GetString("OPENAI_MODEL"), lc.OpenAI.Model)
	lc.OpenAI.BaseURL = v.GetString("OPENAI_BASE_URL")
	lc.OpenRouter.APIKey = v.GetString("OPENROUTER_API_KEY")
	lc.OpenRouter.Model = strOr(v.GetString("OPENROUTER_MODEL"), lc.OpenRouter.Model)
	lc.Gemini.APIKey = v.GetString("GEMINI_API_KEY")
	lc.Gemini.Model = strOr(v.GetString("GEMINI_MODEL"), lc.Gemini.Model)
	lc.Timeout = v.GetDuration("LLM_TIMEOUT")

	cfg := Config{
		Mode:      mode,
		HTTPAddr:  v.GetString("HTTP_ADDR"),
		PublicURL: strings.TrimSuffix(v.GetString("PUBLIC_URL"), "/"),

		DBDriver: v.GetString("DB_DRIVER"),
		DBDSN:    v.GetString("DB_DSN"),

		BlobDriver:     v.GetString("BLOB_DRIVER"),
		BlobBasePath:   v.GetString("BLOB_BASE_PATH"),
		MinioEndpoint:  v.GetString("MINIO_ENDPOINT"),
		MinioAccessKey: v.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey: v.GetString("MINIO_SECRET_KEY"),
		MinioBucket:    v.GetString("MINIO_BUCKET"),
		MinioUseSSL:    v.GetBool("MINIO_USE_SSL"),

		AuthHMACSecret: v.GetString("AUTH_HMAC_SECRET"),
		TokenTTL:       v.GetDuration("TOKEN_TTL"),

		CORSOrigins: splitCSV(strOr(v.GetString("CORS_ORIGINS"), corsDef)),

		LogLevel: v.GetString("LOG_LEVEL"),
		LogFile:  v.GetString("LOG_FILE"),

		LLM: lc,

		FreeMonthlyGenerations: v.GetInt("FREE_MONTHLY_GENERATIONS"),
		RateLimitPerMinute:     v.GetInt("RATE_LIMIT_PER_MINUTE"),

		PDFPageSize: v.GetString("PDF_PAGE_SIZE"),
		PDFMarginMM: v.GetFloat64("PDF_MARGIN_MM"),

		MaxMarkupBytes: v.GetInt("MAX_MARKUP_BYTES"),
	}
	return cfg, cfg.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("MODE", string(ModeOffline))
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("PUBLIC_URL", "http://localhost:8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("BLOB_DRIVER", "fs")
	v.SetDefault("BLOB_BASE_PATH", "./data")
	v.SetDefault("MINIO_BUCKET", "worksheets")
	v.SetDefault("AUTH_HMAC_SECRET", "dev-secret-change-me")
	v.SetDefault("TOKEN_TTL", "12h")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LLM_PROVIDER", "mock")
	v.SetDefault("LLM_TIMEOUT", "90s")
	v.SetDefault("FREE_MONTHLY_GENERATIONS", 10)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 60)
	v.SetDefault("PDF_PAGE_SIZE", "A4")
	v.SetDefault("PDF_MARGIN_MM", 15.0)
	v.SetDefault("MAX_MARKUP_BYTES", 2<<20)
}

// Validate rejects settings that would only fail later at first use.
func (c Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	}
	switch c.BlobDriver {
	case "fs":
	case "minio":
		if c.MinioEndpoint == "" {
			return fmt.Errorf("MINIO_ENDPOINT is required when BLOB_DRIVER=minio")
		}
	default:
		return fmt.Errorf("BLOB_DRIVER must be fs or minio, got %q", c.BlobDriver)
	}
	if c.Mode == ModeOnline && len(c.AuthHMACSecret) < 32 {
		return fmt.Errorf("AUTH_HMAC_SECRET is too short (%d chars), must be at least 32 in online mode", len(c.AuthHMACSecret))
	}
	switch strings.ToLower(c.PDFPageSize) {
	case "a4", "letter":
	default:
		return fmt.Errorf("PDF_PAGE_SIZE must be A4 or Letter, got %q", c.PDFPageSize)
	}
	if c.MaxMarkupBytes <= 0 {
		return fmt.Errorf("MAX_MARKUP_BYTES must be positive")
	}
	return c.LLM.Validate()
}

func strOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
