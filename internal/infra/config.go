package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Persistence modes.
const (
	PersistencePostgres  = "postgres"
	PersistenceSQLite    = "sqlite"
	PersistenceStateless = "stateless"
)

// Job dispatch modes.
const (
	DispatchInline = "inline"
	DispatchQueue  = "queue"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv          string
	Port            string
	PersistenceMode string
	DatabaseURL     string
	SQLitePath      string
	StoragePath     string

	DetectURL          string
	SegmentURL         string
	ConditionURL       string
	GenerateURL        string
	SegmentRefineEdges bool

	ConditionProvider string
	AnalyzerProvider  string
	IntentProvider    string
	GeminiAPIKey      string
	GeminiModel       string

	JobDispatch        string
	JobConcurrency     int
	WorkerPollInterval time.Duration

	CollaboratorTimeout time.Duration
	GenerationTimeout   time.Duration

	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	ShutdownTimeout    time.Duration
	RateLimitPerMin    int
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		SQLitePath:          getEnv("SQLITE_PATH", "artistry.db"),
		StoragePath:         os.Getenv("STORAGE_PATH"),
		DetectURL:           os.Getenv("DETECT_URL"),
		SegmentURL:          os.Getenv("SEGMENT_URL"),
		ConditionURL:        os.Getenv("CONDITION_URL"),
		GenerateURL:         os.Getenv("GENERATE_URL"),
		SegmentRefineEdges:  getEnvBool("SEGMENT_REFINE_EDGES", true),
		ConditionProvider:   strings.ToLower(getEnv("CONDITION_PROVIDER", "http")),
		AnalyzerProvider:    strings.ToLower(getEnv("ANALYZER_PROVIDER", "gemini")),
		IntentProvider:      strings.ToLower(getEnv("INTENT_PROVIDER", "keyword")),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		JobDispatch:         strings.ToLower(getEnv("JOB_DISPATCH", DispatchInline)),
		JobConcurrency:      getEnvInt("JOB_CONCURRENCY", 2),
		WorkerPollInterval:  time.Millisecond * time.Duration(getEnvInt("WORKER_POLL_INTERVAL_MS", 2000)),
		CollaboratorTimeout: time.Second * time.Duration(getEnvInt("COLLABORATOR_TIMEOUT_SECONDS", 60)),
		GenerationTimeout:   time.Second * time.Duration(getEnvInt("GENERATION_TIMEOUT_SECONDS", 120)),
		HTTPReadTimeout:     time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout:    time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 600)),
		HTTPIdleTimeout:     time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		ShutdownTimeout:     time.Second * time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 30)),
		RateLimitPerMin:     getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CORSAllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
	}

	mode := strings.ToLower(strings.TrimSpace(os.Getenv("PERSISTENCE_MODE")))
	if mode == "" {
		mode = PersistenceStateless
		if cfg.DatabaseURL != "" {
			mode = PersistencePostgres
		}
	}
	cfg.PersistenceMode = mode

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.PersistenceMode {
	case PersistencePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when PERSISTENCE_MODE=postgres")
		}
	case PersistenceSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when PERSISTENCE_MODE=sqlite")
		}
	case PersistenceStateless:
	default:
		return fmt.Errorf("unsupported PERSISTENCE_MODE %q", c.PersistenceMode)
	}

	switch c.JobDispatch {
	case DispatchInline:
	case DispatchQueue:
		if c.PersistenceMode == PersistenceStateless {
			return fmt.Errorf("JOB_DISPATCH=queue needs a persistence mode")
		}
	default:
		return fmt.Errorf("unsupported JOB_DISPATCH %q", c.JobDispatch)
	}

	if err := oneOf("CONDITION_PROVIDER", c.ConditionProvider, "http", "gemini"); err != nil {
		return err
	}
	if err := oneOf("ANALYZER_PROVIDER", c.AnalyzerProvider, "gemini", "static"); err != nil {
		return err
	}
	if err := oneOf("INTENT_PROVIDER", c.IntentProvider, "keyword", "gemini"); err != nil {
		return err
	}
	if c.JobConcurrency < 1 {
		c.JobConcurrency = 1
	}
	return nil
}

// Stateless reports whether the service runs without a store.
func (c *Config) Stateless() bool {
	return c.PersistenceMode == PersistenceStateless
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("unsupported %s %q (want one of %s)", key, value, strings.Join(allowed, ", "))
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
