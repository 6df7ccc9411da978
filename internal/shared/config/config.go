package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	ExposeErrors    bool

	DatabaseURL   string
	DBAutoMigrate bool

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	LLMProvider    string
	LLMModel       string
	LLMTemperature float32
	LLMTimeout     time.Duration
	LLMJSONMode    bool
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	GeminiAPIKey   string
	GeminiBaseURL  string

	MaxUploadMB int
}

// fileConfig mirrors the optional TOML config file.
type fileConfig struct {
	Server struct {
		Port             string   `toml:"port"`
		Env              string   `toml:"env"`
		CORSAllowOrigins []string `toml:"cors_allow_origins"`
		ExposeErrors     *bool    `toml:"expose_errors"`
	} `toml:"server"`
	Database struct {
		URL         string `toml:"url"`
		AutoMigrate *bool  `toml:"auto_migrate"`
	} `toml:"database"`
	Storage struct {
		Type     string `toml:"type"`
		LocalDir string `toml:"local_dir"`
		Region   string `toml:"region"`
		Bucket   string `toml:"bucket"`
		Prefix   string `toml:"prefix"`
		KMSKeyID string `toml:"kms_key_id"`
	} `toml:"storage"`
	LLM struct {
		Provider       string   `toml:"provider"`
		Model          string   `toml:"model"`
		Temperature    *float64 `toml:"temperature"`
		TimeoutSeconds int      `toml:"timeout_seconds"`
		JSONMode       *bool    `toml:"json_mode"`
		OpenAIBaseURL  string   `toml:"openai_base_url"`
		GeminiBaseURL  string   `toml:"gemini_base_url"`
	} `toml:"llm"`
	Upload struct {
		MaxMB int `toml:"max_mb"`
	} `toml:"upload"`
}

// Load reads configuration from an optional TOML file, .env files and the
// environment, in increasing order of precedence.
func Load() Config {
	// Best-effort load of local env files for dev convenience. Existing
	// environment variables are never overwritten.
	loadEnvFiles(".env", "cmd/.env")

	cfg := defaults()

	path := getEnv("CONFIG_FILE", "config.toml")
	fileExpose, err := loadFile(path, &cfg)
	if err != nil {
		log.Printf("config: %v", err)
	}

	envExpose := applyEnv(&cfg)
	if !fileExpose && !envExpose {
		cfg.ExposeErrors = cfg.Env == "dev" || cfg.Env == "local"
	}
	if strings.TrimSpace(cfg.LLMModel) == "" {
		cfg.LLMModel = DefaultModel(cfg.LLMProvider)
	}

	if cfg.Env == "production" && cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}
	return cfg
}

// DefaultModel is the model used for provider when LLM_MODEL is not set.
func DefaultModel(provider string) string {
	switch provider {
	case "gemini":
		return "gemini-2.5-flash"
	case "placeholder":
		return ""
	default:
		return "gpt-4"
	}
}

// MaxUploadBytes returns the upload ceiling in bytes.
func (c Config) MaxUploadBytes() int64 {
	if c.MaxUploadMB <= 0 {
		return 1 << 20
	}
	return int64(c.MaxUploadMB) << 20
}

func defaults() Config {
	return Config{
		Port:            "8080",
		Env:             "dev",
		CORSAllowOrigin: []string{"http://localhost:3000"},
		ObjectStoreType: "none",
		LocalStoreDir:   "./data",
		LLMProvider:     "openai",
		LLMTemperature:  0.5,
		MaxUploadMB:     1,
	}
}

func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			log.Printf("config: load %s: %v", path, err)
		}
	}
}

// loadFile overlays values from the TOML file at path and reports whether the
// file set expose_errors. A missing file is not an error.
func loadFile(path string, cfg *Config) (bool, error) {
	if strings.TrimSpace(path) == "" {
		return false, nil
	}
	if _, err := os.Stat(path); err != nil {
		return false, nil
	}

	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return false, fmt.Errorf("decode config file %s: %w", path, err)
	}

	setString(&cfg.Port, fc.Server.Port)
	if fc.Server.Env != "" {
		cfg.Env = normalizeEnv(fc.Server.Env)
	}
	if len(fc.Server.CORSAllowOrigins) > 0 {
		cfg.CORSAllowOrigin = fc.Server.CORSAllowOrigins
	}
	if fc.Server.ExposeErrors != nil {
		cfg.ExposeErrors = *fc.Server.ExposeErrors
	}

	setString(&cfg.DatabaseURL, fc.Database.URL)
	if fc.Database.AutoMigrate != nil {
		cfg.DBAutoMigrate = *fc.Database.AutoMigrate
	}

	if fc.Storage.Type != "" {
		cfg.ObjectStoreType = normalizeStoreType(fc.Storage.Type)
	}
	setString(&cfg.LocalStoreDir, fc.Storage.LocalDir)
	setString(&cfg.AWSRegion, fc.Storage.Region)
	setString(&cfg.S3Bucket, fc.Storage.Bucket)
	setString(&cfg.S3Prefix, fc.Storage.Prefix)
	setString(&cfg.SSEKMSKeyID, fc.Storage.KMSKeyID)

	if fc.LLM.Provider != "" {
		cfg.LLMProvider = normalizeProvider(fc.LLM.Provider)
	}
	setString(&cfg.LLMModel, fc.LLM.Model)
	if fc.LLM.Temperature != nil {
		cfg.LLMTemperature = float32(*fc.LLM.Temperature)
	}
	if fc.LLM.TimeoutSeconds > 0 {
		cfg.LLMTimeout = time.Duration(fc.LLM.TimeoutSeconds) * time.Second
	}
	if fc.LLM.JSONMode != nil {
		cfg.LLMJSONMode = *fc.LLM.JSONMode
	}
	setString(&cfg.OpenAIBaseURL, fc.LLM.OpenAIBaseURL)
	setString(&cfg.GeminiBaseURL, fc.LLM.GeminiBaseURL)

	if fc.Upload.MaxMB > 0 {
		cfg.MaxUploadMB = fc.Upload.MaxMB
	}
	return fc.Server.ExposeErrors != nil, nil
}

// applyEnv overlays environment variables and reports whether EXPOSE_ERRORS was set.
func applyEnv(cfg *Config) bool {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Env = normalizeEnv(getEnv("ENV", cfg.Env))
	if raw := os.Getenv("CORS_ALLOW_ORIGINS"); raw != "" {
		cfg.CORSAllowOrigin = splitAndTrim(raw)
	}

	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.DBAutoMigrate = getEnvBool("DB_AUTO_MIGRATE", cfg.DBAutoMigrate)

	cfg.ObjectStoreType = normalizeStoreType(getEnv("OBJECT_STORE", cfg.ObjectStoreType))
	cfg.LocalStoreDir = getEnv("LOCAL_STORE_DIR", cfg.LocalStoreDir)
	cfg.AWSRegion = getEnv("AWS_REGION", cfg.AWSRegion)
	cfg.S3Bucket = getEnv("S3_BUCKET", cfg.S3Bucket)
	cfg.S3Prefix = getEnv("S3_PREFIX", cfg.S3Prefix)
	cfg.SSEKMSKeyID = getEnv("SSE_KMS_KEY_ID", cfg.SSEKMSKeyID)

	cfg.LLMProvider = normalizeProvider(getEnv("LLM_PROVIDER", cfg.LLMProvider))
	cfg.LLMModel = getEnv("LLM_MODEL", cfg.LLMModel)
	if raw := strings.TrimSpace(os.Getenv("LLM_TEMPERATURE")); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 32); err == nil {
			cfg.LLMTemperature = float32(parsed)
		} else {
			log.Printf("config: LLM_TEMPERATURE invalid float: %v", err)
		}
	}
	if secs, ok := readEnvInt("LLM_TIMEOUT_SECONDS"); ok && secs >= 0 {
		cfg.LLMTimeout = time.Duration(secs) * time.Second
	}
	cfg.LLMJSONMode = getEnvBool("LLM_JSON_MODE", cfg.LLMJSONMode)
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiBaseURL = getEnv("GEMINI_BASE_URL", cfg.GeminiBaseURL)

	if mb, ok := readEnvInt("MAX_UPLOAD_MB"); ok && mb > 0 {
		cfg.MaxUploadMB = mb
	}

	exposeSet := strings.TrimSpace(os.Getenv("EXPOSE_ERRORS")) != ""
	cfg.ExposeErrors = getEnvBool("EXPOSE_ERRORS", cfg.ExposeErrors)
	return exposeSet
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("config: %s invalid bool: %v", key, err)
		return def
	}
	return val
}

func readEnvInt(key string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: %s invalid int: %v", key, err)
		return 0, false
	}
	return val, true
}

func setString(dst *string, val string) {
	if strings.TrimSpace(val) != "" {
		*dst = strings.TrimSpace(val)
	}
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

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "gemini", "google":
		return "gemini"
	case "placeholder", "none":
		return "placeholder"
	default:
		return "openai"
	}
}
