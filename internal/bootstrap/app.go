package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-feedback/internal/extract"
	"resume-feedback/internal/feedback"
	"resume-feedback/internal/llm"
	"resume-feedback/internal/llm/gemini"
	"resume-feedback/internal/llm/openai"
	"resume-feedback/internal/services/health"
	"resume-feedback/internal/shared/config"
	"resume-feedback/internal/shared/server"
	"resume-feedback/internal/shared/storage/db"
	"resume-feedback/internal/shared/storage/object"
	localstore "resume-feedback/internal/shared/storage/object/local"
	s3store "resume-feedback/internal/shared/storage/object/s3"
	"resume-feedback/internal/shared/telemetry"
	"resume-feedback/internal/upload"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	Store           object.ObjectStore
	LLM             llm.Client
	FeedbackRepo    feedback.Repo
	FeedbackService *feedback.Service
	FeedbackHandler *feedback.Handler
}

// Close releases the database pool, if any.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// Build prepares shared dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app, err := assemble(ctx, cfg, sqlDB)
	if err != nil {
		releaseDB(sqlDB)
		return nil, err
	}
	return app, nil
}

func assemble(ctx context.Context, cfg config.Config, sqlDB *sql.DB) (*App, error) {
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	llmClient, err := buildLLM(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var repo feedback.Repo
	if sqlDB != nil {
		repo = &feedback.PGRepo{DB: sqlDB}
	} else {
		repo = feedback.NewMemoryRepo()
	}

	svc := &feedback.Service{
		Extractor: extract.Extractor{},
		Generator: &feedback.Generator{
			LLM:         llmClient,
			Model:       cfg.LLMModel,
			Temperature: cfg.LLMTemperature,
			JSONMode:    cfg.LLMJSONMode,
		},
		Repo:  repo,
		Store: store,
	}
	handler := feedback.NewHandler(svc, upload.DefaultRules(cfg.MaxUploadBytes()), cfg.ExposeErrors)

	app := &App{
		Config:          cfg,
		DB:              sqlDB,
		Store:           store,
		LLM:             llmClient,
		FeedbackRepo:    repo,
		FeedbackService: svc,
		FeedbackHandler: handler,
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Env:             cfg.Env,
		CORSAllowOrigin: cfg.CORSAllowOrigin,
		Health:          health.NewService(sqlDB),
		Feedback:        handler,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"llm_provider": cfg.LLMProvider,
		"llm_model":    cfg.LLMModel,
		"object_store": cfg.ObjectStoreType,
		"database":     sqlDB != nil,
		"max_bytes":    cfg.MaxUploadBytes(),
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repo", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	profile := db.CurrentProfile()
	opts := db.OptionsFromEnv(db.DefaultOptions(profile))
	connect := connectDB
	if profile == db.ProfileLambda {
		connect = db.GetSingleton
	}
	sqlDB, err := connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repo", map[string]any{"reason": "connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}

	if cfg.DBAutoMigrate {
		migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := db.RunMigrations(migrateCtx, sqlDB); err != nil {
			releaseDB(sqlDB)
			return nil, err
		}
	}
	return sqlDB, nil
}

var connectDB = db.Connect

// releaseDB closes a pool opened by a failed Build. The Lambda pool is shared
// across invocations and stays open.
func releaseDB(sqlDB *sql.DB) {
	if sqlDB == nil || db.CurrentProfile() == db.ProfileLambda {
		return
	}
	if err := sqlDB.Close(); err != nil {
		telemetry.Warn("bootstrap.db_close_failed", map[string]any{"error": err.Error()})
	}
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, s3store.Options{
			Region:   cfg.AWSRegion,
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			KMSKeyID: cfg.SSEKMSKeyID,
		})
	case "local":
		return localstore.New(cfg.LocalStoreDir), nil
	default:
		return nil, nil
	}
}

func buildLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	var (
		client llm.Client
		err    error
	)
	switch cfg.LLMProvider {
	case "gemini":
		client, err = gemini.NewClient(ctx, gemini.Options{
			APIKey:  cfg.GeminiAPIKey,
			BaseURL: cfg.GeminiBaseURL,
			Timeout: cfg.LLMTimeout,
		})
	case "placeholder":
		return llm.PlaceholderClient{}, nil
	default:
		client, err = openai.NewClient(openai.Options{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.LLMTimeout,
		})
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.llm_placeholder", map[string]any{
				"provider": cfg.LLMProvider,
				"error":    err.Error(),
			})
			return llm.PlaceholderClient{}, nil
		}
		return nil, err
	}
	return client, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
