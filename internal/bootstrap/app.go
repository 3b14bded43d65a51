package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"ats-expert/internal/assessments"
	"ats-expert/internal/convert"
	"ats-expert/internal/llm"
	"ats-expert/internal/llm/gemini"
	"ats-expert/internal/services/health"
	"ats-expert/internal/shared/config"
	"ats-expert/internal/shared/server"
	"ats-expert/internal/shared/server/middleware"
	"ats-expert/internal/shared/storage/db"
	"ats-expert/internal/shared/storage/object"
	localstore "ats-expert/internal/shared/storage/object/local"
	s3store "ats-expert/internal/shared/storage/object/s3"
	"ats-expert/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config            config.Config
	Router            *gin.Engine
	DB                *sql.DB
	Reports           object.ObjectStore
	AssessmentRepo    assessments.Repo
	AssessmentService *assessments.Service
	AssessmentHandler *assessments.Handler
	Health            *health.Service
}

// newLLMClient is swapped in tests so Build never dials the real API.
var newLLMClient = func(ctx context.Context, cfg config.Config) (llm.Client, error) {
	return gemini.NewClient(ctx, cfg.GenAIAPIKey, cfg.GenAIModel, cfg.GenAITimeout)
}

// Build prepares dependencies and wires routes. A missing API key is not an
// error: the page still renders and reports the problem on every submission.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	reports, err := buildReportStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Reports: reports,
	}

	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            app.Config,
		AssessmentHandler: app.AssessmentHandler,
		Health:            app.Health,
		Limiter:           middleware.NewRateLimiter(nil),
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		telemetry.Info("bootstrap.db", map[string]any{"mode": "memory"})
		return nil, nil
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err == nil {
		var version int64
		version, err = db.Migrate(ctx, sqlDB)
		if err != nil {
			_ = sqlDB.Close()
			sqlDB = nil
		} else {
			telemetry.Info("bootstrap.db", map[string]any{"mode": "postgres", "schema_version": version})
		}
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db", map[string]any{"mode": "memory", "error": err})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildReportStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ReportStore {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "local":
		return localstore.New(cfg.LocalStoreDir), nil
	default:
		return nil, nil
	}
}

func buildServices(ctx context.Context, app *App) error {
	cfg := app.Config

	var repo assessments.Repo
	if app.DB != nil {
		repo = &assessments.PGRepo{DB: app.DB}
	} else {
		repo = assessments.NewMemoryRepo()
	}

	var (
		client    llm.Client = llm.PlaceholderClient{}
		configErr error
	)
	if err := cfg.Validate(); err != nil {
		configErr = err
	} else {
		c, err := newLLMClient(ctx, cfg)
		if err != nil {
			return fmt.Errorf("build model client: %w", err)
		}
		client = c
	}

	svc := &assessments.Service{
		Converter: convert.New(convert.NewPdftoppm(cfg.PdftoppmPath, cfg.RenderDPI), cfg.MaxUploadBytes, cfg.JPEGQuality),
		LLM:       client,
		Repo:      repo,
		Reports:   app.Reports,
		Model:     modelName(cfg),
		ConfigErr: configErr,
	}

	checks := map[string]health.Check{
		"configured": func(context.Context) error { return svc.Ready() },
	}
	if app.DB != nil {
		checks["database"] = func(ctx context.Context) error { return app.DB.PingContext(ctx) }
	}

	app.AssessmentRepo = repo
	app.AssessmentService = svc
	app.AssessmentHandler = assessments.NewHandler(svc, cfg.MaxUploadBytes)
	app.Health = health.NewService(checks)
	return nil
}

func modelName(cfg config.Config) string {
	if m := strings.TrimSpace(cfg.GenAIModel); m != "" {
		return m
	}
	return gemini.DefaultModel
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
