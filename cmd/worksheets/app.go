package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	api "github.com/mind-engage/worksheets/internal/api/http"
	auth "github.com/mind-engage/worksheets/internal/auth/middleware"
	"github.com/mind-engage/worksheets/internal/config"
	"github.com/mind-engage/worksheets/internal/db"
	"github.com/mind-engage/worksheets/internal/generate"
	"github.com/mind-engage/worksheets/internal/grading"
	"github.com/mind-engage/worksheets/internal/llm"
	"github.com/mind-engage/worksheets/internal/metrics"
	"github.com/mind-engage/worksheets/internal/ratelimit"
	"github.com/mind-engage/worksheets/internal/render"
	"github.com/mind-engage/worksheets/internal/storage"
	syncx "github.com/mind-engage/worksheets/internal/sync"
	"github.com/mind-engage/worksheets/internal/worksheet"
)

// app holds the wired server components.
type app struct {
	db       *sql.DB
	handler  http.Handler
	limiters []*ratelimit.Limiter
}

func buildApp(ctx context.Context, cfg config.Config, log *zap.Logger) (*app, error) {
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	blobs, err := storage.Open(openCtx, storage.Options{
		Driver:         cfg.BlobDriver,
		BasePath:       cfg.BlobBasePath,
		MinioEndpoint:  cfg.MinioEndpoint,
		MinioAccessKey: cfg.MinioAccessKey,
		MinioSecretKey: cfg.MinioSecretKey,
		MinioBucket:    cfg.MinioBucket,
		MinioUseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open blob store: %w", err)
	}

	lc := cfg.LLM
	if lc.Provider == "mock" {
		lc.MockContent = generate.SampleDraft()
	}
	provider, err := llm.NewProvider(ctx, lc, log.Named("llm"))
	if err != nil {
		conn.Close()
		return nil, err
	}

	metrics.Init()
	engine := grading.NewEngine(grading.WithMaxMarkupBytes(cfg.MaxMarkupBytes))
	svc := worksheet.NewService(
		worksheet.NewSQLStore(conn),
		generate.New(provider, engine, generate.WithTimeout(cfg.LLM.Timeout)),
		engine,
		worksheet.WithEvents(syncx.NewEventRepo(conn)),
		worksheet.WithLogger(log.Named("worksheet")),
		worksheet.WithMonthlyQuota(cfg.FreeMonthlyGenerations),
	)
	pdfs := render.NewCache(
		render.NewPDFRenderer(render.Config{PageSize: cfg.PDFPageSize, MarginsMM: cfg.PDFMarginMM}, engine),
		blobs, log.Named("render"))

	a := &app{
		db: conn,
		limiters: []*ratelimit.Limiter{
			ratelimit.New(cfg.RateLimitPerMinute, time.Minute),
			ratelimit.New(max(cfg.RateLimitPerMinute/10, 1), time.Minute),
		},
	}
	a.handler = api.NewRouter(api.Deps{
		Service:            svc,
		Auth:               auth.NewAuthService(cfg.AuthHMACSecret, cfg.TokenTTL),
		PDF:                pdfs,
		DB:                 conn,
		Log:                log.Named("http"),
		PublicURL:          cfg.PublicURL,
		CORSOrigins:        cfg.CORSOrigins,
		AllowClaimFallback: cfg.Mode == config.ModeOffline,
		ScoreLimiter:       a.limiters[0],
		GenerateLimiter:    a.limiters[1],
	})
	return a, nil
}

func (a *app) Close() error { return a.db.Close() }
