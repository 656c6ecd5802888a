package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appconfig "github.com/snsupratim/pdfrag/config"
	"github.com/snsupratim/pdfrag/internal/domain"
	"github.com/snsupratim/pdfrag/internal/ingest"
	"github.com/snsupratim/pdfrag/internal/rag"
	"github.com/snsupratim/pdfrag/internal/session"
	"github.com/snsupratim/pdfrag/internal/store"
	"github.com/snsupratim/pdfrag/internal/store/memory"
	"github.com/snsupratim/pdfrag/provider"
)

// Run wires the service and serves HTTP until the process exits.
func Run(cfg *appconfig.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, HTTPError{Error: msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Cookie"},
		AllowCredentials: true,
	}))

	e.GET("/check", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "running"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()

	var (
		docs     domain.DocumentStore
		index    domain.VectorIndex
		users    domain.UserStore
		sessions session.Store
	)
	switch cfg.Storage.Driver {
	case "postgres":
		dsn, err := cfg.Storage.Postgres.DSN()
		if err != nil {
			return err
		}
		st, err := store.NewWithDSN(ctx, dsn)
		if err != nil {
			return err
		}
		docs, index, users = st, st, st

		rs, err := session.NewRedisStore(cfg.Storage.Redis.Addr(), cfg.Storage.Redis.Password, cfg.Storage.Redis.DB)
		if err != nil {
			return err
		}
		sessions = rs
	case "memory":
		ms := memory.New()
		docs, index, users = ms, ms, ms
		sessions = session.NewInMemoryStore()
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	llm, err := provider.NewProvider(provider.Client(cfg.LLM.Provider), provider.Options{
		APIKey:          cfg.LLM.APIKey,
		CompletionModel: cfg.LLM.CompletionModel,
		EmbeddingModel:  cfg.LLM.EmbeddingModel,
		Temperature:     cfg.LLM.Temperature,
		MaxTokens:       cfg.LLM.MaxTokens,
		Timeout:         cfg.LLM.Timeout,
	})
	if err != nil {
		return err
	}

	chunker := ingest.NewChunker(
		ingest.WithChunkSize(cfg.Ingest.ChunkSize),
		ingest.WithOverlap(cfg.Ingest.ChunkOverlap),
	)
	ingestor := ingest.NewIngestor(docs, llm, chunker, cfg.LLM.Timeout, nil)
	ragSvc := rag.NewService(llm, docs, index, cfg.Retrieval.TopK, cfg.LLM.Timeout, nil)

	secret := []byte(cfg.General.JWTSecret)
	auth := &AuthHandler{Users: users, Sessions: sessions, Secret: secret, TokenTTL: cfg.General.TokenTTL}
	auth.Register(e.Group("/auth"))

	protect := func(next echo.HandlerFunc) echo.HandlerFunc { return withAuth(next, secret, sessions) }

	dh := &DocsHandler{Ingestor: ingestor, Store: docs, MaxUploadBytes: cfg.Ingest.MaxUploadBytes}
	dh.Register(e.Group("/docs", protect))

	ch := &ChatHandler{RAG: ragSvc}
	ch.Register(e.Group("", protect))

	addr := cfg.Server.Address
	if addr == "" {
		addr = ":8000"
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}
