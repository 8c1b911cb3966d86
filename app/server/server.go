package server

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"intellidocs/app/api"
	"intellidocs/app/middleware"
	"intellidocs/model"
	"intellidocs/obs"
	"intellidocs/store"
	"intellidocs/types"

	"github.com/gofiber/fiber/v2"
)

var config = fiber.Config{
	ErrorHandler: api.ErrorHandler,
	BodyLimit:    64 * 1024 * 1024,
}

type Server struct {
	listenAddr string
	logger     *slog.Logger
}

func NewServer(addr string) *Server {
	return &Server{
		listenAddr: addr,
		logger:     slog.Default(),
	}
}

func (s *Server) Stop() {
	s.logger.Info("server stopped")
}

func (s *Server) Run() {
	ctx := context.Background()
	cfg := LoadConfig()

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatal("error to create upload directory", err)
		return
	}

	embedder := model.NewHashedEmbedder(cfg.EmbeddingDim)

	// Backend is chosen once here; everything downstream depends only on
	// the VectorStorer interface.
	var vstore store.VectorStorer
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL, embedder)
		if err != nil {
			log.Fatal("error to connect to Postgres database", err)
			return
		}
		if err := pg.Init(ctx); err != nil {
			log.Fatal("error to create tables", err)
			return
		}
		vstore = pg
	} else {
		s.logger.Info("DATABASE_URL not set, using in-memory vector store")
		vstore = store.NewMemoryStore(embedder)
	}

	var (
		docs    = store.NewDocumentStore()
		history = store.NewQAHistory(0)
		events  = obs.NewRecorder(cfg.EventLogPath)

		app             = fiber.New(config)
		checkHandler    = api.NewCheckHandler()
		documentHandler = api.NewDocumentHandler(docs, vstore, embedder, events, cfg)
		qaHandler       = api.NewQAHandler(vstore, history, events)
		mcpHandler      = api.NewMCPHandler(vstore)

		check = app.Group("/check")
		apiv1 = app.Group("/api/v1")
		mcp   = app.Group("/mcp")
	)

	app.Use(middleware.RequestLogger(s.logger))

	check.Get("/healthy", checkHandler.HandleHealthy)

	apiv1.Post("/documents", documentHandler.HandleUpload)
	apiv1.Get("/documents/:id/summary", documentHandler.HandleGetSummary)
	apiv1.Post("/documents/:id/summary", documentHandler.HandleSaveSummary)
	apiv1.Post("/documents/:id/summary/validate", documentHandler.HandleValidateSummary)
	apiv1.Post("/documents/:id/summarize", documentHandler.HandleSummarize)
	apiv1.Get("/documents/:id/summary/versions", documentHandler.HandleVersions)
	apiv1.Post("/documents/:id/summary/rollback", documentHandler.HandleRollback)
	apiv1.Get("/documents/:id/entities", documentHandler.HandleEntities)
	apiv1.Get("/documents/:id/export/summary.md", documentHandler.HandleExportMarkdown)
	apiv1.Get("/documents/:id/export/entities.json", documentHandler.HandleExportEntities)

	apiv1.Post("/qa", qaHandler.HandleQA)
	apiv1.Get("/qa/history", qaHandler.HandleHistory)

	mcp.Get("/search", mcpHandler.HandleSearch)

	if err := app.Listen(s.listenAddr); err != nil {
		s.logger.Error("error to start server", "error", err.Error())
	}
}

// LoadConfig collects service settings from the environment.
func LoadConfig() types.Config {
	return types.Config{
		ListenAddr:     envStr("SERVER_ADDR", ":8000"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		UploadDir:      envStr("UPLOAD_DIR", "data/uploads"),
		EventLogPath:   envStr("EVENT_LOG_PATH", "data/logs/events.jsonl"),
		EmbeddingDim:   envInt("EMBEDDING_DIM", model.DefaultEmbeddingDim),
		ChunkSize:      envInt("CHUNK_SIZE", model.DefaultChunkSize),
		ChunkOverlap:   envInt("CHUNK_OVERLAP", model.DefaultChunkOverlap),
		SummaryWords:   envInt("SUMMARY_WORDS_DEFAULT", model.DefaultSummaryWords),
		MonitoringTime: envDuration("MONITORING_TIME", time.Second),
		SourceDir:      envStr("LOADER_SOURCE_DIR", "data/inbox"),
		ArchiveDir:     envStr("LOADER_ARCHIVE_DIR", "data/archive"),
		BadDir:         envStr("LOADER_BAD_DIR", "data/bad"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
