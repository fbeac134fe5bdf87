package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appissues "github.com/bryanwahyu/issuelens/internal/application/issues"

	"github.com/bryanwahyu/issuelens/internal/application"
	appai "github.com/bryanwahyu/issuelens/internal/application/ai"
	"github.com/bryanwahyu/issuelens/internal/config"
	domai "github.com/bryanwahyu/issuelens/internal/domain/ai"
	domain "github.com/bryanwahyu/issuelens/internal/domain/issues"
	"github.com/bryanwahyu/issuelens/internal/infra/ai/groq"
	mysqlp "github.com/bryanwahyu/issuelens/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/issuelens/internal/infra/db/postgres"
	"github.com/bryanwahyu/issuelens/internal/infra/httpserver"
	"github.com/bryanwahyu/issuelens/internal/infra/storage"
	"github.com/bryanwahyu/issuelens/internal/infra/tracker/github"
	"github.com/bryanwahyu/issuelens/internal/logging"
	"github.com/bryanwahyu/issuelens/internal/middleware"
)

func main() {
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		logging.Error("config load error", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Connect the snapshot store, driver per config.
	var db *sql.DB
	var snapshots domain.SnapshotRepository
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err == nil {
			err = postgresp.Migrate(ctx, db)
		}
		if err != nil {
			logging.Error("postgres init error", "error", err)
			os.Exit(1)
		}
		snapshots = postgresp.NewSnapshotRepository(db)
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err == nil {
			err = mysqlp.Migrate(ctx, db)
		}
		if err != nil {
			logging.Error("mysql init error", "error", err)
			os.Exit(1)
		}
		snapshots = mysqlp.NewSnapshotRepository(db)
	}
	defer db.Close()

	source, err := github.NewClient(cfg.GitHub.Token, "")
	if err != nil {
		logging.Error("github client init error", "error", err)
		os.Exit(1)
	}
	if cfg.GitHub.Token == "" {
		logging.Warn("GITHUB_TOKEN not set, anonymous rate limits apply")
	}

	// Analysis stays unconfigured without a key; /analyze reports it as such.
	var backend domai.Client
	if cfg.Groq.APIKey != "" {
		backend = groq.NewClient(cfg.Groq.APIKey, cfg.Groq.Model, "")
	} else {
		logging.Warn("GROQ_API_KEY not set, analysis disabled")
	}

	var archive domain.ArchiveStore
	if cfg.Archive.Enabled {
		store, err := storage.New(ctx,
			cfg.Archive.Endpoint,
			cfg.Archive.Region,
			cfg.Archive.BucketName,
			cfg.Archive.AccessKey,
			cfg.Archive.SecretKey,
			cfg.Archive.UseSSL,
		)
		if err != nil {
			logging.Error("archive store init error", "error", err)
			os.Exit(1)
		}
		archive = store
	}

	svc := &appissues.Service{
		Source:    source,
		Snapshots: snapshots,
		Analyzer:  appai.NewService(backend),
		Archive:   archive,
		Clock:     application.SystemClock{},
	}

	handler := httpserver.NewRouter(svc, httpserver.Options{
		APIKeys:   cfg.Auth.APIKeys,
		RateLimit: 10,
		HealthCheckers: map[string]middleware.HealthChecker{
			"database": &middleware.DatabaseHealthChecker{DB: db},
		},
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // scan and analyze block on remote calls
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logging.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logging.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logging.Error("shutdown error", "error", err)
	}
}
