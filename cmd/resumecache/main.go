package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"

	"github.com/swarajreddy10/Resume-Canvas-sub000/internal/config"
	"github.com/swarajreddy10/Resume-Canvas-sub000/internal/logging"
	"github.com/swarajreddy10/Resume-Canvas-sub000/internal/resume"
	"github.com/swarajreddy10/Resume-Canvas-sub000/pkg/di"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (yaml, json or toml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("resumecache stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	sqldb, err := sql.Open("sqlite3", cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	if err := resume.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	container, err := di.NewContainer(cfg.Cache, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := container.Close(); err != nil {
			logger.Warn("close caches", zap.Error(err))
		}
	}()

	store := resume.NewStore(di.NewCachedRepository(container, resume.NewRepository(db)), logger)
	docs := resume.NewDocuments(container.Documents(), renderText(), logger)
	completions := resume.NewCompletions(container.Completions(), echoCompleter(), logger)

	if err := demo(ctx, store, docs, completions, logger); err != nil {
		return err
	}

	for name, s := range container.Stats() {
		logger.Info("cache stats",
			zap.String("cache", name),
			zap.Int("entries", s.Entries),
			zap.Int64("hits", s.Hits),
			zap.Int64("misses", s.Misses),
			zap.Float64("hit_ratio", s.HitRatio()),
		)
	}

	if !cfg.Metrics.Enabled {
		return nil
	}
	return serveMetrics(ctx, cfg.Metrics.Addr, container, logger)
}

// demo walks one resume through the cached paths: repository reads, PDF
// rendering and section completions.
func demo(ctx context.Context, store *resume.Store, docs *resume.Documents, completions *resume.Completions, logger *zap.Logger) error {
	created, err := store.Create(ctx, &resume.Resume{
		UserID:  "demo-user",
		Title:   "Backend Engineer",
		Slug:    fmt.Sprintf("backend-engineer-%d", time.Now().UnixNano()),
		Content: "Go, Postgres, Kubernetes",
	})
	if err != nil {
		return fmt.Errorf("create resume: %w", err)
	}

	id := created.ID.String()
	for i := 0; i < 2; i++ {
		start := time.Now()
		if _, err := store.Get(ctx, id); err != nil {
			return fmt.Errorf("get resume: %w", err)
		}
		logger.Info("resume read", zap.Int("attempt", i+1), zap.Duration("took", time.Since(start)))
	}

	if _, _, err := store.ListByUser(ctx, created.UserID); err != nil {
		return fmt.Errorf("list resumes: %w", err)
	}

	for i := 0; i < 2; i++ {
		pdf, err := docs.PDF(ctx, created)
		if err != nil {
			return fmt.Errorf("render pdf: %w", err)
		}
		logger.Info("pdf ready", zap.Int("attempt", i+1), zap.Int("bytes", len(pdf)))
	}

	req := resume.CompletionRequest{Model: "demo", Section: "summary", Prompt: created.Content}
	for i := 0; i < 2; i++ {
		text, err := completions.Complete(ctx, req)
		if err != nil {
			return fmt.Errorf("complete: %w", err)
		}
		logger.Info("completion ready", zap.Int("attempt", i+1), zap.String("text", text))
	}

	updated := *created
	updated.Title = "Senior Backend Engineer"
	if _, err := store.Update(ctx, &updated); err != nil {
		return fmt.Errorf("update resume: %w", err)
	}
	return nil
}

func serveMetrics(ctx context.Context, addr string, container *di.Container, logger *zap.Logger) error {
	registry := prometheus.NewRegistry()
	if err := registry.Register(container.Collector()); err != nil {
		return fmt.Errorf("register cache collector: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// renderText stands in for the PDF renderer.
func renderText() resume.Renderer {
	return resume.RendererFunc(func(ctx context.Context, r *resume.Resume) ([]byte, error) {
		time.Sleep(50 * time.Millisecond)
		return []byte(fmt.Sprintf("%%PDF-1.7\n%s\n%s\n", r.Title, r.Content)), nil
	})
}

func echoCompleter() resume.Completer {
	return resume.CompleterFunc(func(ctx context.Context, req resume.CompletionRequest) (string, error) {
		time.Sleep(50 * time.Millisecond)
		return fmt.Sprintf("[%s] %s", req.Section, req.Prompt), nil
	})
}
