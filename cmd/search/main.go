// Command search runs C4: the HTTP search and click-feedback API, blending
// personalization from C5's user profile store over C3's search engine.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httphandler "newsfeed/internal/handler/http"
	"newsfeed/internal/handler/http/requestid"
	"newsfeed/internal/infra/adapter/persistence/sqlite"
	"newsfeed/internal/infra/adapter/search/typesense"
	"newsfeed/internal/infra/embedder"
	"newsfeed/internal/repository"
	"newsfeed/internal/usecase/search"
	"newsfeed/pkg/config"
)

func main() {
	logger := initLogger()

	profilePath := config.GetEnvString("PROFILE_DB_PATH", "profiles.db")
	profileDB, err := sqlite.OpenDatabase(profilePath)
	if err != nil {
		logger.Error("failed to open profile database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := profileDB.Close(); err != nil {
			logger.Error("failed to close profile database", slog.Any("error", err))
		}
	}()
	if err := sqlite.MigrateUp(profileDB); err != nil {
		logger.Error("failed to migrate profile database", slog.Any("error", err))
		os.Exit(1)
	}
	profiles := sqlite.NewProfileStore(profileDB)

	engine := typesense.New(typesenseConfigFromEnv())
	emb := embedder.NewHashEmbedder()

	svc := search.NewService(engine, profiles, emb, search.Config{
		BlendBaseWeight: config.GetEnvFloat("BLEND_BASE_WEIGHT", 0.8),
		BlendUserWeight: config.GetEnvFloat("BLEND_USER_WEIGHT", 0.2),
	})

	mux := setupRoutes(svc)
	handler := applyMiddleware(logger, mux)

	addr := fmt.Sprintf(":%d", config.GetEnvInt("SEARCH_PORT", 8080))
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return context.Background() },
	}

	runServer(srv, logger)
}

func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return logger
}

func typesenseConfigFromEnv() typesense.Config {
	return typesense.Config{
		Host:           config.GetEnvString("TYPESENSE_HOST", "localhost"),
		Port:           config.GetEnvInt("TYPESENSE_PORT", 8108),
		Protocol:       config.GetEnvString("TYPESENSE_PROTOCOL", "http"),
		APIKey:         config.GetEnvString("TYPESENSE_API_KEY", ""),
		ConnectTimeout: config.GetEnvDuration("TYPESENSE_CONNECT_TIMEOUT", 2*time.Second),
	}
}

// setupRoutes registers C4's public HTTP surface (§6): search, click
// feedback, health/ready/live probes and the Prometheus endpoint.
func setupRoutes(svc *search.Service) *http.ServeMux {
	var engine repository.SearchEngine = svc.Engine

	mux := http.NewServeMux()
	mux.Handle("GET /search", &httphandler.SearchHandler{Service: svc})
	mux.Handle("POST /click/{user_id}/{doc_id}", &httphandler.ClickHandler{Service: svc})
	mux.Handle("GET /health", &httphandler.HealthHandler{Engine: engine})
	mux.Handle("GET /ready", &httphandler.ReadyHandler{Engine: engine})
	mux.Handle("GET /live", &httphandler.LiveHandler{})
	mux.Handle("GET /metrics", httphandler.MetricsHandler())
	return mux
}

// applyMiddleware wraps the handler with the chain C4 actually needs:
// Recovery catches panics before Logging records the (possibly 500)
// outcome; Metrics and a request timeout wrap the whole thing, with
// request IDs threaded through so Logging/Recover can tag their entries.
// Unlike cmd/api's chain, there is no CORS/CSP/auth layer here — §9's
// dropped teacher dependencies excludes those as out of scope for C4.
func applyMiddleware(logger *slog.Logger, handler http.Handler) http.Handler {
	h := httphandler.Timeout(10 * time.Second)(handler)
	h = httphandler.MetricsMiddleware(h)
	h = httphandler.LimitRequestBody(1 << 20)(h)
	h = httphandler.Recover(logger)(h)
	h = httphandler.Logging(logger)(h)
	h = requestid.Middleware(h)
	return h
}

func runServer(srv *http.Server, logger *slog.Logger) {
	go func() {
		logger.Info("search service starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("search server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down search service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
}
