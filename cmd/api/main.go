package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ubloom/ubloom/backend/internal/config"
	"github.com/ubloom/ubloom/backend/internal/handler"
	"github.com/ubloom/ubloom/backend/internal/logging"
	"github.com/ubloom/ubloom/backend/internal/metrics"
	"github.com/ubloom/ubloom/backend/internal/service/account"
	"github.com/ubloom/ubloom/backend/internal/service/ai"
	"github.com/ubloom/ubloom/backend/internal/service/goal"
	"github.com/ubloom/ubloom/backend/internal/service/journal"
	"github.com/ubloom/ubloom/backend/internal/service/reflection"
	"github.com/ubloom/ubloom/backend/internal/service/session"
	"github.com/ubloom/ubloom/backend/internal/store/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		logger.Info("no .env file loaded, using system environment variables only", zap.Error(envErr))
	}

	m := metrics.New()

	// The reflection engine keeps serving requests when the model cannot be
	// built; /api/reflect then answers 503.
	var completer reflection.Completer
	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(ctx, cfg.AI, logger)
		if err != nil {
			logger.Error("failed to initialize AI service", zap.Error(err))
		} else {
			completer = aiService
		}
	} else {
		logger.Warn("AI credentials not configured, reflection engine offline",
			zap.String("provider", cfg.AI.Provider))
	}

	policy := reflection.Permissive
	if cfg.AI.StrictSchema {
		policy = reflection.Strict
	}
	reflectionSvc := reflection.NewService(completer, reflection.Options{
		Policy:  policy,
		Logger:  logger,
		Metrics: m,
	})

	deps := handler.Dependencies{
		Logger:         logger,
		Metrics:        m,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		SecureCookie:   cfg.Server.SecureCookie,
		Reflection:     reflectionSvc,
	}

	store, err := sqlite.New(cfg.Database.Path, logger)
	if err != nil {
		logger.Error("failed to open database, account features disabled",
			zap.String("path", cfg.Database.Path), zap.Error(err))
	} else {
		defer store.Close()

		authCfg := cfg.Auth
		if authCfg.Secret == "" {
			authCfg.Secret = randomSecret()
			logger.Warn("JWT_SECRET not set, using a per-process secret; sessions end on restart")
		}
		sessions, err := session.NewService(authCfg)
		if err != nil {
			logger.Fatal("failed to initialize sessions", zap.Error(err))
		}

		deps.Sessions = sessions
		deps.Accounts = account.NewService(store, sessions, logger)
		deps.Journals = journal.NewService(store)
		deps.Goals = goal.NewService(store)
		deps.DatabaseCheck = store.Ping
	}

	router := handler.NewRouter(deps)

	status := "Active"
	if !reflectionSvc.Available() {
		status = "FAILED TO AUTHENTICATE"
	}
	logger.Info("UBloom backend starting",
		zap.String("ai_engine", status),
		zap.String("model", cfg.AI.Model),
		zap.Stringer("schema_policy", policy),
	)

	startServer(ctx, logger, cfg.Server, router)
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}

func startServer(ctx context.Context, logger *zap.Logger, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("listening", zap.String("addr", addr), zap.String("reflect_url", "http://"+displayHost(addr)+"/api/reflect"))
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func displayHost(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "127.0.0.1" + addr
	}
	return addr
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
