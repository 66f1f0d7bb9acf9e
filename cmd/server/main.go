package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/storelink/chat-server-go/internal/chat"
	"github.com/storelink/chat-server-go/internal/config"
	"github.com/storelink/chat-server-go/internal/database"
	"github.com/storelink/chat-server-go/internal/handler"
	"github.com/storelink/chat-server-go/internal/middleware"
	"github.com/storelink/chat-server-go/internal/presence"
	"github.com/storelink/chat-server-go/internal/push"
	"github.com/storelink/chat-server-go/internal/redis"
	"github.com/storelink/chat-server-go/internal/repository"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	setLogLevel(cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	messageStore := repository.NewMessageStore(db.DB)
	userDirectory := repository.NewUserDirectory(db.DB)

	registry := presence.NewRegistry()
	broker := push.NewBroker(registry)

	chatService := chat.NewService(
		registry, broker, messageStore, userDirectory,
		cfg.TypingQuietWindow(), cfg.HistoryPageSize,
	)

	authMiddleware := middleware.NewAuthMiddleware(redisClient)

	chatHandler := handler.NewChatHandler(chatService)
	askHandler := handler.NewAskHandler(cfg.AskEndpoint)
	uploadHandler := handler.NewUploadHandler(cfg.UploadDir, cfg.UploadBaseURL)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Handler)
		r.Get("/ws", chatHandler.ServeHTTP)
		r.Post("/ask", askHandler.ServeHTTP)
		r.Post("/upload", uploadHandler.ServeHTTP)
	})

	r.Route(cfg.UploadBaseURL, func(r chi.Router) {
		fs := http.StripPrefix(cfg.UploadBaseURL, http.FileServer(http.Dir(cfg.UploadDir)))
		r.Get("/*", fs.ServeHTTP)
	})

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: r,
		// Long-lived sockets rule out global read/write deadlines; the
		// gateway enforces its own ping/pong liveness instead.
		ReadHeaderTimeout: config.ServerReadTimeout,
		IdleTimeout:       config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
