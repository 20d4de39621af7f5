package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tandem/server/internal/controller"
	"github.com/tandem/server/internal/service/room"
	"github.com/tandem/server/pkg/ctxlogger"
)

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"

	BackplaneNone  = "none"
	BackplaneRedis = "redis"

	shutdownTimeout = 30 * time.Second
)

type AppConfig struct {
	Host             string        `json:"host"`
	Port             int           `json:"port"`
	LogLevel         string        `json:"log_level"`
	Store            string        `json:"store"`
	Backplane        string        `json:"backplane"`
	RedisHost        string        `json:"redis_host"`
	RedisPort        int           `json:"redis_port"`
	RedisPassword    string        `json:"-"`
	PostgresDSN      string        `json:"-"`
	ChatHistoryLimit int           `json:"chat_history_limit"`
	SendBufferSize   int           `json:"send_buffer_size"`
	RoomTTL          time.Duration `json:"room_ttl"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}

	switch cfg.Store {
	case StoreMemory, StoreRedis:
	case StorePostgres:
		if cfg.PostgresDSN == "" {
			return fmt.Errorf("postgres dsn is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store %q", cfg.Store)
	}

	switch cfg.Backplane {
	case BackplaneNone, BackplaneRedis:
	default:
		return fmt.Errorf("unknown backplane %q", cfg.Backplane)
	}

	if cfg.ChatHistoryLimit < 0 {
		return fmt.Errorf("chat history limit must not be negative")
	}

	if cfg.SendBufferSize < 1 {
		return fmt.Errorf("send buffer size must be greater than 0")
	}

	if cfg.RoomTTL <= 0 {
		return fmt.Errorf("room ttl must be greater than 0")
	}

	return nil
}

func newLogger(cfg *AppConfig) *slog.Logger {
	logLevel := slog.LevelInfo
	logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel)))

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	return slog.New(&h)
}

type iController interface {
	GetMux() http.Handler
	CloseConnections()
	Wait(ctx context.Context) error
}

type iBackplane interface {
	Run(ctx context.Context) error
	Close() error
}

type server struct {
	controller iController
	// nil without a redis backplane
	backplane iBackplane
	closers   []func()
}

func newServer(ctx context.Context, cfg *AppConfig, logger *slog.Logger) (*server, error) {
	s := &server{}

	deps, err := s.buildRepos(ctx, cfg, logger)
	if err != nil {
		s.close()
		return nil, err
	}

	roomService := room.NewService(deps.roomRepo, deps.presenceRepo, deps.connRepo, room.Config{
		ChatHistoryLimit: cfg.ChatHistoryLimit,
	}, logger)
	s.controller = controller.NewController(roomService, controller.Config{
		SendBufferSize: cfg.SendBufferSize,
	}, logger)

	return s, nil
}

func (s *server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	s, err := newServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.close()

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: s.controller.GetMux(),
	}
	httpServer.RegisterOnShutdown(s.controller.CloseConnections)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.InfoContext(gctx, "starting server", "address", httpServer.Addr, "store", cfg.Store, "backplane", cfg.Backplane)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})

	if s.backplane != nil {
		g.Go(func() error {
			return s.backplane.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}

		if err := s.controller.Wait(shutdownCtx); err != nil {
			return fmt.Errorf("failed to wait for connections: %w", err)
		}

		return nil
	})

	return g.Wait()
}
