package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"chatfeed/internal/api"
	"chatfeed/internal/config"
	"chatfeed/internal/logging"
	"chatfeed/internal/service/feed"
	"chatfeed/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		reportError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// reportError writes a startup or runtime failure to w. Errors raised before
// logging is configured would otherwise vanish into the no-op global logger.
func reportError(w io.Writer, err error) {
	zap.L().Error("unhandled error", zap.Error(err))
	_ = zap.L().Sync()
	fmt.Fprintf(w, "chatfeed: %v\n", err)
}

func newApp() *cli.App {
	var cfg *config.Config
	return &cli.App{
		Name:  "chatfeed",
		Usage: "chat message feed API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.json",
				EnvVars: []string{"CHATFEED_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "store",
				Value:   "sqlite3",
				Usage:   "message store backend: sqlite3, mysql, postgres, redis or mongo",
				EnvVars: []string{"CHATFEED_STORE"},
			},
			&cli.StringFlag{
				Name:    "listen",
				Usage:   "overrides basic_config.server_address",
				EnvVars: []string{"CHATFEED_LISTEN_ADDRESS"},
			},
			&cli.BoolFlag{
				Name:    "debug",
				EnvVars: []string{"CHATFEED_DEBUG"},
			},
		},
		Before: func(cctx *cli.Context) error {
			loaded, err := config.Load(cctx.String("config"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if _, err := logging.Setup(loaded.Log.Level, loaded.Log.Development || cctx.Bool("debug")); err != nil {
				return fmt.Errorf("setup logging: %w", err)
			}
			cfg = loaded
			return nil
		},
		Action: func(cctx *cli.Context) error {
			return serve(cctx, cfg)
		},
		Commands: []*cli.Command{
			{
				Name:   "clear",
				Usage:  "delete every stored message",
				Action: func(cctx *cli.Context) error {
					return clearMessages(cctx, cfg)
				},
			},
		},
	}
}

func serve(cctx *cli.Context, cfg *config.Config) error {
	ctx := cctx.Context
	logger := zap.L()
	defer func() { _ = logger.Sync() }()

	storeType := cctx.String("store")
	logger.Info("opening message store", zap.String("store", storeType))
	messages, err := store.Open(ctx, storeType, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer messages.Close()

	if cfg.BasicConfig.GinMode != "" {
		gin.SetMode(cfg.BasicConfig.GinMode)
	} else if !cctx.Bool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(logging.Middleware(logger.Named("http")))
	api.NewHandler(feed.NewService(messages)).RegisterRoutes(router)

	addr := cctx.String("listen")
	if addr == "" {
		addr = cfg.ServerAddress()
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	serverDone := make(chan error, 1)
	go func() {
		logger.Info("serving requests", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
		close(serverDone)
	}()

	select {
	case err := <-serverDone:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}

func clearMessages(cctx *cli.Context, cfg *config.Config) error {
	storeType := cctx.String("store")
	messages, err := store.Open(cctx.Context, storeType, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer messages.Close()
	return feed.NewService(messages).Clear(cctx.Context)
}
