package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/tracewire/tracewire/internal/config"
	"github.com/tracewire/tracewire/internal/server"
	"github.com/tracewire/tracewire/pkg/cache"
	"github.com/tracewire/tracewire/pkg/pipeline"
	"github.com/tracewire/tracewire/pkg/store"
)

// serveCommand creates the HTTP API server command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the diagram editing HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return c.runServer(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func (c *CLI) runServer(ctx context.Context, cfg config.Config) error {
	artifactCache, err := openServerCache(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}

	versions, templates, closeStore, err := openServerStores(ctx, cfg.Store)
	if err != nil {
		_ = artifactCache.Close()
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	srv := server.New(server.Options{
		Config:    cfg.Server,
		Logger:    c.Logger,
		Runner:    pipeline.NewRunner(artifactCache, c.Logger),
		Versions:  versions,
		Templates: templates,
	})
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", cfg.Server.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		c.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// openServerCache picks the artifact cache backend. Redis wins when
// configured; otherwise a file cache under the configured or XDG directory.
func openServerCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	if cfg.RedisAddr != "" {
		return cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	}
	dir := cfg.Dir
	if dir == "" {
		d, err := config.CacheDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	return cache.NewFileCache(dir)
}

// openServerStores picks the persistence backend. MongoDB wins when
// configured; otherwise msgpack files under the configured directory.
func openServerStores(ctx context.Context, cfg config.StoreConfig) (store.VersionStore, store.TemplateStore, func(), error) {
	if cfg.MongoURI != "" {
		ms, err := store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, nil, err
		}
		closer := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = ms.Close(closeCtx)
		}
		return ms, ms, closer, nil
	}

	fs, err := store.NewFileStore(cfg.Dir)
	if err != nil {
		return nil, nil, nil, err
	}
	return fs, fs, func() {}, nil
}
