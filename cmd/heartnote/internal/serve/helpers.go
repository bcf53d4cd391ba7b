package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/heartnote/heartnote/cmd/heartnote/internal"
	"github.com/heartnote/heartnote/pkg/channels"
	"github.com/heartnote/heartnote/pkg/config"
	"github.com/heartnote/heartnote/pkg/logger"
	"github.com/heartnote/heartnote/pkg/metrics"
	"github.com/heartnote/heartnote/pkg/pipeline"
	"github.com/heartnote/heartnote/pkg/server"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	activity := server.NewActivityBuffer(100)
	p, err := pipeline.NewFromConfig(ctx, cfg, pipeline.WithObserver(activity.Add))
	if err != nil {
		return fmt.Errorf("error creating pipeline: %w", err)
	}

	server.Version = internal.Version
	httpServer := server.NewServer(cfg.Server, p, activity)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.InfoC("server", "Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Stop(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			metrics.DefaultRecorder().UpdateUptime()
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	if cfg.Telegram.Enabled {
		tg, err := channels.NewTelegramChannel(cfg.Telegram, p)
		if err != nil {
			return fmt.Errorf("error creating telegram channel: %w", err)
		}
		g.Go(func() error {
			return tg.Start(ctx)
		})
	}

	logger.InfoCF("server", "HeartNote started", map[string]any{
		"addr":     httpServer.Addr(),
		"backend":  cfg.Generation.Backend,
		"disabled": cfg.Generation.Disabled,
		"telegram": cfg.Telegram.Enabled,
		"version":  internal.Version,
	})

	return g.Wait()
}
