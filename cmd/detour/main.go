// Command detour drives a remote rendering surface through one or more
// navigation visits and exposes diagnostics while doing so.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/odvcencio/detour/pkg/config"
	"github.com/odvcencio/detour/pkg/diagnostics"
	"github.com/odvcencio/detour/pkg/events"
	"github.com/odvcencio/detour/pkg/logging"
	"github.com/odvcencio/detour/pkg/telemetry"
	"github.com/odvcencio/detour/pkg/tracing"
	"github.com/odvcencio/detour/pkg/visit"
	"github.com/odvcencio/detour/pkg/visit/adapters/wsbridge"
)

// Version information - set via ldflags during build
var (
	version = "1.0.0-dev"
	commit  = "unknown"
)

type options struct {
	configPath string
	endpoint   string
	url        string
	action     string
	kind       string
	referer    string
	serve      bool
	version    bool
}

func main() {
	opts := parseFlags()
	if opts.version {
		fmt.Printf("detour %s (%s)\n", version, commit)
		return
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.configPath, "config", "detour.yaml", "path to YAML configuration")
	flag.StringVar(&opts.endpoint, "endpoint", "", "websocket endpoint of the rendering surface")
	flag.StringVar(&opts.url, "url", "", "location to visit")
	flag.StringVar(&opts.action, "action", "advance", "history action: advance, replace, or restore")
	flag.StringVar(&opts.kind, "kind", "full_page", "visit kind: full_page or scripted")
	flag.StringVar(&opts.referer, "referer", "", "referer for the document load")
	flag.BoolVar(&opts.serve, "serve", false, "keep running after the visit and watch the config file")
	flag.BoolVar(&opts.version, "version", false, "print version and exit")
	flag.Parse()
	return opts
}

func run(opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.endpoint != "" {
		cfg.Bridge.Endpoint = opts.endpoint
	}
	if cfg.Bridge.Endpoint == "" {
		return errors.New("no bridge endpoint: set -endpoint or bridge.endpoint")
	}
	if opts.url == "" && !opts.serve {
		return errors.New("no location: set -url")
	}

	runID := ulid.Make().String()
	logger, err := logging.NewLogger(cfg.Logging.Dir, runID)
	if err != nil {
		return err
	}
	defer logger.Close()
	logger.SetMinLevel(logging.Level(cfg.Logging.MinLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := telemetry.NewHub()
	defer hub.Close()

	metrics := visit.NewMetrics()
	metrics.EnableTelemetry(hub)

	if cfg.Tracing.Enabled {
		provider, err := tracing.NewTracerProvider(cfg.Tracing.ServiceName)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = provider.Shutdown(shutdownCtx)
		}()
	}

	group, groupCtx := errgroup.WithContext(ctx)

	if cfg.Events.Enabled {
		stream, err := events.NewNATSStream(events.NATSConfig{
			URL:           cfg.Events.NATSURL,
			SubjectPrefix: cfg.Events.SubjectPrefix,
			Timeout:       cfg.Events.Timeout,
		})
		if err != nil {
			return err
		}
		defer stream.Close()
		group.Go(func() error {
			err := events.Forward(groupCtx, hub, stream)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn(logging.CategoryEvents, "forward_stopped", err.Error(), nil)
			}
			return nil
		})
	}

	if cfg.Diagnostics.Enabled {
		server := diagnostics.NewServer(diagnostics.Config{
			Bind:           cfg.Diagnostics.Bind,
			EventRateLimit: cfg.Diagnostics.EventRateLimit,
		}, hub, metrics, logger)
		if err := server.Start(); err != nil {
			return err
		}
		logger.Info(logging.CategoryEvents, "diagnostics_listening", server.Addr(), nil)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	surface, err := wsbridge.Dial(ctx, cfg.Bridge.Endpoint, wsbridge.Options{
		HandshakeTimeout: cfg.Bridge.HandshakeTimeout,
		WriteTimeout:     cfg.Bridge.WriteTimeout,
		Logger:           logger,
	})
	if err != nil {
		return err
	}
	defer surface.Close()

	if opts.url != "" {
		if err := runVisit(ctx, opts, cfg, surface, logger, metrics); err != nil {
			return err
		}
	}

	if opts.serve {
		group.Go(func() error {
			return watchConfig(groupCtx, opts.configPath, logger)
		})
		logger.Info(logging.CategoryConfig, "serving", "", map[string]any{"run_id": runID})
		<-groupCtx.Done()
	}

	stop()
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runVisit drives a single visit to completion on the surface's dispatch
// goroutine and waits for a terminal state.
func runVisit(ctx context.Context, opts options, cfg *config.Config, surface *wsbridge.Surface, logger *logging.Logger, metrics *visit.Metrics) error {
	delegate := newConsoleDelegate(ctx, logger, surface.Post)

	errCh := make(chan error, 1)
	if err := surface.Post(func() {
		v, err := visit.New(visit.Config{
			Kind:      visit.Kind(opts.kind),
			Location:  opts.url,
			Action:    visit.Action(opts.action),
			Referer:   opts.referer,
			Surface:   surface,
			Visitable: &screen{url: opts.url, logger: logger},
			Delegate:  delegate,
			Logger:    logger,
			Metrics:   metrics,
		})
		if err != nil {
			errCh <- err
			return
		}
		v.Start()
		errCh <- nil
	}); err != nil {
		return err
	}
	if err := <-errCh; err != nil {
		return err
	}

	select {
	case <-delegate.done:
		return delegate.failure
	case <-surface.Done():
		return errors.New("surface connection lost before the visit finished")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// watchConfig reloads the log level when the config file changes.
func watchConfig(ctx context.Context, path string, logger *logging.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		logger.Warn(logging.CategoryConfig, "watch_failed", err.Error(), nil)
		<-ctx.Done()
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := config.Load(path)
			if err != nil {
				logger.Warn(logging.CategoryConfig, "reload_failed", err.Error(), nil)
				continue
			}
			logger.SetMinLevel(logging.Level(cfg.Logging.MinLevel))
			logger.Info(logging.CategoryConfig, "reloaded", "", map[string]any{
				"min_level": cfg.Logging.MinLevel,
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn(logging.CategoryConfig, "watch_error", err.Error(), nil)
		}
	}
}
