// Package cli implements the skramble command-line interface.
//
// This package provides commands for rendering single skribbles from the
// command line and for running the HTTP service. The CLI is built using
// cobra and supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - process: Render one skribble and publish the composite
//   - serve: Run the HTTP render service
//   - completion: Generate shell completion scripts
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cmwn/skramble/internal/config"
	"github.com/cmwn/skramble/pkg/buildinfo"
	"github.com/cmwn/skramble/pkg/cache"
	"github.com/cmwn/skramble/pkg/httputil"
	"github.com/cmwn/skramble/pkg/ledger"
	"github.com/cmwn/skramble/pkg/mediaapi"
	"github.com/cmwn/skramble/pkg/pipeline"
	"github.com/cmwn/skramble/pkg/skribbleapi"
	"github.com/cmwn/skramble/pkg/storage"
)

// appName is the application name used for display.
const appName = "skramble"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Skramble renders layered skribble compositions",
		Long:         `Skramble fetches a skribble specification, resolves and validates its media, composes the layers onto a 1280x720 canvas, and publishes the finished PNG.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.processCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// services bundles the pipeline collaborators built from configuration with
// the teardown for their connections.
type services struct {
	pipeline pipeline.Services
	close    func(context.Context)
}

// buildServices assembles the pipeline collaborators from configuration.
// Unconfigured backends degrade gracefully: memory cache instead of redis,
// no ledger, no uploads.
func (c *CLI) buildServices(ctx context.Context, cfg *config.Config) (*services, error) {
	closers := []func(context.Context){}

	var meta cache.Store = cache.NewMemoryStore()
	if cfg.Cache.RedisAddr != "" {
		store, err := cache.NewRedisStore(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisPrefix)
		if err != nil {
			return nil, err
		}
		meta = store
		closers = append(closers, func(context.Context) { _ = store.Close() })
	}

	var ldg ledger.Ledger = ledger.Noop{}
	if cfg.Ledger.MongoURI != "" {
		m, err := ledger.NewMongo(ctx, cfg.Ledger.MongoURI, cfg.Ledger.MongoDatabase)
		if err != nil {
			return nil, err
		}
		ldg = m
		closers = append(closers, func(ctx context.Context) { _ = m.Close(ctx) })
	}

	var uploader storage.Uploader = storage.Null{}
	if cfg.Storage.Bucket != "" {
		s3, err := storage.NewS3(ctx, cfg.Storage.Bucket, cfg.Storage.Region)
		if err != nil {
			return nil, err
		}
		uploader = s3
	}

	media := mediaapi.New(mediaapi.Config{
		BaseURL:    cfg.MediaAPI.BaseURL,
		Auth:       basicAuth(cfg.MediaAPI.User, cfg.MediaAPI.Password),
		HTTPClient: httputil.NewClient(time.Duration(cfg.MediaAPI.TimeoutSeconds) * time.Second),
		Meta:       meta,
		Images:     cache.NewImages(),
		VerifyHash: cfg.MediaAPI.VerifyHash,
		VerifyMIME: cfg.MediaAPI.VerifyMime,
		Logger:     c.Logger,
	})
	specs := skribbleapi.New(skribbleapi.Config{
		Auth:       basicAuth(cfg.SkribbleAPI.User, cfg.SkribbleAPI.Password),
		HTTPClient: httputil.NewClient(time.Duration(cfg.SkribbleAPI.TimeoutSeconds) * time.Second),
		Logger:     c.Logger,
	})

	return &services{
		pipeline: pipeline.Services{
			Specs:    specs,
			Media:    media,
			Uploader: uploader,
			Ledger:   ldg,
		},
		close: func(ctx context.Context) {
			for _, fn := range closers {
				fn(ctx)
			}
		},
	}, nil
}

func basicAuth(user, password string) *httputil.BasicAuth {
	if user == "" {
		return nil
	}
	return &httputil.BasicAuth{User: user, Password: password}
}
