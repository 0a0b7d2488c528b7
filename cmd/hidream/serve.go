package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"hidream/internal/config"
	"hidream/internal/httpapi"
	"hidream/internal/store"
)

const shutdownTimeout = 10 * time.Second

// listenHook, when set, receives the bound address once the server listens.
var listenHook func(net.Addr)

type serveFlags struct {
	addr      string
	model     string
	path      string
	outputDir string
	noPreload bool
}

func newServeCmd(g *globalFlags) *cobra.Command {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load a model and serve the web form and JSON API",
		Example: `  hidream serve -m fast
  hidream serve -p ~/models/my-hidream --addr :8080 --output-dir s3://bucket/images`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, g, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.addr, "addr", "", "HTTP listen address (default "+config.DefaultAddr+")")
	fl.StringVarP(&f.model, "model", "m", "", "Model to load at startup: dev|full|fast")
	fl.StringVarP(&f.path, "path", "p", "", "Custom model directory to load at startup; overrides --model")
	fl.StringVar(&f.outputDir, "output-dir", "", "Keep every generated image in this directory or s3://bucket/prefix")
	fl.BoolVar(&f.noPreload, "no-preload", false, "Start with no model resident; the first request loads one")
	return cmd
}

func runServe(cmd *cobra.Command, g *globalFlags, f *serveFlags) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	if f.addr != "" {
		cfg.Addr = f.addr
	}
	if f.model != "" || f.path != "" {
		cfg.Model, cfg.CustomPath = f.model, f.path
		if cfg.Model == "" {
			cfg.Model = config.DefaultModel
		}
	}
	if f.outputDir != "" {
		cfg.OutputDir = f.outputDir
	}

	log, closer, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closer.Close()
	ctx := log.WithContext(cmd.Context())

	httpapi.SetLogger(log)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetGenerateTimeoutSeconds(cfg.RequestTimeoutSeconds)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSAllowedOrigins, cfg.CORSAllowedMethods, cfg.CORSAllowedHeaders)

	mgr, rt, err := newManager(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := mgr.Close(); err != nil {
			log.Warn().Err(err).Msg("release model on exit")
		}
	}()

	if rep := mgr.SanityCheck(ctx); !rep.RuntimeHealthy {
		log.Warn().Str("worker", rt.BaseURL()).Str("error", rep.Error).Msg("diffusion worker not reachable yet")
	}

	if !f.noPreload {
		// A bad startup model is a configuration error: fail before listening.
		d, err := mgr.ResolveModel(cfg.Model, cfg.CustomPath)
		if err != nil {
			return err
		}
		log.Info().Str("model", d.String()).Msg("loading model")
		if err := mgr.Ensure(ctx, d); err != nil {
			return err
		}
		log.Info().Str("model", d.String()).Msg("model loaded")
	}

	if cfg.OutputDir != "" {
		dir, err := store.OpenDir(ctx, cfg.OutputDir)
		if err != nil {
			return err
		}
		httpapi.SetImageSink(dir)
		defer httpapi.SetImageSink(nil)
	}

	httpapi.SetBaseContext(ctx)
	defer httpapi.SetBaseContext(nil)

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           httpapi.NewMux(mgr),
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		log.Info().Str("addr", ln.Addr().String()).Str("worker", rt.BaseURL()).Msg("hidream listening")
		if listenHook != nil {
			listenHook(ln.Addr())
		}
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("graceful shutdown")
		}
		return nil
	})
	err = eg.Wait()
	log.Info().Msg("server stopped")
	return err
}
