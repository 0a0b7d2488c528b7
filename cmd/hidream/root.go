package main

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"hidream/internal/config"
	"hidream/internal/logging"
	"hidream/internal/manager"
	"hidream/internal/registry"
	"hidream/internal/runtime"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// globalFlags are shared by every subcommand. Empty values leave the config
// file and environment untouched.
type globalFlags struct {
	configPath string
	envFiles   []string
	logLevel   string
	logFormat  string
	logFile    string
	workerURL  string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "hidream",
		Short:         "Text-to-image generation with HiDream-I1 nf4 models",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "Config file (.yaml, .yml, .json or .toml)")
	pf.StringSliceVar(&g.envFiles, "env-file", nil, "Env files to load (default ./.env when present)")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level: debug|info|warn|error (default info)")
	pf.StringVar(&g.logFormat, "log-format", "", "Log format: console|json (default auto)")
	pf.StringVar(&g.logFile, "log-file", "", "Also write JSON logs to this file, rotated by size")
	pf.StringVar(&g.workerURL, "worker-url", "", "Diffusion worker base URL (default "+config.DefaultWorkerURL+")")

	root.AddCommand(
		newGenerateCmd(g),
		newServeCmd(g),
		newModelsCmd(g),
		newVersionCmd(),
	)
	return root
}

// load resolves the effective configuration: .env, then the config file,
// then HIDREAM_* variables, then flags.
func (g *globalFlags) load() (config.Config, error) {
	if err := config.LoadDotEnv(g.envFiles...); err != nil {
		return config.Config{}, err
	}
	var cfg config.Config
	if g.configPath != "" {
		var err error
		if cfg, err = config.Load(g.configPath); err != nil {
			return config.Config{}, err
		}
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return config.Config{}, err
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if g.logFormat != "" {
		cfg.LogFormat = g.logFormat
	}
	if g.logFile != "" {
		cfg.LogFile = g.logFile
	}
	if g.workerURL != "" {
		cfg.WorkerURL = g.workerURL
	}
	return cfg.WithDefaults(), nil
}

func newLogger(cfg config.Config, out io.Writer) (zerolog.Logger, io.Closer, error) {
	return logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
		Out:    out,
	})
}

// newManager wires the registry, the worker client and the manager.
func newManager(cfg config.Config, log zerolog.Logger) (*manager.Manager, *runtime.WorkerClient, error) {
	reg, err := registry.New(cfg.Models)
	if err != nil {
		return nil, nil, err
	}
	rt, err := runtime.NewWorkerClient(cfg.WorkerURL, runtime.Options{
		RequestTimeout: time.Duration(cfg.WorkerTimeoutSeconds) * time.Second,
		Logger:         &log,
	})
	if err != nil {
		return nil, nil, err
	}
	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Registry:      reg,
		Runtime:       rt,
		MaxQueueDepth: cfg.MaxQueueDepth,
		MaxWait:       time.Duration(cfg.MaxWaitSeconds) * time.Second,
		Logger:        &log,
	})
	return mgr, rt, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hidream %s\n", version)
		},
	}
}
