package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/anonto42/nano-midea/localstore/internal/metrics"
	"github.com/anonto42/nano-midea/localstore/internal/security"
	"github.com/anonto42/nano-midea/localstore/internal/services"
	"github.com/anonto42/nano-midea/localstore/internal/store"
	"github.com/anonto42/nano-midea/localstore/pkg/config"
	"github.com/anonto42/nano-midea/localstore/pkg/logger"
)

// app is the state shared by every subcommand once the store is open
type app struct {
	cfg      *config.Config
	store    *store.Store
	registry *prometheus.Registry
}

func (a *app) services() (*services.Services, error) {
	hasher, err := security.NewPasswordHasher(a.cfg.PasswordMode)
	if err != nil {
		return nil, err
	}
	return services.New(a.store, services.Options{
		Cascade:   a.cfg.Cascade(),
		Hasher:    hasher,
		Sanitizer: security.NewSanitizer(a.cfg.SanitizeText),
	}), nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}
	if a.registry != nil {
		dumpMetrics(a.registry)
	}
	logger.Sync()
}

func dumpMetrics(reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		logger.Error("failed to gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(os.Stderr, mf); err != nil {
			logger.Error("failed to write metrics", "error", err)
			return
		}
	}
}

func newRootCmd(a *app) *cobra.Command {
	var (
		configPath string
		backend    string
	)

	root := &cobra.Command{
		Use:           "localstore",
		Short:         "Inspect and maintain the social app's local document store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if backend != "" {
				cfg.Backend = backend
			}
			logger.Init(cfg.LogLevel)

			kvBackend, err := config.InitBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			var opts []store.Option
			if cfg.MetricsEnabled {
				a.registry = prometheus.NewRegistry()
				opts = append(opts, store.WithMetrics(metrics.NewCollector(a.registry)))
			}
			a.cfg = cfg
			a.store = store.New(kvBackend, opts...)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "optional config file (yaml, json, toml or env)")
	root.PersistentFlags().StringVar(&backend, "backend", "", "override STORE_BACKEND (memory, file, postgres, mongo, redis)")

	root.AddCommand(
		newStatsCmd(a),
		newClearCmd(a),
		newResetCmd(a),
		newExportCmd(a),
		newSeedCmd(a),
	)
	return root
}

func main() {
	a := &app{}
	err := newRootCmd(a).ExecuteContext(context.Background())
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
