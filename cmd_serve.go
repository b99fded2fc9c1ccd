package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stevemurr/school-console/api"
	"github.com/stevemurr/school-console/collection"
	"github.com/stevemurr/school-console/handler"
	"github.com/stevemurr/school-console/seed"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	kv, closeStore, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	metrics := collection.NewMetrics()
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(metrics.PrometheusCollectors()...)

	cs := collection.New[json.RawMessage](kv,
		collection.WithLogger(a.logger.With(zap.String("component", "collection"))),
		collection.WithMetrics(metrics),
	)

	var seeds seed.Set
	if a.cfg.SeedFile != "" {
		if seeds, err = seed.Load(a.cfg.SeedFile); err != nil {
			return err
		}
	}

	endpoints, onboarding := a.services(cs, seeds)
	h := handler.New(handler.Deps{
		Collections: cs,
		Endpoints:   endpoints,
		Onboarding:  onboarding,
		Gatherer:    reg,
		Logger:      a.logger,
	})

	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           handler.CORS(handler.Logging(h, a.logger), a.cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.logger.Info("School Console starting",
			zap.String("addr", srv.Addr),
			zap.String("store", a.cfg.Backend),
			zap.String("data", a.cfg.DataDir),
		)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// services builds every entity façade over cs. Seeds are matched to façades
// by storage key.
func (a *app) services(cs *collection.Store[json.RawMessage], seeds seed.Set) ([]api.Endpoint, *api.Onboarding) {
	opts := func(def api.Definition) []api.Option {
		o := []api.Option{
			api.WithLatency(a.cfg.Latency),
			api.WithLogger(a.logger.With(zap.String("entity", def.Name))),
		}
		if s, ok := seeds[def.Key]; ok {
			o = append(o, api.WithSeed(s))
		}
		return o
	}

	onboarding := api.NewOnboarding(cs, opts(api.OnboardingRequests)...)
	return []api.Endpoint{
		api.Erase(api.NewLibrary(cs, opts(api.Library)...)),
		api.Erase(api.NewBranches(cs, opts(api.Branches)...)),
		api.Erase(api.NewTeachers(cs, opts(api.Teachers)...)),
		onboarding.Endpoint(),
	}, onboarding
}
