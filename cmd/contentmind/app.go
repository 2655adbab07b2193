package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/contentmind/agent"
	"github.com/c360studio/contentmind/agent/contentmind"
	"github.com/c360studio/contentmind/agent/digest"
	"github.com/c360studio/contentmind/agent/researcher"
	"github.com/c360studio/contentmind/component"
	"github.com/c360studio/contentmind/config"
	"github.com/c360studio/contentmind/delivery"
	"github.com/c360studio/contentmind/gateway"
	"github.com/c360studio/contentmind/llm"
	"github.com/c360studio/contentmind/metrics"
	"github.com/c360studio/contentmind/model"
	"github.com/c360studio/contentmind/router"
	"github.com/c360studio/contentmind/scheduler"
	"github.com/c360studio/contentmind/store"
)

// app holds the wired service graph. Construction happens once at
// startup; shutdown tears the graph down in reverse order.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	nc *nats.Conn

	componentRegistry *component.Registry
	watcher           *component.Watcher
	agents            *agent.Registry
	ingress           *gateway.Ingress
	sched             *scheduler.Scheduler
	metricsServer     *http.Server
}

func run(configPath, logLevel string) error {
	logger := newLogger(logLevel)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}

	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if err := a.start(signalCtx); err != nil {
		a.stop(ctx)
		return err
	}

	logger.Info("Contentmind ready",
		"version", Version,
		"nats", cfg.NATS.URL != "",
		"components_dir", cfg.Components.Dir)

	<-signalCtx.Done()
	logger.Info("Received shutdown signal")

	a.stop(ctx)
	logger.Info("Contentmind shutdown complete")
	return nil
}

// newApp wires the full dependency graph from configuration. With no
// NATS URL configured the service runs on in-memory stores and capture
// deliverers.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	// NATS is optional; everything degrades to in-memory equivalents.
	var js jetstream.JetStream
	if cfg.NATS.URL != "" {
		nc, err := connectNATS(cfg, logger)
		if err != nil {
			return nil, err
		}
		a.nc = nc

		js, err = jetstream.New(nc)
		if err != nil {
			a.stop(ctx)
			return nil, fmt.Errorf("create JetStream context: %w", err)
		}
	}

	// Prompt components: file-backed registry with optional hot reload.
	componentStore, err := component.NewFileStore(cfg.Components.Dir)
	if err != nil {
		a.stop(ctx)
		return nil, fmt.Errorf("open component store: %w", err)
	}
	a.componentRegistry, err = component.NewRegistry(componentStore, component.WithRegistryLogger(logger))
	if err != nil {
		a.stop(ctx)
		return nil, fmt.Errorf("load component registry: %w", err)
	}
	if cfg.Components.Watch {
		a.watcher, err = component.NewWatcher(componentStore, a.componentRegistry, component.WatcherConfig{Logger: logger})
		if err != nil {
			a.stop(ctx)
			return nil, fmt.Errorf("create component watcher: %w", err)
		}
	}

	m := metrics.New()

	// Model routing.
	modelRegistry := buildModelRegistry(cfg.Router)
	caller := llm.NewCaller(modelRegistry, llm.WithLogger(logger))
	rt := router.New(modelRegistry, caller,
		router.WithPromptSource(a.componentRegistry),
		router.WithGlobalTimeout(cfg.Router.GlobalTimeout),
		router.WithDefaultTemperature(cfg.Router.Temperature),
		router.WithRouteMetrics(m),
		router.WithRouterLogger(logger),
	)

	// Artifact store and delivery channels.
	var artifacts agent.ArtifactStore
	deliverers := make(map[string]delivery.Deliverer)
	if js != nil {
		artifacts, err = store.NewNATS(ctx, js, logger)
		if err != nil {
			a.stop(ctx)
			return nil, fmt.Errorf("open artifact store: %w", err)
		}
		for _, method := range []string{delivery.MethodEmail, delivery.MethodWhatsApp} {
			pub, err := delivery.NewNATSPublisher(ctx, js, method, logger)
			if err != nil {
				a.stop(ctx)
				return nil, fmt.Errorf("create %s publisher: %w", method, err)
			}
			deliverers[method] = pub
		}
	} else {
		artifacts = store.NewMemory()
		for _, method := range []string{delivery.MethodEmail, delivery.MethodWhatsApp} {
			deliverers[method] = delivery.NewCapture(method)
		}
	}

	// Agents.
	a.agents = agent.NewRegistry(logger)
	a.agents.Discover([]agent.ManifestEntry{
		{ID: contentmind.AgentID, Factory: contentmind.Factory},
		{ID: researcher.AgentID, Factory: researcher.Factory},
		{ID: digest.AgentID, Factory: digest.Factory},
	})
	deps := agent.Deps{
		Router:     rt,
		Artifacts:  artifacts,
		Deliverers: deliverers,
		Logger:     logger,
	}
	for _, id := range a.agents.ListClasses() {
		if _, err := a.agents.Create(id, deps); err != nil {
			a.stop(ctx)
			return nil, err
		}
	}

	// Gateway.
	gw := gateway.New(a.agents, logger, m)
	if a.nc != nil {
		a.ingress = gateway.NewIngress(a.nc, gw, logger)
	}

	// Scheduler over a durable job store when NATS is available.
	var jobStore scheduler.Store
	if js != nil {
		jobStore, err = scheduler.NewKVStore(ctx, js, cfg.Scheduler.Bucket, logger)
		if err != nil {
			a.stop(ctx)
			return nil, fmt.Errorf("open job store: %w", err)
		}
	} else {
		jobStore = scheduler.NewMemoryStore()
	}
	a.sched = scheduler.New(jobStore,
		scheduler.WithTickInterval(cfg.Scheduler.TickInterval),
		scheduler.WithStopGrace(cfg.Scheduler.GracePeriod),
		scheduler.WithSchedulerLogger(logger),
		scheduler.WithMetrics(m),
	)
	if err := a.registerDigestCallbacks(); err != nil {
		a.stop(ctx)
		return nil, err
	}

	if cfg.Metrics.Addr != "" {
		a.metricsServer = newMetricsServer(cfg.Metrics.Addr, m)
	}

	return a, nil
}

// registerDigestCallbacks binds every digest schedule type to the
// digest agent's run loop.
func (a *app) registerDigestCallbacks() error {
	instance, ok := a.agents.Get(digest.AgentID)
	if !ok {
		return fmt.Errorf("digest agent not created")
	}
	digestAgent, ok := instance.(*digest.Agent)
	if !ok {
		return fmt.Errorf("unexpected digest agent type %T", instance)
	}

	cb := func(ctx context.Context, data scheduler.TaskData) error {
		result, err := digestAgent.Run(ctx, digest.Request{
			DigestID:       data.DigestID,
			DigestType:     data.DigestType,
			Recipient:      data.Recipient,
			DeliveryMethod: data.DeliveryMethod,
			ContentTypes:   data.ContentTypes,
			Tags:           data.Tags,
		})
		if err != nil {
			return err
		}
		if result.Status == agent.StatusError {
			return errors.New(result.Error)
		}
		return nil
	}

	for _, digestType := range []string{
		scheduler.ScheduleDaily,
		scheduler.ScheduleWeekly,
		scheduler.ScheduleMonthly,
	} {
		a.sched.RegisterCallback("digest_"+digestType, cb)
	}
	return nil
}

func (a *app) start(ctx context.Context) error {
	if a.watcher != nil {
		if err := a.watcher.Start(ctx); err != nil {
			return fmt.Errorf("start component watcher: %w", err)
		}
	}
	if a.ingress != nil {
		if err := a.ingress.Start(ctx, 0); err != nil {
			return fmt.Errorf("start ingress: %w", err)
		}
	}
	a.sched.Start(ctx)

	if a.metricsServer != nil {
		go func() {
			a.logger.Info("Metrics listener started", "addr", a.metricsServer.Addr)
			if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("Metrics listener failed", "error", err)
			}
		}()
	}
	return nil
}

// stop tears the graph down: stop taking work, finish running work,
// then drop connections.
func (a *app) stop(ctx context.Context) {
	if a.ingress != nil {
		a.ingress.Stop()
	}
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			a.logger.Warn("Component watcher stop failed", "error", err)
		}
	}
	if a.agents != nil {
		a.agents.Close(ctx)
	}
	if a.metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("Metrics listener shutdown failed", "error", err)
		}
		cancel()
	}
	if a.nc != nil {
		if err := a.nc.Drain(); err != nil {
			a.logger.Warn("NATS drain failed", "error", err)
		}
		a.nc.Close()
	}
}

// buildModelRegistry customizes the default endpoint registry from the
// router configuration.
func buildModelRegistry(cfg config.RouterConfig) *model.Registry {
	registry := model.NewDefaultRegistry()

	registry.SetEndpoint("local", &model.EndpointConfig{
		Provider:  "local",
		URL:       cfg.LocalURL,
		Model:     cfg.LocalModel,
		MaxTokens: 128000,
		Timeout:   cfg.LocalTimeout,
	})

	if cfg.CloudTimeout > 0 {
		for _, name := range registry.ListEndpoints() {
			ep := registry.GetEndpoint(name)
			if ep == nil || ep.Provider == "local" {
				continue
			}
			updated := *ep
			updated.Timeout = cfg.CloudTimeout
			registry.SetEndpoint(name, &updated)
		}
	}

	// A non-default preferred cloud provider rebinds the cloud defaults
	// to that provider's endpoint.
	if cfg.PreferredCloud != "" && cfg.PreferredCloud != "anthropic" {
		if name, ep := registry.EndpointForProvider(cfg.PreferredCloud); ep != nil {
			registry.SetDefaults(&model.DefaultsConfig{
				Local:   "local",
				Cloud:   name,
				Capable: name,
			})
		}
	}

	return registry
}

func connectNATS(cfg *config.Config, logger *slog.Logger) (*nats.Conn, error) {
	logger.Info("Connecting to NATS", "url", cfg.NATS.URL)

	nc, err := nats.Connect(cfg.NATS.URL,
		nats.Name(cfg.NATS.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.NATS.ReconnectWait),
	)
	if err != nil {
		return nil, wrapNATSError(err, cfg.NATS.URL)
	}

	logger.Info("Connected to NATS", "url", cfg.NATS.URL)
	return nc, nil
}

// wrapNATSError provides guidance when a NATS connection fails.
func wrapNATSError(err error, url string) error {
	if errors.Is(err, nats.ErrNoServers) || errors.Is(err, nats.ErrTimeout) {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

To start NATS:
  docker compose up -d nats

Or leave nats.url empty to run with in-memory stores.`, err, url)
	}
	return fmt.Errorf("NATS connection failed: %w", err)
}

func newMetricsServer(addr string, m *metrics.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
