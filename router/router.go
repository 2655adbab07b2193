package router

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/c360studio/contentmind/llm"
	"github.com/c360studio/contentmind/metrics"
	"github.com/c360studio/contentmind/model"
)

// Default timeout bounds.
const (
	DefaultGlobalTimeout  = 60 * time.Second
	DefaultProbeTimeout   = 3 * time.Second
	defaultLocalProbePath = "/models"
)

// Router selects a provider endpoint for a task and executes the call
// with cascading timeouts. Every recoverable failure degrades to a
// deterministic simplified result; only caller cancellation surfaces
// as an error.
type Router struct {
	registry *model.Registry
	caller   *llm.Caller
	prompts  PromptSource
	logger   *slog.Logger
	metrics  *metrics.Metrics

	probeClient   *http.Client
	globalTimeout time.Duration
	probeTimeout  time.Duration
	defaultTemp   *float64
}

// Option configures a Router.
type Option func(*Router)

// WithPromptSource sets the component lookup for prompt assembly.
func WithPromptSource(ps PromptSource) Option {
	return func(r *Router) {
		r.prompts = ps
	}
}

// WithRouterLogger sets the logger.
func WithRouterLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithGlobalTimeout sets the default bound on a whole route call.
func WithGlobalTimeout(d time.Duration) Option {
	return func(r *Router) {
		r.globalTimeout = d
	}
}

// WithProbeClient sets the HTTP client used for local availability probes.
func WithProbeClient(c *http.Client) Option {
	return func(r *Router) {
		r.probeClient = c
	}
}

// WithRouteMetrics wires route outcome and latency collectors.
func WithRouteMetrics(m *metrics.Metrics) Option {
	return func(r *Router) {
		r.metrics = m
	}
}

// WithDefaultTemperature sets the temperature used when a request does
// not carry one.
func WithDefaultTemperature(t float64) Option {
	return func(r *Router) {
		r.defaultTemp = &t
	}
}

// New creates a router over the given endpoint registry and caller.
func New(registry *model.Registry, caller *llm.Caller, opts ...Option) *Router {
	r := &Router{
		registry:      registry,
		caller:        caller,
		logger:        slog.Default(),
		globalTimeout: DefaultGlobalTimeout,
		probeTimeout:  DefaultProbeTimeout,
		probeClient:   &http.Client{Timeout: DefaultProbeTimeout},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// candidate is one entry of the fallback chain.
type candidate struct {
	name string
	ep   *model.EndpointConfig
}

// Route picks a provider for the task and returns its result.
//
// The call is bounded by req.GlobalTimeout (router default when zero).
// If that bound fires, a simplified result with reason GLOBAL_TIMEOUT
// is returned. If the caller's context is cancelled, the cancellation
// error is returned instead — cancellation never produces a simplified
// result.
func (r *Router) Route(ctx context.Context, task model.Task, content map[string]any, req Requirements) (*ProviderResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout := req.GlobalTimeout
	if timeout <= 0 {
		timeout = r.globalTimeout
	}

	routeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		result *ProviderResult
		err    error
	}
	done := make(chan outcome, 1)
	started := time.Now()

	go func() {
		result, err := r.run(routeCtx, task, content, req)
		done <- outcome{result, err}
	}()

	var result *ProviderResult
	var err error
	select {
	case out := <-done:
		if out.err != nil && routeCtx.Err() != nil {
			result, err = r.resolveTimeout(ctx, task, content)
		} else {
			result, err = out.result, out.err
		}

	case <-routeCtx.Done():
		result, err = r.resolveTimeout(ctx, task, content)
	}

	if r.metrics != nil && result != nil {
		r.metrics.RouteResults.WithLabelValues(task.String(), result.Provider).Inc()
		r.metrics.RouteDuration.WithLabelValues(task.String()).Observe(time.Since(started).Seconds())
	}
	return result, err
}

// resolveTimeout distinguishes caller cancellation from the global
// timeout firing.
func (r *Router) resolveTimeout(ctx context.Context, task model.Task, content map[string]any) (*ProviderResult, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	r.logger.Warn("Route exceeded global timeout", "task", task)
	return GenerateSimplified(task, content, ReasonGlobalTimeout), nil
}

// run executes the pick/call/fallback sequence under the route context.
func (r *Router) run(ctx context.Context, task model.Task, content map[string]any, req Requirements) (*ProviderResult, error) {
	complexity := r.registry.Complexity(task)

	chain, emptyReason := r.pickCandidates(ctx, task, req, complexity)
	if len(chain) == 0 {
		r.logger.Info("No providers available, using simplified result",
			"task", task,
			"reason", emptyReason)
		return GenerateSimplified(task, content, emptyReason), nil
	}

	messages := []llm.Message{
		{Role: "system", Content: r.systemPrompt(task)},
		{Role: "user", Content: r.taskPrompt(task, content)},
	}

	temperature := req.Temperature
	if temperature == nil {
		temperature = r.defaultTemp
	}

	var lastReason string

	for _, cand := range chain {
		resp, err := r.caller.Generate(ctx, cand.name, cand.ep, llm.GenerateRequest{
			Messages:    messages,
			Temperature: temperature,
			MaxTokens:   req.MaxTokens,
		})
		if err == nil {
			return &ProviderResult{
				Status:      StatusSuccess,
				Provider:    cand.ep.Provider,
				Model:       resp.Model,
				Result:      resp.Content,
				Tokens:      &resp.Usage,
				ProcessedAt: time.Now().UTC(),
			}, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if errors.Is(err, context.DeadlineExceeded) {
			lastReason = ReasonTimeout
		} else {
			lastReason = ErrorReason(err)
		}

		r.logger.Warn("Provider call failed, continuing fallback chain",
			"task", task,
			"endpoint", cand.name,
			"provider", cand.ep.Provider,
			"error", err)
	}

	if lastReason == "" {
		lastReason = ReasonNoProviders
	}
	return GenerateSimplified(task, content, lastReason), nil
}

// pickCandidates builds the ordered fallback chain for a call. Rules
// are evaluated in order; earlier rules place their endpoint first and
// later rules extend the chain. When the chain comes back empty, the
// second return value is the simplified-result reason.
func (r *Router) pickCandidates(ctx context.Context, task model.Task, req Requirements, complexity float64) ([]candidate, string) {
	var chain []candidate
	seen := make(map[string]bool)

	add := func(name string, ep *model.EndpointConfig) {
		if ep == nil || name == "" || seen[name] {
			return
		}
		if !r.registry.IsAvailable(name) {
			return
		}
		seen[name] = true
		chain = append(chain, candidate{name: name, ep: ep})
	}

	localName, localEP := r.registry.LocalEndpoint()
	localUp := false
	if localEP != nil && r.registry.IsAvailable(localName) {
		localUp = r.localAvailable(ctx, localEP)
	}

	// 1. Explicit provider requirement.
	if req.Provider != "" {
		if req.Provider == "local" {
			if localUp {
				add(localName, localEP)
			}
		} else {
			add(r.registry.EndpointForProvider(req.Provider))
		}
	}

	// 2. Local model preference.
	if req.ModelPreference == ModelPreferenceLocal && localUp {
		add(localName, localEP)
	}

	// 3. Task-specific provider override.
	if prefer := r.registry.PreferredProvider(task); prefer != "" {
		add(r.registry.EndpointForProvider(prefer))
	}

	// 4. Local when reachable.
	if localUp {
		add(localName, localEP)
	}

	// 5. Cloud by preference and complexity; the remaining cloud
	// endpoint extends the chain for fallback.
	add(r.registry.CloudEndpoint(complexity))
	add(r.registry.CloudEndpoint(0))
	add(r.registry.CloudEndpoint(1))

	if len(chain) > 0 {
		return chain, ""
	}

	// 6. Nothing usable.
	if req.ModelPreference == ModelPreferenceLocal && !localUp {
		return nil, ReasonLocalUnavailable
	}
	return nil, ReasonNoProviders
}

// localAvailable probes the local endpoint's model listing with a short
// bound so an unreachable local daemon cannot stall routing.
func (r *Router) localAvailable(ctx context.Context, ep *model.EndpointConfig) bool {
	probeCtx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()

	url := strings.TrimSuffix(ep.URL, "/") + defaultLocalProbePath
	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := r.probeClient.Do(req)
	if err != nil {
		r.logger.Debug("Local LLM probe failed", "url", url, "error", err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode < http.StatusInternalServerError
}
