// Package engine wires the provider adapter, rule registry, scenario
// catalog and pricing catalog into the scan orchestrator (§4.6). It lives
// apart from pkg/detect because pkg/scenario already imports pkg/detect —
// an orchestrator importing both would cycle back through pkg/detect if it
// lived there instead.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wastescan/detector/internal/swarm"
	"github.com/wastescan/detector/internal/telemetry"
	"github.com/wastescan/detector/internal/version"
	"github.com/wastescan/detector/pkg/pricing"
	"github.com/wastescan/detector/pkg/provider"
	"github.com/wastescan/detector/pkg/rules"
	"github.com/wastescan/detector/pkg/scenario"
)

// Config holds the orchestrator's tunables, separated from its
// constructed dependencies (Option) so a caller can load these straight
// off a CLI flag set or config file.
type Config struct {
	// RegionConcurrency bounds how many regions are scanned at once
	// (default 8, §4.6).
	RegionConcurrency int
	// AdapterConcurrency bounds how many adapter calls (ListResources,
	// GetMetric, ListRelated) run at once within a single region-scan
	// (default 16, §4.6).
	AdapterConcurrency int
	// DiscountFactor nudges EC2-family compute pricing for a Savings
	// Plan/RI blended rate; 1.0 (or unset) is undiscounted list price.
	DiscountFactor float64
	// StrictMode turns a partial scan (any per-region error or
	// skipped_scenarios entry, see ScanResult.Partial) into
	// a returned ErrPartialScan instead of a merely logged warning.
	StrictMode bool
	// OtelEndpoint is an explicit OTLP/HTTP collector address; empty
	// means "use OTEL_EXPORTER_OTLP_ENDPOINT, or fall back to discard".
	OtelEndpoint string
	// SkipTelemetry disables OTel initialization entirely, for embedding
	// into a host process that already manages its own TracerProvider.
	SkipTelemetry bool
}

// Engine is the runtime core: one constructed Engine can run any number of
// Scan calls against its configured Adapter.
type Engine struct {
	Adapter  provider.Adapter
	Rules    *rules.Registry
	Catalog  *scenario.Registry
	Pricing  *pricing.Catalog
	Logger   *slog.Logger
	Tracer   trace.Tracer

	regionPool  *swarm.Pool
	adapterPool *swarm.Pool

	config Config
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger overrides the default redacting JSON logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.Logger = l }
}

// WithConfig applies cfg, overriding concurrency, discount factor,
// strictness and telemetry settings in one call. Rule overrides are not
// part of Config; they are passed to each Scan call.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.config = cfg }
}

// WithRules swaps in a caller-built rule Registry instead of the built-in
// defaults (mainly for tests that want a minimal rule table).
func WithRules(r *rules.Registry) Option {
	return func(e *Engine) { e.Rules = r }
}

// WithCatalog swaps in a caller-built scenario Registry instead of the
// full built-in Catalog() (mainly for tests exercising a single scenario).
func WithCatalog(c *scenario.Registry) Option {
	return func(e *Engine) { e.Catalog = c }
}

// New builds an Engine bound to adapter, applying opts over safe defaults,
// and initializes OpenTelemetry tracing unless the config disables it.
func New(ctx context.Context, adapter provider.Adapter, opts ...Option) (*Engine, error) {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		ReplaceAttr: redactSensitiveData,
	})
	e := &Engine{
		Adapter: adapter,
		Rules:   rules.NewRegistry(),
		Catalog: scenario.Catalog(),
		Pricing: pricing.NewCatalog(1.0),
		Logger:  slog.New(handler),
		Tracer:  otel.Tracer("wastescan/engine"),
		config: Config{
			RegionConcurrency:  8,
			AdapterConcurrency: 16,
		},
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.config.RegionConcurrency <= 0 {
		e.config.RegionConcurrency = 8
	}
	if e.config.AdapterConcurrency <= 0 {
		e.config.AdapterConcurrency = 16
	}
	if e.config.DiscountFactor > 0 {
		e.Pricing = pricing.NewCatalog(e.config.DiscountFactor)
	}

	e.regionPool = swarm.New(e.config.RegionConcurrency)
	e.adapterPool = swarm.New(e.config.AdapterConcurrency)

	if !e.config.SkipTelemetry {
		shutdown, err := telemetry.Init(ctx, version.AppName, version.Current, e.config.OtelEndpoint)
		if err != nil {
			e.Logger.Warn("telemetry init failed, continuing without it", "error", err)
		} else {
			_ = shutdown // caller-owned shutdown is out of scope for a constructor
		}
	}

	return e, nil
}

// recoverPanic converts a panic inside Scan into a recorded span event and
// a logged error instead of crashing the host process; a library caller
// running many scans must not have one bad region take the whole process
// down.
func (e *Engine) recoverPanic(ctx context.Context) {
	if r := recover(); r != nil {
		tr := otel.Tracer("wastescan/engine")
		_, span := tr.Start(ctx, "panic_recovered")
		stack := debug.Stack()

		span.RecordError(fmt.Errorf("%v", r), trace.WithStackTrace(true))
		span.SetStatus(codes.Error, "panic recovered")
		span.SetAttributes(attribute.String("panic.stack", string(stack)))
		span.End()

		e.Logger.Error("recovered from panic during scan", "panic", r, "stack", string(stack))
	}
}

// redactSensitiveData is a slog.HandlerOptions.ReplaceAttr hook that
// scrubs account identifiers and credential-shaped values from every log
// line, regardless of which component logged them.
func redactSensitiveData(groups []string, a slog.Attr) slog.Attr {
	sensitiveKeys := map[string]bool{
		"account": true, "account_id": true, "requested_account": true, "validated_account": true,
		"password": true, "access_key": true,
		"token": true, "secret": true, "api_key": true, "private_key": true,
		"auth_token": true, "refresh_token": true, "certificate": true,
		"signature": true, "credential": true, "session_token": true,
	}
	if sensitiveKeys[a.Key] {
		return slog.Attr{Key: a.Key, Value: slog.StringValue("[REDACTED]")}
	}
	return a
}
