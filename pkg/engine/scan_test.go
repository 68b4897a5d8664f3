package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/provider"
	"github.com/wastescan/detector/pkg/rules"
	"github.com/wastescan/detector/pkg/scenario"
)

// fakeAdapter is a minimal in-memory provider.Adapter for exercising the
// orchestrator's dispatch and failure-isolation logic without touching AWS.
type fakeAdapter struct {
	identity      provider.AccountIdentity
	identityErr   error
	regions       []string
	regionsErr    error
	resourcesByRT map[string][]detect.Resource
	errByRT       map[string]error
}

func (f *fakeAdapter) ValidateCredentials(ctx context.Context) (provider.AccountIdentity, error) {
	if err := ctx.Err(); err != nil {
		return provider.AccountIdentity{}, err
	}
	return f.identity, f.identityErr
}

func (f *fakeAdapter) ListRegions(ctx context.Context) ([]string, error) {
	return f.regions, f.regionsErr
}

func (f *fakeAdapter) ListResources(ctx context.Context, region string, filter provider.Filter) (detect.ResourceInventory, error) {
	if err, ok := f.errByRT[filter.ResourceType]; ok {
		return detect.ResourceInventory{}, err
	}
	return detect.ResourceInventory{
		ResourceType: filter.ResourceType,
		Region:       region,
		Resources:    f.resourcesByRT[filter.ResourceType],
	}, nil
}

func (f *fakeAdapter) GetMetric(ctx context.Context, req provider.MetricRequest) (detect.TelemetrySample, error) {
	return detect.ZeroSample(req.Metric), nil
}

func (f *fakeAdapter) ListRelated(ctx context.Context, region, parentID string, kind provider.RelationKind) ([]string, error) {
	return nil, nil
}

func testEngine(t *testing.T, adapter provider.Adapter, catalog *scenario.Registry) *Engine {
	t.Helper()
	e, err := New(context.Background(), adapter,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithCatalog(catalog),
		WithConfig(Config{SkipTelemetry: true}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func singleScenarioCatalog(resourceType, id string, detect func(ctx context.Context, c scenario.Context, r detect.Resource) (*detect.Evidence, error)) *scenario.Registry {
	r := scenario.NewRegistry()
	r.Register(scenario.Scenario{ID: id, ResourceType: resourceType, Detect: detect})
	return r
}

func TestScanFailsFastOnInvalidCredentials(t *testing.T) {
	adapter := &fakeAdapter{identityErr: errors.New("bad credentials")}
	e := testEngine(t, adapter, scenario.NewRegistry())

	_, err := e.Scan(context.Background(), "", []string{"us-east-1"}, nil)
	if err == nil {
		t.Fatal("expected an error when credential validation fails")
	}
}

func TestScanReturnsEmptyResultWhenNoRegionsAvailable(t *testing.T) {
	adapter := &fakeAdapter{regions: nil}
	e := testEngine(t, adapter, scenario.NewRegistry())

	result, err := e.Scan(context.Background(), "", nil, nil)
	if err != nil {
		t.Fatalf("expected no error when no regions are supplied or discoverable, got %v", err)
	}
	if len(result.Findings) != 0 {
		t.Fatalf("expected no findings, got %d", len(result.Findings))
	}
}

func TestScanReturnsFindingsFromRegisteredScenario(t *testing.T) {
	catalog := singleScenarioCatalog(rules.ResourceVolume, "always_fires",
		func(ctx context.Context, c scenario.Context, r detect.Resource) (*detect.Evidence, error) {
			return &detect.Evidence{OrphanType: "always_fires", Confidence: detect.ConfidenceHigh}, nil
		})
	adapter := &fakeAdapter{
		resourcesByRT: map[string][]detect.Resource{
			rules.ResourceVolume: {{ID: "vol-1", Name: "vol-1"}},
		},
	}
	e := testEngine(t, adapter, catalog)

	result, err := e.Scan(context.Background(), "", []string{"us-east-1"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Findings) != 1 {
		t.Fatalf("findings = %d, want 1", len(result.Findings))
	}
	if result.Findings[0].ResourceID != "vol-1" {
		t.Fatalf("resource id = %q, want vol-1", result.Findings[0].ResourceID)
	}
	if len(result.ScannedRegions) != 1 {
		t.Fatalf("scanned regions = %d, want 1", len(result.ScannedRegions))
	}
}

func TestScanClassifiesAuthorizationErrorAsSkipped(t *testing.T) {
	catalog := scenario.NewRegistry()
	catalog.Register(scenario.Scenario{ID: "x", ResourceType: rules.ResourceVolume,
		Detect: func(ctx context.Context, c scenario.Context, r detect.Resource) (*detect.Evidence, error) { return nil, nil }})
	adapter := &fakeAdapter{
		errByRT: map[string]error{
			rules.ResourceVolume: detect.NewScopedError(detect.ErrorKindAuthorization, "region=us-east-1 resource_type=volume", errors.New("access denied")),
		},
	}
	e := testEngine(t, adapter, catalog)

	result, err := e.Scan(context.Background(), "", []string{"us-east-1"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.SkippedScenarios) != 1 {
		t.Fatalf("skipped = %d, want 1", len(result.SkippedScenarios))
	}
	if len(result.PerRegionErrors) != 0 {
		t.Fatalf("per_region_errors = %d, want 0 (authorization failures are skipped, not errored)", len(result.PerRegionErrors))
	}
}

func TestScanClassifiesOtherListResourcesErrorAsPerRegionError(t *testing.T) {
	catalog := scenario.NewRegistry()
	catalog.Register(scenario.Scenario{ID: "x", ResourceType: rules.ResourceVolume,
		Detect: func(ctx context.Context, c scenario.Context, r detect.Resource) (*detect.Evidence, error) { return nil, nil }})
	adapter := &fakeAdapter{
		errByRT: map[string]error{
			rules.ResourceVolume: errors.New("some transient failure"),
		},
	}
	e := testEngine(t, adapter, catalog)

	result, err := e.Scan(context.Background(), "", []string{"us-east-1"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.PerRegionErrors) != 1 {
		t.Fatalf("per_region_errors = %d, want 1", len(result.PerRegionErrors))
	}
	if len(result.SkippedScenarios) != 0 {
		t.Fatalf("skipped = %d, want 0", len(result.SkippedScenarios))
	}
}

func TestScanStrictModeReturnsErrPartialScan(t *testing.T) {
	catalog := scenario.NewRegistry()
	catalog.Register(scenario.Scenario{ID: "x", ResourceType: rules.ResourceVolume,
		Detect: func(ctx context.Context, c scenario.Context, r detect.Resource) (*detect.Evidence, error) { return nil, nil }})
	adapter := &fakeAdapter{
		errByRT: map[string]error{rules.ResourceVolume: errors.New("boom")},
	}
	e, err := New(context.Background(), adapter,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithCatalog(catalog),
		WithConfig(Config{SkipTelemetry: true, StrictMode: true}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, scanErr := e.Scan(context.Background(), "", []string{"us-east-1"}, nil)
	if !errors.Is(scanErr, detect.ErrPartialScan) {
		t.Fatalf("err = %v, want ErrPartialScan under StrictMode", scanErr)
	}
}

func TestScanNonStrictModeToleratesPartialResults(t *testing.T) {
	catalog := scenario.NewRegistry()
	catalog.Register(scenario.Scenario{ID: "x", ResourceType: rules.ResourceVolume,
		Detect: func(ctx context.Context, c scenario.Context, r detect.Resource) (*detect.Evidence, error) { return nil, nil }})
	adapter := &fakeAdapter{
		errByRT: map[string]error{rules.ResourceVolume: errors.New("boom")},
	}
	e := testEngine(t, adapter, catalog)

	_, scanErr := e.Scan(context.Background(), "", []string{"us-east-1"}, nil)
	if scanErr != nil {
		t.Fatalf("unexpected error without StrictMode: %v", scanErr)
	}
}

func TestScanOnlyClaimsGlobalResourceTypeOnce(t *testing.T) {
	var callCount int
	catalog := scenario.NewRegistry()
	catalog.Register(scenario.Scenario{ID: "bucket_check", ResourceType: rules.ResourceObjectBucket,
		Detect: func(ctx context.Context, c scenario.Context, r detect.Resource) (*detect.Evidence, error) {
			return nil, nil
		}})

	adapter := &fakeCountingAdapter{
		fakeAdapter: fakeAdapter{
			resourcesByRT: map[string][]detect.Resource{
				rules.ResourceObjectBucket: {{ID: "bucket-1"}},
			},
		},
		count: &callCount,
	}
	e := testEngine(t, adapter, catalog)

	_, err := e.Scan(context.Background(), "", []string{"us-east-1", "us-west-2", "eu-west-1"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if callCount != 1 {
		t.Fatalf("object_bucket was listed %d times across regions, want exactly 1", callCount)
	}
}

// fakeCountingAdapter tracks how many times the global resource type is
// listed, across every concurrently dispatched region.
type fakeCountingAdapter struct {
	fakeAdapter
	count *int
	mu    sync.Mutex
}

func (f *fakeCountingAdapter) ListResources(ctx context.Context, region string, filter provider.Filter) (detect.ResourceInventory, error) {
	if filter.ResourceType == rules.ResourceObjectBucket {
		f.mu.Lock()
		*f.count++
		f.mu.Unlock()
	}
	return f.fakeAdapter.ListResources(ctx, region, filter)
}

func TestRegionScanTimeoutExceedsAdapterCallTimeout(t *testing.T) {
	if regionScanTimeout <= 0 {
		t.Fatal("regionScanTimeout must be positive")
	}
	if adapterCallTimeout <= 0 {
		t.Fatal("adapterCallTimeout must be positive")
	}
	if regionScanTimeout <= adapterCallTimeout {
		t.Fatal("region timeout should comfortably exceed a single adapter call's timeout")
	}
}

func TestScanDeduplicatesAcrossScenarios(t *testing.T) {
	catalog := scenario.NewRegistry()
	catalog.Register(scenario.Scenario{ID: "a", ResourceType: rules.ResourceVolume,
		Detect: func(ctx context.Context, c scenario.Context, r detect.Resource) (*detect.Evidence, error) {
			return &detect.Evidence{OrphanType: "a", Confidence: detect.ConfidenceLow}, nil
		}})
	catalog.Register(scenario.Scenario{ID: "b", ResourceType: rules.ResourceVolume,
		Detect: func(ctx context.Context, c scenario.Context, r detect.Resource) (*detect.Evidence, error) {
			return &detect.Evidence{OrphanType: "b", Confidence: detect.ConfidenceHigh}, nil
		}})
	adapter := &fakeAdapter{
		resourcesByRT: map[string][]detect.Resource{
			rules.ResourceVolume: {{ID: "vol-1"}},
		},
	}
	e := testEngine(t, adapter, catalog)

	result, err := e.Scan(context.Background(), "", []string{"us-east-1"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Findings) != 1 {
		t.Fatalf("findings = %d, want 1 (both scenarios hit the same resource, merged)", len(result.Findings))
	}
	if result.Findings[0].ConfidenceLevel() != detect.ConfidenceHigh {
		t.Fatalf("confidence = %v, want promoted to high", result.Findings[0].ConfidenceLevel())
	}
}

func TestScanWarnsButContinuesOnAccountMismatch(t *testing.T) {
	catalog := scenario.NewRegistry()
	adapter := &fakeAdapter{identity: provider.AccountIdentity{AccountID: "111111111111"}}
	e := testEngine(t, adapter, catalog)

	_, err := e.Scan(context.Background(), "222222222222", []string{"us-east-1"}, nil)
	if err != nil {
		t.Fatalf("account mismatch should warn, not fail the scan: %v", err)
	}
}

func TestScanRespectsContextCancellation(t *testing.T) {
	catalog := scenario.NewRegistry()
	catalog.Register(scenario.Scenario{ID: "x", ResourceType: rules.ResourceVolume,
		Detect: func(ctx context.Context, c scenario.Context, r detect.Resource) (*detect.Evidence, error) { return nil, nil }})
	adapter := &fakeAdapter{}
	e := testEngine(t, adapter, catalog)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := e.Scan(ctx, "", []string{"us-east-1"}, nil)
	if err == nil {
		t.Fatal("expected an error (credential validation sees the already-expired context)")
	}
}
