package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/provider"
	"github.com/wastescan/detector/pkg/rules"
	"github.com/wastescan/detector/pkg/scenario"
)

// regionScanTimeout bounds how long a single region's scan may run before
// it is marked partial and abandoned; other regions are unaffected.
const regionScanTimeout = 5 * time.Minute

// adapterCallTimeout bounds one adapter call (ListResources, GetMetric,
// ListRelated). The spec's 60s-connect/60s-read split is a detail the
// AWS SDK's own HTTP client already enforces per-attempt; at the
// orchestrator layer a single end-to-end deadline is what matters.
const adapterCallTimeout = 120 * time.Second

// Scan runs every enabled scenario against every resource of every
// resource type the catalog knows about, across regionsOrAll (or every
// region ListRegions reports, if empty), and returns the deduplicated
// result (§4.6).
//
// A credential validation failure aborts before any region is touched.
// Every other failure — a denied resource-type enumeration, a metric call
// that errors, a scenario panic-free failure, a region timing out — is
// isolated to its own scope and recorded in the result; it never fails
// the scan as a whole, except that with Config.StrictMode a partial result
// is returned together with detect.ErrPartialScan.
func (e *Engine) Scan(ctx context.Context, account string, regionsOrAll []string, overrides rules.RuleSet) (ScanResult, error) {
	// account is not attached to the span: it is treated the same as any
	// other account identifier redactSensitiveData scrubs from logs.
	ctx, span := e.Tracer.Start(ctx, "Engine.Scan")
	defer span.End()
	defer e.recoverPanic(ctx)

	identity, err := e.Adapter.ValidateCredentials(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "credential validation failed")
		return ScanResult{}, fmt.Errorf("validate credentials: %w", err)
	}
	if account != "" && identity.AccountID != "" && account != identity.AccountID {
		e.Logger.Warn("scan requested for an account that does not match validated credentials",
			"requested_account", account, "validated_account", identity.AccountID)
	}

	regions := regionsOrAll
	if len(regions) == 0 {
		regions, err = e.Adapter.ListRegions(ctx)
		if err != nil {
			entry := detect.ScopeError{Scope: "regions", Kind: detect.ErrorKindUnexpectedData, Err: err.Error()}
			var aerr *detect.AdapterError
			if errors.As(err, &aerr) {
				entry.Kind = aerr.Kind
			}
			result := ScanResult{PerRegionErrors: []detect.ScopeError{entry}}
			if e.config.StrictMode {
				return result, detect.ErrPartialScan
			}
			return result, nil
		}
	}
	if len(regions) == 0 {
		return ScanResult{}, nil
	}

	var (
		mu              sync.Mutex
		allFindings     []detect.Finding
		allRegionErrors []detect.ScopeError
		allSkipped      []detect.ScopeError
		globalClaimed   bool
	)

	for _, region := range regions {
		region := region
		e.regionPool.Go(ctx, func(ctx context.Context) error {
			defer e.recoverPanic(ctx)
			mu.Lock()
			claimGlobal := !globalClaimed
			if claimGlobal {
				globalClaimed = true
			}
			mu.Unlock()

			res := e.scanRegion(ctx, region, overrides, claimGlobal)

			mu.Lock()
			allFindings = append(allFindings, res.findings...)
			allRegionErrors = append(allRegionErrors, res.errors...)
			allSkipped = append(allSkipped, res.skipped...)
			mu.Unlock()
			return nil
		})
	}
	e.regionPool.Wait()

	deduped := detect.Deduplicate(allFindings)

	e.Logger.Info("scan complete",
		"regions_scanned", len(regions),
		"findings", len(deduped),
		"region_errors", len(allRegionErrors),
		"skipped_scenarios", len(allSkipped),
	)
	span.SetAttributes(
		attribute.Int("scan.regions", len(regions)),
		attribute.Int("scan.findings", len(deduped)),
		attribute.Bool("scan.partial", len(allRegionErrors) > 0 || len(allSkipped) > 0),
	)

	result := ScanResult{
		Findings:         deduped,
		PerRegionErrors:  allRegionErrors,
		ScannedRegions:   regions,
		SkippedScenarios: allSkipped,
	}

	if e.config.StrictMode && result.Partial() {
		return result, detect.ErrPartialScan
	}
	return result, nil
}

// regionResult is one region-scan's contribution to the overall Scan.
type regionResult struct {
	findings []detect.Finding
	errors   []detect.ScopeError
	skipped  []detect.ScopeError
}

// scanRegion runs every enabled resource type's scenarios against one
// region, building up a cross-resource-type inventory map as it goes so
// later resource types' scenarios can look up resources discovered
// earlier in the same region (§4.1 Context.Region). includeGlobal allows
// exactly one region (the first dispatched) to also run the
// account-scoped resource types against detect.GlobalRegion.
func (e *Engine) scanRegion(ctx context.Context, region string, overrides rules.RuleSet, includeGlobal bool) regionResult {
	ctx, cancel := context.WithTimeout(ctx, regionScanTimeout)
	defer cancel()

	regionInventories := make(map[string]detect.ResourceInventory)
	var out regionResult

	for _, rt := range rules.AllResourceTypes {
		if ctx.Err() != nil {
			out.errors = append(out.errors, detect.ScopeError{
				Scope: fmt.Sprintf("region=%s", region),
				Kind:  detect.ErrorKindTimeout,
				Err:   "region scan deadline exceeded; remaining resource types not scanned",
			})
			break
		}

		isGlobal := rules.GlobalResourceTypes[rt]
		if isGlobal && !includeGlobal {
			continue
		}

		scenarios := e.Catalog.For(rt)
		if len(scenarios) == 0 {
			continue
		}

		scopeRegion := region
		if isGlobal {
			scopeRegion = detect.GlobalRegion
		}
		scope := fmt.Sprintf("region=%s resource_type=%s", scopeRegion, rt)

		inv, err := e.listResourcesBounded(ctx, scopeRegion, rt)
		if err != nil {
			entry := detect.ScopeError{Scope: scope, Err: err.Error()}
			var aerr *detect.AdapterError
			if errors.As(err, &aerr) {
				entry.Kind = aerr.Kind
			} else {
				entry.Kind = detect.ErrorKindUnexpectedData
			}
			if entry.Kind == detect.ErrorKindAuthorization {
				out.skipped = append(out.skipped, entry)
			} else {
				out.errors = append(out.errors, entry)
			}
			continue
		}

		regionInventories[rt] = inv
		resolved := e.Rules.Resolve(rt, overrides)

		findings, skipped := e.runScenarios(ctx, rt, scopeRegion, inv, resolved, regionInventories, scenarios)
		out.findings = append(out.findings, findings...)
		out.skipped = append(out.skipped, skipped...)
	}

	return out
}

// listResourcesBounded enumerates one resource type in one region,
// holding an adapter-call-tier slot for the duration of the call.
func (e *Engine) listResourcesBounded(ctx context.Context, region, resourceType string) (detect.ResourceInventory, error) {
	callCtx, cancel := context.WithTimeout(ctx, adapterCallTimeout)
	defer cancel()

	if err := e.adapterPool.Acquire(callCtx); err != nil {
		return detect.ResourceInventory{}, err
	}
	defer e.adapterPool.Release()

	return e.Adapter.ListResources(callCtx, region, provider.Filter{ResourceType: resourceType})
}

// runScenarios evaluates every scenario registered for rt against every
// resource in inv, each (resource, scenario) pair bounded by the
// adapter-call-tier pool since a scenario's Detect may itself call back
// into the adapter for metrics or relationships.
func (e *Engine) runScenarios(
	ctx context.Context,
	rt, region string,
	inv detect.ResourceInventory,
	resolved rules.ResolvedRules,
	regionInventories map[string]detect.ResourceInventory,
	scenarios []scenario.Scenario,
) ([]detect.Finding, []detect.ScopeError) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		findings []detect.Finding
		skipped  []detect.ScopeError
	)

	for _, res := range inv.Resources {
		res := res
		for _, scn := range scenarios {
			scn := scn
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer e.recoverPanic(ctx)

				callCtx, cancel := context.WithTimeout(ctx, adapterCallTimeout)
				defer cancel()
				if err := e.adapterPool.Acquire(callCtx); err != nil {
					mu.Lock()
					skipped = append(skipped, detect.ScopeError{
						Scope: fmt.Sprintf("region=%s resource_type=%s resource=%s scenario=%s", region, rt, res.ID, scn.ID),
						Kind:  detect.ErrorKindTimeout,
						Err:   err.Error(),
					})
					mu.Unlock()
					return
				}
				defer e.adapterPool.Release()

				sctx := scenario.Context{
					Now:   time.Now(),
					Rules: resolved,
					Metric: func(ctx context.Context, metric string, start, end time.Time) (detect.TelemetrySample, error) {
						return e.Adapter.GetMetric(ctx, provider.MetricRequest{
							ResourceType: rt, ResourceID: res.ID, Region: region,
							Metric: metric, Start: start, End: end, PeriodSeconds: 300,
						})
					},
					Related: func(ctx context.Context, kind string) ([]string, error) {
						return e.Adapter.ListRelated(ctx, region, res.ID, provider.RelationKind(kind))
					},
					RelatedMetric: func(ctx context.Context, resourceType, resourceID, metric string, start, end time.Time) (detect.TelemetrySample, error) {
						return e.Adapter.GetMetric(ctx, provider.MetricRequest{
							ResourceType: resourceType, ResourceID: resourceID, Region: region,
							Metric: metric, Start: start, End: end, PeriodSeconds: 300,
						})
					},
					Inventory: inv,
					Region:    regionInventories,
				}
				ev, err := scn.Detect(callCtx, sctx, res)
				if err != nil {
					mu.Lock()
					skipped = append(skipped, detect.ScopeError{
						Scope: fmt.Sprintf("region=%s resource_type=%s resource=%s scenario=%s", region, rt, res.ID, scn.ID),
						Kind:  classifyScenarioErr(err),
						Err:   err.Error(),
					})
					mu.Unlock()
					return
				}
				if ev == nil {
					return
				}

				cost := e.costFor(rt, res, *ev)
				finding := detect.NewFinding(rt, res.ID, res.Name, region, cost, *ev)

				mu.Lock()
				findings = append(findings, finding)
				mu.Unlock()
			}()
		}
	}

	wg.Wait()
	return findings, skipped
}

// costFor prices a Finding's EstimatedMonthlyCost according to its orphan
// type's cost convention (detect.ConventionForOrphanType): most scenarios
// price the resource's full absolute cost, but optimization scenarios
// (orphan types ending in _opportunity, _oversized, etc.) price only the
// avoidable delta between the current and right-sized shape.
func (e *Engine) costFor(resourceType string, r detect.Resource, ev detect.Evidence) float64 {
	if detect.ConventionForOrphanType(ev.OrphanType) == detect.CostDelta {
		return e.Pricing.Delta(resourceType, r, ev)
	}
	return e.Pricing.Cost(resourceType, r).TotalMonthlyUSD
}

func classifyScenarioErr(err error) detect.ErrorKind {
	var aerr *detect.AdapterError
	if errors.As(err, &aerr) {
		return aerr.Kind
	}
	return detect.ErrorKindUnexpectedData
}
