package scenario

import (
	"context"
	"fmt"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
	"github.com/wastescan/detector/pkg/signal"
)

func registerFunctionScenarios(r *Registry) {
	r.Register(Scenario{
		ID: "unused_provisioned_concurrency", ResourceType: rules.ResourceFunction,
		RequiredTelemetry: []string{"ProvisionedConcurrencyUtilization"},
		Detect:            detectUnusedProvisionedConcurrency,
	})
	r.Register(Scenario{ID: "never_invoked_function", ResourceType: rules.ResourceFunction, Detect: detectNeverInvokedFunction})
	r.Register(Scenario{
		ID: "zero_invocations_function", ResourceType: rules.ResourceFunction,
		RequiredTelemetry: []string{"Invocations"},
		Detect:            detectZeroInvocationsFunction,
	})
	r.Register(Scenario{
		ID: "all_failures_function", ResourceType: rules.ResourceFunction,
		RequiredTelemetry: []string{"Invocations", "Errors"},
		Detect:            detectAllFailuresFunction,
	})
}

func detectUnusedProvisionedConcurrency(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("unused_provisioned_concurrency") {
		return nil, nil
	}
	provisioned, _ := r.Attributes["provisioned_concurrency"].(int)
	if provisioned == 0 {
		return nil, nil
	}
	minAge := c.Rules.IntOr("provisioned_min_age_days", 30)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}

	sample, err := c.Metric(ctx, "ProvisionedConcurrencyUtilization", c.Now.AddDate(0, 0, -minAge), c.Now)
	if err != nil {
		return nil, err
	}
	agg := signal.AggregateWindow(sample, minAge/2)
	if agg.Hint == signal.HintNone {
		return nil, nil
	}

	threshold := c.Rules.Float64Or("provisioned_utilization_threshold", 1.0)
	if agg.Maximum*100 > threshold {
		return nil, nil
	}

	return &detect.Evidence{
		OrphanType:   "unused_provisioned_concurrency",
		OrphanReason: fmt.Sprintf("%d units of provisioned concurrency sit at %.2f%% peak utilization over %d days", provisioned, agg.Maximum*100, minAge),
		Confidence:   detect.ConfidenceMedium,
		AgeDays:      age,
		Signals:      map[string]any{"provisioned_concurrency": provisioned, "peak_utilization_percent": agg.Maximum * 100},
	}, nil
}

func detectNeverInvokedFunction(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("never_invoked") {
		return nil, nil
	}
	minAge := c.Rules.IntOr("never_invoked_min_age_days", 30)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}

	sample, err := c.Metric(ctx, "Invocations", r.CreatedAt, c.Now)
	if err != nil {
		return nil, err
	}
	if sample.HasData && sample.Sum > 0 {
		return nil, nil
	}

	return &detect.Evidence{
		OrphanType:   "never_invoked_function",
		OrphanReason: fmt.Sprintf("function has existed for %d days and has never been invoked", age),
		Confidence:   detect.ConfidenceHigh,
		AgeDays:      age,
	}, nil
}

func detectZeroInvocationsFunction(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("zero_invocations") {
		return nil, nil
	}
	lookback := c.Rules.IntOr("zero_invocations_lookback_days", 90)
	age := r.AgeDays(c.Now)
	if age < lookback {
		return nil, nil
	}

	sample, err := c.Metric(ctx, "Invocations", c.Now.AddDate(0, 0, -lookback), c.Now)
	if err != nil {
		return nil, err
	}
	agg := signal.AggregateWindow(sample, lookback/2)
	if agg.Hint == signal.HintNone {
		return nil, nil
	}
	if agg.Sum > 0 {
		return nil, nil
	}

	return &detect.Evidence{
		OrphanType:   "zero_invocations_function",
		OrphanReason: fmt.Sprintf("function has had zero invocations over the last %d days", lookback),
		Confidence:   detect.ConfidenceForAge(lookback, c.Rules),
		AgeDays:      age,
	}, nil
}

func detectAllFailuresFunction(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("all_failures") {
		return nil, nil
	}
	lookback := c.Rules.IntOr("failure_lookback_days", 30)
	age := r.AgeDays(c.Now)
	if age < lookback {
		return nil, nil
	}

	invocations, err := c.Metric(ctx, "Invocations", c.Now.AddDate(0, 0, -lookback), c.Now)
	if err != nil {
		return nil, err
	}
	errors, err := c.Metric(ctx, "Errors", c.Now.AddDate(0, 0, -lookback), c.Now)
	if err != nil {
		return nil, err
	}
	invAgg := signal.AggregateWindow(invocations, lookback/2)
	errAgg := signal.AggregateWindow(errors, lookback/2)
	if invAgg.Hint == signal.HintNone && errAgg.Hint == signal.HintNone {
		return nil, nil
	}

	minInvocations := c.Rules.IntOr("min_invocations_for_failure_check", 10)
	if invAgg.Sum < float64(minInvocations) {
		return nil, nil
	}

	failureRate := (errAgg.Sum / invAgg.Sum) * 100
	threshold := c.Rules.Float64Or("failure_rate_threshold", 95.0)
	if failureRate < threshold {
		return nil, nil
	}

	return &detect.Evidence{
		OrphanType:   "all_failures_function",
		OrphanReason: fmt.Sprintf("%.1f%% of %d invocations over %d days failed, the function is effectively dead", failureRate, int(invAgg.Sum), lookback),
		Confidence:   detect.ConfidenceHigh,
		AgeDays:      age,
		Signals:      map[string]any{"failure_rate_percent": failureRate, "invocation_count": invAgg.Sum},
	}, nil
}
