package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
	"github.com/wastescan/detector/pkg/signal"
)

func registerInstanceScenarios(r *Registry) {
	r.Register(Scenario{ID: "stopped_instance", ResourceType: rules.ResourceInstance, Detect: detectStoppedInstance})
	r.Register(Scenario{
		ID: "idle_running_instance", ResourceType: rules.ResourceInstance,
		RequiredTelemetry: []string{"CPUUtilization", "NetworkIn", "NetworkOut"},
		Detect:            detectIdleRunningInstance,
	})
	r.Register(Scenario{ID: "old_generation_instance", ResourceType: rules.ResourceInstance, Detect: detectOldGenerationInstance})
	r.Register(Scenario{
		ID: "burstable_credit_waste", ResourceType: rules.ResourceInstance,
		RequiredTelemetry: []string{"CPUCreditBalance"},
		Detect:            detectBurstableCreditWaste,
	})
	r.Register(Scenario{ID: "dev_test_always_on", ResourceType: rules.ResourceInstance, Detect: detectDevTestAlwaysOn})
	r.Register(Scenario{
		ID: "right_sizing_opportunity", ResourceType: rules.ResourceInstance,
		RequiredTelemetry: []string{"CPUUtilization"},
		Detect:            detectRightSizingOpportunity,
	})
	r.Register(Scenario{
		ID: "oversized_instance_opportunity", ResourceType: rules.ResourceInstance,
		RequiredTelemetry: []string{"CPUUtilization"},
		Detect:            detectOversizedInstance,
	})
	r.Register(Scenario{
		ID: "spot_eligible_opportunity", ResourceType: rules.ResourceInstance,
		RequiredTelemetry: []string{"CPUUtilization"},
		Detect:            detectSpotEligible,
	})
	r.Register(Scenario{
		ID: "scheduled_unused_opportunity", ResourceType: rules.ResourceInstance,
		RequiredTelemetry: []string{"CPUUtilization"},
		Detect:            detectScheduledUnused,
	})
	r.Register(Scenario{ID: "untagged_instance", ResourceType: rules.ResourceInstance, Detect: detectUntaggedInstance})
}

func detectStoppedInstance(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if r.State != "stopped" {
		return nil, nil
	}
	minDays := c.Rules.IntOr("min_stopped_days", 30)
	stoppedDays := r.StateSinceDays(c.Now)
	if stoppedDays < minDays {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "stopped_instance",
		OrphanReason: fmt.Sprintf("instance has been stopped for %d days but still accrues EBS/EIP charges", stoppedDays),
		Confidence:   detect.ConfidenceForAge(stoppedDays, c.Rules),
		AgeDays:      stoppedDays,
		Signals:      map[string]any{"instance_type": r.Shape},
	}, nil
}

func detectIdleRunningInstance(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if r.State != "running" || !c.Rules.DetectEnabled("idle_running") {
		return nil, nil
	}
	minIdleDays := c.Rules.IntOr("min_idle_days", 7)

	cpu, err := c.Metric(ctx, "CPUUtilization", c.Now.AddDate(0, 0, -minIdleDays), c.Now)
	if err != nil {
		return nil, err
	}
	netIn, err := c.Metric(ctx, "NetworkIn", c.Now.AddDate(0, 0, -minIdleDays), c.Now)
	if err != nil {
		return nil, err
	}
	netOut, err := c.Metric(ctx, "NetworkOut", c.Now.AddDate(0, 0, -minIdleDays), c.Now)
	if err != nil {
		return nil, err
	}

	cpuAgg := signal.AggregateWindow(cpu, minIdleDays/2)
	if cpuAgg.Hint == signal.HintNone {
		return nil, nil
	}
	cpuThreshold := c.Rules.Float64Or("cpu_threshold_percent", 5.0)
	if cpuAgg.Maximum > cpuThreshold {
		return nil, nil
	}

	netAgg := signal.AggregateWindow(netIn, minIdleDays/2)
	netOutAgg := signal.AggregateWindow(netOut, minIdleDays/2)
	netThreshold := c.Rules.Float64Or("network_threshold_bytes", 1_000_000.0)
	if netAgg.Sum+netOutAgg.Sum > netThreshold {
		return nil, nil
	}

	return &detect.Evidence{
		OrphanType:   "idle_running_instance",
		OrphanReason: fmt.Sprintf("instance has run for %d days with peak CPU %.1f%% and negligible network traffic", minIdleDays, cpuAgg.Maximum),
		Confidence:   detect.ConfidenceForAge(minIdleDays, c.Rules),
		AgeDays:      r.AgeDays(c.Now),
		Signals:      map[string]any{"peak_cpu_percent": cpuAgg.Maximum, "network_bytes": netAgg.Sum + netOutAgg.Sum},
	}, nil
}

func detectOldGenerationInstance(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("old_generation") {
		return nil, nil
	}
	oldGenerations := c.Rules.StringSliceOr("old_generations", nil)
	family := strings.SplitN(r.Shape, ".", 2)[0]
	matched := false
	for _, g := range oldGenerations {
		if g == family {
			matched = true
			break
		}
	}
	if !matched {
		return nil, nil
	}
	age := r.AgeDays(c.Now)
	return &detect.Evidence{
		OrphanType:   "old_generation_instance",
		OrphanReason: fmt.Sprintf("instance type %s is a previous-generation family with a same-price newer equivalent", r.Shape),
		Confidence:   detect.ConfidenceMedium,
		AgeDays:      age,
		Signals:      map[string]any{"instance_family": family},
	}, nil
}

func detectBurstableCreditWaste(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("burstable_waste") {
		return nil, nil
	}
	family := strings.SplitN(r.Shape, ".", 2)[0]
	if family != "t2" && family != "t3" && family != "t3a" && family != "t4g" {
		return nil, nil
	}

	lookback := c.Rules.IntOr("burstable_lookback_days", 30)
	sample, err := c.Metric(ctx, "CPUCreditBalance", c.Now.AddDate(0, 0, -lookback), c.Now)
	if err != nil {
		return nil, err
	}
	_, _, hint := signal.Variance(sample)
	if hint == signal.HintNone {
		return nil, nil
	}

	agg := signal.AggregateWindow(sample, lookback/2)
	thresholdRatio := c.Rules.Float64Or("burstable_credit_threshold", 0.9)
	// A consistently near-maximum, barely-varying credit balance means the
	// workload never bursts — the flat-rate non-burstable family it'd be
	// downsized to costs the same or less with simpler capacity planning.
	if agg.Average < agg.Maximum*thresholdRatio {
		return nil, nil
	}

	return &detect.Evidence{
		OrphanType:   "burstable_credit_waste",
		OrphanReason: fmt.Sprintf("CPU credit balance stayed above %.0f%% of its cap for %d days, the workload never bursts", thresholdRatio*100, lookback),
		Confidence:   detect.ConfidenceMedium,
		AgeDays:      r.AgeDays(c.Now),
		Signals:      map[string]any{"average_credit_balance": agg.Average, "peak_credit_balance": agg.Maximum},
	}, nil
}

func detectDevTestAlwaysOn(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if r.State != "running" || !c.Rules.DetectEnabled("dev_test_24_7") {
		return nil, nil
	}
	envTags := c.Rules.StringSliceOr("nonprod_env_tags", nil)
	envValues := c.Rules.StringSliceOr("nonprod_env_values", nil)
	if !rules.HasTaggedValue(r.Tags, envTags, envValues) {
		return nil, nil
	}
	minAge := c.Rules.IntOr("nonprod_min_age_days", 7)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "dev_test_always_on",
		OrphanReason: fmt.Sprintf("non-production instance has run continuously for %d days with no scheduled shutdown", age),
		Confidence:   detect.ConfidenceMedium,
		AgeDays:      age,
	}, nil
}

func detectRightSizingOpportunity(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if r.State != "running" || !c.Rules.DetectEnabled("right_sizing") {
		return nil, nil
	}
	lookback := c.Rules.IntOr("right_sizing_lookback_days", 30)
	sample, err := c.Metric(ctx, "CPUUtilization", c.Now.AddDate(0, 0, -lookback), c.Now)
	if err != nil {
		return nil, err
	}
	agg := signal.AggregateWindow(sample, lookback/2)
	if agg.Hint == signal.HintNone {
		return nil, nil
	}

	lowThreshold := c.Rules.Float64Or("right_sizing_cpu_threshold", 40.0)
	highThreshold := c.Rules.Float64Or("right_sizing_max_cpu_threshold", 75.0)
	if agg.Maximum < lowThreshold || agg.Maximum > highThreshold {
		return nil, nil
	}

	return &detect.Evidence{
		OrphanType:   "right_sizing_opportunity",
		OrphanReason: fmt.Sprintf("peak CPU utilization of %.1f%% over %d days suggests a smaller instance size would suffice", agg.Maximum, lookback),
		Confidence:   detect.ConfidenceMedium,
		AgeDays:      r.AgeDays(c.Now),
		Signals:      map[string]any{"peak_cpu_percent": agg.Maximum},
	}, nil
}

// detectOversizedInstance fires on a stronger signal than
// detectRightSizingOpportunity: peak CPU consistently below a single low
// threshold, rather than inside a band, indicating the instance is far
// more than one size larger than its workload needs.
func detectOversizedInstance(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if r.State != "running" || !c.Rules.DetectEnabled("oversized") {
		return nil, nil
	}
	lookback := c.Rules.IntOr("oversized_lookback_days", 30)
	sample, err := c.Metric(ctx, "CPUUtilization", c.Now.AddDate(0, 0, -lookback), c.Now)
	if err != nil {
		return nil, err
	}
	agg := signal.AggregateWindow(sample, lookback/2)
	if agg.Hint == signal.HintNone {
		return nil, nil
	}

	threshold := c.Rules.Float64Or("oversized_cpu_threshold", 30.0)
	if agg.Maximum >= threshold {
		return nil, nil
	}

	return &detect.Evidence{
		OrphanType:   "oversized_instance_opportunity",
		OrphanReason: fmt.Sprintf("peak CPU utilization of %.1f%% over %d days is well under the %.0f%% threshold that would justify this instance's size", agg.Maximum, lookback, threshold),
		Confidence:   detect.ConfidenceMedium,
		AgeDays:      r.AgeDays(c.Now),
		Signals:      map[string]any{"peak_cpu_percent": agg.Maximum},
	}, nil
}

// detectSpotEligible looks for a long-running instance whose CPU load is
// both low-variance and steady, the profile of a workload that tolerates
// interruption and is a Spot pricing candidate.
func detectSpotEligible(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if r.State != "running" || !c.Rules.DetectEnabled("spot_eligible") {
		return nil, nil
	}
	minUptime := c.Rules.IntOr("spot_min_uptime_days", 7)
	age := r.AgeDays(c.Now)
	if age < minUptime {
		return nil, nil
	}

	sample, err := c.Metric(ctx, "CPUUtilization", c.Now.AddDate(0, 0, -minUptime), c.Now)
	if err != nil {
		return nil, err
	}
	agg := signal.AggregateWindow(sample, minUptime/2)
	if agg.Hint == signal.HintNone || agg.Average <= 0 {
		return nil, nil
	}
	_, stddev, varHint := signal.Variance(sample)
	if varHint == signal.HintNone {
		return nil, nil
	}

	coefficientOfVariation := (stddev / agg.Average) * 100
	threshold := c.Rules.Float64Or("spot_cpu_variance_threshold", 20.0)
	if coefficientOfVariation > threshold {
		return nil, nil
	}

	return &detect.Evidence{
		OrphanType:   "spot_eligible_opportunity",
		OrphanReason: fmt.Sprintf("CPU load has stayed steady (%.1f%% coefficient of variation) for %d days, a workload profile that tolerates Spot interruption", coefficientOfVariation, minUptime),
		Confidence:   detect.ConfidenceLow,
		AgeDays:      age,
		Signals:      map[string]any{"cpu_coefficient_of_variation_percent": coefficientOfVariation},
	}, nil
}

// detectScheduledUnused looks for an always-on instance whose CPU load is
// concentrated inside a configured business-hours window, meaning it could
// be stopped on a schedule outside that window without affecting anyone.
func detectScheduledUnused(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if r.State != "running" || !c.Rules.DetectEnabled("scheduled_unused") {
		return nil, nil
	}
	lookback := c.Rules.IntOr("scheduled_lookback_days", 14)
	sample, err := c.Metric(ctx, "CPUUtilization", c.Now.AddDate(0, 0, -lookback), c.Now)
	if err != nil {
		return nil, err
	}

	startHour := c.Rules.IntOr("business_hours_start", 9)
	endHour := c.Rules.IntOr("business_hours_end", 18)
	split := signal.BusinessHoursSplit(sample, startHour, endHour)
	if split.Hint == signal.HintNone {
		return nil, nil
	}

	cpuThreshold := c.Rules.Float64Or("scheduled_cpu_threshold", 10.0)
	if split.OffHoursShare == 0 {
		return nil, nil
	}
	agg := signal.AggregateWindow(sample, lookback/2)
	if agg.Hint == signal.HintNone || agg.Maximum > cpuThreshold*3 {
		// A genuinely idle off-hours window still shows some headroom; an
		// instance whose overall peak is high regardless of the hour isn't
		// a scheduling candidate, it's just busy.
		return nil, nil
	}

	age := r.AgeDays(c.Now)
	return &detect.Evidence{
		OrphanType:   "scheduled_unused_opportunity",
		OrphanReason: fmt.Sprintf("%.0f%% of this instance's activity falls outside the %02d:00-%02d:00 business-hours window it could instead run in", split.OffHoursShare*100, startHour, endHour),
		Confidence:   detect.ConfidenceMedium,
		AgeDays:      age,
		Signals:      map[string]any{"off_hours_share": split.OffHoursShare},
	}, nil
}

func detectUntaggedInstance(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("untagged") {
		return nil, nil
	}
	if len(r.Tags) > 0 {
		return nil, nil
	}
	minAge := c.Rules.IntOr("untagged_min_age_days", 30)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "untagged_instance",
		OrphanReason: fmt.Sprintf("instance has no tags and is %d days old, making ownership unclear", age),
		Confidence:   detect.ConfidenceLow,
		AgeDays:      age,
	}, nil
}
