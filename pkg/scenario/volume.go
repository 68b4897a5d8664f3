package scenario

import (
	"context"
	"fmt"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
	"github.com/wastescan/detector/pkg/signal"
)

func registerVolumeScenarios(r *Registry) {
	r.Register(Scenario{
		ID:           "unattached_volume",
		ResourceType: rules.ResourceVolume,
		Detect:       detectUnattachedVolume,
	})
	r.Register(Scenario{
		ID:                "idle_attached_volume",
		ResourceType:      rules.ResourceVolume,
		RequiredTelemetry: []string{"VolumeReadOps", "VolumeWriteOps"},
		Detect:            detectIdleAttachedVolume,
	})
	r.Register(Scenario{
		ID:           "stopped_instance_volume",
		ResourceType: rules.ResourceVolume,
		Detect:       detectStoppedInstanceVolume,
	})
	r.Register(Scenario{
		ID:                "oversized_iops_opportunity",
		ResourceType:      rules.ResourceVolume,
		RequiredTelemetry: []string{"VolumeConsumedReadWriteOps"},
		Detect:            detectOversizedIOPS,
	})
	r.Register(Scenario{
		ID:                "oversized_throughput_opportunity",
		ResourceType:      rules.ResourceVolume,
		RequiredTelemetry: []string{"VolumeThroughputPercentage"},
		Detect:            detectOversizedThroughput,
	})
	r.Register(Scenario{
		ID:           "compliance_exempt_idle_volume",
		ResourceType: rules.ResourceVolume,
		Detect:       detectComplianceExemptIdleVolume,
	})
}

func detectUnattachedVolume(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if r.State != "available" || r.AttachedTo != "" {
		return nil, nil
	}
	minAge := c.Rules.IntOr("min_age_days", 7)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "unattached_volume",
		OrphanReason: fmt.Sprintf("volume has been unattached for %d days", age),
		Confidence:   detect.ConfidenceForAge(age, c.Rules),
		AgeDays:      age,
		Signals:      map[string]any{"size_gb": r.SizeGB, "volume_type": r.Shape},
	}, nil
}

func detectIdleAttachedVolume(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if r.State != "in-use" || r.AttachedTo == "" {
		return nil, nil
	}
	if !c.Rules.DetectEnabled("attached_unused") {
		return nil, nil
	}
	minIdleDays := c.Rules.IntOr("min_idle_days_attached", 30)

	reads, err := c.Metric(ctx, "VolumeReadOps", c.Now.AddDate(0, 0, -minIdleDays), c.Now)
	if err != nil {
		return nil, err
	}
	writes, err := c.Metric(ctx, "VolumeWriteOps", c.Now.AddDate(0, 0, -minIdleDays), c.Now)
	if err != nil {
		return nil, err
	}

	readAgg := signal.AggregateWindow(reads, minIdleDays/2)
	writeAgg := signal.AggregateWindow(writes, minIdleDays/2)
	if readAgg.Hint == signal.HintNone && writeAgg.Hint == signal.HintNone {
		return nil, nil
	}
	maxOps := c.Rules.Float64Or("max_ops_threshold", 0.1)
	if readAgg.Sum > maxOps || writeAgg.Sum > maxOps {
		return nil, nil
	}

	age := r.AgeDays(c.Now)
	return &detect.Evidence{
		OrphanType:   "idle_attached_volume",
		OrphanReason: fmt.Sprintf("attached volume had near-zero I/O for the last %d days", minIdleDays),
		Confidence:   detect.ConfidenceForAge(minIdleDays, c.Rules),
		AgeDays:      age,
		Signals: map[string]any{
			"read_ops_sum":  readAgg.Sum,
			"write_ops_sum": writeAgg.Sum,
			"observed_days": minIdleDays,
		},
	}, nil
}

func detectStoppedInstanceVolume(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if r.State != "in-use" || r.AttachedTo == "" {
		return nil, nil
	}
	instance, ok := c.RelatedResource(rules.ResourceInstance, r.AttachedTo)
	if !ok || instance.State != "stopped" {
		return nil, nil
	}
	minStoppedDays := c.Rules.IntOr("min_stopped_days", 30)
	stoppedDays := instance.StateSinceDays(c.Now)
	if stoppedDays < minStoppedDays {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "stopped_instance_volume",
		OrphanReason: fmt.Sprintf("volume is attached to instance %s, stopped for %d days", r.AttachedTo, stoppedDays),
		Confidence:   detect.ConfidenceForAge(stoppedDays, c.Rules),
		AgeDays:      stoppedDays,
		Signals:      map[string]any{"instance_id": r.AttachedTo},
	}, nil
}

func detectOversizedIOPS(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if r.Shape != "io1" && r.Shape != "io2" && r.Shape != "gp3" {
		return nil, nil
	}
	provisionedIOPS, _ := r.Attributes["iops"].(int32)
	if provisionedIOPS == 0 {
		return nil, nil
	}

	lookback := c.Rules.IntOr("min_observation_days", 30)
	sample, err := c.Metric(ctx, "VolumeConsumedReadWriteOps", c.Now.AddDate(0, 0, -lookback), c.Now)
	if err != nil {
		return nil, err
	}
	agg := signal.AggregateWindow(sample, lookback/2)
	if agg.Hint == signal.HintNone {
		return nil, nil
	}

	maxUtilizationPercent := c.Rules.Float64Or("max_iops_utilization_percent", 30.0)
	utilization := (agg.Maximum / float64(provisionedIOPS)) * 100
	if utilization > maxUtilizationPercent {
		return nil, nil
	}

	safetyMargin := c.Rules.Float64Or("safety_margin_iops", 1.5)
	rightSizedIOPS := agg.Maximum * safetyMargin
	age := r.AgeDays(c.Now)
	return &detect.Evidence{
		OrphanType:   "oversized_iops_opportunity",
		OrphanReason: fmt.Sprintf("provisioned %d IOPS, observed peak utilization %.1f%% over %d days", provisionedIOPS, utilization, lookback),
		Confidence:   detect.ConfidenceMedium,
		AgeDays:      age,
		Signals: map[string]any{
			"provisioned_iops":   provisionedIOPS,
			"observed_peak_iops": agg.Maximum,
			"right_sized_iops":   rightSizedIOPS,
		},
	}, nil
}

func detectOversizedThroughput(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if r.Shape != "gp3" {
		return nil, nil
	}
	provisioned, _ := r.Attributes["throughput"].(int32)
	if provisioned == 0 {
		return nil, nil
	}

	lookback := c.Rules.IntOr("min_observation_days", 30)
	sample, err := c.Metric(ctx, "VolumeThroughputPercentage", c.Now.AddDate(0, 0, -lookback), c.Now)
	if err != nil {
		return nil, err
	}
	agg := signal.AggregateWindow(sample, lookback/2)
	if agg.Hint == signal.HintNone {
		return nil, nil
	}

	maxUtilization := c.Rules.Float64Or("max_throughput_utilization_percent", 30.0)
	if agg.Maximum > maxUtilization {
		return nil, nil
	}

	baseline := c.Rules.Float64Or("baseline_throughput_mbps", 125.0)
	safetyBuffer := c.Rules.Float64Or("safety_buffer_factor", 1.5)
	observedPeakMBps := (agg.Maximum / 100.0) * float64(provisioned)
	rightSized := observedPeakMBps * safetyBuffer
	if rightSized < baseline {
		rightSized = baseline
	}

	age := r.AgeDays(c.Now)
	return &detect.Evidence{
		OrphanType:   "oversized_throughput_opportunity",
		OrphanReason: fmt.Sprintf("provisioned %d MB/s throughput, observed peak utilization %.1f%% over %d days", provisioned, agg.Maximum, lookback),
		Confidence:   detect.ConfidenceMedium,
		AgeDays:      age,
		Signals: map[string]any{
			"provisioned_throughput_mbps": provisioned,
			"observed_peak_percent":       agg.Maximum,
			"right_sized_throughput_mbps": rightSized,
		},
	}, nil
}

func detectComplianceExemptIdleVolume(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	complianceTags := c.Rules.StringSliceOr("compliance_tags", nil)
	if !rules.HasAnyTag(r.Tags, complianceTags) {
		return nil, nil
	}
	if r.State != "available" {
		return nil, nil
	}
	minIdleDays := c.Rules.IntOr("min_idle_days", 60)
	age := r.AgeDays(c.Now)
	if age < minIdleDays {
		return nil, nil
	}
	// Still surfaced, but capped at medium confidence: a compliance tag is
	// a plausible reason the volume is deliberately retained, so this
	// scenario flags it for review rather than asserting certainty.
	conf := detect.ConfidenceForAge(age, c.Rules)
	if conf.AtLeast(detect.ConfidenceHigh) {
		conf = detect.ConfidenceMedium
	}
	return &detect.Evidence{
		OrphanType:   "compliance_exempt_idle_volume",
		OrphanReason: fmt.Sprintf("unattached volume carries a compliance/retention tag but has been idle %d days", age),
		Confidence:   conf,
		AgeDays:      age,
		Signals:      map[string]any{"compliance_tags_present": true},
	}, nil
}
