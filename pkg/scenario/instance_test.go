package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
)

func TestDetectStoppedInstanceFlagsLongStopped(t *testing.T) {
	c := testContext(rules.ResourceInstance, nil)
	inst := detect.Resource{ID: "i-1", State: "stopped", Shape: "m5.large", StateSince: c.Now.AddDate(0, 0, -45)}

	ev, err := detectStoppedInstance(context.Background(), c, inst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected evidence for an instance stopped 45 days")
	}
}

func TestDetectIdleRunningInstanceFlagsLowCPUAndNetwork(t *testing.T) {
	c := testContext(rules.ResourceInstance, nil)
	c.Metric = func(ctx context.Context, metric string, start, end time.Time) (detect.TelemetrySample, error) {
		if metric == "CPUUtilization" {
			return sampleWithSeries(metric, 10, 1.0), nil
		}
		return sampleWithSeries(metric, 10, 100), nil
	}
	inst := detect.Resource{ID: "i-2", State: "running", CreatedAt: c.Now.AddDate(0, 0, -30)}

	ev, err := detectIdleRunningInstance(context.Background(), c, inst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected evidence for an idle running instance")
	}
}

func TestDetectIdleRunningInstanceSkipsHighCPU(t *testing.T) {
	c := testContext(rules.ResourceInstance, nil)
	c.Metric = func(ctx context.Context, metric string, start, end time.Time) (detect.TelemetrySample, error) {
		if metric == "CPUUtilization" {
			return sampleWithSeries(metric, 10, 80.0), nil
		}
		return sampleWithSeries(metric, 10, 100), nil
	}
	inst := detect.Resource{ID: "i-3", State: "running", CreatedAt: c.Now.AddDate(0, 0, -30)}

	ev, err := detectIdleRunningInstance(context.Background(), c, inst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Fatal("expected no evidence for a busy instance")
	}
}

func TestDetectOldGenerationInstance(t *testing.T) {
	c := testContext(rules.ResourceInstance, rules.RuleSet{
		rules.ResourceInstance: {"old_generations": []string{"m4", "c4"}},
	})
	inst := detect.Resource{ID: "i-4", Shape: "m4.large", CreatedAt: c.Now.AddDate(0, 0, -10)}

	ev, err := detectOldGenerationInstance(context.Background(), c, inst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected evidence for a listed old-generation family")
	}
	if ev.Signals["instance_family"] != "m4" {
		t.Fatalf("instance_family = %v, want m4", ev.Signals["instance_family"])
	}
}

func TestDetectOldGenerationInstanceSkipsUnlistedFamily(t *testing.T) {
	c := testContext(rules.ResourceInstance, rules.RuleSet{
		rules.ResourceInstance: {"old_generations": []string{"m4"}},
	})
	inst := detect.Resource{ID: "i-5", Shape: "m5.large"}

	ev, err := detectOldGenerationInstance(context.Background(), c, inst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Fatal("expected no evidence for a family not in old_generations")
	}
}

func TestDetectBurstableCreditWasteSkipsNonBurstableFamily(t *testing.T) {
	c := testContext(rules.ResourceInstance, nil)
	inst := detect.Resource{ID: "i-6", Shape: "m5.large"}

	ev, err := detectBurstableCreditWaste(context.Background(), c, inst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Fatal("expected no evidence for a non-burstable family")
	}
}

func TestDetectBurstableCreditWasteFlagsFlatHighBalance(t *testing.T) {
	c := testContext(rules.ResourceInstance, nil)
	c.Metric = func(ctx context.Context, metric string, start, end time.Time) (detect.TelemetrySample, error) {
		return sampleWithSeries(metric, 30, 144), nil
	}
	inst := detect.Resource{ID: "i-7", Shape: "t3.medium", CreatedAt: c.Now.AddDate(0, 0, -30)}

	ev, err := detectBurstableCreditWaste(context.Background(), c, inst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected evidence for a flat, near-cap credit balance")
	}
}

func TestDetectDevTestAlwaysOn(t *testing.T) {
	c := testContext(rules.ResourceInstance, rules.RuleSet{
		rules.ResourceInstance: {
			"nonprod_env_tags":   []string{"Environment"},
			"nonprod_env_values": []string{"dev"},
		},
	})
	inst := detect.Resource{
		ID:        "i-8",
		State:     "running",
		CreatedAt: c.Now.AddDate(0, 0, -14),
		Tags:      map[string]string{"Environment": "dev"},
	}

	ev, err := detectDevTestAlwaysOn(context.Background(), c, inst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected evidence for an always-on dev instance")
	}
}

func TestDetectRightSizingOpportunityWithinBand(t *testing.T) {
	c := testContext(rules.ResourceInstance, nil)
	c.Metric = func(ctx context.Context, metric string, start, end time.Time) (detect.TelemetrySample, error) {
		return sampleWithSeries(metric, 20, 55.0), nil
	}
	inst := detect.Resource{ID: "i-9", State: "running", CreatedAt: c.Now.AddDate(0, 0, -30)}

	ev, err := detectRightSizingOpportunity(context.Background(), c, inst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected evidence for mid-band CPU utilization")
	}
}

func TestDetectRightSizingOpportunitySkipsOutsideBand(t *testing.T) {
	c := testContext(rules.ResourceInstance, nil)
	c.Metric = func(ctx context.Context, metric string, start, end time.Time) (detect.TelemetrySample, error) {
		return sampleWithSeries(metric, 20, 95.0), nil
	}
	inst := detect.Resource{ID: "i-10", State: "running", CreatedAt: c.Now.AddDate(0, 0, -30)}

	ev, err := detectRightSizingOpportunity(context.Background(), c, inst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Fatal("expected no evidence for high-CPU usage outside the right-sizing band")
	}
}
