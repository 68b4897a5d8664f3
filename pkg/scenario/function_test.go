package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
)

func TestDetectNeverInvokedFunction(t *testing.T) {
	c := testContext(rules.ResourceFunction, nil)
	c.Metric = func(ctx context.Context, metric string, start, end time.Time) (detect.TelemetrySample, error) {
		return detect.ZeroSample(metric), nil
	}
	fn := detect.Resource{ID: "fn-1", CreatedAt: c.Now.AddDate(0, 0, -60)}

	ev, err := detectNeverInvokedFunction(context.Background(), c, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected evidence for a function with zero invocations since creation")
	}
}

func TestDetectNeverInvokedFunctionSkipsWhenInvoked(t *testing.T) {
	c := testContext(rules.ResourceFunction, nil)
	c.Metric = func(ctx context.Context, metric string, start, end time.Time) (detect.TelemetrySample, error) {
		return sampleWithSeries(metric, 5, 2), nil
	}
	fn := detect.Resource{ID: "fn-2", CreatedAt: c.Now.AddDate(0, 0, -60)}

	ev, err := detectNeverInvokedFunction(context.Background(), c, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Fatal("expected no evidence for an invoked function")
	}
}

func TestDetectAllFailuresFunction(t *testing.T) {
	c := testContext(rules.ResourceFunction, nil)
	c.Metric = func(ctx context.Context, metric string, start, end time.Time) (detect.TelemetrySample, error) {
		if metric == "Invocations" {
			return sampleWithSeries(metric, 20, 5), nil // sum = 100
		}
		return sampleWithSeries(metric, 20, 4.95), nil // sum = 99 -> 99% failure
	}
	fn := detect.Resource{ID: "fn-3", CreatedAt: c.Now.AddDate(0, 0, -60)}

	ev, err := detectAllFailuresFunction(context.Background(), c, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected evidence for a function whose invocations nearly all fail")
	}
}

func TestDetectAllFailuresFunctionSkipsBelowMinInvocations(t *testing.T) {
	c := testContext(rules.ResourceFunction, nil)
	c.Metric = func(ctx context.Context, metric string, start, end time.Time) (detect.TelemetrySample, error) {
		return sampleWithSeries(metric, 3, 1), nil // sum = 3, below the min_invocations floor
	}
	fn := detect.Resource{ID: "fn-4", CreatedAt: c.Now.AddDate(0, 0, -60)}

	ev, err := detectAllFailuresFunction(context.Background(), c, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Fatal("expected no evidence below the minimum invocation sample size")
	}
}
