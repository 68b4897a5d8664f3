package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
)

func sampleWithSeries(metric string, n int, value float64) detect.TelemetrySample {
	series := make([]detect.DataPoint, n)
	sum := 0.0
	for i := range series {
		series[i] = detect.DataPoint{Value: value}
		sum += value
	}
	return detect.TelemetrySample{Metric: metric, Series: series, Sum: sum, HasData: true}
}

func TestDetectIdleNATGatewayFlagsLowTraffic(t *testing.T) {
	c := testContext(rules.ResourceNATGateway, nil)
	c.Metric = func(ctx context.Context, metric string, start, end time.Time) (detect.TelemetrySample, error) {
		return sampleWithSeries(metric, 20, 10), nil
	}
	nat := detect.Resource{ID: "nat-1", State: "available", CreatedAt: c.Now.AddDate(0, 0, -30)}

	ev, err := detectIdleNATGateway(context.Background(), c, nat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected evidence for a near-idle NAT gateway")
	}
}

func TestDetectIdleNATGatewaySkipsAboveThreshold(t *testing.T) {
	c := testContext(rules.ResourceNATGateway, nil)
	c.Metric = func(ctx context.Context, metric string, start, end time.Time) (detect.TelemetrySample, error) {
		return sampleWithSeries(metric, 20, 1_000_000), nil
	}
	nat := detect.Resource{ID: "nat-2", State: "available", CreatedAt: c.Now.AddDate(0, 0, -30)}

	ev, err := detectIdleNATGateway(context.Background(), c, nat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Fatal("expected no evidence for a heavily used NAT gateway")
	}
}

func TestDetectUnreferencedNATGatewayUsesRelatedFetcher(t *testing.T) {
	c := testContext(rules.ResourceNATGateway, nil)
	c.Related = func(ctx context.Context, kind string) ([]string, error) {
		return nil, nil
	}
	nat := detect.Resource{ID: "nat-3", State: "available", CreatedAt: c.Now.AddDate(0, 0, -30)}

	ev, err := detectUnreferencedNATGateway(context.Background(), c, nat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected evidence when no route table references the gateway")
	}
}

func TestDetectUnreferencedNATGatewaySkipsWhenReferenced(t *testing.T) {
	c := testContext(rules.ResourceNATGateway, nil)
	c.Related = func(ctx context.Context, kind string) ([]string, error) {
		return []string{"rtb-1"}, nil
	}
	nat := detect.Resource{ID: "nat-4", State: "available", CreatedAt: c.Now.AddDate(0, 0, -30)}

	ev, err := detectUnreferencedNATGateway(context.Background(), c, nat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Fatal("expected no evidence when a route table references the gateway")
	}
}

func TestDetectUnreferencedNATGatewayPropagatesRelatedError(t *testing.T) {
	c := testContext(rules.ResourceNATGateway, nil)
	boom := context.DeadlineExceeded
	c.Related = func(ctx context.Context, kind string) ([]string, error) {
		return nil, boom
	}
	nat := detect.Resource{ID: "nat-5", State: "available", CreatedAt: c.Now.AddDate(0, 0, -30)}

	_, err := detectUnreferencedNATGateway(context.Background(), c, nat)
	if err != boom {
		t.Fatalf("err = %v, want the underlying related-fetcher error propagated", err)
	}
}
