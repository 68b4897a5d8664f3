package scenario

import (
	"context"
	"fmt"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
	"github.com/wastescan/detector/pkg/signal"
)

func registerCacheClusterScenarios(r *Registry) {
	r.Register(Scenario{
		ID: "zero_cache_hits", ResourceType: rules.ResourceCacheCluster,
		RequiredTelemetry: []string{"CacheHits"},
		Detect:            detectZeroCacheHits,
	})
	r.Register(Scenario{
		ID: "low_hit_rate_cache", ResourceType: rules.ResourceCacheCluster,
		RequiredTelemetry: []string{"CacheHits", "CacheMisses"},
		Detect:            detectLowHitRateCache,
	})
	r.Register(Scenario{
		ID: "no_connections_cache", ResourceType: rules.ResourceCacheCluster,
		RequiredTelemetry: []string{"CurrConnections"},
		Detect:            detectNoConnectionsCache,
	})
	r.Register(Scenario{
		ID: "cache_memory_over_provisioned", ResourceType: rules.ResourceCacheCluster,
		RequiredTelemetry: []string{"DatabaseMemoryUsagePercentage"},
		Detect:            detectOverProvisionedMemoryCache,
	})
}

func detectZeroCacheHits(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("zero_cache_hits") {
		return nil, nil
	}
	lookback := c.Rules.IntOr("zero_hits_lookback_days", 7)
	age := r.AgeDays(c.Now)
	if age < lookback {
		return nil, nil
	}

	sample, err := c.Metric(ctx, "CacheHits", c.Now.AddDate(0, 0, -lookback), c.Now)
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
		OrphanType:   "zero_cache_hits",
		OrphanReason: fmt.Sprintf("cache node has recorded zero hits over the last %d days", lookback),
		Confidence:   detect.ConfidenceForAge(lookback, c.Rules),
		AgeDays:      age,
		Signals:      map[string]any{"node_type": r.Shape},
	}, nil
}

func detectLowHitRateCache(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("low_hit_rate") {
		return nil, nil
	}
	lookback := c.Rules.IntOr("hit_rate_lookback_days", 7)
	age := r.AgeDays(c.Now)
	if age < lookback {
		return nil, nil
	}

	hits, err := c.Metric(ctx, "CacheHits", c.Now.AddDate(0, 0, -lookback), c.Now)
	if err != nil {
		return nil, err
	}
	misses, err := c.Metric(ctx, "CacheMisses", c.Now.AddDate(0, 0, -lookback), c.Now)
	if err != nil {
		return nil, err
	}
	hitsAgg := signal.AggregateWindow(hits, lookback/2)
	missesAgg := signal.AggregateWindow(misses, lookback/2)
	if hitsAgg.Hint == signal.HintNone && missesAgg.Hint == signal.HintNone {
		return nil, nil
	}

	total := hitsAgg.Sum + missesAgg.Sum
	if total == 0 {
		return nil, nil
	}
	hitRate := (hitsAgg.Sum / total) * 100

	threshold := c.Rules.Float64Or("hit_rate_threshold", 50.0)
	if hitRate >= threshold {
		return nil, nil
	}

	critical := c.Rules.Float64Or("critical_hit_rate", 10.0)
	conf := detect.ConfidenceMedium
	if hitRate < critical {
		conf = detect.ConfidenceHigh
	}

	return &detect.Evidence{
		OrphanType:   "low_hit_rate_cache",
		OrphanReason: fmt.Sprintf("cache hit rate is %.1f%% over the last %d days, below the %.0f%% threshold that justifies its cost", hitRate, lookback, threshold),
		Confidence:   conf,
		AgeDays:      age,
		Signals:      map[string]any{"hit_rate_percent": hitRate},
	}, nil
}

func detectNoConnectionsCache(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("no_connections") {
		return nil, nil
	}
	lookback := c.Rules.IntOr("no_connections_lookback_days", 7)
	age := r.AgeDays(c.Now)
	if age < lookback {
		return nil, nil
	}

	sample, err := c.Metric(ctx, "CurrConnections", c.Now.AddDate(0, 0, -lookback), c.Now)
	if err != nil {
		return nil, err
	}
	agg := signal.AggregateWindow(sample, lookback/2)
	if agg.Hint == signal.HintNone {
		return nil, nil
	}
	if agg.Maximum > 0 {
		return nil, nil
	}

	return &detect.Evidence{
		OrphanType:   "no_connections_cache",
		OrphanReason: fmt.Sprintf("cache node has had zero client connections for %d days", lookback),
		Confidence:   detect.ConfidenceForAge(lookback, c.Rules),
		AgeDays:      age,
	}, nil
}

func detectOverProvisionedMemoryCache(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("over_provisioned_memory") {
		return nil, nil
	}
	lookback := c.Rules.IntOr("memory_lookback_days", 7)
	age := r.AgeDays(c.Now)
	if age < lookback {
		return nil, nil
	}

	sample, err := c.Metric(ctx, "DatabaseMemoryUsagePercentage", c.Now.AddDate(0, 0, -lookback), c.Now)
	if err != nil {
		return nil, err
	}
	agg := signal.AggregateWindow(sample, lookback/2)
	if agg.Hint == signal.HintNone {
		return nil, nil
	}

	threshold := c.Rules.Float64Or("memory_usage_threshold", 20.0)
	if agg.Maximum > threshold {
		return nil, nil
	}

	return &detect.Evidence{
		OrphanType:   "cache_memory_over_provisioned",
		OrphanReason: fmt.Sprintf("peak memory usage of %.1f%% over %d days is well under what node type %s provides", agg.Maximum, lookback, r.Shape),
		Confidence:   detect.ConfidenceMedium,
		AgeDays:      age,
		Signals:      map[string]any{"peak_memory_usage_percent": agg.Maximum},
	}, nil
}
