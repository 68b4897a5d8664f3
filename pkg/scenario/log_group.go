package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
	"github.com/wastescan/detector/pkg/signal"
)

func registerLogGroupScenarios(r *Registry) {
	r.Register(Scenario{
		ID: "zero_ingestion_log_group", ResourceType: rules.ResourceLogGroup,
		RequiredTelemetry: []string{"IncomingBytes"},
		Detect:            detectZeroIngestionLogGroup,
	})
	r.Register(Scenario{ID: "infinite_retention_log_group", ResourceType: rules.ResourceLogGroup, Detect: detectInfiniteRetentionLogGroup})
}

func isSystemLogGroup(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func detectZeroIngestionLogGroup(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("zero_ingestion") {
		return nil, nil
	}
	lookback := c.Rules.IntOr("zero_ingestion_lookback_days", 30)
	age := r.AgeDays(c.Now)
	if age < lookback {
		return nil, nil
	}

	sample, err := c.Metric(ctx, "IncomingBytes", c.Now.AddDate(0, 0, -lookback), c.Now)
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

	storedBytes, _ := r.Attributes["stored_bytes"].(int64)
	return &detect.Evidence{
		OrphanType:   "zero_ingestion_log_group",
		OrphanReason: fmt.Sprintf("log group has ingested nothing in %d days but retains %.2f GB of stored logs", lookback, float64(storedBytes)/1e9),
		Confidence:   detect.ConfidenceForAge(lookback, c.Rules),
		AgeDays:      age,
		Signals:      map[string]any{"stored_bytes": storedBytes},
	}, nil
}

func detectInfiniteRetentionLogGroup(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("infinite_retention") {
		return nil, nil
	}
	infinite, _ := r.Attributes["infinite_retention"].(bool)
	if !infinite {
		return nil, nil
	}

	prefixes := c.Rules.StringSliceOr("system_log_prefixes", nil)
	if isSystemLogGroup(r.Name, prefixes) {
		return nil, nil
	}

	storedBytes, _ := r.Attributes["stored_bytes"].(int64)
	minGB := c.Rules.Float64Or("infinite_retention_min_gb", 1.0)
	storedGB := float64(storedBytes) / 1e9
	if storedGB < minGB {
		return nil, nil
	}

	minAge := c.Rules.IntOr("min_age_days", 30)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}

	return &detect.Evidence{
		OrphanType:   "infinite_retention_log_group",
		OrphanReason: fmt.Sprintf("log group has no retention policy and has accumulated %.2f GB that will never expire", storedGB),
		Confidence:   detect.ConfidenceForAge(age, c.Rules),
		AgeDays:      age,
		Signals:      map[string]any{"stored_bytes": storedBytes},
	}, nil
}
