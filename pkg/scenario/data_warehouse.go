package scenario

import (
	"context"
	"fmt"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
	"github.com/wastescan/detector/pkg/signal"
)

// registerDataWarehouseScenarios covers Redshift clusters. This category's
// rule set is thinner than its peers (defaults.go only names
// min_connections_lookback_days beyond the shared confidence/age
// parameters) because a multi-node data warehouse has fewer cheap,
// unambiguous waste signals than a single EC2 instance does — idle
// connection count and CPU utilization are what's left once autoscaling,
// storage tiering and snapshot scheduling are out of scope.
func registerDataWarehouseScenarios(r *Registry) {
	r.Register(Scenario{
		ID: "zero_connections_warehouse", ResourceType: rules.ResourceDataWarehouse,
		RequiredTelemetry: []string{"DatabaseConnections"},
		Detect:            detectZeroConnectionsWarehouse,
	})
	r.Register(Scenario{
		ID: "idle_cpu_warehouse", ResourceType: rules.ResourceDataWarehouse,
		RequiredTelemetry: []string{"CPUUtilization"},
		Detect:            detectIdleCPUWarehouse,
	})
}

func detectZeroConnectionsWarehouse(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if r.State != "available" {
		return nil, nil
	}
	lookback := c.Rules.IntOr("min_connections_lookback_days", 7)
	age := r.AgeDays(c.Now)
	if age < lookback {
		return nil, nil
	}

	sample, err := c.Metric(ctx, "DatabaseConnections", c.Now.AddDate(0, 0, -lookback), c.Now)
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
		OrphanType:   "zero_connections_warehouse",
		OrphanReason: fmt.Sprintf("cluster has had zero database connections for %d days", lookback),
		Confidence:   detect.ConfidenceForAge(lookback, c.Rules),
		AgeDays:      age,
		Signals:      map[string]any{"node_type": r.Shape, "node_count": r.Attributes["node_count"]},
	}, nil
}

func detectIdleCPUWarehouse(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if r.State != "available" {
		return nil, nil
	}
	lookback := c.Rules.IntOr("min_connections_lookback_days", 7)
	age := r.AgeDays(c.Now)
	if age < lookback {
		return nil, nil
	}

	sample, err := c.Metric(ctx, "CPUUtilization", c.Now.AddDate(0, 0, -lookback), c.Now)
	if err != nil {
		return nil, err
	}
	agg := signal.AggregateWindow(sample, lookback/2)
	if agg.Hint == signal.HintNone {
		return nil, nil
	}
	if agg.Maximum > 5.0 {
		return nil, nil
	}

	return &detect.Evidence{
		OrphanType:   "idle_cpu_warehouse",
		OrphanReason: fmt.Sprintf("cluster peak CPU utilization was %.1f%% over the last %d days", agg.Maximum, lookback),
		Confidence:   detect.ConfidenceForAge(lookback, c.Rules),
		AgeDays:      age,
		Signals:      map[string]any{"peak_cpu_percent": agg.Maximum},
	}, nil
}
