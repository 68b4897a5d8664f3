package scenario

import (
	"context"
	"fmt"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
	"github.com/wastescan/detector/pkg/signal"
)

func registerNoSQLScenarios(r *Registry) {
	r.Register(Scenario{
		ID: "nosql_table_over_provisioned", ResourceType: rules.ResourceNoSQLTable,
		RequiredTelemetry: []string{"ConsumedWriteCapacityUnits", "ConsumedReadCapacityUnits"},
		Detect:            detectOverProvisionedTable,
	})
	r.Register(Scenario{ID: "never_used_table", ResourceType: rules.ResourceNoSQLTable, Detect: detectNeverUsedTable})
	r.Register(Scenario{ID: "empty_table", ResourceType: rules.ResourceNoSQLTable, Detect: detectEmptyTable})
	r.Register(Scenario{ID: "unused_gsi", ResourceType: rules.ResourceNoSQLTable, Detect: detectUnusedGSI})
}

func detectOverProvisionedTable(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if r.Shape != "PROVISIONED" || !c.Rules.DetectEnabled("over_provisioned") {
		return nil, nil
	}
	wcu, _ := r.Attributes["provisioned_wcu"].(int64)
	rcu, _ := r.Attributes["provisioned_rcu"].(int64)
	if wcu == 0 && rcu == 0 {
		return nil, nil
	}

	lookback := c.Rules.IntOr("provisioned_lookback_days", 7)
	writes, err := c.Metric(ctx, "ConsumedWriteCapacityUnits", c.Now.AddDate(0, 0, -lookback), c.Now)
	if err != nil {
		return nil, err
	}
	reads, err := c.Metric(ctx, "ConsumedReadCapacityUnits", c.Now.AddDate(0, 0, -lookback), c.Now)
	if err != nil {
		return nil, err
	}
	writeAgg := signal.AggregateWindow(writes, lookback/2)
	readAgg := signal.AggregateWindow(reads, lookback/2)
	if writeAgg.Hint == signal.HintNone && readAgg.Hint == signal.HintNone {
		return nil, nil
	}

	threshold := c.Rules.Float64Or("provisioned_utilization_threshold", 10.0)
	wcuUtil, rcuUtil := 0.0, 0.0
	if wcu > 0 {
		wcuUtil = (writeAgg.Maximum / float64(wcu)) * 100
	}
	if rcu > 0 {
		rcuUtil = (readAgg.Maximum / float64(rcu)) * 100
	}
	if wcuUtil > threshold || rcuUtil > threshold {
		return nil, nil
	}

	safetyMargin := c.Rules.Float64Or("capacity_safety_margin", 1.5)
	recommendedWCU := writeAgg.Maximum * safetyMargin
	recommendedRCU := readAgg.Maximum * safetyMargin
	if recommendedWCU > float64(wcu) {
		recommendedWCU = float64(wcu)
	}
	if recommendedRCU > float64(rcu) {
		recommendedRCU = float64(rcu)
	}

	return &detect.Evidence{
		OrphanType:   "nosql_table_over_provisioned",
		OrphanReason: fmt.Sprintf("provisioned %d WCU/%d RCU, peak utilization %.1f%%/%.1f%% over %d days", wcu, rcu, wcuUtil, rcuUtil, lookback),
		Confidence:   detect.ConfidenceMedium,
		AgeDays:      r.AgeDays(c.Now),
		Signals: map[string]any{
			"wcu_utilization_percent": wcuUtil,
			"rcu_utilization_percent": rcuUtil,
			"recommended_wcu":         recommendedWCU,
			"recommended_rcu":         recommendedRCU,
		},
	}, nil
}

func detectNeverUsedTable(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("never_used") {
		return nil, nil
	}
	minAge := c.Rules.IntOr("never_used_min_age_days", 30)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}
	itemCount, _ := r.Attributes["item_count"].(int64)
	if itemCount > 0 {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "never_used_table",
		OrphanReason: fmt.Sprintf("table is %d days old and has never stored an item", age),
		Confidence:   detect.ConfidenceHigh,
		AgeDays:      age,
	}, nil
}

// detectUnusedGSI flags a table carrying one or more global secondary
// indexes that hold zero items: a GSI bills its own provisioned/on-demand
// capacity regardless of whether the base table is actively queried
// through it, so an empty GSI on an otherwise-busy table is still waste.
func detectUnusedGSI(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("unused_gsi") {
		return nil, nil
	}
	gsiCount, _ := r.Attributes["gsi_count"].(int)
	if gsiCount == 0 {
		return nil, nil
	}
	emptyGSIs, _ := r.Attributes["gsi_empty_count"].(int)
	if emptyGSIs == 0 {
		return nil, nil
	}
	minAge := c.Rules.IntOr("min_age_days", 7)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "unused_gsi",
		OrphanReason: fmt.Sprintf("%d of %d global secondary indexes hold zero items", emptyGSIs, gsiCount),
		Confidence:   detect.ConfidenceMedium,
		AgeDays:      age,
		Signals:      map[string]any{"gsi_count": gsiCount, "gsi_empty_count": emptyGSIs},
	}, nil
}

func detectEmptyTable(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("empty_tables") {
		return nil, nil
	}
	minAge := c.Rules.IntOr("empty_table_min_age_days", 90)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}
	itemCount, _ := r.Attributes["item_count"].(int64)
	if itemCount != 0 {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "empty_table",
		OrphanReason: fmt.Sprintf("table has had zero items for at least %d days", age),
		Confidence:   detect.ConfidenceMedium,
		AgeDays:      age,
	}, nil
}
