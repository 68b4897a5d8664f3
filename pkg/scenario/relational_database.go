package scenario

import (
	"context"
	"fmt"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
	"github.com/wastescan/detector/pkg/signal"
)

func registerRelationalDBScenarios(r *Registry) {
	r.Register(Scenario{ID: "stopped_database", ResourceType: rules.ResourceRelationalDB, Detect: detectStoppedDatabase})
	r.Register(Scenario{
		ID: "idle_running_database", ResourceType: rules.ResourceRelationalDB,
		RequiredTelemetry: []string{"DatabaseConnections"},
		Detect:            detectIdleRunningDatabase,
	})
	r.Register(Scenario{
		ID: "zero_io_database", ResourceType: rules.ResourceRelationalDB,
		RequiredTelemetry: []string{"ReadIOPS", "WriteIOPS"},
		Detect:            detectZeroIODatabase,
	})
	r.Register(Scenario{ID: "no_backups_database", ResourceType: rules.ResourceRelationalDB, Detect: detectNoBackupsDatabase})
	r.Register(Scenario{
		ID: "never_connected_database", ResourceType: rules.ResourceRelationalDB,
		RequiredTelemetry: []string{"DatabaseConnections"},
		Detect:            detectNeverConnectedDatabase,
	})
}

func detectStoppedDatabase(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if r.State != "stopped" {
		return nil, nil
	}
	minDays := c.Rules.IntOr("min_stopped_days", 7)
	stoppedDays := r.StateSinceDays(c.Now)
	if stoppedDays < minDays {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "stopped_database",
		OrphanReason: fmt.Sprintf("database instance has been stopped for %d days; AWS auto-restarts it after 7 days", stoppedDays),
		Confidence:   detect.ConfidenceForAge(stoppedDays, c.Rules),
		AgeDays:      stoppedDays,
		Signals:      map[string]any{"engine": r.Attributes["engine"]},
	}, nil
}

func detectIdleRunningDatabase(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if r.State != "available" || !c.Rules.DetectEnabled("idle_running") {
		return nil, nil
	}
	minIdleDays := c.Rules.IntOr("min_idle_days", 7)
	sample, err := c.Metric(ctx, "DatabaseConnections", c.Now.AddDate(0, 0, -minIdleDays), c.Now)
	if err != nil {
		return nil, err
	}
	agg := signal.AggregateWindow(sample, minIdleDays/2)
	if agg.Hint == signal.HintNone {
		return nil, nil
	}
	if agg.Maximum > 0 {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "idle_running_database",
		OrphanReason: fmt.Sprintf("database has had zero connections for %d days", minIdleDays),
		Confidence:   detect.ConfidenceForAge(minIdleDays, c.Rules),
		AgeDays:      r.AgeDays(c.Now),
	}, nil
}

func detectZeroIODatabase(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if r.State != "available" || !c.Rules.DetectEnabled("zero_io") {
		return nil, nil
	}
	minZeroIODays := c.Rules.IntOr("min_zero_io_days", 7)
	reads, err := c.Metric(ctx, "ReadIOPS", c.Now.AddDate(0, 0, -minZeroIODays), c.Now)
	if err != nil {
		return nil, err
	}
	writes, err := c.Metric(ctx, "WriteIOPS", c.Now.AddDate(0, 0, -minZeroIODays), c.Now)
	if err != nil {
		return nil, err
	}
	readAgg := signal.AggregateWindow(reads, minZeroIODays/2)
	writeAgg := signal.AggregateWindow(writes, minZeroIODays/2)
	if readAgg.Hint == signal.HintNone && writeAgg.Hint == signal.HintNone {
		return nil, nil
	}
	if readAgg.Maximum > 0 || writeAgg.Maximum > 0 {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "zero_io_database",
		OrphanReason: fmt.Sprintf("database has had zero read and write IOPS for %d days", minZeroIODays),
		Confidence:   detect.ConfidenceForAge(minZeroIODays, c.Rules),
		AgeDays:      r.AgeDays(c.Now),
	}, nil
}

// detectNeverConnectedDatabase differs from detectIdleRunningDatabase by
// checking the database's entire lifetime for a connection rather than a
// rolling lookback window: this only fires on a database nobody has ever
// used, not one that was used and then abandoned.
func detectNeverConnectedDatabase(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if r.State != "available" || !c.Rules.DetectEnabled("never_connected") {
		return nil, nil
	}
	minAge := c.Rules.IntOr("never_connected_min_age_days", 7)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}
	sample, err := c.Metric(ctx, "DatabaseConnections", r.CreatedAt, c.Now)
	if err != nil {
		return nil, err
	}
	if sample.HasData && sample.Maximum > 0 {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "never_connected_database",
		OrphanReason: fmt.Sprintf("database has existed for %d days and has never recorded a client connection", age),
		Confidence:   detect.ConfidenceHigh,
		AgeDays:      age,
	}, nil
}

func detectNoBackupsDatabase(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("no_backups") {
		return nil, nil
	}
	retention, _ := r.Attributes["backup_retention"].(int32)
	if retention > 0 {
		return nil, nil
	}
	minAge := c.Rules.IntOr("no_backups_min_age_days", 30)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "no_backups_database",
		OrphanReason: fmt.Sprintf("database has had automated backups disabled for all %d days of its life", age),
		Confidence:   detect.ConfidenceMedium,
		AgeDays:      age,
	}, nil
}
