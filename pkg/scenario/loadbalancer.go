package scenario

import (
	"context"
	"fmt"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
	"github.com/wastescan/detector/pkg/signal"
)

func registerLoadBalancerScenarios(r *Registry) {
	r.Register(Scenario{ID: "zero_healthy_targets", ResourceType: rules.ResourceLoadBalancer, Detect: detectZeroHealthyTargets})
	r.Register(Scenario{ID: "no_target_groups", ResourceType: rules.ResourceLoadBalancer, Detect: detectNoTargetGroups})
	r.Register(Scenario{
		ID: "zero_request_load_balancer", ResourceType: rules.ResourceLoadBalancer,
		RequiredTelemetry: []string{"RequestCount"},
		Detect:            detectZeroRequestLoadBalancer,
	})
	r.Register(Scenario{ID: "never_used_load_balancer", ResourceType: rules.ResourceLoadBalancer, Detect: detectNeverUsedLoadBalancer})
	r.Register(Scenario{ID: "no_listeners_load_balancer", ResourceType: rules.ResourceLoadBalancer, Detect: detectNoListeners})
	r.Register(Scenario{ID: "cross_zone_waste_load_balancer", ResourceType: rules.ResourceLoadBalancer, Detect: detectCrossZoneWaste})
}

// detectNoListeners flags a load balancer with zero listeners configured:
// nothing can ever reach it regardless of target health, since there is no
// port/protocol for a client connection to match against.
func detectNoListeners(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("no_listeners") {
		return nil, nil
	}
	listenerCount, _ := r.Attributes["listener_count"].(int)
	if listenerCount != 0 {
		return nil, nil
	}
	minAge := c.Rules.IntOr("min_age_days", 7)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "no_listeners_load_balancer",
		OrphanReason: "load balancer has no listeners configured, so it can never accept a connection",
		Confidence:   detect.ConfidenceHigh,
		AgeDays:      age,
	}, nil
}

// detectCrossZoneWaste flags a Network Load Balancer with cross-zone load
// balancing enabled while it only spans a single availability zone: the
// feature (billed separately for NLBs, unlike ALB where it's always on and
// free) has nothing to balance across when there's only one zone.
func detectCrossZoneWaste(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("cross_zone_waste") {
		return nil, nil
	}
	if r.Shape != "network" {
		return nil, nil
	}
	crossZone, _ := r.Attributes["cross_zone_enabled"].(bool)
	if !crossZone {
		return nil, nil
	}
	azCount, _ := r.Attributes["availability_zone_count"].(int)
	if azCount > 1 {
		return nil, nil
	}
	minAge := c.Rules.IntOr("min_age_days", 7)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "cross_zone_waste_load_balancer",
		OrphanReason: "network load balancer has cross-zone load balancing enabled but only spans one availability zone",
		Confidence:   detect.ConfidenceLow,
		AgeDays:      age,
		Signals:      map[string]any{"availability_zone_count": azCount},
	}, nil
}

func detectZeroHealthyTargets(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.BoolOr("require_zero_healthy_targets", true) {
		return nil, nil
	}
	healthy, _ := r.Attributes["healthy_target_count"].(int)
	groups, _ := r.Attributes["target_group_count"].(int)
	if groups == 0 || healthy > 0 {
		return nil, nil
	}
	minAge := c.Rules.IntOr("min_age_days", 7)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}

	unhealthyLongTermDays := c.Rules.IntOr("unhealthy_long_term_days", 90)
	conf := detect.ConfidenceForAge(age, c.Rules)
	if c.Rules.DetectEnabled("unhealthy_long_term") && age >= unhealthyLongTermDays {
		conf = detect.ConfidenceCritical
	}

	return &detect.Evidence{
		OrphanType:   "zero_healthy_targets",
		OrphanReason: fmt.Sprintf("load balancer has %d target group(s) but zero healthy targets", groups),
		Confidence:   conf,
		AgeDays:      age,
		Signals:      map[string]any{"target_group_count": groups},
	}, nil
}

func detectNoTargetGroups(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("no_target_groups") {
		return nil, nil
	}
	groups, _ := r.Attributes["target_group_count"].(int)
	if groups > 0 {
		return nil, nil
	}
	minAge := c.Rules.IntOr("min_age_days", 7)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "no_target_groups",
		OrphanReason: "load balancer has no target groups registered at all",
		Confidence:   detect.ConfidenceHigh,
		AgeDays:      age,
	}, nil
}

func detectZeroRequestLoadBalancer(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("zero_requests") {
		return nil, nil
	}
	minAge := c.Rules.IntOr("min_age_days", 7)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}

	sample, err := c.Metric(ctx, "RequestCount", c.Now.AddDate(0, 0, -30), c.Now)
	if err != nil {
		return nil, err
	}
	agg := signal.AggregateWindow(sample, 15)
	if agg.Hint == signal.HintNone {
		return nil, nil
	}

	minRequests := c.Rules.Float64Or("min_requests_30d", 100.0)
	if agg.Sum >= minRequests {
		return nil, nil
	}

	return &detect.Evidence{
		OrphanType:   "zero_request_load_balancer",
		OrphanReason: fmt.Sprintf("load balancer served only %.0f requests over the last 30 days", agg.Sum),
		Confidence:   detect.ConfidenceForAge(age, c.Rules),
		AgeDays:      age,
		Signals:      map[string]any{"requests_30d": agg.Sum},
	}, nil
}

func detectNeverUsedLoadBalancer(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("never_used") {
		return nil, nil
	}
	minAge := c.Rules.IntOr("never_used_min_age_days", 30)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}
	healthy, _ := r.Attributes["healthy_target_count"].(int)
	if healthy > 0 {
		return nil, nil
	}

	sample, err := c.Metric(ctx, "RequestCount", r.CreatedAt, c.Now)
	if err != nil {
		return nil, err
	}
	if sample.HasData && sample.Sum > 0 {
		return nil, nil
	}

	return &detect.Evidence{
		OrphanType:   "never_used_load_balancer",
		OrphanReason: fmt.Sprintf("load balancer has existed for %d days and has never served a request", age),
		Confidence:   detect.ConfidenceHigh,
		AgeDays:      age,
	}, nil
}
