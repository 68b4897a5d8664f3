package scenario

import (
	"context"
	"fmt"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
	"github.com/wastescan/detector/pkg/signal"
)

func registerNATGatewayScenarios(r *Registry) {
	r.Register(Scenario{
		ID:                "idle_nat_gateway",
		ResourceType:      rules.ResourceNATGateway,
		RequiredTelemetry: []string{"BytesOutToDestination", "BytesInFromDestination"},
		Detect:            detectIdleNATGateway,
	})
	r.Register(Scenario{ID: "unreferenced_nat_gateway", ResourceType: rules.ResourceNATGateway, Detect: detectUnreferencedNATGateway})
	r.Register(Scenario{
		ID:                "dev_test_nat_gateway_off_hours",
		ResourceType:      rules.ResourceNATGateway,
		RequiredTelemetry: []string{"BytesOutToDestination"},
		Detect:            detectDevTestNATGatewayOffHours,
	})
	r.Register(Scenario{
		ID:                "obsolete_migration_nat_gateway",
		ResourceType:      rules.ResourceNATGateway,
		RequiredTelemetry: []string{"BytesOutToDestination"},
		Detect:            detectObsoleteMigrationNATGateway,
	})
	r.Register(Scenario{ID: "unassociated_routes_nat_gateway", ResourceType: rules.ResourceNATGateway, Detect: detectUnassociatedRoutesNATGateway})
	r.Register(Scenario{ID: "no_igw_nat_gateway", ResourceType: rules.ResourceNATGateway, Detect: detectNoInternetGatewayNATGateway})
	r.Register(Scenario{ID: "public_subnet_nat_gateway", ResourceType: rules.ResourceNATGateway, Detect: detectPublicSubnetNATGateway})
	r.Register(Scenario{ID: "redundant_same_az_nat_gateway", ResourceType: rules.ResourceNATGateway, Detect: detectRedundantSameAZNATGateway})
	r.Register(Scenario{
		ID:                "vpc_endpoint_candidate_opportunity",
		ResourceType:      rules.ResourceNATGateway,
		RequiredTelemetry: []string{"BytesOutToDestination"},
		Detect:            detectVPCEndpointCandidateNATGateway,
	})
}

// detectUnassociatedRoutesNATGateway distinguishes itself from
// detectUnreferencedNATGateway: here, route tables do point at the
// gateway, but none of them are associated with any subnet or the VPC's
// main table, so the routes are never actually consulted by any traffic.
func detectUnassociatedRoutesNATGateway(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("unassociated_routes") || r.State != "available" {
		return nil, nil
	}
	refs, err := c.Related(ctx, "route_table_references")
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, nil
	}
	associated, err := c.Related(ctx, "associated_route_table_references")
	if err != nil {
		return nil, err
	}
	if len(associated) > 0 {
		return nil, nil
	}
	minAge := c.Rules.IntOr("min_age_days", 7)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "unassociated_routes_nat_gateway",
		OrphanReason: fmt.Sprintf("%d route table(s) point at this NAT gateway but none are associated with a subnet or VPC", len(refs)),
		Confidence:   detect.ConfidenceHigh,
		AgeDays:      age,
		Signals:      map[string]any{"referencing_route_tables": len(refs)},
	}, nil
}

func detectNoInternetGatewayNATGateway(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("no_igw") || r.State != "available" {
		return nil, nil
	}
	hasIGW, _ := r.Attributes["vpc_has_igw"].(bool)
	if hasIGW {
		return nil, nil
	}
	minAge := c.Rules.IntOr("min_age_days", 7)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "no_igw_nat_gateway",
		OrphanReason: "NAT gateway's VPC has no attached internet gateway, so it cannot reach the internet",
		Confidence:   detect.ConfidenceHigh,
		AgeDays:      age,
		Signals:      map[string]any{"vpc_id": r.Attributes["vpc_id"]},
	}, nil
}

// detectPublicSubnetNATGateway flags a gateway sitting in a subnet that
// auto-assigns public IPs: anything launched there already reaches the
// internet over the VPC's own internet gateway and has no reason to route
// through this NAT gateway at all.
func detectPublicSubnetNATGateway(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("public_subnet") || r.State != "available" {
		return nil, nil
	}
	isPublic, _ := r.Attributes["subnet_is_public"].(bool)
	if !isPublic {
		return nil, nil
	}
	minAge := c.Rules.IntOr("min_age_days", 7)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "public_subnet_nat_gateway",
		OrphanReason: fmt.Sprintf("gateway's own subnet %v auto-assigns public IPs, so resources placed there reach the internet directly", r.Attributes["subnet_id"]),
		Confidence:   detect.ConfidenceLow,
		AgeDays:      age,
	}, nil
}

func detectRedundantSameAZNATGateway(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("redundant_same_az") || r.State != "available" {
		return nil, nil
	}
	vpcID, _ := r.Attributes["vpc_id"].(string)
	az, _ := r.Attributes["availability_zone"].(string)
	if vpcID == "" || az == "" {
		return nil, nil
	}
	var olderSiblings []string
	for _, other := range c.Inventory.Resources {
		if other.ID == r.ID || other.State != "available" {
			continue
		}
		if ov, _ := other.Attributes["vpc_id"].(string); ov != vpcID {
			continue
		}
		if oaz, _ := other.Attributes["availability_zone"].(string); oaz != az {
			continue
		}
		if other.CreatedAt.Before(r.CreatedAt) {
			olderSiblings = append(olderSiblings, other.ID)
		}
	}
	if len(olderSiblings) == 0 {
		return nil, nil
	}
	minAge := c.Rules.IntOr("min_age_days", 7)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "redundant_same_az_nat_gateway",
		OrphanReason: fmt.Sprintf("VPC %s already has an older NAT gateway in availability zone %s", vpcID, az),
		Confidence:   detect.ConfidenceMedium,
		AgeDays:      age,
		Signals:      map[string]any{"availability_zone": az, "redundant_with": olderSiblings},
	}, nil
}

// detectVPCEndpointCandidateNATGateway flags heavy NAT data processing
// volume on a VPC with no S3/DynamoDB gateway endpoint: that traffic could
// route over the free gateway endpoint path instead of paying per-GB NAT
// data processing charges.
func detectVPCEndpointCandidateNATGateway(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("vpc_endpoint_candidates") || r.State != "available" {
		return nil, nil
	}
	hasEndpoint, _ := r.Attributes["vpc_has_gateway_endpoint"].(bool)
	if hasEndpoint {
		return nil, nil
	}
	out, err := c.Metric(ctx, "BytesOutToDestination", c.Now.AddDate(0, 0, -30), c.Now)
	if err != nil {
		return nil, err
	}
	agg := signal.AggregateWindow(out, 15)
	if agg.Hint == signal.HintNone {
		return nil, nil
	}
	thresholdGB := c.Rules.Float64Or("vpc_endpoint_traffic_threshold_gb", 50.0)
	if agg.Sum < thresholdGB*1e9 {
		return nil, nil
	}
	minAge := c.Rules.IntOr("min_age_days", 7)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "vpc_endpoint_candidate_opportunity",
		OrphanReason: fmt.Sprintf("processed %.1f GB over 30 days with no S3/DynamoDB gateway endpoint in its VPC to absorb that traffic for free", agg.Sum/1e9),
		Confidence:   detect.ConfidenceMedium,
		AgeDays:      age,
		Signals:      map[string]any{"bytes_processed_30d": agg.Sum},
	}, nil
}

func detectIdleNATGateway(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if r.State != "available" {
		return nil, nil
	}
	minAge := c.Rules.IntOr("min_age_days", 7)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}

	out, err := c.Metric(ctx, "BytesOutToDestination", c.Now.AddDate(0, 0, -30), c.Now)
	if err != nil {
		return nil, err
	}
	in, err := c.Metric(ctx, "BytesInFromDestination", c.Now.AddDate(0, 0, -30), c.Now)
	if err != nil {
		return nil, err
	}
	outAgg := signal.AggregateWindow(out, 15)
	inAgg := signal.AggregateWindow(in, 15)
	if outAgg.Hint == signal.HintNone && inAgg.Hint == signal.HintNone {
		return nil, nil
	}

	thresholdBytes := c.Rules.Float64Or("max_bytes_30d", 1_000_000.0)
	totalBytes := outAgg.Sum + inAgg.Sum
	if totalBytes > thresholdBytes {
		return nil, nil
	}

	return &detect.Evidence{
		OrphanType:   "idle_nat_gateway",
		OrphanReason: fmt.Sprintf("NAT gateway processed only %.0f bytes over the last 30 days", totalBytes),
		Confidence:   detect.ConfidenceForAge(age, c.Rules),
		AgeDays:      age,
		Signals:      map[string]any{"bytes_30d": totalBytes},
	}, nil
}

func detectUnreferencedNATGateway(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("no_routes") {
		return nil, nil
	}
	if r.State != "available" {
		return nil, nil
	}
	refs, err := c.Related(ctx, "route_table_references")
	if err != nil {
		return nil, err
	}
	if len(refs) > 0 {
		return nil, nil
	}
	minAge := c.Rules.IntOr("min_age_days", 7)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "unreferenced_nat_gateway",
		OrphanReason: "no route table has a route pointing at this NAT gateway",
		Confidence:   detect.ConfidenceHigh,
		AgeDays:      age,
	}, nil
}

func detectDevTestNATGatewayOffHours(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("dev_test_unused_hours") {
		return nil, nil
	}
	envTags := c.Rules.StringSliceOr("nonprod_env_tags", nil)
	envValues := c.Rules.StringSliceOr("nonprod_env_values", nil)
	if !rules.HasTaggedValue(r.Tags, envTags, envValues) {
		return nil, nil
	}

	lookback := c.Rules.IntOr("dev_test_pattern_lookback_days", 7)
	sample, err := c.Metric(ctx, "BytesOutToDestination", c.Now.AddDate(0, 0, -lookback), c.Now)
	if err != nil {
		return nil, err
	}

	startHour := c.Rules.IntOr("business_hours_start", 8)
	endHour := c.Rules.IntOr("business_hours_end", 18)
	split := signal.BusinessHoursSplit(sample, startHour, endHour)
	if split.Hint == signal.HintNone {
		return nil, nil
	}

	businessThreshold := c.Rules.Float64Or("business_hours_traffic_threshold", 90.0)
	businessShare := 1 - split.OffHoursShare
	if businessShare*100 < businessThreshold {
		return nil, nil
	}

	age := r.AgeDays(c.Now)
	return &detect.Evidence{
		OrphanType:   "dev_test_nat_gateway_off_hours",
		OrphanReason: fmt.Sprintf("non-production NAT gateway carries %.0f%% of its traffic inside business hours but runs 24/7", businessShare*100),
		Confidence:   detect.ConfidenceMedium,
		AgeDays:      age,
		Signals:      map[string]any{"business_hours_traffic_share": businessShare},
	}, nil
}

func detectObsoleteMigrationNATGateway(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("obsolete_migration") {
		return nil, nil
	}
	minAge := c.Rules.IntOr("migration_min_age_days", 90)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}

	baselineDays := c.Rules.IntOr("migration_baseline_days", 90)
	baseline, err := c.Metric(ctx, "BytesOutToDestination", c.Now.AddDate(0, 0, -baselineDays-30), c.Now.AddDate(0, 0, -baselineDays))
	if err != nil {
		return nil, err
	}
	recent, err := c.Metric(ctx, "BytesOutToDestination", c.Now.AddDate(0, 0, -30), c.Now)
	if err != nil {
		return nil, err
	}

	trend := signal.TrendRatio(recent, baseline)
	if trend.Hint == signal.HintNone {
		return nil, nil
	}

	dropThreshold := c.Rules.Float64Or("traffic_drop_threshold_percent", 90.0) / 100.0
	if trend.Ratio > 1-dropThreshold {
		return nil, nil
	}

	return &detect.Evidence{
		OrphanType:   "obsolete_migration_nat_gateway",
		OrphanReason: fmt.Sprintf("traffic dropped to %.0f%% of its baseline from %d days ago, suggesting a completed migration", trend.Ratio*100, baselineDays),
		Confidence:   detect.ConfidenceMedium,
		AgeDays:      age,
		Signals:      map[string]any{"traffic_trend_ratio": trend.Ratio},
	}, nil
}
