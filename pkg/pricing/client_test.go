package pricing

import (
	"math"
	"testing"

	"github.com/wastescan/detector/pkg/detect"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.001
}

func TestVolumeCostPricesStorageAndIOPS(t *testing.T) {
	c := NewCatalog(1.0)
	r := detect.Resource{
		Shape:      "io2",
		SizeGB:     100,
		Attributes: map[string]any{"iops": int32(5000)},
	}
	cost := c.Cost("volume", r)

	wantStorage := 100 * ebsGBMonth["io2"]
	wantIOPS := (5000 - 3000) * ebsIOPSMonth["io2"]
	if !almostEqual(cost.TotalMonthlyUSD, wantStorage+wantIOPS) {
		t.Fatalf("total = %v, want %v", cost.TotalMonthlyUSD, wantStorage+wantIOPS)
	}
	if len(cost.Components) != 2 {
		t.Fatalf("components = %d, want 2 (storage + provisioned_iops)", len(cost.Components))
	}
}

func TestVolumeCostFallsBackToGP2ForUnknownType(t *testing.T) {
	c := NewCatalog(1.0)
	r := detect.Resource{Shape: "made-up-type", SizeGB: 50}
	cost := c.Cost("volume", r)

	want := 50 * ebsGBMonth["gp2"]
	if !almostEqual(cost.TotalMonthlyUSD, want) {
		t.Fatalf("total = %v, want %v (gp2 fallback)", cost.TotalMonthlyUSD, want)
	}
}

func TestInstanceCostAppliesDiscountFactor(t *testing.T) {
	c := NewCatalog(0.5)
	r := detect.Resource{Shape: "m5.large"}
	cost := c.Cost("instance", r)

	want := ec2HourlyOnDemand["m5.large"] * hoursPerMonth * 0.5
	if !almostEqual(cost.TotalMonthlyUSD, want) {
		t.Fatalf("total = %v, want %v", cost.TotalMonthlyUSD, want)
	}
}

func TestInstanceCostFallsBackForUnknownShape(t *testing.T) {
	c := NewCatalog(1.0)
	cost := c.Cost("instance", detect.Resource{Shape: "z9.nonexistent"})
	if cost.TotalMonthlyUSD <= 0 {
		t.Fatal("expected a positive fallback cost for an unknown instance type")
	}
}

func TestRDSCostDoublesForMultiAZ(t *testing.T) {
	c := NewCatalog(1.0)
	single := c.Cost("relational_database", detect.Resource{Shape: "db.m5.large", SizeGB: 0})
	multi := c.Cost("relational_database", detect.Resource{
		Shape: "db.m5.large", SizeGB: 0,
		Attributes: map[string]any{"multi_az": true},
	})
	if !almostEqual(multi.TotalMonthlyUSD, single.TotalMonthlyUSD*2) {
		t.Fatalf("multi-az total = %v, want double single-az total %v", multi.TotalMonthlyUSD, single.TotalMonthlyUSD)
	}
}

func TestDynamoCostSkipsPayPerRequest(t *testing.T) {
	c := NewCatalog(1.0)
	cost := c.Cost("nosql_table", detect.Resource{Shape: "PAY_PER_REQUEST"})
	if cost.TotalMonthlyUSD != 0 {
		t.Fatalf("total = %v, want 0 for an on-demand table", cost.TotalMonthlyUSD)
	}
}

func TestDynamoCostPricesProvisionedCapacity(t *testing.T) {
	c := NewCatalog(1.0)
	cost := c.Cost("nosql_table", detect.Resource{
		Attributes: map[string]any{"provisioned_wcu": int64(10), "provisioned_rcu": int64(20)},
	})
	want := dynamoWCUMonth*10 + dynamoRCUMonth*20
	if !almostEqual(cost.TotalMonthlyUSD, want) {
		t.Fatalf("total = %v, want %v", cost.TotalMonthlyUSD, want)
	}
}

func TestCostReturnsZeroValueForUnknownResourceType(t *testing.T) {
	c := NewCatalog(1.0)
	cost := c.Cost("not_a_real_type", detect.Resource{})
	if cost.TotalMonthlyUSD != 0 || len(cost.Components) != 0 {
		t.Fatalf("expected zero-value cost for an unknown resource type, got %+v", cost)
	}
}

func TestNewCatalogDefaultsNonPositiveDiscountToOne(t *testing.T) {
	c := NewCatalog(0)
	if c.discountFactor != 1.0 {
		t.Fatalf("discountFactor = %v, want 1.0 default", c.discountFactor)
	}
	c2 := NewCatalog(-0.3)
	if c2.discountFactor != 1.0 {
		t.Fatalf("discountFactor = %v, want 1.0 default for negative input", c2.discountFactor)
	}
}
