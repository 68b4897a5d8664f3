package pricing

import (
	"strings"

	"github.com/wastescan/detector/pkg/detect"
)

// Catalog prices a detect.Resource from the static table in catalog.go,
// optionally nudged by a Calibrator-derived discount factor for EC2-family
// compute (§4.5).
type Catalog struct {
	discountFactor float64 // 1.0 = list price; <1.0 reflects a Savings Plan/RI blended rate
}

// NewCatalog builds a Catalog with the given discount factor. Pass 1.0 for
// undiscounted list pricing.
func NewCatalog(discountFactor float64) *Catalog {
	if discountFactor <= 0 {
		discountFactor = 1.0
	}
	return &Catalog{discountFactor: discountFactor}
}

// Cost prices r according to its resource type, returning zero-value cost
// (never an error) for a resource type the catalog has no entry for; a
// shape missing from a known type's table is priced at that type's
// fallback rate instead. A
// missing price is a finding with a zero estimated cost, not a scan
// failure, since the orphan/waste signal is independent of whether this
// package can price the resource precisely.
func (c *Catalog) Cost(resourceType string, r detect.Resource) detect.ResourceCost {
	switch resourceType {
	case "volume":
		return c.volumeCost(r)
	case "snapshot":
		return detect.ResourceCost{TotalMonthlyUSD: float64(r.SizeGB) * snapshotGBMonth}
	case "eip":
		return detect.ResourceCost{TotalMonthlyUSD: eipHourlyIdle * hoursPerMonth}
	case "nat_gateway":
		return detect.ResourceCost{TotalMonthlyUSD: natGatewayHourly * hoursPerMonth}
	case "instance":
		return c.instanceCost(r)
	case "load_balancer":
		return c.loadBalancerCost(r)
	case "relational_database":
		return c.rdsCost(r)
	case "nosql_table":
		return c.dynamoCost(r)
	case "cache_cluster":
		return c.elastiCacheCost(r)
	case "data_warehouse":
		return c.redshiftCost(r)
	case "object_bucket":
		return c.s3Cost(r)
	case "function":
		return c.lambdaCost(r)
	case "container_image":
		return c.ecrCost(r)
	case "log_group":
		return c.logGroupCost(r)
	}
	return detect.ResourceCost{}
}

// Delta prices the avoidable savings an optimization-scenario finding
// claims: the difference between the resource's current provisioned shape
// and the right-sized alternative the scenario's own evidence computed
// (detect.CostDelta, §4.5/§9 Open Question 2's resolution). It never
// returns the resource's full absolute cost — freeing the resource isn't
// on the table for these scenarios, only downsizing it. An orphan_type
// this switch doesn't recognize returns 0 rather than guessing, since an
// unrecognized delta type has no grounded way to price its savings.
func (c *Catalog) Delta(resourceType string, r detect.Resource, ev detect.Evidence) float64 {
	switch ev.OrphanType {
	case "oversized_iops_opportunity":
		return c.iopsDelta(r, ev)
	case "oversized_throughput_opportunity":
		return c.throughputDelta(r, ev)
	case "right_sizing_opportunity", "oversized_instance_opportunity":
		return c.instanceDownsizeDelta(r)
	case "cache_memory_over_provisioned":
		return c.cacheDownsizeDelta(r)
	case "nosql_table_over_provisioned":
		return c.dynamoDownsizeDelta(r, ev)
	case "spot_eligible_opportunity":
		return c.spotDelta(r)
	case "scheduled_unused_opportunity":
		return c.scheduledDelta(r, ev)
	case "vpc_endpoint_candidate_opportunity":
		return c.vpcEndpointDelta(ev)
	}
	return 0
}

func (c *Catalog) iopsDelta(r detect.Resource, ev detect.Evidence) float64 {
	rate, ok := ebsIOPSMonth[strings.ToLower(r.Shape)]
	if !ok {
		return 0
	}
	provisioned, _ := ev.Signals["provisioned_iops"].(int32)
	rightSized, _ := ev.Signals["right_sized_iops"].(float64)
	return detect.Delta(billableIOPSCost(rate, float64(provisioned)), billableIOPSCost(rate, rightSized))
}

func billableIOPSCost(rate, iops float64) float64 {
	billable := iops - 3000 // gp3/io-family baseline
	if billable < 0 {
		billable = 0
	}
	return rate * billable
}

func (c *Catalog) throughputDelta(r detect.Resource, ev detect.Evidence) float64 {
	if strings.ToLower(r.Shape) != "gp3" {
		return 0
	}
	provisioned, _ := ev.Signals["provisioned_throughput_mbps"].(int32)
	rightSized, _ := ev.Signals["right_sized_throughput_mbps"].(float64)
	return detect.Delta(billableThroughputCost(float64(provisioned)), billableThroughputCost(rightSized))
}

func billableThroughputCost(mbps float64) float64 {
	billable := mbps - 125 // gp3's included baseline
	if billable < 0 {
		billable = 0
	}
	return billable * ebsThroughputMBpsMonth
}

// sizeTiers orders the size suffixes this catalog's rate tables use, from
// smallest to largest, so downsizeOneStep can find the next size down
// within the same family instead of guessing at a flat discount.
var sizeTiers = []string{
	"micro", "small", "medium", "large", "xlarge",
	"2xlarge", "4xlarge", "8xlarge", "12xlarge", "16xlarge", "24xlarge",
}

// downsizeOneStep looks up shape's hourly rate in table and returns the
// rate for the next smaller size in the same family. If shape is already
// the smallest tier this catalog prices, or the smaller size isn't in the
// table, it falls back to half of shape's own rate as a conservative
// estimate of a one-size-down saving.
func downsizeOneStep(table map[string]float64, shape string) (hourly float64, ok bool) {
	shape = strings.ToLower(shape)
	current, ok := table[shape]
	if !ok {
		return 0, false
	}
	dot := strings.LastIndex(shape, ".")
	if dot < 0 {
		return current * 0.5, true
	}
	family, size := shape[:dot], shape[dot+1:]
	idx := -1
	for i, s := range sizeTiers {
		if s == size {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return current * 0.5, true
	}
	if rate, ok := table[family+"."+sizeTiers[idx-1]]; ok {
		return rate, true
	}
	return current * 0.5, true
}

func (c *Catalog) instanceDownsizeDelta(r detect.Resource) float64 {
	hourly, ok := ec2HourlyOnDemand[strings.ToLower(r.Shape)]
	if !ok {
		return 0
	}
	recommended, ok := downsizeOneStep(ec2HourlyOnDemand, r.Shape)
	if !ok {
		return 0
	}
	current := hourly * hoursPerMonth * c.discountFactor
	return detect.Delta(current, recommended*hoursPerMonth*c.discountFactor)
}

func (c *Catalog) cacheDownsizeDelta(r detect.Resource) float64 {
	hourly, ok := elastiCacheHourlyByNode[strings.ToLower(r.Shape)]
	if !ok {
		return 0
	}
	recommended, ok := downsizeOneStep(elastiCacheHourlyByNode, r.Shape)
	if !ok {
		return 0
	}
	nodes, _ := r.Attributes["node_count"].(int32)
	if nodes < 1 {
		nodes = 1
	}
	current := hourly * hoursPerMonth * float64(nodes)
	return detect.Delta(current, recommended*hoursPerMonth*float64(nodes))
}

func (c *Catalog) dynamoDownsizeDelta(r detect.Resource, ev detect.Evidence) float64 {
	wcu, _ := r.Attributes["provisioned_wcu"].(int64)
	rcu, _ := r.Attributes["provisioned_rcu"].(int64)
	recWCU, _ := ev.Signals["recommended_wcu"].(float64)
	recRCU, _ := ev.Signals["recommended_rcu"].(float64)
	current := dynamoWCUMonth*float64(wcu) + dynamoRCUMonth*float64(rcu)
	recommended := dynamoWCUMonth*recWCU + dynamoRCUMonth*recRCU
	return detect.Delta(current, recommended)
}

// spotDiscountFactor is the conservative low end of Spot's typical 60-90%
// discount off on-demand pricing.
const spotDiscountFactor = 0.6

func (c *Catalog) spotDelta(r detect.Resource) float64 {
	hourly, ok := ec2HourlyOnDemand[strings.ToLower(r.Shape)]
	if !ok {
		return 0
	}
	return hourly * hoursPerMonth * c.discountFactor * spotDiscountFactor
}

func (c *Catalog) scheduledDelta(r detect.Resource, ev detect.Evidence) float64 {
	hourly, ok := ec2HourlyOnDemand[strings.ToLower(r.Shape)]
	if !ok {
		return 0
	}
	offHoursShare, _ := ev.Signals["off_hours_share"].(float64)
	return hourly * hoursPerMonth * c.discountFactor * offHoursShare
}

// vpcEndpointDelta prices the NAT data-processing fee a gateway VPC
// endpoint (free for S3/DynamoDB traffic) would eliminate.
func (c *Catalog) vpcEndpointDelta(ev detect.Evidence) float64 {
	bytesProcessed, _ := ev.Signals["bytes_processed_30d"].(float64)
	return (bytesProcessed / 1e9) * natGatewayDataProcessingPerGB
}

func (c *Catalog) volumeCost(r detect.Resource) detect.ResourceCost {
	volType := strings.ToLower(r.Shape)
	rate, ok := ebsGBMonth[volType]
	if !ok {
		rate = ebsGBMonth["gp2"]
	}

	components := []detect.ComponentBreakdown{
		{Component: "storage", UnitPrice: rate, Quantity: float64(r.SizeGB), MonthlyUSD: rate * float64(r.SizeGB)},
	}

	if iopsRate, ok := ebsIOPSMonth[volType]; ok {
		if iops, ok := r.Attributes["iops"].(int32); ok && iops > 0 {
			billableIOPS := float64(iops) - 3000 // gp3/io-family baseline
			if billableIOPS > 0 {
				components = append(components, detect.ComponentBreakdown{
					Component: "provisioned_iops", UnitPrice: iopsRate, Quantity: billableIOPS,
					MonthlyUSD: iopsRate * billableIOPS,
				})
			}
		}
	}

	rc := detect.ResourceCost{Components: components}
	rc.TotalMonthlyUSD = rc.Sum()
	return rc
}

func (c *Catalog) instanceCost(r detect.Resource) detect.ResourceCost {
	hourly, ok := ec2HourlyOnDemand[strings.ToLower(r.Shape)]
	if !ok {
		hourly = 0.096 // m5.large-equivalent fallback for an instance type absent from the table
	}
	return detect.ResourceCost{TotalMonthlyUSD: hourly * hoursPerMonth * c.discountFactor}
}

func (c *Catalog) loadBalancerCost(r detect.Resource) detect.ResourceCost {
	hourly, ok := elbv2Hourly[strings.ToLower(r.Shape)]
	if !ok {
		hourly = elbv2Hourly["application"]
	}
	return detect.ResourceCost{TotalMonthlyUSD: hourly * hoursPerMonth}
}

func (c *Catalog) rdsCost(r detect.Resource) detect.ResourceCost {
	hourly, ok := rdsHourlyByClass[strings.ToLower(r.Shape)]
	if !ok {
		hourly = rdsHourlyByClass["db.t3.medium"]
	}
	multiAZ, _ := r.Attributes["multi_az"].(bool)
	if multiAZ {
		hourly *= 2
	}

	components := []detect.ComponentBreakdown{
		{Component: "compute", UnitPrice: hourly, Quantity: hoursPerMonth, MonthlyUSD: hourly * hoursPerMonth * c.discountFactor},
		{Component: "storage", UnitPrice: rdsStorageGBMonth, Quantity: float64(r.SizeGB), MonthlyUSD: rdsStorageGBMonth * float64(r.SizeGB)},
	}
	rc := detect.ResourceCost{Components: components}
	rc.TotalMonthlyUSD = rc.Sum()
	return rc
}

func (c *Catalog) dynamoCost(r detect.Resource) detect.ResourceCost {
	if r.Shape == "PAY_PER_REQUEST" {
		// On-demand tables have no provisioned capacity to price; cost is
		// usage-driven and scenarios key on item_count/gsi_count instead.
		return detect.ResourceCost{}
	}
	wcu, _ := r.Attributes["provisioned_wcu"].(int64)
	rcu, _ := r.Attributes["provisioned_rcu"].(int64)

	components := []detect.ComponentBreakdown{
		{Component: "write_capacity", UnitPrice: dynamoWCUMonth, Quantity: float64(wcu), MonthlyUSD: dynamoWCUMonth * float64(wcu)},
		{Component: "read_capacity", UnitPrice: dynamoRCUMonth, Quantity: float64(rcu), MonthlyUSD: dynamoRCUMonth * float64(rcu)},
	}
	rc := detect.ResourceCost{Components: components}
	rc.TotalMonthlyUSD = rc.Sum()
	return rc
}

func (c *Catalog) elastiCacheCost(r detect.Resource) detect.ResourceCost {
	hourly, ok := elastiCacheHourlyByNode[strings.ToLower(r.Shape)]
	if !ok {
		hourly = elastiCacheHourlyByNode["cache.t3.medium"]
	}
	nodes, _ := r.Attributes["node_count"].(int32)
	if nodes < 1 {
		nodes = 1
	}
	return detect.ResourceCost{TotalMonthlyUSD: hourly * hoursPerMonth * float64(nodes)}
}

func (c *Catalog) redshiftCost(r detect.Resource) detect.ResourceCost {
	hourly, ok := redshiftHourlyByNode[strings.ToLower(r.Shape)]
	if !ok {
		hourly = redshiftHourlyByNode["dc2.large"]
	}
	nodes, _ := r.Attributes["node_count"].(int32)
	if nodes < 1 {
		nodes = 1
	}
	return detect.ResourceCost{TotalMonthlyUSD: hourly * hoursPerMonth * float64(nodes)}
}

func (c *Catalog) s3Cost(r detect.Resource) detect.ResourceCost {
	// Bucket-level size isn't enumerated by ListBuckets, so bucket findings
	// are priced at zero; the object-bucket scenarios read only bucket
	// attributes and compute no cost of their own.
	return detect.ResourceCost{}
}

func (c *Catalog) lambdaCost(r detect.Resource) detect.ResourceCost {
	provisioned, _ := r.Attributes["provisioned_concurrency"].(int)
	memoryMB, _ := r.Attributes["memory_mb"].(int32)
	if provisioned == 0 {
		return detect.ResourceCost{}
	}
	gb := float64(memoryMB) / 1024.0
	monthlySeconds := hoursPerMonth * 3600
	return detect.ResourceCost{
		TotalMonthlyUSD: lambdaProvisionedConcurrencyGBsecond * gb * float64(provisioned) * monthlySeconds,
	}
}

func (c *Catalog) ecrCost(r detect.Resource) detect.ResourceCost {
	bytes, _ := r.Attributes["untagged_bytes"].(int64)
	gb := float64(bytes) / (1024 * 1024 * 1024)
	return detect.ResourceCost{TotalMonthlyUSD: gb * ecrStorageGBMonth}
}

func (c *Catalog) logGroupCost(r detect.Resource) detect.ResourceCost {
	bytes, _ := r.Attributes["stored_bytes"].(int64)
	gb := float64(bytes) / (1024 * 1024 * 1024)
	return detect.ResourceCost{TotalMonthlyUSD: gb * cloudWatchLogsStorageGBMonth}
}
