// Package pricing estimates the monthly cost of a detect.Resource from a
// static, versioned price table rather than a live call to the AWS
// Pricing API (SPEC_FULL.md §9, Open Question 2's resolution): scans must
// stay fast and reproducible across thousands of resources, and AWS's own
// Pricing API is both slow (one GetProducts round trip per SKU) and,
// unlike EC2/RDS/etc., only available in us-east-1 and ap-south-1,
// complicating the one-client-per-region design the rest of the adapter
// follows. The tradeoff is that prices drift from the list price over
// time; CatalogVersion and CatalogAsOf make that drift auditable instead
// of silent. The catalog applies the discount factor given to NewCatalog
// (the engine passes Config.DiscountFactor) to EC2-family prices;
// Calibrator (calibrator.go) can derive such a factor from Cost Explorer,
// but nothing in this module constructs one.
package pricing

import "time"

// CatalogVersion identifies which snapshot of AWS's published on-demand
// pricing this table was transcribed from. Bump it, and CatalogAsOf,
// whenever the table is refreshed from AWS's pricing pages.
const CatalogVersion = "2026-06-us-east-1-v1"

// CatalogAsOf is the date the prices below were last verified against
// AWS's published on-demand rates.
var CatalogAsOf = time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)

// hoursPerMonth is the standard AWS billing convention (730 hours) used to
// convert an hourly rate into a monthly estimate throughout this package.
const hoursPerMonth = 730.0

// ebsGBMonth is USD per GB-month by EBS volume type, us-east-1 on-demand.
var ebsGBMonth = map[string]float64{
	"gp3":      0.08,
	"gp2":      0.10,
	"io1":      0.125,
	"io2":      0.125,
	"st1":      0.045,
	"sc1":      0.015,
	"standard": 0.05,
}

// ebsIOPSMonth is USD per provisioned IOPS-month above the volume type's
// free baseline, io1/io2/gp3 only.
var ebsIOPSMonth = map[string]float64{
	"io1": 0.065,
	"io2": 0.065,
	"gp3": 0.005,
}

// ebsThroughputMBpsMonth is USD per provisioned MB/s-month above gp3's
// included 125 MB/s baseline.
const ebsThroughputMBpsMonth = 0.04

// snapshotGBMonth is USD per GB-month of EBS snapshot storage.
const snapshotGBMonth = 0.05

// eipHourlyIdle is the hourly charge for an Elastic IP not associated with
// a running instance.
const eipHourlyIdle = 0.005

// natGatewayHourly is the hourly charge for a provisioned NAT Gateway,
// exclusive of data processing charges.
const natGatewayHourly = 0.045

// natGatewayDataProcessingPerGB is USD per GB processed through a NAT
// Gateway.
const natGatewayDataProcessingPerGB = 0.045

// ec2HourlyOnDemand is USD/hour by instance type, Linux, us-east-1,
// shared tenancy, no pre-installed software. Deliberately limited to the
// instance families the scenario catalog actually reasons about
// (oversized/old-generation/burstable checks); an instance type absent
// here falls back to the m5.large rate in client.go, whatever its family.
var ec2HourlyOnDemand = map[string]float64{
	"t2.micro":    0.0116,
	"t2.small":    0.023,
	"t2.medium":   0.0464,
	"t2.large":    0.0928,
	"t3.micro":    0.0104,
	"t3.small":    0.0208,
	"t3.medium":   0.0416,
	"t3.large":    0.0832,
	"t3.xlarge":   0.1664,
	"t3.2xlarge":  0.3328,
	"m4.large":    0.1,
	"m4.xlarge":   0.2,
	"m5.large":    0.096,
	"m5.xlarge":   0.192,
	"m5.2xlarge":  0.384,
	"m5.4xlarge":  0.768,
	"c4.large":    0.1,
	"c5.large":    0.085,
	"c5.xlarge":   0.17,
	"r4.large":    0.133,
	"r5.large":    0.126,
	"r5.xlarge":   0.252,
}

// elbv2Hourly is USD/hour by load balancer type (LCU charges excluded:
// scenarios in this catalog price idle/unused balancers, which accrue no
// LCU-driven charges to speak of).
var elbv2Hourly = map[string]float64{
	"application": 0.0225,
	"network":     0.0225,
	"gateway":     0.0125,
}

// rdsHourlyByClass is USD/hour by DB instance class, single-AZ, on-demand.
// Multi-AZ deployments are priced at 2x in client.go.
var rdsHourlyByClass = map[string]float64{
	"db.t3.micro":   0.017,
	"db.t3.small":   0.034,
	"db.t3.medium":  0.068,
	"db.m5.large":   0.171,
	"db.m5.xlarge":  0.342,
	"db.r5.large":   0.24,
	"db.r5.xlarge":  0.48,
}

// rdsStorageGBMonth is USD per GB-month of allocated RDS storage (gp2
// baseline, the RDS default).
const rdsStorageGBMonth = 0.115

// dynamoWCUMonth and dynamoRCUMonth are USD per provisioned capacity
// unit-month, standard table class, provisioned billing mode.
const dynamoWCUMonth = 0.00065 * hoursPerMonth
const dynamoRCUMonth = 0.00013 * hoursPerMonth

// elastiCacheHourlyByNode is USD/hour by cache node type, Redis/Memcached
// shared across both engines (AWS prices them identically per node type).
var elastiCacheHourlyByNode = map[string]float64{
	"cache.t3.micro":  0.017,
	"cache.t3.small":  0.034,
	"cache.t3.medium": 0.068,
	"cache.m5.large":  0.156,
	"cache.r5.large":  0.216,
}

// redshiftHourlyByNode is USD/hour by Redshift node type.
var redshiftHourlyByNode = map[string]float64{
	"dc2.large":  0.25,
	"dc2.8xlarge": 4.8,
	"ra3.xlplus": 1.086,
	"ra3.4xlarge": 3.26,
}

// s3StandardGBMonth is USD per GB-month of S3 Standard storage.
const s3StandardGBMonth = 0.023

// lambdaProvisionedConcurrencyGBsecond is USD per GB-second of reserved
// provisioned concurrency, independent of invocations.
const lambdaProvisionedConcurrencyGBsecond = 0.0000041667

// ecrStorageGBMonth is USD per GB-month of ECR image storage beyond the
// free tier.
const ecrStorageGBMonth = 0.10

// cloudWatchLogsStorageGBMonth is USD per GB-month of stored log data.
const cloudWatchLogsStorageGBMonth = 0.03
