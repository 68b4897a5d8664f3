package pricing

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
)

// Calibrator derives a blended discount factor (amortized cost / on-demand
// list cost, over the trailing week of Compute spend) so Catalog's EC2
// instance cost estimates track an account's actual Savings Plan / RI
// coverage instead of always reporting full list price. Unlike the
// teacher's version, this one holds no on-disk cache: a scan calibrates
// once per run and the factor lives only as long as the Catalog that
// embeds it — the static price table already amortizes the cost of
// avoiding a live Pricing API round trip per SKU, so a second layer of
// filesystem caching here would only protect against re-running the scan
// within the same day, which Cost Explorer's own request is cheap enough
// to not need.
type Calibrator struct {
	client         *costexplorer.Client
	log            *slog.Logger
	manualOverride float64
}

// NewCalibrator builds a Calibrator. manualOverride is used if the Cost
// Explorer call fails; pass 0 to fall back to list pricing (factor 1.0)
// instead. An out-of-range ratio yields 1.0 regardless of the override.
func NewCalibrator(cfg aws.Config, log *slog.Logger, manualOverride float64) *Calibrator {
	if log == nil {
		log = slog.Default()
	}
	return &Calibrator{
		client:         costexplorer.NewFromConfig(cfg),
		log:            log,
		manualOverride: manualOverride,
	}
}

// DiscountFactor returns the calibrated factor, failing open to 1.0 (or
// the manual override) on any Cost Explorer error: a scan must never fail
// because cost calibration did.
func (c *Calibrator) DiscountFactor(ctx context.Context) float64 {
	factor, err := c.fetch(ctx)
	if err != nil {
		if c.manualOverride > 0 {
			c.log.Warn("cost explorer calibration failed, using manual override",
				"error", err, "override", c.manualOverride)
			return c.manualOverride
		}
		c.log.Warn("cost explorer calibration failed, using list pricing", "error", err)
		return 1.0
	}
	return factor
}

func (c *Calibrator) fetch(ctx context.Context) (float64, error) {
	end := time.Now().Format("2006-01-02")
	start := time.Now().AddDate(0, 0, -7).Format("2006-01-02")

	out, err := c.client.GetCostAndUsage(ctx, &costexplorer.GetCostAndUsageInput{
		TimePeriod: &cetypes.DateInterval{Start: aws.String(start), End: aws.String(end)},
		Granularity: cetypes.GranularityDaily,
		Metrics:     []string{"AmortizedCost", "UnblendedCost"},
		Filter: &cetypes.Expression{
			Dimensions: &cetypes.DimensionValues{
				Key:    cetypes.DimensionService,
				Values: []string{"Amazon Elastic Compute Cloud - Compute"},
			},
		},
	})
	if err != nil {
		return 1.0, err
	}

	var amortized, unblended float64
	for _, result := range out.ResultsByTime {
		if v, ok := result.Total["AmortizedCost"]; ok {
			amortized += parseAmount(v.Amount)
		}
		if v, ok := result.Total["UnblendedCost"]; ok {
			unblended += parseAmount(v.Amount)
		}
	}

	if unblended == 0 {
		return 1.0, nil
	}

	factor := amortized / unblended
	if factor > 1.5 || factor < 0.1 {
		// Suspicious ratio (e.g. partial-month edge effects); don't let a
		// bad week of billing data produce wildly wrong estimates.
		return 1.0, nil
	}
	return factor, nil
}

func parseAmount(s *string) float64 {
	if s == nil {
		return 0
	}
	v, _ := strconv.ParseFloat(*s, 64)
	return v
}
