// Package signal provides the small set of telemetry reduction helpers
// every scenario builds on (§4.3): aggregating a metric window, splitting
// business-hours vs off-hours traffic, computing a trend ratio between two
// windows, variance, and load-skew across a partition. Each helper returns
// a confidence_hint alongside its numeric result so a scenario can fold
// "how much do I trust this number" into its own confidence decision
// instead of silently trusting a thin sample.
package signal

import (
	"math"
	"time"

	"github.com/wastescan/detector/pkg/detect"
)

// Hint grades how much a scenario should trust a computed signal, given how
// much underlying data it was built from.
type Hint string

const (
	HintStrong Hint = "strong" // ample, well-distributed samples
	HintWeak   Hint = "weak"   // some samples, but sparse or short window
	HintNone   Hint = "none"   // no usable samples at all
)

// Aggregate is the reduced result of one AggregateWindow call.
type Aggregate struct {
	Sum     float64
	Average float64
	Maximum float64
	Hint    Hint
}

// AggregateWindow reduces a TelemetrySample into sum/average/maximum, with
// a confidence hint based on sample count: fewer than minSamples points is
// HintWeak, zero points (or HasData=false) is HintNone.
func AggregateWindow(sample detect.TelemetrySample, minSamples int) Aggregate {
	if !sample.HasData || len(sample.Series) == 0 {
		return Aggregate{Hint: HintNone}
	}
	hint := HintStrong
	if len(sample.Series) < minSamples {
		hint = HintWeak
	}
	return Aggregate{
		Sum:     sample.Sum,
		Average: sample.Average,
		Maximum: sample.Maximum,
		Hint:    hint,
	}
}

// BusinessHoursResult splits a sample's total into business-hours and
// off-hours contributions using its HourOfDayHisto bucket.
type BusinessHoursResult struct {
	BusinessHoursTotal float64
	OffHoursTotal      float64
	OffHoursShare      float64 // off-hours / total, 0 when total is 0
	Hint               Hint
}

// BusinessHoursSplit buckets a sample's hour-of-day histogram into
// [startHour, endHour) as "business hours" and everything else as
// "off hours" — used by scheduled-unused and dev/test-24x7 scenarios that
// need to tell "idle all the time" apart from "idle outside 9-to-5".
func BusinessHoursSplit(sample detect.TelemetrySample, startHour, endHour int) BusinessHoursResult {
	if !sample.HasData {
		return BusinessHoursResult{Hint: HintNone}
	}

	var business, off float64
	for hour, v := range sample.HourOfDayHisto {
		if hour >= startHour && hour < endHour {
			business += v
		} else {
			off += v
		}
	}

	total := business + off
	hint := HintStrong
	if total == 0 {
		hint = HintNone
	} else if total < 24 {
		hint = HintWeak
	}

	share := 0.0
	if total > 0 {
		share = off / total
	}

	return BusinessHoursResult{
		BusinessHoursTotal: business,
		OffHoursTotal:      off,
		OffHoursShare:      share,
		Hint:               hint,
	}
}

// TrendResult is the ratio between a recent and a baseline window, with a
// confidence hint: both windows must have real data for the ratio to be
// trustworthy.
type TrendResult struct {
	Ratio float64 // recent / baseline; 1 when both are 0, +Inf when only baseline is 0
	Hint  Hint
}

// TrendRatio compares a recent window against an older baseline window
// (e.g. "traffic this week" vs "traffic 90 days ago") — the obsolete
// migration / traffic-drop scenarios use this to detect a resource that
// used to carry load and no longer does.
func TrendRatio(recent, baseline detect.TelemetrySample) TrendResult {
	if !recent.HasData || !baseline.HasData {
		return TrendResult{Hint: HintNone}
	}
	if baseline.Sum == 0 {
		if recent.Sum == 0 {
			return TrendResult{Ratio: 1, Hint: HintWeak}
		}
		return TrendResult{Ratio: math.Inf(1), Hint: HintWeak}
	}
	return TrendResult{Ratio: recent.Sum / baseline.Sum, Hint: HintStrong}
}

// Variance computes the population variance and standard deviation of a
// sample's series — used by burstable-credit and spot-eligibility
// scenarios to tell "steadily low" apart from "spiky".
func Variance(sample detect.TelemetrySample) (variance, stddev float64, hint Hint) {
	n := len(sample.Series)
	if !sample.HasData || n == 0 {
		return 0, 0, HintNone
	}

	mean := 0.0
	for _, p := range sample.Series {
		mean += p.Value
	}
	mean /= float64(n)

	sumSq := 0.0
	for _, p := range sample.Series {
		d := p.Value - mean
		sumSq += d * d
	}
	variance = sumSq / float64(n)
	stddev = math.Sqrt(variance)

	h := HintStrong
	if n < 5 {
		h = HintWeak
	}
	return variance, stddev, h
}

// PartitionSkew measures how unevenly load is spread across a set of named
// partitions (e.g. DynamoDB partition-key access counts, shard throughput)
// by returning the share of total load carried by the single busiest
// partition. A value near 1.0 with many partitions indicates most of them
// are dead weight.
func PartitionSkew(totals map[string]float64) (skew float64, hint Hint) {
	if len(totals) == 0 {
		return 0, HintNone
	}
	var sum, max float64
	for _, v := range totals {
		sum += v
		if v > max {
			max = v
		}
	}
	if sum == 0 {
		return 0, HintNone
	}
	h := HintStrong
	if len(totals) < 3 {
		h = HintWeak
	}
	return max / sum, h
}

// WithinLookback reports whether t falls within lookbackDays of now. No
// scenario in this module calls it; they compute day counts inline.
func WithinLookback(t, now time.Time, lookbackDays int) bool {
	return now.Sub(t) <= time.Duration(lookbackDays)*24*time.Hour
}
