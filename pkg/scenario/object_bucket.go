package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
)

// registerObjectBucketScenarios covers S3 buckets, scanned once per account
// (rules.GlobalResourceTypes) rather than once per region. All signals come
// straight off the Attributes the S3 adapter already populates per bucket
// (is_empty, newest_object_at, multipart_upload_count,
// has_lifecycle_policy) — CloudWatch's S3 storage metrics use a
// two-dimension (BucketName, StorageType) schema this adapter's
// single-dimension GetMetric contract can't express, so these scenarios
// are attribute-only rather than telemetry-backed.
func registerObjectBucketScenarios(r *Registry) {
	r.Register(Scenario{ID: "empty_bucket", ResourceType: rules.ResourceObjectBucket, Detect: detectEmptyBucket})
	r.Register(Scenario{ID: "old_objects_bucket", ResourceType: rules.ResourceObjectBucket, Detect: detectOldObjectsBucket})
	r.Register(Scenario{ID: "stale_multipart_uploads", ResourceType: rules.ResourceObjectBucket, Detect: detectStaleMultipartUploads})
	r.Register(Scenario{ID: "no_lifecycle_policy", ResourceType: rules.ResourceObjectBucket, Detect: detectNoLifecyclePolicy})
}

func detectEmptyBucket(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("empty") {
		return nil, nil
	}
	isEmpty, _ := r.Attributes["is_empty"].(bool)
	if !isEmpty {
		return nil, nil
	}
	minAge := c.Rules.IntOr("min_bucket_age_days", 90)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "empty_bucket",
		OrphanReason: fmt.Sprintf("bucket has held zero objects across its %d days of existence", age),
		Confidence:   detect.ConfidenceForAge(age, c.Rules),
		AgeDays:      age,
	}, nil
}

func detectOldObjectsBucket(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("old_objects") {
		return nil, nil
	}
	isEmpty, _ := r.Attributes["is_empty"].(bool)
	if isEmpty {
		return nil, nil
	}
	newest, _ := r.Attributes["newest_object_at"].(time.Time)
	if newest.IsZero() {
		return nil, nil
	}
	ageThreshold := c.Rules.IntOr("object_age_threshold_days", 365)
	daysSinceNewest := int(c.Now.Sub(newest).Hours() / 24)
	if daysSinceNewest < ageThreshold {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "old_objects_bucket",
		OrphanReason: fmt.Sprintf("bucket's most recently modified sampled object is %d days old", daysSinceNewest),
		Confidence:   detect.ConfidenceMedium,
		AgeDays:      r.AgeDays(c.Now),
		Signals:      map[string]any{"days_since_newest_object": daysSinceNewest},
	}, nil
}

func detectStaleMultipartUploads(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("multipart_uploads") {
		return nil, nil
	}
	count, _ := r.Attributes["multipart_upload_count"].(int)
	if count == 0 {
		return nil, nil
	}
	minAge := c.Rules.IntOr("multipart_age_days", 30)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "stale_multipart_uploads",
		OrphanReason: fmt.Sprintf("bucket has %d incomplete multipart uploads accruing storage charges with no abort rule", count),
		Confidence:   detect.ConfidenceMedium,
		AgeDays:      age,
		Signals:      map[string]any{"multipart_upload_count": count},
	}, nil
}

func detectNoLifecyclePolicy(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("no_lifecycle") {
		return nil, nil
	}
	hasLifecycle, _ := r.Attributes["has_lifecycle_policy"].(bool)
	if hasLifecycle {
		return nil, nil
	}
	isEmpty, _ := r.Attributes["is_empty"].(bool)
	if isEmpty {
		return nil, nil
	}
	minAge := c.Rules.IntOr("lifecycle_age_threshold_days", 180)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "no_lifecycle_policy",
		OrphanReason: fmt.Sprintf("bucket is %d days old with objects but has no lifecycle policy to tier or expire them", age),
		Confidence:   detect.ConfidenceLow,
		AgeDays:      age,
	}, nil
}
