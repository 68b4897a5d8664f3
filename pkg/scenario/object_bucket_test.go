package scenario

import (
	"context"
	"testing"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
)

func TestDetectEmptyBucketFlagsOldEmptyBucket(t *testing.T) {
	c := testContext(rules.ResourceObjectBucket, nil)
	bucket := detect.Resource{
		ID:         "bucket-1",
		CreatedAt:  c.Now.AddDate(0, 0, -120),
		Attributes: map[string]any{"is_empty": true},
	}

	ev, err := detectEmptyBucket(context.Background(), c, bucket)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected evidence for a 120-day-old empty bucket")
	}
}

func TestDetectEmptyBucketSkipsNonEmpty(t *testing.T) {
	c := testContext(rules.ResourceObjectBucket, nil)
	bucket := detect.Resource{
		ID:         "bucket-2",
		CreatedAt:  c.Now.AddDate(0, 0, -120),
		Attributes: map[string]any{"is_empty": false},
	}

	ev, err := detectEmptyBucket(context.Background(), c, bucket)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Fatal("expected no evidence for a non-empty bucket")
	}
}

func TestDetectOldObjectsBucket(t *testing.T) {
	c := testContext(rules.ResourceObjectBucket, nil)
	bucket := detect.Resource{
		ID:        "bucket-3",
		CreatedAt: c.Now.AddDate(-2, 0, 0),
		Attributes: map[string]any{
			"is_empty":         false,
			"newest_object_at": c.Now.AddDate(-1, -1, 0),
		},
	}

	ev, err := detectOldObjectsBucket(context.Background(), c, bucket)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected evidence for a bucket whose newest object predates the threshold")
	}
}

func TestDetectStaleMultipartUploads(t *testing.T) {
	c := testContext(rules.ResourceObjectBucket, nil)
	bucket := detect.Resource{
		ID:        "bucket-4",
		CreatedAt: c.Now.AddDate(0, 0, -60),
		Attributes: map[string]any{
			"multipart_upload_count": 3,
		},
	}

	ev, err := detectStaleMultipartUploads(context.Background(), c, bucket)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected evidence for stale multipart uploads")
	}
	if ev.Signals["multipart_upload_count"] != 3 {
		t.Fatalf("multipart_upload_count = %v, want 3", ev.Signals["multipart_upload_count"])
	}
}

func TestDetectNoLifecyclePolicySkipsWhenPresent(t *testing.T) {
	c := testContext(rules.ResourceObjectBucket, nil)
	bucket := detect.Resource{
		ID:        "bucket-5",
		CreatedAt: c.Now.AddDate(0, 0, -200),
		Attributes: map[string]any{
			"is_empty":             false,
			"has_lifecycle_policy": true,
		},
	}

	ev, err := detectNoLifecyclePolicy(context.Background(), c, bucket)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Fatal("expected no evidence when a lifecycle policy is present")
	}
}

func TestDetectNoLifecyclePolicyFlagsOldBucketWithoutOne(t *testing.T) {
	c := testContext(rules.ResourceObjectBucket, nil)
	bucket := detect.Resource{
		ID:        "bucket-6",
		CreatedAt: c.Now.AddDate(0, 0, -200),
		Attributes: map[string]any{
			"is_empty":             false,
			"has_lifecycle_policy": false,
		},
	}

	ev, err := detectNoLifecyclePolicy(context.Background(), c, bucket)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected evidence for an old bucket without a lifecycle policy")
	}
}
