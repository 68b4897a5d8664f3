package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
)

// listBuckets implements the account-scoped (detect.GlobalRegion) object
// bucket inventory: S3 buckets have no home region in ListBuckets, so each
// bucket's actual region is resolved with GetBucketLocation before being
// recorded.
func (c *Client) listBuckets(ctx context.Context) (detect.ResourceInventory, error) {
	client := s3.NewFromConfig(c.regionalConfig("us-east-1"))
	inv := detect.ResourceInventory{ResourceType: rules.ResourceObjectBucket, Region: detect.GlobalRegion}

	out, err := client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return inv, classify("region=global resource_type=object_bucket", err)
	}

	for _, b := range out.Buckets {
		name := aws.ToString(b.Name)
		region := c.bucketRegion(ctx, client, name)

		tags := map[string]string{}
		if tagOut, err := client.GetBucketTagging(ctx, &s3.GetBucketTaggingInput{Bucket: b.Name}); err == nil {
			for _, t := range tagOut.TagSet {
				tags[aws.ToString(t.Key)] = aws.ToString(t.Value)
			}
		}

		hasLifecycle := false
		if _, err := client.GetBucketLifecycleConfiguration(ctx, &s3.GetBucketLifecycleConfigurationInput{Bucket: b.Name}); err == nil {
			hasLifecycle = true
		}

		multipartCount := 0
		if uploads, err := client.ListMultipartUploads(ctx, &s3.ListMultipartUploadsInput{Bucket: b.Name}); err == nil {
			multipartCount = len(uploads.Uploads)
		}

		isEmpty, newestObject := c.bucketObjectSummary(ctx, client, name)

		r := detect.Resource{
			ID:        name,
			Name:      name,
			Region:    region,
			State:     "active",
			CreatedAt: aws.ToTime(b.CreationDate),
			Tags:      tags,
			Attributes: map[string]any{
				"has_lifecycle_policy":   hasLifecycle,
				"multipart_upload_count": multipartCount,
				"is_empty":               isEmpty,
				"newest_object_at":       newestObject,
			},
		}
		inv.Resources = append(inv.Resources, r)
	}
	return inv, nil
}

// bucketObjectSummary samples the first page of listing results to decide
// whether a bucket holds anything and, if so, the most recent object it has
// seen. A single ListObjectsV2 page is a cheap proxy for "has recent
// activity" without paginating every object in a potentially huge bucket.
func (c *Client) bucketObjectSummary(ctx context.Context, client *s3.Client, bucket string) (bool, time.Time) {
	out, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: aws.String(bucket), MaxKeys: aws.Int32(1000)})
	if err != nil || len(out.Contents) == 0 {
		return err == nil, time.Time{}
	}
	var newest time.Time
	for _, obj := range out.Contents {
		if t := aws.ToTime(obj.LastModified); t.After(newest) {
			newest = t
		}
	}
	return false, newest
}

func (c *Client) bucketRegion(ctx context.Context, client *s3.Client, bucket string) string {
	out, err := client.GetBucketLocation(ctx, &s3.GetBucketLocationInput{Bucket: aws.String(bucket)})
	if err != nil {
		return "us-east-1"
	}
	loc := string(out.LocationConstraint)
	if loc == "" {
		return "us-east-1" // empty constraint means us-east-1, per the S3 API contract
	}
	if loc == string(s3types.BucketLocationConstraintEu) {
		return "eu-west-1"
	}
	return loc
}
