package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
)

// listLogGroups enumerates CloudWatch Logs groups, carrying storedBytes and
// retention directly on the Resource since CloudWatch Logs has no tagging
// call cheap enough to run per-group at scan scale for most accounts; tags
// are fetched best-effort and simply left empty on failure.
func (c *Client) listLogGroups(ctx context.Context, region string) (detect.ResourceInventory, error) {
	client := cloudwatchlogs.NewFromConfig(c.regionalConfig(region))
	inv := detect.ResourceInventory{ResourceType: rules.ResourceLogGroup, Region: region}

	paginator := cloudwatchlogs.NewDescribeLogGroupsPaginator(client, &cloudwatchlogs.DescribeLogGroupsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return inv, classify(fmt.Sprintf("region=%s resource_type=log_group", region), err)
		}
		for _, lg := range page.LogGroups {
			name := aws.ToString(lg.LogGroupName)

			retention := -1 // -1 means "never expire"
			if lg.RetentionInDays != nil {
				retention = int(aws.ToInt32(lg.RetentionInDays))
			}

			tags := map[string]string{}
			if tagOut, err := client.ListTagsForResource(ctx, &cloudwatchlogs.ListTagsForResourceInput{
				ResourceArn: lg.LogGroupArn,
			}); err == nil {
				tags = tagOut.Tags
			}

			r := detect.Resource{
				ID:        name,
				Name:      name,
				Region:    region,
				State:     "active",
				CreatedAt: msToTime(aws.ToInt64(lg.CreationTime)),
				Tags:      tags,
				Attributes: map[string]any{
					"stored_bytes":      aws.ToInt64(lg.StoredBytes),
					"retention_days":    retention,
					"infinite_retention": retention == -1,
				},
			}
			inv.Resources = append(inv.Resources, r)
		}
	}
	return inv, nil
}
