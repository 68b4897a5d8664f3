package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
)

func rdsTags(tags []rdstypes.Tag) map[string]string {
	out := make(map[string]string, len(tags))
	for _, t := range tags {
		out[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}
	return out
}

func (c *Client) listRelationalDatabases(ctx context.Context, region string) (detect.ResourceInventory, error) {
	client := rds.NewFromConfig(c.regionalConfig(region))
	inv := detect.ResourceInventory{ResourceType: rules.ResourceRelationalDB, Region: region}

	paginator := rds.NewDescribeDBInstancesPaginator(client, &rds.DescribeDBInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return inv, classify(fmt.Sprintf("region=%s resource_type=relational_database", region), err)
		}
		for _, db := range page.DBInstances {
			r := detect.Resource{
				ID:        aws.ToString(db.DBInstanceIdentifier),
				Name:      aws.ToString(db.DBInstanceIdentifier),
				Region:    region,
				State:     aws.ToString(db.DBInstanceStatus),
				Shape:     aws.ToString(db.DBInstanceClass),
				SizeGB:    int(aws.ToInt32(db.AllocatedStorage)),
				CreatedAt: aws.ToTime(db.InstanceCreateTime),
				Tags:      rdsTags(db.TagList),
				Attributes: map[string]any{
					"engine":             aws.ToString(db.Engine),
					"multi_az":           aws.ToBool(db.MultiAZ),
					"backup_retention":   aws.ToInt32(db.BackupRetentionPeriod),
					"publicly_accessible": aws.ToBool(db.PubliclyAccessible),
				},
			}
			inv.Resources = append(inv.Resources, r)
		}
	}
	return inv, nil
}
