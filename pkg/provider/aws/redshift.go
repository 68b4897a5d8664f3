package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/redshift"
	rstypes "github.com/aws/aws-sdk-go-v2/service/redshift/types"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
)

func redshiftTags(tags []rstypes.Tag) map[string]string {
	out := make(map[string]string, len(tags))
	for _, t := range tags {
		out[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}
	return out
}

func (c *Client) listDataWarehouses(ctx context.Context, region string) (detect.ResourceInventory, error) {
	client := redshift.NewFromConfig(c.regionalConfig(region))
	inv := detect.ResourceInventory{ResourceType: rules.ResourceDataWarehouse, Region: region}

	paginator := redshift.NewDescribeClustersPaginator(client, &redshift.DescribeClustersInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return inv, classify(fmt.Sprintf("region=%s resource_type=data_warehouse", region), err)
		}
		for _, cl := range page.Clusters {
			id := aws.ToString(cl.ClusterIdentifier)
			r := detect.Resource{
				ID:        id,
				Name:      id,
				Region:    region,
				State:     aws.ToString(cl.ClusterStatus),
				Shape:     aws.ToString(cl.NodeType),
				CreatedAt: aws.ToTime(cl.ClusterCreateTime),
				Tags:      redshiftTags(cl.Tags),
				Attributes: map[string]any{
					"node_count":       aws.ToInt32(cl.NumberOfNodes),
					"publicly_accessible": aws.ToBool(cl.PubliclyAccessible),
				},
			}
			inv.Resources = append(inv.Resources, r)
		}
	}
	return inv, nil
}
