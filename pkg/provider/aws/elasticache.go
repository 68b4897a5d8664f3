package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/elasticache"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
)

func (c *Client) listCacheClusters(ctx context.Context, region string) (detect.ResourceInventory, error) {
	client := elasticache.NewFromConfig(c.regionalConfig(region))
	inv := detect.ResourceInventory{ResourceType: rules.ResourceCacheCluster, Region: region}

	paginator := elasticache.NewDescribeCacheClustersPaginator(client, &elasticache.DescribeCacheClustersInput{
		ShowCacheNodeInfo: aws.Bool(true),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return inv, classify(fmt.Sprintf("region=%s resource_type=cache_cluster", region), err)
		}
		for _, cc := range page.CacheClusters {
			id := aws.ToString(cc.CacheClusterId)

			tags := map[string]string{}
			if cc.ARN != nil {
				if tagsOut, err := client.ListTagsForResource(ctx, &elasticache.ListTagsForResourceInput{
					ResourceName: cc.ARN,
				}); err == nil {
					for _, t := range tagsOut.TagList {
						tags[aws.ToString(t.Key)] = aws.ToString(t.Value)
					}
				}
			}

			r := detect.Resource{
				ID:        id,
				Name:      id,
				Region:    region,
				State:     aws.ToString(cc.CacheClusterStatus),
				Shape:     aws.ToString(cc.CacheNodeType),
				CreatedAt: aws.ToTime(cc.CacheClusterCreateTime),
				Tags:      tags,
				Attributes: map[string]any{
					"engine":     aws.ToString(cc.Engine),
					"node_count": aws.ToInt32(cc.NumCacheNodes),
				},
			}
			inv.Resources = append(inv.Resources, r)
		}
	}
	return inv, nil
}
