package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
)

func (c *Client) listNoSQLTables(ctx context.Context, region string) (detect.ResourceInventory, error) {
	client := dynamodb.NewFromConfig(c.regionalConfig(region))
	inv := detect.ResourceInventory{ResourceType: rules.ResourceNoSQLTable, Region: region}

	paginator := dynamodb.NewListTablesPaginator(client, &dynamodb.ListTablesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return inv, classify(fmt.Sprintf("region=%s resource_type=nosql_table", region), err)
		}
		for _, name := range page.TableNames {
			desc, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)})
			if err != nil {
				return inv, classify(fmt.Sprintf("region=%s resource_type=nosql_table table=%s", region, name), err)
			}
			t := desc.Table

			tagsOut, err := client.ListTagsOfResource(ctx, &dynamodb.ListTagsOfResourceInput{ResourceArn: t.TableArn})
			tags := map[string]string{}
			if err == nil {
				for _, tag := range tagsOut.Tags {
					tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
				}
			}

			billingMode := "PROVISIONED"
			if t.BillingModeSummary != nil {
				billingMode = string(t.BillingModeSummary.BillingMode)
			}

			emptyGSIs := 0
			for _, gsi := range t.GlobalSecondaryIndexes {
				if aws.ToInt64(gsi.ItemCount) == 0 {
					emptyGSIs++
				}
			}

			r := detect.Resource{
				ID:        aws.ToString(t.TableName),
				Name:      aws.ToString(t.TableName),
				Region:    region,
				State:     string(t.TableStatus),
				Shape:     billingMode,
				CreatedAt: aws.ToTime(t.CreationDateTime),
				Tags:      tags,
				Attributes: map[string]any{
					"item_count":       aws.ToInt64(t.ItemCount),
					"gsi_count":        len(t.GlobalSecondaryIndexes),
					"gsi_empty_count":  emptyGSIs,
					"provisioned_rcu":  provisionedThroughput(t.ProvisionedThroughput, true),
					"provisioned_wcu":  provisionedThroughput(t.ProvisionedThroughput, false),
				},
			}
			inv.Resources = append(inv.Resources, r)
		}
	}
	return inv, nil
}

func provisionedThroughput(p *ddbtypes.ProvisionedThroughputDescription, read bool) int64 {
	if p == nil {
		return 0
	}
	if read {
		return aws.ToInt64(p.ReadCapacityUnits)
	}
	return aws.ToInt64(p.WriteCapacityUnits)
}
