package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
)

func (c *Client) listFunctions(ctx context.Context, region string) (detect.ResourceInventory, error) {
	client := lambda.NewFromConfig(c.regionalConfig(region))
	inv := detect.ResourceInventory{ResourceType: rules.ResourceFunction, Region: region}

	paginator := lambda.NewListFunctionsPaginator(client, &lambda.ListFunctionsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return inv, classify(fmt.Sprintf("region=%s resource_type=function", region), err)
		}
		for _, fn := range page.Functions {
			name := aws.ToString(fn.FunctionName)

			tags := map[string]string{}
			if tagsOut, err := client.ListTags(ctx, &lambda.ListTagsInput{Resource: fn.FunctionArn}); err == nil {
				tags = tagsOut.Tags
			}

			provisionedConcurrency := 0
			if cfgs, err := client.ListProvisionedConcurrencyConfigs(ctx, &lambda.ListProvisionedConcurrencyConfigsInput{
				FunctionName: fn.FunctionName,
			}); err == nil {
				for _, pc := range cfgs.ProvisionedConcurrencyConfigs {
					provisionedConcurrency += int(aws.ToInt32(pc.RequestedProvisionedConcurrentExecutions))
				}
			}

			r := detect.Resource{
				ID:        name,
				Name:      name,
				Region:    region,
				State:     string(fn.State),
				Shape:     string(fn.Runtime),
				CreatedAt: parseLambdaLastModified(aws.ToString(fn.LastModified)),
				Tags:      tags,
				Attributes: map[string]any{
					"memory_mb":                aws.ToInt32(fn.MemorySize),
					"provisioned_concurrency":  provisionedConcurrency,
				},
			}
			inv.Resources = append(inv.Resources, r)
		}
	}
	return inv, nil
}

// parseLambdaLastModified parses Lambda's ISO-8601 LastModified timestamp,
// the closest proxy Lambda exposes for "how long has this shape existed",
// falling back to the zero time when the string does not parse.
func parseLambdaLastModified(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04:05.000+0000", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
