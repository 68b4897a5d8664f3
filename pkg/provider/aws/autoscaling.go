package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/applicationautoscaling"
	aastypes "github.com/aws/aws-sdk-go-v2/service/applicationautoscaling/types"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
)

// listAutoscalingGroups enumerates every registered Application Auto
// Scaling target across every namespace this adapter cares about
// (DynamoDB tables/GSIs, ECS services) — EC2 Auto Scaling groups proper
// use a separate "autoscaling" service API with no shared client here, so
// this resource type covers Application Auto Scaling's scalable targets,
// which is where the "scaling policy never triggers" scenario applies
// most often in practice (DynamoDB on-demand-eligible tables left on
// manual provisioned capacity with a dead autoscaling policy attached).
func (c *Client) listAutoscalingGroups(ctx context.Context, region string) (detect.ResourceInventory, error) {
	client := applicationautoscaling.NewFromConfig(c.regionalConfig(region))
	inv := detect.ResourceInventory{ResourceType: rules.ResourceAutoscalingGroup, Region: region}

	namespaces := []aastypes.ServiceNamespace{
		aastypes.ServiceNamespaceDynamodb,
		aastypes.ServiceNamespaceEcs,
	}

	for _, ns := range namespaces {
		paginator := applicationautoscaling.NewDescribeScalableTargetsPaginator(client, &applicationautoscaling.DescribeScalableTargetsInput{
			ServiceNamespace: ns,
		})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return inv, classify(fmt.Sprintf("region=%s resource_type=autoscaling_group namespace=%s", region, ns), err)
			}
			for _, target := range page.ScalableTargets {
				id := aws.ToString(target.ResourceId)

				policiesOut, err := client.DescribeScalingPolicies(ctx, &applicationautoscaling.DescribeScalingPoliciesInput{
					ServiceNamespace: ns,
					ResourceId:       target.ResourceId,
				})
				policyCount := 0
				if err == nil {
					policyCount = len(policiesOut.ScalingPolicies)
				}

				r := detect.Resource{
					ID:        id,
					Name:      id,
					Region:    region,
					State:     "active",
					CreatedAt: aws.ToTime(target.CreationTime),
					Tags:      map[string]string{},
					Attributes: map[string]any{
						"namespace":      string(ns),
						"min_capacity":   aws.ToInt32(target.MinCapacity),
						"max_capacity":   aws.ToInt32(target.MaxCapacity),
						"policy_count":   policyCount,
					},
				}
				inv.Resources = append(inv.Resources, r)
			}
		}
	}
	return inv, nil
}
