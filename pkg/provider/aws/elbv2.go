package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbtypes "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
)

func (c *Client) listLoadBalancers(ctx context.Context, region string) (detect.ResourceInventory, error) {
	client := elasticloadbalancingv2.NewFromConfig(c.regionalConfig(region))
	inv := detect.ResourceInventory{ResourceType: rules.ResourceLoadBalancer, Region: region}

	paginator := elasticloadbalancingv2.NewDescribeLoadBalancersPaginator(client, &elasticloadbalancingv2.DescribeLoadBalancersInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return inv, classify(fmt.Sprintf("region=%s resource_type=load_balancer", region), err)
		}
		for _, lb := range page.LoadBalancers {
			arn := aws.ToString(lb.LoadBalancerArn)

			tags := map[string]string{}
			if tagsOut, err := client.DescribeTags(ctx, &elasticloadbalancingv2.DescribeTagsInput{
				ResourceArns: []string{arn},
			}); err == nil {
				for _, td := range tagsOut.TagDescriptions {
					for _, t := range td.Tags {
						tags[aws.ToString(t.Key)] = aws.ToString(t.Value)
					}
				}
			}

			targetGroupCount, healthyCount := c.countTargets(ctx, client, arn)
			listenerCount := c.countListeners(ctx, client, arn)
			crossZoneEnabled := c.crossZoneEnabled(ctx, client, arn)

			r := detect.Resource{
				ID:        arn,
				Name:      aws.ToString(lb.LoadBalancerName),
				Region:    region,
				State:     string(lb.State.Code),
				Shape:     string(lb.Type),
				CreatedAt: aws.ToTime(lb.CreatedTime),
				Tags:      tags,
				Attributes: map[string]any{
					"scheme":                string(lb.Scheme),
					"target_group_count":    targetGroupCount,
					"healthy_target_count":  healthyCount,
					"listener_count":        listenerCount,
					"cross_zone_enabled":    crossZoneEnabled,
					"availability_zone_count": len(lb.AvailabilityZones),
				},
			}
			inv.Resources = append(inv.Resources, r)
		}
	}
	return inv, nil
}

// countTargets returns the number of target groups attached to lbArn and
// the total count of healthy targets across all of them, used by the
// zero-healthy-targets and no-target-groups scenarios.
func (c *Client) countTargets(ctx context.Context, client *elasticloadbalancingv2.Client, lbArn string) (groups, healthy int) {
	tgOut, err := client.DescribeTargetGroups(ctx, &elasticloadbalancingv2.DescribeTargetGroupsInput{
		LoadBalancerArn: aws.String(lbArn),
	})
	if err != nil {
		return 0, 0
	}
	groups = len(tgOut.TargetGroups)
	for _, tg := range tgOut.TargetGroups {
		healthOut, err := client.DescribeTargetHealth(ctx, &elasticloadbalancingv2.DescribeTargetHealthInput{
			TargetGroupArn: tg.TargetGroupArn,
		})
		if err != nil {
			continue
		}
		for _, th := range healthOut.TargetHealthDescriptions {
			if th.TargetHealth != nil && th.TargetHealth.State == elbtypes.TargetHealthStateEnumHealthy {
				healthy++
			}
		}
	}
	return groups, healthy
}

// countListeners returns the number of listeners configured on lbArn, used
// by the no-listeners scenario: a load balancer with zero listeners can
// never receive traffic regardless of how healthy its targets are.
func (c *Client) countListeners(ctx context.Context, client *elasticloadbalancingv2.Client, lbArn string) int {
	out, err := client.DescribeListeners(ctx, &elasticloadbalancingv2.DescribeListenersInput{
		LoadBalancerArn: aws.String(lbArn),
	})
	if err != nil {
		return -1
	}
	return len(out.Listeners)
}

// crossZoneEnabled reports the load_balancing.cross_zone.enabled attribute
// for lbArn, used by the cross-zone-waste scenario. ALBs always have it
// enabled and non-configurable, so this only varies for NLBs/CLBs.
func (c *Client) crossZoneEnabled(ctx context.Context, client *elasticloadbalancingv2.Client, lbArn string) bool {
	out, err := client.DescribeLoadBalancerAttributes(ctx, &elasticloadbalancingv2.DescribeLoadBalancerAttributesInput{
		LoadBalancerArn: aws.String(lbArn),
	})
	if err != nil {
		return false
	}
	for _, a := range out.Attributes {
		if aws.ToString(a.Key) == "load_balancing.cross_zone.enabled" {
			return aws.ToString(a.Value) == "true"
		}
	}
	return false
}
