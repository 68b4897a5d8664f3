package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
)

func ec2Tags(tags []types.Tag) map[string]string {
	out := make(map[string]string, len(tags))
	for _, t := range tags {
		out[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}
	return out
}

func (c *Client) listVolumes(ctx context.Context, region string) (detect.ResourceInventory, error) {
	client := ec2.NewFromConfig(c.regionalConfig(region))
	inv := detect.ResourceInventory{ResourceType: rules.ResourceVolume, Region: region}

	paginator := ec2.NewDescribeVolumesPaginator(client, &ec2.DescribeVolumesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return inv, classify(fmt.Sprintf("region=%s resource_type=volume", region), err)
		}
		for _, v := range page.Volumes {
			r := detect.Resource{
				ID:        aws.ToString(v.VolumeId),
				Region:    region,
				State:     string(v.State),
				Shape:     string(v.VolumeType),
				SizeGB:    int(aws.ToInt32(v.Size)),
				CreatedAt: aws.ToTime(v.CreateTime),
				Tags:      ec2Tags(v.Tags),
				Attributes: map[string]any{
					"iops":       aws.ToInt32(v.Iops),
					"throughput": aws.ToInt32(v.Throughput),
					"encrypted":  aws.ToBool(v.Encrypted),
				},
			}
			if len(v.Attachments) > 0 {
				r.AttachedTo = aws.ToString(v.Attachments[0].InstanceId)
			}
			if name, ok := r.Tags["Name"]; ok {
				r.Name = name
			}
			inv.Resources = append(inv.Resources, r)
		}
	}
	return inv, nil
}

func (c *Client) listElasticIPs(ctx context.Context, region string) (detect.ResourceInventory, error) {
	client := ec2.NewFromConfig(c.regionalConfig(region))
	inv := detect.ResourceInventory{ResourceType: rules.ResourceEIP, Region: region}

	out, err := client.DescribeAddresses(ctx, &ec2.DescribeAddressesInput{})
	if err != nil {
		return inv, classify(fmt.Sprintf("region=%s resource_type=eip", region), err)
	}
	for _, a := range out.Addresses {
		r := detect.Resource{
			ID:        aws.ToString(a.AllocationId),
			Region:    region,
			State:     addressState(a),
			Tags:      ec2Tags(a.Tags),
			Attributes: map[string]any{
				"public_ip":            aws.ToString(a.PublicIp),
				"network_interface_id": aws.ToString(a.NetworkInterfaceId),
				"domain":               string(a.Domain),
			},
		}
		if a.InstanceId != nil {
			r.AttachedTo = aws.ToString(a.InstanceId)
		}
		if name, ok := r.Tags["Name"]; ok {
			r.Name = name
		}
		inv.Resources = append(inv.Resources, r)
	}
	return inv, nil
}

// addressState reports "attached" when the EIP is bound to a network
// interface, "detached" otherwise; the EC2 API has no native state field
// for addresses the way it does for volumes or instances.
func addressState(a types.Address) string {
	if aws.ToString(a.NetworkInterfaceId) != "" {
		return "attached"
	}
	return "detached"
}

func (c *Client) listNATGateways(ctx context.Context, region string) (detect.ResourceInventory, error) {
	client := ec2.NewFromConfig(c.regionalConfig(region))
	inv := detect.ResourceInventory{ResourceType: rules.ResourceNATGateway, Region: region}

	subnetsOut, err := client.DescribeSubnets(ctx, &ec2.DescribeSubnetsInput{})
	if err != nil {
		return inv, classify(fmt.Sprintf("region=%s resource_type=nat_gateway call=describe_subnets", region), err)
	}
	subnetAZ := make(map[string]string, len(subnetsOut.Subnets))
	subnetPublic := make(map[string]bool, len(subnetsOut.Subnets))
	for _, sn := range subnetsOut.Subnets {
		subnetAZ[aws.ToString(sn.SubnetId)] = aws.ToString(sn.AvailabilityZone)
		subnetPublic[aws.ToString(sn.SubnetId)] = aws.ToBool(sn.MapPublicIpOnLaunch)
	}

	igwOut, err := client.DescribeInternetGateways(ctx, &ec2.DescribeInternetGatewaysInput{})
	if err != nil {
		return inv, classify(fmt.Sprintf("region=%s resource_type=nat_gateway call=describe_internet_gateways", region), err)
	}
	vpcsWithIGW := map[string]bool{}
	for _, igw := range igwOut.InternetGateways {
		for _, att := range igw.Attachments {
			if att.VpcId != nil {
				vpcsWithIGW[aws.ToString(att.VpcId)] = true
			}
		}
	}

	// Gateway VPC endpoints route S3/DynamoDB traffic without touching a
	// NAT gateway at all; a VPC that already has one for a given service
	// is not a vpc_endpoint_candidates target for that service's share of
	// NAT data processing charges.
	endpointsOut, err := client.DescribeVpcEndpoints(ctx, &ec2.DescribeVpcEndpointsInput{})
	if err != nil {
		return inv, classify(fmt.Sprintf("region=%s resource_type=nat_gateway call=describe_vpc_endpoints", region), err)
	}
	vpcsWithGatewayEndpoint := map[string]bool{}
	for _, ep := range endpointsOut.VpcEndpoints {
		if ep.VpcEndpointType == types.VpcEndpointTypeGateway {
			vpcsWithGatewayEndpoint[aws.ToString(ep.VpcId)] = true
		}
	}

	paginator := ec2.NewDescribeNatGatewaysPaginator(client, &ec2.DescribeNatGatewaysInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return inv, classify(fmt.Sprintf("region=%s resource_type=nat_gateway", region), err)
		}
		for _, ng := range page.NatGateways {
			vpcID := aws.ToString(ng.VpcId)
			subnetID := aws.ToString(ng.SubnetId)
			r := detect.Resource{
				ID:        aws.ToString(ng.NatGatewayId),
				Region:    region,
				State:     string(ng.State),
				CreatedAt: aws.ToTime(ng.CreateTime),
				Tags:      ec2Tags(ng.Tags),
				Attributes: map[string]any{
					"vpc_id":                   vpcID,
					"subnet_id":                subnetID,
					"availability_zone":        subnetAZ[subnetID],
					"vpc_has_igw":               vpcsWithIGW[vpcID],
					"subnet_is_public":          subnetPublic[subnetID],
					"vpc_has_gateway_endpoint":  vpcsWithGatewayEndpoint[vpcID],
				},
			}
			if name, ok := r.Tags["Name"]; ok {
				r.Name = name
			}
			inv.Resources = append(inv.Resources, r)
		}
	}
	return inv, nil
}

func (c *Client) listInstances(ctx context.Context, region string) (detect.ResourceInventory, error) {
	client := ec2.NewFromConfig(c.regionalConfig(region))
	inv := detect.ResourceInventory{ResourceType: rules.ResourceInstance, Region: region}

	paginator := ec2.NewDescribeInstancesPaginator(client, &ec2.DescribeInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return inv, classify(fmt.Sprintf("region=%s resource_type=instance", region), err)
		}
		for _, res := range page.Reservations {
			for _, i := range res.Instances {
				r := detect.Resource{
					ID:        aws.ToString(i.InstanceId),
					Region:    region,
					State:     string(i.State.Name),
					Shape:     string(i.InstanceType),
					CreatedAt: aws.ToTime(i.LaunchTime),
					Tags:      ec2Tags(i.Tags),
					Attributes: map[string]any{
						"platform":          string(i.PlatformDetails),
						"state_transition":  aws.ToString(i.StateTransitionReason),
						"availability_zone": aws.ToString(i.Placement.AvailabilityZone),
					},
				}
				// The API only reports LaunchTime, not a last-state-change
				// timestamp. StateTransitionReason for a stopped instance
				// looks like "User initiated (2024-03-01 10:00:00 GMT)"; the
				// resolution for Open Question 1 (SPEC_FULL.md §9) parses
				// that out when present and falls back to LaunchTime when
				// it isn't (freshly launched, or a state never explicitly
				// transitioned by a user action).
				r.StateSince = parseStateTransitionTime(aws.ToString(i.StateTransitionReason), r.CreatedAt)
				if name, ok := r.Tags["Name"]; ok {
					r.Name = name
				}
				inv.Resources = append(inv.Resources, r)
			}
		}
	}
	return inv, nil
}

// parseStateTransitionTime extracts the timestamp embedded in EC2's
// StateTransitionReason string (format: "<reason> (YYYY-MM-DD HH:MM:SS
// GMT)"), falling back to fallback when the field is empty or unparsable.
func parseStateTransitionTime(reason string, fallback time.Time) time.Time {
	const layout = "2006-01-02 15:04:05 MST"
	open := -1
	for i, r := range reason {
		if r == '(' {
			open = i
		}
	}
	if open == -1 || !hasSuffixParen(reason) {
		return fallback
	}
	inner := reason[open+1 : len(reason)-1]
	t, err := time.Parse(layout, inner)
	if err != nil {
		return fallback
	}
	return t
}

func hasSuffixParen(s string) bool {
	return len(s) > 0 && s[len(s)-1] == ')'
}

func (c *Client) listSnapshots(ctx context.Context, region string) (detect.ResourceInventory, error) {
	client := ec2.NewFromConfig(c.regionalConfig(region))
	inv := detect.ResourceInventory{ResourceType: rules.ResourceSnapshot, Region: region}

	paginator := ec2.NewDescribeSnapshotsPaginator(client, &ec2.DescribeSnapshotsInput{
		OwnerIds: []string{"self"},
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return inv, classify(fmt.Sprintf("region=%s resource_type=snapshot", region), err)
		}
		for _, s := range page.Snapshots {
			r := detect.Resource{
				ID:        aws.ToString(s.SnapshotId),
				Region:    region,
				State:     string(s.State),
				SizeGB:    int(aws.ToInt32(s.VolumeSize)),
				CreatedAt: aws.ToTime(s.StartTime),
				Tags:      ec2Tags(s.Tags),
				Attributes: map[string]any{
					"volume_id":      aws.ToString(s.VolumeId),
					"encrypted":      aws.ToBool(s.Encrypted),
					"progress":       aws.ToString(s.Progress),
					"description":    aws.ToString(s.Description),
				},
			}
			if name, ok := r.Tags["Name"]; ok {
				r.Name = name
			}
			inv.Resources = append(inv.Resources, r)
		}
	}
	return inv, nil
}

// listEC2Family serves ListResources for every EC2-family resource type
// this adapter covers.
func (c *Client) listEC2Family(ctx context.Context, region string, resourceType string) (detect.ResourceInventory, error) {
	switch resourceType {
	case rules.ResourceVolume:
		return c.listVolumes(ctx, region)
	case rules.ResourceEIP:
		return c.listElasticIPs(ctx, region)
	case rules.ResourceNATGateway:
		return c.listNATGateways(ctx, region)
	case rules.ResourceInstance:
		return c.listInstances(ctx, region)
	case rules.ResourceSnapshot:
		return c.listSnapshots(ctx, region)
	}
	return detect.ResourceInventory{}, fmt.Errorf("aws adapter: unhandled ec2-family resource type %q", resourceType)
}
