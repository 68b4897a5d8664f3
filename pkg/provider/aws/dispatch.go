package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/provider"
	"github.com/wastescan/detector/pkg/rules"
)

// ListResources implements provider.Adapter by routing to the per-service
// file that knows how to enumerate f.ResourceType.
func (c *Client) ListResources(ctx context.Context, region provider.RegionCode, f provider.Filter) (detect.ResourceInventory, error) {
	switch f.ResourceType {
	case rules.ResourceVolume, rules.ResourceEIP, rules.ResourceNATGateway, rules.ResourceInstance, rules.ResourceSnapshot:
		return c.listEC2Family(ctx, region, f.ResourceType)
	case rules.ResourceLoadBalancer:
		return c.listLoadBalancers(ctx, region)
	case rules.ResourceRelationalDB:
		return c.listRelationalDatabases(ctx, region)
	case rules.ResourceNoSQLTable:
		return c.listNoSQLTables(ctx, region)
	case rules.ResourceCacheCluster:
		return c.listCacheClusters(ctx, region)
	case rules.ResourceDataWarehouse:
		return c.listDataWarehouses(ctx, region)
	case rules.ResourceObjectBucket:
		return c.listBuckets(ctx)
	case rules.ResourceFunction:
		return c.listFunctions(ctx, region)
	case rules.ResourceContainerImage:
		return c.listContainerImages(ctx, region)
	case rules.ResourceLogGroup:
		return c.listLogGroups(ctx, region)
	case rules.ResourceAutoscalingGroup:
		return c.listAutoscalingGroups(ctx, region)
	}
	return detect.ResourceInventory{}, fmt.Errorf("aws adapter: unknown resource type %q", f.ResourceType)
}

// ListRelated implements provider.Adapter for the handful of relationships
// scenarios actually need beyond what ListResources' Attributes/AttachedTo
// already carries: route table associations for NAT gateway scenarios that
// need to know whether a gateway is still referenced by any route.
func (c *Client) ListRelated(ctx context.Context, region provider.RegionCode, parentID string, kind provider.RelationKind) ([]string, error) {
	switch kind {
	case RelationRouteTableReferences:
		return c.natGatewayRouteReferences(ctx, region, parentID)
	case RelationAssociatedRouteTableReferences:
		return c.natGatewayAssociatedRouteReferences(ctx, region, parentID)
	}
	return nil, fmt.Errorf("aws adapter: unknown relation kind %q", kind)
}

// RelationRouteTableReferences asks for every route table that has a
// route pointing at parentID (a NAT gateway ID).
const RelationRouteTableReferences provider.RelationKind = "route_table_references"

// RelationAssociatedRouteTableReferences narrows RelationRouteTableReferences
// down to route tables that also have at least one subnet or main
// association — a route table referencing a NAT gateway but associated
// with nothing never routes any actual traffic at it.
const RelationAssociatedRouteTableReferences provider.RelationKind = "associated_route_table_references"

func (c *Client) natGatewayRouteReferences(ctx context.Context, region, natGatewayID string) ([]string, error) {
	client := ec2.NewFromConfig(c.regionalConfig(region))
	out, err := client.DescribeRouteTables(ctx, &ec2.DescribeRouteTablesInput{})
	if err != nil {
		return nil, classify(fmt.Sprintf("region=%s resource_type=nat_gateway relation=route_table_references", region), err)
	}

	var referencing []string
	for _, rt := range out.RouteTables {
		for _, route := range rt.Routes {
			if route.NatGatewayId != nil && *route.NatGatewayId == natGatewayID {
				referencing = append(referencing, *rt.RouteTableId)
				break
			}
		}
	}
	return referencing, nil
}

func (c *Client) natGatewayAssociatedRouteReferences(ctx context.Context, region, natGatewayID string) ([]string, error) {
	client := ec2.NewFromConfig(c.regionalConfig(region))
	out, err := client.DescribeRouteTables(ctx, &ec2.DescribeRouteTablesInput{})
	if err != nil {
		return nil, classify(fmt.Sprintf("region=%s resource_type=nat_gateway relation=associated_route_table_references", region), err)
	}

	var associated []string
	for _, rt := range out.RouteTables {
		references := false
		for _, route := range rt.Routes {
			if route.NatGatewayId != nil && *route.NatGatewayId == natGatewayID {
				references = true
				break
			}
		}
		if references && len(rt.Associations) > 0 {
			associated = append(associated, *rt.RouteTableId)
		}
	}
	return associated, nil
}
