package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
)

// listContainerImages enumerates every ECR repository and its untagged
// images (pull activity is not read), in the teacher's ecr_janitor style (single-purpose
// waste-bytes-by-image heuristic) adapted here to the shared Adapter
// surface: each Resource is one repository, with image-level waste
// summarized into its Attributes rather than one Resource per image,
// keeping the (resource_type, region, resource_id) dedup key meaningful.
func (c *Client) listContainerImages(ctx context.Context, region string) (detect.ResourceInventory, error) {
	client := ecr.NewFromConfig(c.regionalConfig(region))
	inv := detect.ResourceInventory{ResourceType: rules.ResourceContainerImage, Region: region}

	repoPaginator := ecr.NewDescribeRepositoriesPaginator(client, &ecr.DescribeRepositoriesInput{})
	for repoPaginator.HasMorePages() {
		page, err := repoPaginator.NextPage(ctx)
		if err != nil {
			return inv, classify(fmt.Sprintf("region=%s resource_type=container_image", region), err)
		}
		for _, repo := range page.Repositories {
			name := aws.ToString(repo.RepositoryName)

			tags := map[string]string{}
			if tagOut, err := client.ListTagsForResource(ctx, &ecr.ListTagsForResourceInput{
				ResourceArn: repo.RepositoryArn,
			}); err == nil {
				for _, t := range tagOut.Tags {
					tags[aws.ToString(t.Key)] = aws.ToString(t.Value)
				}
			}

			var untaggedCount int
			var untaggedBytes int64
			imgPaginator := ecr.NewDescribeImagesPaginator(client, &ecr.DescribeImagesInput{RepositoryName: repo.RepositoryName})
			for imgPaginator.HasMorePages() {
				imgPage, err := imgPaginator.NextPage(ctx)
				if err != nil {
					break
				}
				for _, img := range imgPage.ImageDetails {
					if len(img.ImageTags) == 0 {
						untaggedCount++
						untaggedBytes += aws.ToInt64(img.ImageSizeInBytes)
					}
				}
			}

			r := detect.Resource{
				ID:        name,
				Name:      name,
				Region:    region,
				State:     "active",
				CreatedAt: aws.ToTime(repo.CreatedAt),
				Tags:      tags,
				Attributes: map[string]any{
					"untagged_image_count": untaggedCount,
					"untagged_bytes":       untaggedBytes,
				},
			}
			inv.Resources = append(inv.Resources, r)
		}
	}
	return inv, nil
}
