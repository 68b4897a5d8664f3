package scenario

import (
	"context"
	"fmt"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
)

// registerContainerImageScenarios covers ECR repositories. The adapter
// summarizes untagged image waste per repository rather than per
// image (see pkg/provider/aws/ecr.go), so this is the single scenario
// defaults.go names for the category. Pull activity is not checked.
func registerContainerImageScenarios(r *Registry) {
	r.Register(Scenario{ID: "untagged_unpulled_images", ResourceType: rules.ResourceContainerImage, Detect: detectUntaggedUnpulledImages})
}

func detectUntaggedUnpulledImages(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("untagged_unpulled") {
		return nil, nil
	}
	untaggedCount, _ := r.Attributes["untagged_image_count"].(int)
	if untaggedCount == 0 {
		return nil, nil
	}
	minAge := c.Rules.IntOr("min_age_days", 90)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}
	untaggedBytes, _ := r.Attributes["untagged_bytes"].(int64)

	return &detect.Evidence{
		OrphanType:   "untagged_unpulled_images",
		OrphanReason: fmt.Sprintf("repository holds %d untagged images totaling %.2f GB", untaggedCount, float64(untaggedBytes)/1e9),
		Confidence:   detect.ConfidenceForAge(age, c.Rules),
		AgeDays:      age,
		Signals:      map[string]any{"untagged_image_count": untaggedCount, "untagged_bytes": untaggedBytes},
	}, nil
}
