package scenario

import (
	"context"
	"fmt"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
)

// registerAutoscalingGroupScenarios covers Application Auto Scaling
// targets (see pkg/provider/aws/autoscaling.go): DynamoDB tables/GSIs and
// ECS services with a registered scalable target. CloudWatch has no
// AWS/AutoScaling metric coverage for this API family, so the signal here
// is structural — a policy attached to a target whose min and max
// capacity are pinned equal can never actually scale anything.
func registerAutoscalingGroupScenarios(r *Registry) {
	r.Register(Scenario{ID: "autoscaling_not_triggering", ResourceType: rules.ResourceAutoscalingGroup, Detect: detectAutoscalingNotTriggering})
}

func detectAutoscalingNotTriggering(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("not_triggering") {
		return nil, nil
	}
	minAge := c.Rules.IntOr("min_age_days", 7)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}

	policyCount, _ := r.Attributes["policy_count"].(int)
	if policyCount == 0 {
		return nil, nil
	}

	minCap, _ := r.Attributes["min_capacity"].(int32)
	maxCap, _ := r.Attributes["max_capacity"].(int32)
	if maxCap == 0 {
		return nil, nil
	}
	variancePercent := (float64(maxCap-minCap) / float64(maxCap)) * 100

	threshold := c.Rules.Float64Or("capacity_variance_threshold", 5.0)
	if variancePercent > threshold {
		return nil, nil
	}

	return &detect.Evidence{
		OrphanType:   "autoscaling_not_triggering",
		OrphanReason: fmt.Sprintf("scalable target has %d scaling polic(ies) but a min/max capacity range of only %.1f%%, it never actually scales", policyCount, variancePercent),
		Confidence:   detect.ConfidenceMedium,
		AgeDays:      age,
		Signals:      map[string]any{"min_capacity": minCap, "max_capacity": maxCap, "policy_count": policyCount},
	}, nil
}
