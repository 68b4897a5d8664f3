package scenario

import (
	"context"
	"testing"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
)

func TestDetectDetachedEIPFlagsOldDetached(t *testing.T) {
	c := testContext(rules.ResourceEIP, nil)
	eip := detect.Resource{ID: "eip-1", State: "detached", CreatedAt: c.Now.AddDate(0, 0, -10)}

	ev, err := detectDetachedEIP(context.Background(), c, eip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected evidence for a 10-day detached EIP")
	}
}

func TestDetectEIPOnStoppedInstance(t *testing.T) {
	c := testContext(rules.ResourceEIP, nil)
	c.Region = map[string]detect.ResourceInventory{
		rules.ResourceInstance: {
			Resources: []detect.Resource{
				{ID: "i-1", State: "stopped", StateSince: c.Now.AddDate(0, 0, -40)},
			},
		},
	}
	eip := detect.Resource{ID: "eip-2", State: "attached", AttachedTo: "i-1"}

	ev, err := detectEIPOnStoppedInstance(context.Background(), c, eip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected evidence for an EIP bound to a long-stopped instance")
	}
}

func TestDetectEIPOnStoppedInstanceSkipsRunningInstance(t *testing.T) {
	c := testContext(rules.ResourceEIP, nil)
	c.Region = map[string]detect.ResourceInventory{
		rules.ResourceInstance: {
			Resources: []detect.Resource{
				{ID: "i-2", State: "running"},
			},
		},
	}
	eip := detect.Resource{ID: "eip-3", State: "attached", AttachedTo: "i-2"}

	ev, err := detectEIPOnStoppedInstance(context.Background(), c, eip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Fatal("expected no evidence when the attached instance is running")
	}
}

func TestDetectRedundantEIPPerInstance(t *testing.T) {
	c := testContext(rules.ResourceEIP, nil)
	c.Region = map[string]detect.ResourceInventory{
		rules.ResourceInstance: {
			Resources: []detect.Resource{{ID: "i-3", State: "running"}},
		},
	}
	c.Inventory = detect.ResourceInventory{
		Resources: []detect.Resource{
			{ID: "eip-4", AttachedTo: "i-3"},
			{ID: "eip-5", AttachedTo: "i-3"},
		},
	}
	eip := detect.Resource{ID: "eip-4", AttachedTo: "i-3"}

	ev, err := detectRedundantEIPPerInstance(context.Background(), c, eip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected evidence when an instance has more EIPs than allowed")
	}
	if ev.Signals["eip_count_on_instance"] != 2 {
		t.Fatalf("eip_count_on_instance = %v, want 2", ev.Signals["eip_count_on_instance"])
	}
}

func TestDetectRedundantEIPPerInstanceRespectsAllowTag(t *testing.T) {
	c := testContext(rules.ResourceEIP, nil)
	c.Region = map[string]detect.ResourceInventory{
		rules.ResourceInstance: {
			Resources: []detect.Resource{{ID: "i-4", State: "running"}},
		},
	}
	c.Inventory = detect.ResourceInventory{
		Resources: []detect.Resource{
			{ID: "eip-6", AttachedTo: "i-4"},
			{ID: "eip-7", AttachedTo: "i-4"},
		},
	}
	eip := detect.Resource{ID: "eip-6", AttachedTo: "i-4", Tags: map[string]string{"multi-eip-ok": "true"}}
	c.Rules = rules.NewRegistry().Resolve(rules.ResourceEIP, rules.RuleSet{
		rules.ResourceEIP: {"allow_multiple_eips_tags": []string{"multi-eip-ok"}},
	})

	ev, err := detectRedundantEIPPerInstance(context.Background(), c, eip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Fatal("expected no evidence when the allow-multi tag is present")
	}
}
