package scenario

import (
	"testing"

	"github.com/wastescan/detector/pkg/rules"
)

func TestRegisterPanicsOnDuplicateID(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Register to panic on a duplicate (ResourceType, ID) pair")
		}
	}()
	r := NewRegistry()
	r.Register(Scenario{ID: "dup", ResourceType: rules.ResourceVolume})
	r.Register(Scenario{ID: "dup", ResourceType: rules.ResourceVolume})
}

func TestCatalogCoversEveryResourceType(t *testing.T) {
	cat := Catalog()
	for _, rt := range rules.AllResourceTypes {
		if len(cat.For(rt)) == 0 {
			t.Errorf("resource type %s has zero registered scenarios", rt)
		}
	}
}

func TestCatalogCountMatchesResourceTypes(t *testing.T) {
	cat := Catalog()
	if got := len(cat.ResourceTypes()); got != len(rules.AllResourceTypes) {
		t.Fatalf("ResourceTypes() returned %d types, want %d", got, len(rules.AllResourceTypes))
	}
	if cat.Count() == 0 {
		t.Fatal("expected a non-zero total scenario count")
	}
}
