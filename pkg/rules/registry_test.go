package rules

import "testing"

func TestResolveAppliesDefaultsWithNoOverride(t *testing.T) {
	reg := NewRegistry()
	rr := reg.RulesFor(ResourceVolume)

	if !rr.Enabled() {
		t.Fatal("expected volume rules enabled by default")
	}
	if got := rr.IntOr("min_age_days", -1); got != 7 {
		t.Fatalf("min_age_days = %d, want 7", got)
	}
}

func TestResolveOverridesWinOverDefaults(t *testing.T) {
	reg := NewRegistry()
	overrides := RuleSet{
		ResourceVolume: {
			"min_age_days": 14,
			"enabled":      false,
		},
	}
	rr := reg.Resolve(ResourceVolume, overrides)

	if rr.Enabled() {
		t.Fatal("expected override to disable volume rules")
	}
	if got := rr.IntOr("min_age_days", -1); got != 14 {
		t.Fatalf("min_age_days = %d, want 14 (override)", got)
	}
	// Unspecified parameter keeps its default.
	if got := rr.IntOr("confidence_high_days", -1); got != 30 {
		t.Fatalf("confidence_high_days = %d, want unchanged default 30", got)
	}
}

func TestResolveUnknownResourceTypeCarriesOnlyOverrides(t *testing.T) {
	reg := NewRegistry()
	overrides := RuleSet{
		"made_up_type": {"min_age_days": 1},
	}
	rr := reg.Resolve("made_up_type", overrides)

	if got := rr.IntOr("min_age_days", -1); got != 1 {
		t.Fatalf("min_age_days = %d, want 1", got)
	}
	if rr.Enabled() != true {
		t.Fatal("Enabled() should default to true when unset")
	}
}

func TestHasTaggedValue(t *testing.T) {
	tags := map[string]string{"Environment": "staging"}
	if !HasTaggedValue(tags, []string{"Environment", "Env"}, []string{"dev", "staging"}) {
		t.Fatal("expected staging to match")
	}
	if HasTaggedValue(tags, []string{"Environment"}, []string{"prod"}) {
		t.Fatal("did not expect prod to match staging")
	}
}

func TestHasAnyTag(t *testing.T) {
	tags := map[string]string{"Backup": "true"}
	if !HasAnyTag(tags, []string{"Backup", "Compliance"}) {
		t.Fatal("expected Backup key to match")
	}
	if HasAnyTag(tags, []string{"Governance"}) {
		t.Fatal("did not expect Governance to match")
	}
}
