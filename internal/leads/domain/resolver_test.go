package domain

import "testing"

func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }

func TestResolveStickyValueShortCircuits(t *testing.T) {
	settings := &AISettings{ActiveForAllNewLeads: true, ActiveForAdLeadsOnly: true}

	dec := ResolveAIActivation(boolPtr(false), strPtr("Facebook Ads"), settings)
	if dec.Enabled {
		t.Fatal("stored false must win over clinic settings")
	}
	if dec.Persist {
		t.Fatal("a sticky value must never be re-persisted")
	}

	dec = ResolveAIActivation(boolPtr(true), nil, &AISettings{})
	if !dec.Enabled || dec.Persist {
		t.Fatalf("stored true must be returned unchanged, got %+v", dec)
	}
}

func TestResolveFailsSafeWithoutSettings(t *testing.T) {
	dec := ResolveAIActivation(nil, strPtr("Facebook Ads"), nil)
	if dec.Enabled {
		t.Fatal("missing settings must resolve to disabled")
	}
	if dec.Persist {
		t.Fatal("fail-safe default must not be persisted, so a later attempt can resolve")
	}
}

func TestResolveAllNewLeadsTakesPrecedence(t *testing.T) {
	settings := &AISettings{ActiveForAllNewLeads: true, ActiveForAdLeadsOnly: true}

	dec := ResolveAIActivation(nil, strPtr("referral"), settings)
	if !dec.Enabled || !dec.Persist {
		t.Fatalf("all-new-leads flag must enable regardless of origin, got %+v", dec)
	}
}

func TestResolveAdLeadsOnlyConsultsClassifier(t *testing.T) {
	settings := &AISettings{ActiveForAdLeadsOnly: true}

	dec := ResolveAIActivation(nil, strPtr("Facebook Ads"), settings)
	if !dec.Enabled || !dec.Persist {
		t.Fatalf("ad-sourced origin must enable under ads-only flag, got %+v", dec)
	}

	dec = ResolveAIActivation(nil, strPtr("referral"), settings)
	if dec.Enabled {
		t.Fatal("non-ad origin must stay disabled under ads-only flag")
	}
	if !dec.Persist {
		t.Fatal("a computed disabled default is still persisted once")
	}
}

func TestResolveDefaultDisabled(t *testing.T) {
	dec := ResolveAIActivation(nil, strPtr("Instagram Campaign"), &AISettings{})
	if dec.Enabled {
		t.Fatal("both flags off must resolve to disabled for any origin")
	}
	if !dec.Persist {
		t.Fatal("the resolved default must be persisted so resolution happens once")
	}
}
