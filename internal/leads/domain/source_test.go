package domain

import "testing"

func TestIsAdSourcedClassifiesKnownChannels(t *testing.T) {
	cases := []struct {
		origin string
		want   bool
	}{
		{"Instagram Campaign", true},
		{"facebook ads", true},
		{"FACEBOOK", true},
		{"Campanha de inverno - Kwai", true},
		{"tráfego pago", true},
		{"anúncio google", true},
		{"Google Ads - rinoplastia", true},
		{"referral", false},
		{"indicação de paciente", false},
		{"walk-in", false},
		{"site orgânico", false},
		{"", false},
	}

	for _, tc := range cases {
		origin := tc.origin
		if got := IsAdSourced(&origin); got != tc.want {
			t.Fatalf("IsAdSourced(%q) = %v, want %v", tc.origin, got, tc.want)
		}
	}
}

func TestIsAdSourcedTotalOnNil(t *testing.T) {
	if IsAdSourced(nil) {
		t.Fatal("nil origin must classify as not ad-sourced")
	}
}

func TestIsAdSourcedMatchesEmbeddedPlatformName(t *testing.T) {
	origin := "veio pelo formulário do Instagram da unidade centro"
	if !IsAdSourced(&origin) {
		t.Fatal("platform name embedded anywhere in the origin must classify as ad-sourced")
	}
}
