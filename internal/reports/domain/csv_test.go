package domain

import (
	"strings"
	"testing"
	"time"
)

func TestRenderFunnelCSV(t *testing.T) {
	stats := []StageStat{
		{StageName: "Novo contato", LeadCount: 12},
		{StageName: "Agendado", LeadCount: 3},
	}

	out, err := RenderFunnelCSV("Clínica Sorriso", time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC), stats)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	text := string(out)
	for _, want := range []string{
		"clinic,Clínica Sorriso",
		"generated_at,2026-08-25T12:00:00Z",
		"stage,lead_count",
		"Novo contato,12",
		"Agendado,3",
		"total,15",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in output:\n%s", want, text)
		}
	}
}

func TestRenderFunnelCSVEmpty(t *testing.T) {
	out, err := RenderFunnelCSV("Clínica", time.Now(), nil)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(string(out), "total,0") {
		t.Fatal("empty funnel must still produce a zero total")
	}
}
