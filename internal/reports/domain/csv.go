// Package domain renders report artifacts.
package domain

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"
)

// StageStat is one pipeline column in the funnel summary.
type StageStat struct {
	StageName string
	LeadCount int
}

// RenderFunnelCSV produces the pipeline funnel report: one row per stage plus
// a totals row.
func RenderFunnelCSV(clinicName string, generatedAt time.Time, stats []StageStat) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{
		{"clinic", clinicName},
		{"generated_at", generatedAt.UTC().Format(time.RFC3339)},
		{},
		{"stage", "lead_count"},
	}

	total := 0
	for _, stat := range stats {
		rows = append(rows, []string{stat.StageName, fmt.Sprintf("%d", stat.LeadCount)})
		total += stat.LeadCount
	}
	rows = append(rows, []string{"total", fmt.Sprintf("%d", total)})

	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
