package report

import (
	"encoding/json"
	"testing"
)

func rawRecords(records ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(records))
	for i, r := range records {
		out[i] = json.RawMessage(r)
	}
	return out
}

func TestBuildSeverityTallies(t *testing.T) {
	records := rawRecords(
		`{"severity":"Critical","src":"10.0.0.5"}`,
		`{"severity":"critical","src":"10.0.0.5"}`,
		`{"severity":"High","src":"10.0.0.6"}`,
		`{"severity":"Low"}`,
	)

	meta := Build(records)

	if meta.TotalRecords != 4 {
		t.Errorf("TotalRecords = %d, want 4", meta.TotalRecords)
	}
	if meta.SeverityCounts["Critical"] != 2 {
		t.Errorf("Critical = %d, want 2 (case-insensitive tally)", meta.SeverityCounts["Critical"])
	}
	if meta.SeverityCounts["High"] != 1 || meta.SeverityCounts["Low"] != 1 {
		t.Errorf("severity counts = %v", meta.SeverityCounts)
	}
}

func TestBuildTopSources(t *testing.T) {
	records := rawRecords(
		`{"src":"10.0.0.5"}`,
		`{"src":"10.0.0.5"}`,
		`{"src":"10.0.0.6"}`,
	)

	meta := Build(records)

	if len(meta.TopSources) != 2 {
		t.Fatalf("TopSources = %v", meta.TopSources)
	}
	if meta.TopSources[0].Value != "10.0.0.5" || meta.TopSources[0].Count != 2 {
		t.Errorf("top source = %+v, want 10.0.0.5 x2", meta.TopSources[0])
	}
}

func TestBuildChartSuggestions(t *testing.T) {
	records := rawRecords(
		`{"severity":"Critical","src":"10.0.0.5","time":"2026-02-09T10:00:00Z"}`,
		`{"severity":"High","src":"10.0.0.6","time":"2026-02-09T11:00:00Z"}`,
	)

	meta := Build(records)

	types := map[string]bool{}
	for _, c := range meta.ChartSuggestions {
		types[c.Type] = true
	}
	for _, want := range []string{"pie", "bar", "line"} {
		if !types[want] {
			t.Errorf("missing %s chart suggestion, got %v", want, meta.ChartSuggestions)
		}
	}
}

func TestBuildComplianceScore(t *testing.T) {
	tests := []struct {
		name      string
		records   []json.RawMessage
		wantScore int
		wantGrade string
	}{
		{
			"empty result is clean",
			nil,
			100, "A",
		},
		{
			"all critical is worst",
			rawRecords(`{"severity":"Critical"}`, `{"severity":"Critical"}`),
			0, "D",
		},
		{
			"all low is mild",
			rawRecords(`{"severity":"Low"}`, `{"severity":"Low"}`),
			90, "A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := Build(tt.records)
			if meta.ComplianceScore != tt.wantScore {
				t.Errorf("score = %d, want %d", meta.ComplianceScore, tt.wantScore)
			}
			if meta.ComplianceGrade != tt.wantGrade {
				t.Errorf("grade = %q, want %q", meta.ComplianceGrade, tt.wantGrade)
			}
		})
	}
}

func TestBuildToleratesGarbageRecords(t *testing.T) {
	records := rawRecords(
		`{"severity":"High"}`,
		`not json at all`,
		`{"no_severity_field":true}`,
	)

	meta := Build(records)

	if meta.UnparsedRecords != 1 {
		t.Errorf("UnparsedRecords = %d, want 1", meta.UnparsedRecords)
	}
	if meta.SeverityCounts["High"] != 1 {
		t.Errorf("severity counts = %v", meta.SeverityCounts)
	}
}
