// Package report derives presentation metadata from an aggregated query
// result: severity tallies, chart suggestions, and a coarse compliance
// score. Records are opaque JSON, so fields are probed rather than
// unmarshaled into a schema.
package report

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/valyala/fastjson"
)

// Metadata summarizes a result set for downstream report rendering.
// Building it never fails; records that do not parse are counted as such
// and otherwise skipped.
type Metadata struct {
	TotalRecords     int               `json:"total_records"`
	SeverityCounts   map[string]int    `json:"severity_counts"`
	TopSources       []FieldCount      `json:"top_sources,omitempty"`
	TopProducts      []FieldCount      `json:"top_products,omitempty"`
	ChartSuggestions []ChartSuggestion `json:"chart_suggestions"`
	ComplianceScore  int               `json:"compliance_score"`
	ComplianceGrade  string            `json:"compliance_grade"`
	UnparsedRecords  int               `json:"unparsed_records,omitempty"`
}

// FieldCount is one tally entry for a record field value.
type FieldCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ChartSuggestion proposes one visualization over the result set.
type ChartSuggestion struct {
	Type  string `json:"type"` // pie, bar, line
	Title string `json:"title"`
	Field string `json:"field"`
}

const topN = 5

// Build computes report metadata over the raw records of one query result.
func Build(records []json.RawMessage) Metadata {
	meta := Metadata{
		TotalRecords:   len(records),
		SeverityCounts: map[string]int{},
	}

	var p fastjson.Parser
	sources := map[string]int{}
	products := map[string]int{}
	timestamped := 0

	for _, rec := range records {
		v, err := p.ParseBytes(rec)
		if err != nil {
			meta.UnparsedRecords++
			continue
		}
		if sev := v.GetStringBytes("severity"); len(sev) > 0 {
			meta.SeverityCounts[normalizeSeverity(string(sev))]++
		}
		if src := v.GetStringBytes("src"); len(src) > 0 {
			sources[string(src)]++
		}
		if app := v.GetStringBytes("ci_app_name"); len(app) > 0 {
			products[string(app)]++
		}
		if ts := v.GetStringBytes("time"); len(ts) > 0 {
			timestamped++
		}
	}

	meta.TopSources = topCounts(sources, topN)
	meta.TopProducts = topCounts(products, topN)
	meta.ChartSuggestions = suggestCharts(meta, len(sources), timestamped)
	meta.ComplianceScore, meta.ComplianceGrade = complianceScore(meta.SeverityCounts, len(records))
	return meta
}

func normalizeSeverity(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func topCounts(counts map[string]int, n int) []FieldCount {
	if len(counts) == 0 {
		return nil
	}
	out := make([]FieldCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, FieldCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func suggestCharts(meta Metadata, distinctSources, timestamped int) []ChartSuggestion {
	var charts []ChartSuggestion
	if len(meta.SeverityCounts) > 1 {
		charts = append(charts, ChartSuggestion{Type: "pie", Title: "Events by severity", Field: "severity"})
	}
	if distinctSources > 1 {
		charts = append(charts, ChartSuggestion{Type: "bar", Title: "Top source addresses", Field: "src"})
	}
	if len(meta.TopProducts) > 1 {
		charts = append(charts, ChartSuggestion{Type: "bar", Title: "Events by product", Field: "ci_app_name"})
	}
	if timestamped > 1 {
		charts = append(charts, ChartSuggestion{Type: "line", Title: "Events over time", Field: "time"})
	}
	return charts
}

// complianceScore maps the critical/high share of the result set onto a
// 0-100 score. An empty result scores 100: nothing found, nothing owed.
func complianceScore(severities map[string]int, total int) (int, string) {
	if total == 0 {
		return 100, "A"
	}

	weighted := severities["Critical"]*10 + severities["High"]*5 + severities["Medium"]*2 + severities["Low"]
	penalty := weighted * 100 / (total * 10)
	if penalty > 100 {
		penalty = 100
	}
	score := 100 - penalty

	grade := "D"
	switch {
	case score >= 90:
		grade = "A"
	case score >= 75:
		grade = "B"
	case score >= 50:
		grade = "C"
	}
	return score, grade
}
