package fsm

import (
	"fmt"
	"sort"
)

// Chart-type names offered to the LLM by VisualizeTrigger.
const (
	chartBar   = "bar"
	chartLine  = "line"
	chartPie   = "pie"
	chartTable = "table"
)

// ChartCandidate is one heuristically-scored chart-type recommendation
// (spec §4.5 "Visualization recommendation": a deterministic analyzer runs
// before the LLM is ever consulted), scored by column-cardinality.
type ChartCandidate struct {
	ChartType string
	Score     float64
	Rationale string
}

// RecommendCharts ranks chart-type candidates for t by column
// type/cardinality, highest score first, so the LLM's tool menu never
// offers a chart type that can't fit the data (spec §4.5).
func RecommendCharts(t Table) []ChartCandidate {
	if len(t.Rows) == 0 {
		return []ChartCandidate{{ChartType: chartTable, Score: 1, Rationale: "no rows to chart"}}
	}

	numeric, date, categorical := classifyColumns(t)
	var candidates []ChartCandidate

	if len(date) > 0 && len(numeric) > 0 {
		candidates = append(candidates, ChartCandidate{
			ChartType: chartLine, Score: 0.9,
			Rationale: fmt.Sprintf("%q over time against %q suggests a trend line", numeric[0], date[0]),
		})
	}
	if len(categorical) > 0 && len(numeric) > 0 {
		cardinality := distinctCount(t, categorical[0])
		if cardinality > 0 && cardinality <= 8 {
			candidates = append(candidates, ChartCandidate{
				ChartType: chartPie, Score: 0.6,
				Rationale: fmt.Sprintf("%q has %d distinct values, low enough for a pie breakdown", categorical[0], cardinality),
			})
			candidates = append(candidates, ChartCandidate{
				ChartType: chartBar, Score: 0.8,
				Rationale: fmt.Sprintf("%q categorized against %q suits a bar chart", categorical[0], numeric[0]),
			})
		} else {
			candidates = append(candidates, ChartCandidate{
				ChartType: chartBar, Score: 0.7,
				Rationale: fmt.Sprintf("%q has %d distinct values, too many for a pie but fine for a bar chart", categorical[0], cardinality),
			})
		}
	}
	candidates = append(candidates, ChartCandidate{
		ChartType: chartTable, Score: 0.3,
		Rationale: "always available as a fallback when no chart type clearly fits",
	})

	candidates = dedupeCandidates(candidates)
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	return candidates
}

func dedupeCandidates(in []ChartCandidate) []ChartCandidate {
	seen := make(map[string]bool, len(in))
	out := make([]ChartCandidate, 0, len(in))
	for _, c := range in {
		if seen[c.ChartType] {
			continue
		}
		seen[c.ChartType] = true
		out = append(out, c)
	}
	return out
}

func classifyColumns(t Table) (numeric, date, categorical []string) {
	if len(t.Schema) > 0 {
		for _, col := range t.Schema {
			switch col.Type {
			case "integer", "float", "number", "numeric":
				numeric = append(numeric, col.Name)
			case "date", "datetime", "timestamp":
				date = append(date, col.Name)
			default:
				categorical = append(categorical, col.Name)
			}
		}
		return numeric, date, categorical
	}

	// No declared schema: infer from the first row's Go value types.
	for k, v := range t.Rows[0] {
		switch v.(type) {
		case int, int32, int64, float32, float64:
			numeric = append(numeric, k)
		default:
			categorical = append(categorical, k)
		}
	}
	return numeric, date, categorical
}

func distinctCount(t Table, column string) int {
	seen := make(map[string]bool)
	for _, row := range t.Rows {
		v, ok := row[column]
		if !ok {
			continue
		}
		seen[fmt.Sprintf("%v", v)] = true
	}
	return len(seen)
}
