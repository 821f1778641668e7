package fsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxy-run/oxy/pkg/execctx"
)

func TestRecommendChartsEmptyTableFallsBackToTable(t *testing.T) {
	out := RecommendCharts(Table{Name: "empty"})
	require.Len(t, out, 1)
	assert.Equal(t, chartTable, out[0].ChartType)
}

func TestRecommendChartsLowCardinalityCategoricalOffersPieButRanksBarFirst(t *testing.T) {
	table := Table{
		Name:   "by_region",
		Schema: []execctx.ColumnSchema{{Name: "region", Type: "string"}, {Name: "revenue", Type: "number"}},
		Rows: []map[string]any{
			{"region": "us", "revenue": 100},
			{"region": "eu", "revenue": 80},
			{"region": "apac", "revenue": 40},
		},
	}
	candidates := RecommendCharts(table)
	require.NotEmpty(t, candidates)
	assert.Equal(t, chartBar, candidates[0].ChartType, "bar scores highest even when pie is also offered")

	var hasPie bool
	for _, c := range candidates {
		if c.ChartType == chartPie {
			hasPie = true
		}
	}
	assert.True(t, hasPie)
}

func TestRecommendChartsHighCardinalityCategoricalExcludesPie(t *testing.T) {
	table := Table{
		Name:   "by_customer",
		Schema: []execctx.ColumnSchema{{Name: "customer_id", Type: "string"}, {Name: "revenue", Type: "number"}},
	}
	for i := 0; i < 20; i++ {
		table.Rows = append(table.Rows, map[string]any{"customer_id": i, "revenue": i * 10})
	}
	candidates := RecommendCharts(table)
	for _, c := range candidates {
		assert.NotEqual(t, chartPie, c.ChartType)
	}
}

func TestRecommendChartsDateAndNumericPrefersLine(t *testing.T) {
	table := Table{
		Name:   "daily_revenue",
		Schema: []execctx.ColumnSchema{{Name: "day", Type: "date"}, {Name: "revenue", Type: "number"}},
		Rows: []map[string]any{
			{"day": "2026-01-01", "revenue": 10},
			{"day": "2026-01-02", "revenue": 20},
		},
	}
	candidates := RecommendCharts(table)
	require.NotEmpty(t, candidates)
	assert.Equal(t, chartLine, candidates[0].ChartType)
}

func TestRecommendChartsAlwaysOffersTableFallback(t *testing.T) {
	table := Table{Name: "t", Rows: []map[string]any{{"x": 1}}}
	candidates := RecommendCharts(table)
	var hasTable bool
	for _, c := range candidates {
		if c.ChartType == chartTable {
			hasTable = true
		}
	}
	assert.True(t, hasTable)
}

func TestRecommendChartsNoDuplicateChartTypes(t *testing.T) {
	table := Table{
		Name:   "by_region",
		Schema: []execctx.ColumnSchema{{Name: "region", Type: "string"}, {Name: "revenue", Type: "number"}},
		Rows:   []map[string]any{{"region": "us", "revenue": 1}},
	}
	candidates := RecommendCharts(table)
	seen := map[string]bool{}
	for _, c := range candidates {
		assert.False(t, seen[c.ChartType], "duplicate chart type %q", c.ChartType)
		seen[c.ChartType] = true
	}
}
