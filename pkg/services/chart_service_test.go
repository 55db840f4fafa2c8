package services

import (
	"testing"

	"autoinsight-api/pkg/models"

	"github.com/stretchr/testify/assert"
)

func newChartService() *ChartService {
	return NewChartService(NewDatasetService())
}

func TestResolveRevenueColumnTotalPrice(t *testing.T) {
	dataset := &models.Dataset{
		Columns: []string{"total_price", "qty"},
		Rows:    [][]string{{"10", "1"}},
	}

	idx, ok := newChartService().ResolveRevenueColumn(dataset)
	assert.True(t, ok)
	assert.Equal(t, 0, idx) // 名前の完全一致が最優先
}

func TestResolveRevenueColumnLastNumeric(t *testing.T) {
	dataset := &models.Dataset{
		Columns: []string{"qty", "name", "price"},
		Rows: [][]string{
			{"1", "pizza", "10"},
			{"2", "burger", "8"},
		},
	}

	idx, ok := newChartService().ResolveRevenueColumn(dataset)
	assert.True(t, ok)
	assert.Equal(t, 2, idx) // 最も右側の数値列
}

func TestResolveRevenueColumnNone(t *testing.T) {
	dataset := &models.Dataset{
		Columns: []string{"name", "note"},
		Rows:    [][]string{{"pizza", "good"}},
	}

	_, ok := newChartService().ResolveRevenueColumn(dataset)
	assert.False(t, ok)
}

func TestBuildChartsNoNumericColumns(t *testing.T) {
	// 数値列もtotal_priceも無い場合はチャートなし（エラーにもしない）
	dataset := &models.Dataset{
		Columns: []string{"name", "note"},
		Rows:    [][]string{{"pizza", "good"}},
	}

	charts := newChartService().BuildCharts(dataset)
	assert.Empty(t, charts)
}

func TestBuildChartsBarAndPie(t *testing.T) {
	dataset := &models.Dataset{
		Columns: []string{"category", "size", "total_price"},
		Rows: [][]string{
			{"A", "small", "10"},
			{"A", "large", "20"},
			{"B", "small", "5"},
		},
	}

	charts := newChartService().BuildCharts(dataset)

	assert.Len(t, charts, 2)

	// 棒グラフが先、円グラフが後
	bar := charts[0]
	assert.Equal(t, "bar", bar.Kind)
	assert.Equal(t, "Revenue by Category", bar.Title)
	assert.Equal(t, map[string]float64{"A": 30, "B": 5}, bar.Values)
	assert.NotEmpty(t, bar.HTML)

	pie := charts[1]
	assert.Equal(t, "pie", pie.Kind)
	assert.Equal(t, "Revenue Share by Size", pie.Title)
	assert.Equal(t, map[string]float64{"small": 15, "large": 20}, pie.Values)
	assert.NotEmpty(t, pie.HTML)
}

func TestBuildChartsCategoryOnly(t *testing.T) {
	dataset := &models.Dataset{
		Columns: []string{"pizza_category", "total_price"},
		Rows: [][]string{
			{"Classic", "12.5"},
			{"Veggie", "7.5"},
			{"Classic", "2.5"},
		},
	}

	charts := newChartService().BuildCharts(dataset)

	assert.Len(t, charts, 1)
	assert.Equal(t, "bar", charts[0].Kind)
	assert.Equal(t, map[string]float64{"Classic": 15, "Veggie": 7.5}, charts[0].Values)
}

func TestBuildChartsSizeOnly(t *testing.T) {
	dataset := &models.Dataset{
		Columns: []string{"pizza_size", "amount"},
		Rows: [][]string{
			{"M", "3"},
			{"L", "4"},
		},
	}

	charts := newChartService().BuildCharts(dataset)

	assert.Len(t, charts, 1)
	assert.Equal(t, "pie", charts[0].Kind)
	assert.Equal(t, map[string]float64{"M": 3, "L": 4}, charts[0].Values)
}

func TestGroupSumSkipsBadCells(t *testing.T) {
	dataset := &models.Dataset{
		Columns: []string{"category", "total_price"},
		Rows: [][]string{
			{"A", "10"},
			{"A", "not-a-number"},
			{"", "5"},
		},
	}

	values, order := groupSum(dataset, 0, 1)

	assert.Equal(t, map[string]float64{"A": 10}, values)
	assert.Equal(t, []string{"A"}, order)
}

func TestFindColumn(t *testing.T) {
	columns := []string{"order_id", "Pizza_Category", "size"}

	assert.Equal(t, 1, findColumn(columns, "pizza_category", "category"))
	assert.Equal(t, 2, findColumn(columns, "pizza_size", "size"))
	assert.Equal(t, -1, findColumn(columns, "region"))
}
