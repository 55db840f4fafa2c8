package services

import (
	"strconv"
	"strings"

	"autoinsight-api/pkg/models"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// 商品カテゴリ・サイズとして認識する列名の候補
var (
	categoryColumnCandidates = []string{"pizza_category", "product_category", "category"}
	sizeColumnCandidates     = []string{"pizza_size", "product_size", "size"}
)

// ChartService はデータセットから埋め込み可能なチャート断片を生成します。
type ChartService struct {
	datasetService *DatasetService
}

// NewChartService は新しいChartServiceを作成します。
func NewChartService(datasetService *DatasetService) *ChartService {
	return &ChartService{
		datasetService: datasetService,
	}
}

// ResolveRevenueColumn は集計対象の売上列を決定します。
// "total_price" という名前の列があればそれを、なければ最も右側の数値列を
// 使います。どちらも無い場合は (-1, false) を返します。
func (cs *ChartService) ResolveRevenueColumn(dataset *models.Dataset) (int, bool) {
	for i, name := range dataset.Columns {
		if name == "total_price" {
			return i, true
		}
	}
	for i := dataset.ColumnCount() - 1; i >= 0; i-- {
		if cs.datasetService.IsNumericColumn(dataset, i) {
			return i, true
		}
	}
	return -1, false
}

// BuildCharts はカテゴリ別売上の棒グラフとサイズ別売上シェアの円グラフを
// 生成します。対応する列が無ければそのチャートはスキップされ、売上列が
// 決定できない場合は空のリストを返します（エラーにはしない）。
// 棒グラフが先、円グラフが後の順で返します。
func (cs *ChartService) BuildCharts(dataset *models.Dataset) []models.ChartArtifact {
	artifacts := []models.ChartArtifact{}

	revenueIdx, ok := cs.ResolveRevenueColumn(dataset)
	if !ok {
		return artifacts
	}

	if catIdx := findColumn(dataset.Columns, categoryColumnCandidates...); catIdx != -1 {
		values, order := groupSum(dataset, catIdx, revenueIdx)
		artifacts = append(artifacts, models.ChartArtifact{
			Kind:   "bar",
			Title:  "Revenue by Category",
			Values: values,
			HTML:   renderBarChart("Revenue by Category", values, order),
		})
	}

	if sizeIdx := findColumn(dataset.Columns, sizeColumnCandidates...); sizeIdx != -1 {
		values, _ := groupSum(dataset, sizeIdx, revenueIdx)
		artifacts = append(artifacts, models.ChartArtifact{
			Kind:   "pie",
			Title:  "Revenue Share by Size",
			Values: values,
			HTML:   renderPieChart("Revenue Share by Size", values),
		})
	}

	return artifacts
}

// groupSum はラベル列の値ごとに売上列を合計します。
// 戻り値のorderはラベルの初出順です。数値として読めないセルは無視します。
func groupSum(dataset *models.Dataset, labelIdx, valueIdx int) (map[string]float64, []string) {
	values := make(map[string]float64)
	order := make([]string, 0)

	for _, row := range dataset.Rows {
		label := strings.TrimSpace(row[labelIdx])
		if label == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[valueIdx]), 64)
		if err != nil {
			continue
		}
		if _, exists := values[label]; !exists {
			order = append(order, label)
		}
		values[label] += v
	}

	return values, order
}

// renderBarChart はgo-echartsの棒グラフをHTML断片として描画します。
func renderBarChart(title string, values map[string]float64, order []string) string {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(opts.Initialization{Width: "700px", Height: "400px"}),
	)

	data := make([]opts.BarData, len(order))
	for i, label := range order {
		data[i] = opts.BarData{Value: values[label]}
	}
	bar.SetXAxis(order).AddSeries("Revenue", data)

	snippet := bar.RenderSnippet()
	return snippet.Element + "\n" + snippet.Script
}

// renderPieChart はgo-echartsの円グラフをHTML断片として描画します。
func renderPieChart(title string, values map[string]float64) string {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(opts.Initialization{Width: "700px", Height: "400px"}),
	)

	data := make([]opts.PieData, 0, len(values))
	for _, label := range sortedKeys(values) {
		data = append(data, opts.PieData{Name: label, Value: values[label]})
	}
	pie.AddSeries("Revenue", data)

	snippet := pie.RenderSnippet()
	return snippet.Element + "\n" + snippet.Script
}

// findColumn finds the index of the first candidate in a slice
func findColumn(columns []string, candidates ...string) int {
	for _, candidate := range candidates {
		for i, name := range columns {
			if strings.EqualFold(name, candidate) {
				return i
			}
		}
	}
	return -1
}
