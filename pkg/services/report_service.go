package services

import (
	"fmt"
	"html/template"
	"strings"

	"autoinsight-api/pkg/models"
)

// reportTemplate はレポート全体の固定スケルトンです。
// 全てのフィールドが常に埋め込まれ、欠けたデータは空の段落・リストとして
// 描画されます（セクション自体が消えることはない）。
var reportTemplate = template.Must(template.New("report").Parse(`<html>
<head>
<meta charset="utf-8">
<script src="https://go-echarts.github.io/go-echarts-assets/assets/echarts.min.js"></script>
</head>
<body style="font-family:Arial;padding:40px;color:#475569">
<h1 style="color:#4f46e5">AutoInsight AI &ndash; Professional Business EDA Report</h1>
<p><b>Generated:</b> {{ .GeneratedAt }}</p>

<h2>Dataset Understanding</h2>
<p>{{ .Overview }}</p>

<h3>Domain</h3>
<p>{{ .Domain }}</p>

<h3>What This Data Enables</h3>
<ul>{{ range .Enables }}<li>{{ . }}</li>{{ end }}</ul>

<h3>Limitations</h3>
<ul>{{ range .Limitations }}<li>{{ . }}</li>{{ end }}</ul>

<h3>Profit Improvement Actions</h3>
<ul>{{ range .Actions }}<li>{{ . }}</li>{{ end }}</ul>

<h2>Data Quality</h2>
<p>Rows: {{ .Statistics.Rows }} | Columns: {{ .Statistics.Columns }} | Missing: {{ .Statistics.Missing }} | Duplicates: {{ .Statistics.Duplicates }}</p>

<h2>Visual Analysis</h2>
{{ range .Charts }}{{ . }}<br><br>{{ end }}

<h2>Key Insights</h2>
<ul>{{ range .Insights }}<li>{{ . }}</li>{{ end }}</ul>

<h2>Column Statistics</h2>
<table border="1" cellpadding="6" cellspacing="0">
<tr><th>Column</th><th>Count</th><th>Unique</th><th>Top</th><th>Mean</th><th>Std</th><th>Min</th><th>Max</th></tr>
{{ range .Summaries }}<tr><td>{{ .Name }}</td><td>{{ .Count }}</td><td>{{ .Unique }}</td><td>{{ .Top }}</td><td>{{ .Mean }}</td><td>{{ .Std }}</td><td>{{ .Min }}</td><td>{{ .Max }}</td></tr>
{{ end }}</table>
</body>
</html>
`))

// columnRow 記述統計テーブルの1行（数値列以外は統計値を空欄にする）
type columnRow struct {
	Name   string
	Count  int
	Unique int
	Top    string
	Mean   string
	Std    string
	Min    string
	Max    string
}

// reportData テンプレートに渡す値の一式
type reportData struct {
	GeneratedAt string
	Overview    string
	Domain      string
	Enables     []string
	Limitations []string
	Actions     []string
	Statistics  models.DatasetStatistics
	Charts      []template.HTML
	Insights    []string
	Summaries   []columnRow
}

// ReportService はレポートのHTMLマークアップを組み立てます。
type ReportService struct{}

// NewReportService は新しいReportServiceを作成します。
func NewReportService() *ReportService {
	return &ReportService{}
}

// Assemble は解析結果一式を固定テンプレートに流し込み、完成した
// HTMLマークアップを返します。純粋な文字列整形で、入力の欠けは
// 空の段落・リストとして描画されます。
func (rs *ReportService) Assemble(
	sections models.NarrativeSections,
	stats models.DatasetStatistics,
	summaries []models.ColumnSummary,
	charts []models.ChartArtifact,
	insights []string,
	generatedAt string,
) (string, error) {
	data := reportData{
		GeneratedAt: generatedAt,
		Overview:    sections.Overview,
		Domain:      sections.Domain,
		Enables:     sections.Enables,
		Limitations: sections.Limitations,
		Actions:     sections.Actions,
		Statistics:  stats,
		Insights:    insights,
	}

	// チャート断片はgo-echartsが生成したマークアップなのでエスケープしない
	for _, chart := range charts {
		data.Charts = append(data.Charts, template.HTML(chart.HTML))
	}

	for _, s := range summaries {
		row := columnRow{
			Name:   s.Name,
			Count:  s.Count,
			Unique: s.Unique,
			Top:    s.Top,
		}
		if s.Numeric {
			row.Mean = fmt.Sprintf("%.4f", s.Mean)
			row.Std = fmt.Sprintf("%.4f", s.Std)
			row.Min = fmt.Sprintf("%.4f", s.Min)
			row.Max = fmt.Sprintf("%.4f", s.Max)
		}
		data.Summaries = append(data.Summaries, row)
	}

	var b strings.Builder
	if err := reportTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("レポートテンプレートの描画に失敗: %w", err)
	}
	return b.String(), nil
}
