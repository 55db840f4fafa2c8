package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"autoinsight-api/pkg/models"

	"github.com/xuri/excelize/v2"
)

// DatasetService はアップロードファイルの読み込みと統計サマリーを提供します。
type DatasetService struct{}

// NewDatasetService は新しいDatasetServiceを作成します。
func NewDatasetService() *DatasetService {
	return &DatasetService{}
}

// LoadDataset はCSVまたはXLSXファイルを読み込み、Datasetを構築します。
// 1行目をヘッダーとして扱います。行の長さがヘッダーと一致しない場合は
// ヘッダー幅に合わせて切り詰め・空文字で埋めます。
func (ds *DatasetService) LoadDataset(file io.Reader, fileName string) (*models.Dataset, error) {
	var rows [][]string

	lower := strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(lower, ".xlsx"):
		f, err := excelize.OpenReader(file)
		if err != nil {
			return nil, fmt.Errorf("Excelファイルの読み込みに失敗: %w", err)
		}
		defer f.Close()
		rows, err = f.GetRows(f.GetSheetName(0))
		if err != nil {
			return nil, fmt.Errorf("Excelシートの行取得に失敗: %w", err)
		}
	case strings.HasSuffix(lower, ".csv"):
		r := csv.NewReader(file)
		r.FieldsPerRecord = -1 // 行ごとの列数のばらつきを許容
		var err error
		rows, err = r.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("CSVファイルの解析に失敗: %w", err)
		}
	default:
		return nil, fmt.Errorf("サポートされていないファイル形式です: %s", fileName)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("ファイルにヘッダー行がありません")
	}

	header := rows[0]
	dataRows := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		normalized := make([]string, len(header))
		for i := range header {
			if i < len(row) {
				normalized[i] = row[i]
			}
		}
		dataRows = append(dataRows, normalized)
	}

	return &models.Dataset{
		Columns: header,
		Rows:    dataRows,
	}, nil
}

// Summarize はデータ品質のサマリーを計算します。
// 空のデータセット（0行・0列）でも必ず成功し、ゼロ値を返します。
func (ds *DatasetService) Summarize(dataset *models.Dataset) models.DatasetStatistics {
	stats := models.DatasetStatistics{
		Rows:    dataset.RowCount(),
		Columns: dataset.ColumnCount(),
	}

	seen := make(map[string]bool, len(dataset.Rows))
	for _, row := range dataset.Rows {
		for _, cell := range row {
			if isMissing(cell) {
				stats.Missing++
			}
		}
		// 重複行は2回目以降の出現のみカウント
		key := strings.Join(row, "\x1f")
		if seen[key] {
			stats.Duplicates++
		} else {
			seen[key] = true
		}
	}

	return stats
}

// Describe は列ごとの記述統計を計算します。
// 数値列には平均・標準偏差・最小・最大を、全列にユニーク数と最頻値を出します。
func (ds *DatasetService) Describe(dataset *models.Dataset) []models.ColumnSummary {
	summaries := make([]models.ColumnSummary, 0, dataset.ColumnCount())

	for colIdx, name := range dataset.Columns {
		summary := models.ColumnSummary{Name: name}

		counts := make(map[string]int)
		order := make([]string, 0)
		values := make([]float64, 0, len(dataset.Rows))
		numeric := true

		for _, row := range dataset.Rows {
			cell := row[colIdx]
			if isMissing(cell) {
				continue
			}
			summary.Count++
			if counts[cell] == 0 {
				order = append(order, cell)
			}
			counts[cell]++

			if v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err == nil {
				values = append(values, v)
			} else {
				numeric = false
			}
		}

		summary.Unique = len(order)
		// 最頻値（同数の場合は先に出現した値）
		best := -1
		for _, v := range order {
			if counts[v] > best {
				best = counts[v]
				summary.Top = v
			}
		}

		if numeric && len(values) > 0 {
			summary.Numeric = true
			summary.Mean = mean(values)
			summary.Std = sampleStd(values, summary.Mean)
			summary.Min = values[0]
			summary.Max = values[0]
			for _, v := range values[1:] {
				summary.Min = math.Min(summary.Min, v)
				summary.Max = math.Max(summary.Max, v)
			}
		}

		summaries = append(summaries, summary)
	}

	return summaries
}

// DescribeText は記述統計をプロンプト埋め込み用のテキスト表に整形します。
func (ds *DatasetService) DescribeText(summaries []models.ColumnSummary) string {
	var b strings.Builder
	for _, s := range summaries {
		if s.Numeric {
			fmt.Fprintf(&b, "%s: count=%d unique=%d mean=%.4f std=%.4f min=%.4f max=%.4f\n",
				s.Name, s.Count, s.Unique, s.Mean, s.Std, s.Min, s.Max)
		} else {
			fmt.Fprintf(&b, "%s: count=%d unique=%d top=%s\n", s.Name, s.Count, s.Unique, s.Top)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// IsNumericColumn は列の非欠損セルが全て数値として解釈でき、
// かつ1つ以上の値を持つ場合にtrueを返します。
func (ds *DatasetService) IsNumericColumn(dataset *models.Dataset, colIdx int) bool {
	found := false
	for _, row := range dataset.Rows {
		cell := row[colIdx]
		if isMissing(cell) {
			continue
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err != nil {
			return false
		}
		found = true
	}
	return found
}

// SampleText は先頭n行をプロンプト埋め込み用のテキスト表に整形します。
func (ds *DatasetService) SampleText(dataset *models.Dataset, n int) string {
	var b strings.Builder
	b.WriteString(strings.Join(dataset.Columns, " | "))
	for _, row := range dataset.Head(n) {
		b.WriteString("\n")
		b.WriteString(strings.Join(row, " | "))
	}
	return b.String()
}

// isMissing は空・空白のみのセルを欠損として扱います。
func isMissing(cell string) bool {
	return strings.TrimSpace(cell) == ""
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStd は不偏標準偏差（n-1）を計算します。n=1 の場合は0を返します。
func sampleStd(values []float64, m float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// sortedKeys はマップのキーを昇順で返します（テストとログ出力の安定化用）。
func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
