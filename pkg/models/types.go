package models

// Dataset はアップロードされた表形式データをメモリ上に保持します。
// 読み込み後は変更されません（セッション中は不変）。
type Dataset struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// RowCount は行数を返します（ヘッダーは含まない）。
func (d *Dataset) RowCount() int {
	return len(d.Rows)
}

// ColumnCount は列数を返します。
func (d *Dataset) ColumnCount() int {
	return len(d.Columns)
}

// Head は先頭n行のプレビューを返します。
func (d *Dataset) Head(n int) [][]string {
	if n > len(d.Rows) {
		n = len(d.Rows)
	}
	return d.Rows[:n]
}

// DatasetStatistics データ品質のサマリー
type DatasetStatistics struct {
	Rows       int `json:"rows"`
	Columns    int `json:"columns"`
	Missing    int `json:"missing"`
	Duplicates int `json:"duplicates"`
}

// ColumnSummary 1列分の記述統計
type ColumnSummary struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`  // 非欠損セル数
	Unique  int     `json:"unique"` // ユニーク値数
	Top     string  `json:"top"`    // 最頻値
	Numeric bool    `json:"numeric"`
	Mean    float64 `json:"mean,omitempty"`
	Std     float64 `json:"std,omitempty"`
	Min     float64 `json:"min,omitempty"`
	Max     float64 `json:"max,omitempty"`
}

// NarrativeSections はモデルの応答を5つの固定セクションに
// 構造化した結果です。見つからなかったセクションは空のまま残ります。
type NarrativeSections struct {
	Overview    string   `json:"overview"`
	Domain      string   `json:"domain"`
	Enables     []string `json:"enables"`
	Limitations []string `json:"limitations"`
	Actions     []string `json:"actions"`
}

// ChartArtifact は埋め込み可能なチャート断片です。
// Valuesには集計済みの (ラベル, 合計) ペアを保持します。
type ChartArtifact struct {
	Kind   string             `json:"kind"`  // "bar" または "pie"
	Title  string             `json:"title"`
	Values map[string]float64 `json:"values"`
	HTML   string             `json:"html"`
}

// Report は1回の生成アクションの成果物一式です。
type Report struct {
	ID          string            `json:"id"`
	GeneratedAt string            `json:"generated_at"`
	Sections    NarrativeSections `json:"sections"`
	Statistics  DatasetStatistics `json:"statistics"`
	Summaries   []ColumnSummary   `json:"summaries"`
	Charts      []ChartArtifact   `json:"charts"`
	Insights    []string          `json:"insights"`
	HTML        string            `json:"-"` // ダウンロード用に保持、レスポンスには含めない
}
