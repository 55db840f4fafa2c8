package services

import (
	"fmt"
	"os"
	"strings"

	wkhtmltopdf "github.com/SebastiaanKlippert/go-wkhtmltopdf"
)

// ExportService はレポートHTMLをwkhtmltopdfでPDFに変換します。
// パイプラインの他の段階と異なり、変換エラーは握りつぶさずに
// 呼び出し側へ伝播させます（失敗したエクスポートに安全な既定値はない）。
type ExportService struct {
	binaryPath string
}

// NewExportService は新しいExportServiceを作成します。
// binaryPathが空の場合はPATH上のwkhtmltopdfを使用します。
func NewExportService(binaryPath string) *ExportService {
	if binaryPath != "" {
		wkhtmltopdf.SetPath(binaryPath)
	}
	return &ExportService{
		binaryPath: binaryPath,
	}
}

// ExportPDF はHTMLマークアップをPDFバイト列に変換します。
// 変換結果は一時ファイルを経由し、成功・失敗どちらの経路でも
// 一時ファイルは必ず削除されます。
func (es *ExportService) ExportPDF(markup string) ([]byte, error) {
	tmp, err := os.CreateTemp("", "autoinsight-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("一時ファイルの作成に失敗: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("PDFエンジンの初期化に失敗: %w", err)
	}

	page := wkhtmltopdf.NewPageReader(strings.NewReader(markup))
	page.EnableLocalFileAccess.Set(true)
	// go-echartsのスクリプトが描画を終えるまで待つ
	page.JavascriptDelay.Set(1500)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("PDFの生成に失敗: %w", err)
	}

	if err := pdfg.WriteFile(tmpPath); err != nil {
		return nil, fmt.Errorf("PDFの書き出しに失敗: %w", err)
	}

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("PDFの読み戻しに失敗: %w", err)
	}

	return data, nil
}
