package handlers

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"autoinsight-api/pkg/models"
	"autoinsight-api/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// downloadFileName はダウンロード時の固定ファイル名です。
const downloadFileName = "AutoInsight_Report.pdf"

// Analyzer はレポート生成が必要とするモデル呼び出しの抽象です。
type Analyzer interface {
	GenerateUnderstanding(ctx context.Context, dataset *models.Dataset, sample string) models.NarrativeSections
	GenerateInsights(ctx context.Context, describe string) []string
}

// ReportHandler はアップロード→生成→ダウンロードの一連の操作を担当します。
// 単一セッション前提のため、データセットと直近のレポートを1つだけ保持し、
// 新しいアップロードで置き換えます。
type ReportHandler struct {
	datasetService *services.DatasetService
	analyzer       Analyzer
	chartService   *services.ChartService
	reportService  *services.ReportService
	exportService  *services.ExportService

	mu      sync.Mutex
	dataset *models.Dataset
	report  *models.Report
}

// NewReportHandler は新しいReportHandlerを生成します。
func NewReportHandler(
	datasetService *services.DatasetService,
	analyzer Analyzer,
	chartService *services.ChartService,
	reportService *services.ReportService,
	exportService *services.ExportService,
) *ReportHandler {
	return &ReportHandler{
		datasetService: datasetService,
		analyzer:       analyzer,
		chartService:   chartService,
		reportService:  reportService,
		exportService:  exportService,
	}
}

// HealthCheck ヘルスチェックエンドポイント
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "AutoInsight API",
	})
}

// UploadDataset はCSV/XLSXファイルを受け取り、セッションのデータセットとして
// 読み込みます。プレビュー（先頭5行）とデータ品質メトリクスを返します。
func (rh *ReportHandler) UploadDataset(c *gin.Context) {
	c.Request.ParseMultipartForm(10 << 20) // 10MB limit

	file, fileHeader, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "ファイルの取得に失敗しました。",
		})
		return
	}
	defer file.Close()

	dataset, err := rh.datasetService.LoadDataset(file, fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	stats := rh.datasetService.Summarize(dataset)

	rh.mu.Lock()
	rh.dataset = dataset
	rh.report = nil // 新しいデータセットで前回のレポートを破棄
	rh.mu.Unlock()

	log.Printf("データセットを読み込みました: %s (%d行 × %d列)", fileHeader.Filename, stats.Rows, stats.Columns)

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"file_name": fileHeader.Filename,
		"preview": gin.H{
			"columns": dataset.Columns,
			"rows":    dataset.Head(5),
		},
		"statistics": stats,
	})
}

// GenerateReport はアップロード済みデータセットに対してパイプライン全体を
// 同期的に実行します: 統計 → モデルによる理解 → チャート → 洞察 → HTML組み立て。
// モデル呼び出しの失敗は空のセクション・リストに退化し、エラーにはなりません。
func (rh *ReportHandler) GenerateReport(c *gin.Context) {
	rh.mu.Lock()
	dataset := rh.dataset
	rh.mu.Unlock()

	if dataset == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "データセットがアップロードされていません。",
		})
		return
	}

	ctx := c.Request.Context()

	stats := rh.datasetService.Summarize(dataset)
	summaries := rh.datasetService.Describe(dataset)

	sections := rh.analyzer.GenerateUnderstanding(ctx, dataset, rh.datasetService.SampleText(dataset, 5))
	charts := rh.chartService.BuildCharts(dataset)
	insights := rh.analyzer.GenerateInsights(ctx, rh.datasetService.DescribeText(summaries))

	generatedAt := time.Now().Format("2006-01-02 15:04")
	markup, err := rh.reportService.Assemble(sections, stats, summaries, charts, insights, generatedAt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	report := &models.Report{
		ID:          uuid.New().String(),
		GeneratedAt: generatedAt,
		Sections:    sections,
		Statistics:  stats,
		Summaries:   summaries,
		Charts:      charts,
		Insights:    insights,
		HTML:        markup,
	}

	rh.mu.Lock()
	rh.report = report
	rh.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"report":  report,
	})
}

// DownloadReport は直近に生成したレポートをPDFへ変換して返します。
// 変換エンジンのエラーはこのエンドポイントでのみユーザーに見える形で
// 伝播します（リトライなし）。
func (rh *ReportHandler) DownloadReport(c *gin.Context) {
	rh.mu.Lock()
	report := rh.report
	rh.mu.Unlock()

	if report == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "レポートがまだ生成されていません。",
		})
		return
	}

	data, err := rh.exportService.ExportPDF(report.HTML)
	if err != nil {
		log.Printf("PDFエクスポートに失敗: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "PDFの生成に失敗しました。",
		})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+downloadFileName+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
