package main

import (
	"log"
	"net/http"
	"time"

	config "autoinsight-api/configs"
	"autoinsight-api/pkg/handlers"
	"autoinsight-api/pkg/ollama"
	"autoinsight-api/pkg/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .envファイルを読み込み
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	// 設定の読み込み
	cfg := config.LoadConfig()

	// Ginルーターの初期化
	r := gin.Default()

	// サービスの初期化
	monitoringService := services.NewMonitoringService()
	ollamaClient := ollama.NewClient(
		cfg.OllamaEndpoint,
		cfg.OllamaModel,
		time.Duration(cfg.OllamaTimeoutSeconds)*time.Second,
	)
	datasetService := services.NewDatasetService()
	analysisService := services.NewAnalysisService(ollamaClient)
	chartService := services.NewChartService(datasetService)
	reportService := services.NewReportService()
	exportService := services.NewExportService("")

	// ハンドラーの初期化
	reportHandler := handlers.NewReportHandler(datasetService, analysisService, chartService, reportService, exportService)
	monitoringHandler := handlers.NewMonitoringHandler(monitoringService)

	// ミドルウェアの登録
	r.Use(monitoringService.LoggingMiddleware())
	r.Use(cors.Default())

	// 認証ミドルウェア
	authMiddleware := func(apiKey string) gin.HandlerFunc {
		return func(c *gin.Context) {
			if apiKey == "" {
				c.Next()
				return
			}
			providedKey := c.GetHeader("X-API-KEY")
			if providedKey != apiKey {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			c.Next()
		}
	}

	// ヘルスチェックエンドポイント
	r.GET("/health", handlers.HealthCheck)

	// APIバージョン1のルートグループ
	v1 := r.Group("/api/v1")
	v1.Use(authMiddleware(cfg.APIKey))
	{
		// レポート生成パイプラインAPI
		report := v1.Group("/report")
		{
			report.POST("/upload", reportHandler.UploadDataset)
			report.POST("/generate", reportHandler.GenerateReport)
			report.GET("/download", reportHandler.DownloadReport)
		}

		// モニタリングAPI
		monitoring := v1.Group("/monitoring")
		{
			monitoring.GET("/logs", monitoringHandler.GetLogs)
		}
	}

	log.Printf("Starting AutoInsight API server on :%s (model: %s)", cfg.Port, cfg.OllamaModel)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
