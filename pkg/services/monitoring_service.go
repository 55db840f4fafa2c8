package services

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLog は単一のリクエストログを表します。
type RequestLog struct {
	Timestamp    time.Time     `json:"timestamp"`
	Path         string        `json:"path"`
	Method       string        `json:"method"`
	StatusCode   int           `json:"status_code"`
	ResponseTime time.Duration `json:"response_time"`
}

// MonitoringService はAPIのモニタリング機能を提供します。
// 単一セッションのツールなので、ログはメモリ上にのみ保持します。
type MonitoringService struct {
	logs []RequestLog
	mu   sync.RWMutex
}

// NewMonitoringService は新しいMonitoringServiceを生成します。
func NewMonitoringService() *MonitoringService {
	return &MonitoringService{
		logs: make([]RequestLog, 0),
	}
}

// LogRequest はリクエストを記録します。
func (s *MonitoringService) LogRequest(entry RequestLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
}

// LoggingMiddleware はリクエスト情報を記録するGinミドルウェアです。
// モニタリング自身へのアクセスは記録から除外します。
func (s *MonitoringService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/v1/monitoring") {
			return
		}

		s.LogRequest(RequestLog{
			Timestamp:    start,
			Path:         path,
			Method:       c.Request.Method,
			StatusCode:   c.Writer.Status(),
			ResponseTime: time.Since(start),
		})
	}
}

// MonitoringSummary は集計済みのモニタリングデータです。
type MonitoringSummary struct {
	TotalRequests  int              `json:"totalRequests"`
	Endpoints      map[string]int   `json:"endpoints"`
	StatusCodes    map[string]int   `json:"statusCodes"`
	AvgResponseMs  map[string]int64 `json:"avgResponseMs"`
	RecentRequests []RequestLog     `json:"recentRequests"`
}

// GetSummary は記録済みログを集計し、直近limit件のリクエストと合わせて返します。
func (s *MonitoringService) GetSummary(limit int) MonitoringSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := MonitoringSummary{
		TotalRequests: len(s.logs),
		Endpoints:     make(map[string]int),
		StatusCodes:   map[string]int{"2xx Success": 0, "4xx Client Error": 0, "5xx Server Error": 0},
		AvgResponseMs: make(map[string]int64),
	}

	responseTimeSum := make(map[string]time.Duration)
	for _, entry := range s.logs {
		summary.Endpoints[entry.Path]++
		responseTimeSum[entry.Path] += entry.ResponseTime

		switch {
		case entry.StatusCode >= 200 && entry.StatusCode < 300:
			summary.StatusCodes["2xx Success"]++
		case entry.StatusCode >= 400 && entry.StatusCode < 500:
			summary.StatusCodes["4xx Client Error"]++
		case entry.StatusCode >= 500:
			summary.StatusCodes["5xx Server Error"]++
		}
	}

	for path, total := range responseTimeSum {
		summary.AvgResponseMs[path] = total.Milliseconds() / int64(summary.Endpoints[path])
	}

	if limit > len(s.logs) {
		limit = len(s.logs)
	}
	summary.RecentRequests = make([]RequestLog, limit)
	copy(summary.RecentRequests, s.logs[len(s.logs)-limit:])

	return summary
}
