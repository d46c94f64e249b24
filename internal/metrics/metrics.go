package metrics

import (
	"net/http"

	"github.com/docuflow/backend-go/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// 摄取与查询指标
var (
	DocumentsIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docuflow_documents_indexed_total",
		Help: "Number of documents successfully indexed",
	})
	DocumentsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docuflow_documents_failed_total",
		Help: "Number of ingestion jobs that failed",
	})
	OCRFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docuflow_ocr_fallbacks_total",
		Help: "Number of documents that went through the OCR fallback path",
	})
	QueriesServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docuflow_queries_total",
		Help: "Number of RAG queries served",
	})
	QueryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docuflow_query_failures_total",
		Help: "Number of RAG queries that failed",
	})
)

// Handler 返回prometheus指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve 在独立端口暴露/metrics
func Serve(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	go func() {
		if err := http.ListenAndServe(":"+port, mux); err != nil {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
}
