// internal/storefront/interfaces/metrics.go
package interfaces

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "HTTP requests by pattern, method and status code.",
		},
		[]string{"pattern", "method", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "HTTP request latency by pattern.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"pattern"},
	)

	checkoutTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkout_total",
			Help: "Order placement attempts by result.",
		},
		[]string{"result"},
	)
)

// recordCheckout 统计一次下单尝试的结局，result 形如
// "ok" / "insufficient_stock" / "not_found" / "error"。
func recordCheckout(result string) {
	checkoutTotal.WithLabelValues(result).Inc()
}

// statusRecorder 捕获写出的状态码供指标使用。
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument 包一层请求计数和时延观测。pattern 用注册时的
// 路由模式而不是真实路径，避免指标基数爆炸。
func instrument(pattern string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues(pattern))
		next(rec, r)
		timer.ObserveDuration()
		httpRequestsTotal.WithLabelValues(pattern, r.Method, strconv.Itoa(rec.status)).Inc()
	}
}
