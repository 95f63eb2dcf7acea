package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/bryanwahyu/medvision/internal/domain/ai"
)

// Metrics holds process-wide counters. Requests are bucketed by status
// class (index 1 for 1xx through 5 for 5xx).
type Metrics struct {
	RequestsTotal      uint64
	RequestsInProgress uint64
	RequestsByClass    [6]uint64
	RateLimited        uint64
	AnalysesTotal      uint64
	AnalysesRunning    uint64
	AnalysesFailed     uint64
	AnalysesQuota      uint64
	StartTime          time.Time
}

var globalMetrics = &Metrics{
	StartTime: time.Now(),
}

func statusClass(code int) int {
	c := code / 100
	if c < 1 || c > 5 {
		return 0
	}
	return c
}

func countRateLimited() {
	atomic.AddUint64(&globalMetrics.RateLimited, 1)
}

// TrackAnalysis counts one pipeline run. Call the returned func with the
// run's error when it finishes.
func TrackAnalysis() func(err error) {
	atomic.AddUint64(&globalMetrics.AnalysesTotal, 1)
	atomic.AddUint64(&globalMetrics.AnalysesRunning, 1)
	return func(err error) {
		atomic.AddUint64(&globalMetrics.AnalysesRunning, ^uint64(0))
		if err == nil {
			return
		}
		atomic.AddUint64(&globalMetrics.AnalysesFailed, 1)
		if errors.Is(err, ai.ErrQuotaExceeded) {
			atomic.AddUint64(&globalMetrics.AnalysesQuota, 1)
		}
	}
}

// GetMetrics returns a snapshot for /metrics.
func GetMetrics() map[string]any {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	byClass := map[string]uint64{}
	for c := 1; c <= 5; c++ {
		byClass[fmt.Sprintf("%dxx", c)] = atomic.LoadUint64(&globalMetrics.RequestsByClass[c])
	}

	return map[string]any{
		"requests_total":          atomic.LoadUint64(&globalMetrics.RequestsTotal),
		"requests_in_progress":    atomic.LoadUint64(&globalMetrics.RequestsInProgress),
		"requests_by_status":      byClass,
		"requests_rate_limited":   atomic.LoadUint64(&globalMetrics.RateLimited),
		"analyses_total":          atomic.LoadUint64(&globalMetrics.AnalysesTotal),
		"analyses_running":        atomic.LoadUint64(&globalMetrics.AnalysesRunning),
		"analyses_failed":         atomic.LoadUint64(&globalMetrics.AnalysesFailed),
		"analyses_quota_exceeded": atomic.LoadUint64(&globalMetrics.AnalysesQuota),
		"uptime_seconds":          time.Since(globalMetrics.StartTime).Seconds(),
		"memory": map[string]any{
			"alloc_bytes": m.Alloc,
			"sys_bytes":   m.Sys,
			"num_gc":      m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// MetricsMiddleware counts requests in flight and by status class.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddUint64(&globalMetrics.RequestsTotal, 1)
		atomic.AddUint64(&globalMetrics.RequestsInProgress, 1)
		defer atomic.AddUint64(&globalMetrics.RequestsInProgress, ^uint64(0))

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		atomic.AddUint64(&globalMetrics.RequestsByClass[statusClass(wrapped.statusCode)], 1)
	})
}

func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GetMetrics())
}
