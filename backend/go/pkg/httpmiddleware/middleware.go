package httpmiddleware

import (
	"MindGraphDB/backend/go/pkg/circuitbreaker"
	"MindGraphDB/backend/go/pkg/ratelimiter"
	"errors"
	"fmt"
	"net/http"
)

// RateLimit 在限流器拒绝时直接返回 429。
func RateLimit(limiter ratelimiter.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeJSONError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter 记录下游写入的状态码。
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// CircuitBreak 用熔断器包装处理器，5xx 响应计为失败。
// 熔断器打开时返回 503，不再调用下游。
func CircuitBreak(breaker circuitbreaker.CircuitBreaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			err := breaker.Execute(func() error {
				next.ServeHTTP(rw, r)
				if rw.statusCode >= http.StatusInternalServerError {
					return fmt.Errorf("server error: status code %d", rw.statusCode)
				}
				return nil
			})
			// 下游的错误响应已经写出，这里只处理熔断拒绝。
			if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
				writeJSONError(w, http.StatusServiceUnavailable, "service unavailable: circuit breaker is open")
			}
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, "{\"error\":%q}", message)
}
