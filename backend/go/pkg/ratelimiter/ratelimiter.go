package ratelimiter

// RateLimiter 决定一个请求是否放行。
type RateLimiter interface {
	// Allow 在请求被放行时返回 true，并消耗一次配额。
	Allow() bool
}
