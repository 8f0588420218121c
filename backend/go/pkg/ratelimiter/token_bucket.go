package ratelimiter

import (
	"golang.org/x/time/rate"
)

// TokenBucket 以固定速率补充令牌，允许不超过容量的突发请求。
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket 创建一个令牌桶，桶初始为满。
// ratePerSecond: 每秒补充的令牌数；capacity: 桶容量，即最大突发量。
func NewTokenBucket(ratePerSecond float64, capacity int) *TokenBucket {
	if capacity < 1 {
		capacity = 1
	}
	return &TokenBucket{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), capacity)}
}

func (tb *TokenBucket) Allow() bool {
	return tb.limiter.Allow()
}
