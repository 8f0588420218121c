package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State 是熔断器的状态。
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen 表示熔断器处于打开状态，请求被直接拒绝。
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker 包装一次可能失败的调用。
type CircuitBreaker interface {
	// Execute 在熔断器关闭或半开时执行 req，并根据结果更新状态。
	Execute(req func() error) error
	State() State
}

// breaker 是连续失败计数的熔断器：
// Closed 下连续失败 failureThreshold 次后打开；打开 timeout 后进入 HalfOpen；
// HalfOpen 下连续成功 successThreshold 次后关闭，任一失败重新打开。
type breaker struct {
	failureThreshold uint32
	successThreshold uint32
	timeout          time.Duration

	mu        sync.Mutex
	state     State
	failures  uint32
	successes uint32
	openedAt  time.Time
	now       func() time.Time
}

// New 创建一个熔断器。阈值为 0 时按 1 处理。
func New(failureThreshold, successThreshold uint32, timeout time.Duration) CircuitBreaker {
	return newBreaker(failureThreshold, successThreshold, timeout)
}

func newBreaker(failureThreshold, successThreshold uint32, timeout time.Duration) *breaker {
	if failureThreshold == 0 {
		failureThreshold = 1
	}
	if successThreshold == 0 {
		successThreshold = 1
	}
	return &breaker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		timeout:          timeout,
		state:            Closed,
		now:              time.Now,
	}
}

func (b *breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	return b.state
}

func (b *breaker) Execute(req func() error) error {
	b.mu.Lock()
	b.advance()
	if b.state == Open {
		b.mu.Unlock()
		return ErrCircuitOpen
	}
	b.mu.Unlock()

	err := req()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.onFailure()
	} else {
		b.onSuccess()
	}
	return err
}

// advance 在打开超时后切换到半开，调用方需持有锁。
func (b *breaker) advance() {
	if b.state == Open && b.now().Sub(b.openedAt) >= b.timeout {
		b.state = HalfOpen
		b.successes = 0
	}
}

func (b *breaker) onSuccess() {
	switch b.state {
	case HalfOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			b.state = Closed
			b.failures = 0
			b.successes = 0
		}
	case Closed:
		b.failures = 0
	}
}

func (b *breaker) onFailure() {
	switch b.state {
	case HalfOpen:
		b.trip()
	case Closed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.trip()
		}
	}
}

func (b *breaker) trip() {
	b.state = Open
	b.openedAt = b.now()
	b.failures = 0
	b.successes = 0
}
