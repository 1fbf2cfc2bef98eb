package api

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const maxTrackedAccounts = 10000

// accountLimiter rate limits roll submissions per authenticated account.
// Idle accounts are evicted least recently used first.
type accountLimiter struct {
	limiters *lru.Cache[string, *rate.Limiter]
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

func newAccountLimiter(perSecond float64, burst int) *accountLimiter {
	return newAccountLimiterWithSize(perSecond, burst, maxTrackedAccounts)
}

func newAccountLimiterWithSize(perSecond float64, burst int, size int) *accountLimiter {
	// lru.New only fails for a non-positive size
	limiters, err := lru.New[string, *rate.Limiter](size)
	if err != nil {
		panic(err)
	}
	return &accountLimiter{
		limiters: limiters,
		rate:     rate.Limit(perSecond),
		burst:    burst,
	}
}

// Allow reports whether the account may act now
func (l *accountLimiter) Allow(account string) bool {
	if l.rate <= 0 {
		return true
	}

	l.mu.Lock()
	limiter, exists := l.limiters.Get(account)
	if !exists {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters.Add(account, limiter)
	}
	l.mu.Unlock()

	return limiter.Allow()
}
