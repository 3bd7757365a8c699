package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nijaru/transcript-server/errors"
	"github.com/sirupsen/logrus"
)

// SlidingWindow allows at most limit requests per key within any window.
// Rejected requests are not recorded.
type SlidingWindow struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string][]time.Time
	now     func() time.Time
}

// NewSlidingWindow returns a limiter over window. A limit <= 0 allows
// every request.
func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		limit:   limit,
		window:  window,
		buckets: make(map[string][]time.Time),
		now:     time.Now,
	}
}

func (w *SlidingWindow) Allow(key string) bool {
	if w.limit <= 0 {
		return true
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	windowStart := now.Add(-w.window)

	bucket := w.buckets[key]
	i := 0
	for i < len(bucket) && bucket[i].Before(windowStart) {
		i++
	}
	bucket = bucket[i:]

	if len(bucket) >= w.limit {
		w.buckets[key] = bucket
		return false
	}

	w.buckets[key] = append(bucket, now)
	w.sweep(windowStart)
	return true
}

// sweep drops buckets whose newest entry has left the window.
func (w *SlidingWindow) sweep(windowStart time.Time) {
	for key, bucket := range w.buckets {
		if len(bucket) == 0 || bucket[len(bucket)-1].Before(windowStart) {
			delete(w.buckets, key)
		}
	}
}

// RateLimit rejects clients that exceed the limiter with 429.
func RateLimit(limiter *SlidingWindow, logger logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := ClientIP(c)
		if !limiter.Allow(ip) {
			logger.WithFields(logrus.Fields{
				"ip":         ip,
				"request_id": c.GetRespHeader(fiber.HeaderXRequestID),
			}).Warn("Rate limited")
			return errors.RateLimited("middleware.RateLimit", "Too many requests")
		}
		return c.Next()
	}
}
