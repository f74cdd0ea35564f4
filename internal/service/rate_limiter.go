package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vramonlinebsc/hms/internal/clock"

	"github.com/sirupsen/logrus"
)

// RateLimiter is a sliding-window admission gate keyed by caller and operation.
type RateLimiter interface {
	Admit(ctx context.Context, key string) (bool, error)
}

const (
	// Interval for dropping idle keys
	limiterCleanupInterval = 5 * time.Minute
)

// MemoryRateLimiter keeps one timestamp log per key, each behind its own mutex.
// State is per process; use RedisRateLimiter to share a limit across replicas.
type MemoryRateLimiter struct {
	clock  clock.Clock
	window time.Duration
	max    int
	log    *logrus.Logger

	keys sync.Map // map[string]*keyWindow

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

type keyWindow struct {
	mu       sync.Mutex
	hits     []time.Time
	lastUsed atomic.Int64 // Unix nano
}

// NewMemoryRateLimiter starts a background loop that forgets idle keys.
// Call Stop during shutdown.
func NewMemoryRateLimiter(clk clock.Clock, window time.Duration, max int, log *logrus.Logger) *MemoryRateLimiter {
	l := &MemoryRateLimiter{
		clock:    clk,
		window:   window,
		max:      max,
		log:      log,
		stopChan: make(chan struct{}),
	}

	l.wg.Add(1)
	go l.cleanupLoop()

	return l
}

// Admit prunes hits at or before now-window, then records a hit if the key is
// still under the limit. A rejected call records nothing.
func (l *MemoryRateLimiter) Admit(ctx context.Context, key string) (bool, error) {
	kw := l.lockKeyWindow(key)
	defer kw.mu.Unlock()

	now := l.clock.Now()
	kw.lastUsed.Store(now.UnixNano())

	cutoff := now.Add(-l.window)
	keep := 0
	for _, hit := range kw.hits {
		if hit.After(cutoff) {
			kw.hits[keep] = hit
			keep++
		}
	}
	kw.hits = kw.hits[:keep]

	if len(kw.hits) >= l.max {
		return false, nil
	}
	kw.hits = append(kw.hits, now)
	return true, nil
}

// Stop ends the cleanup loop. Safe to call multiple times.
func (l *MemoryRateLimiter) Stop() {
	if l.stopped.CompareAndSwap(false, true) {
		close(l.stopChan)
		l.wg.Wait()
	}
}

// lockKeyWindow returns the key's window locked. A window dropped by cleanup
// between lookup and lock is orphaned, so the lookup is retried.
func (l *MemoryRateLimiter) lockKeyWindow(key string) *keyWindow {
	for {
		kw := l.getKeyWindow(key)
		kw.mu.Lock()
		if current, ok := l.keys.Load(key); ok && current == kw {
			return kw
		}
		kw.mu.Unlock()
	}
}

func (l *MemoryRateLimiter) getKeyWindow(key string) *keyWindow {
	if v, ok := l.keys.Load(key); ok {
		return v.(*keyWindow)
	}
	v, _ := l.keys.LoadOrStore(key, &keyWindow{})
	return v.(*keyWindow)
}

func (l *MemoryRateLimiter) cleanupLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanupIdleKeys()
		case <-l.stopChan:
			return
		}
	}
}

// cleanupIdleKeys drops keys with no hit inside the current window; such keys
// would be admitted with an empty log anyway.
func (l *MemoryRateLimiter) cleanupIdleKeys() {
	threshold := l.clock.Now().Add(-l.window).UnixNano()
	removed := 0

	l.keys.Range(func(key, value interface{}) bool {
		kw := value.(*keyWindow)
		if kw.lastUsed.Load() > threshold {
			return true
		}
		if kw.mu.TryLock() {
			if kw.lastUsed.Load() <= threshold {
				l.keys.Delete(key)
				removed++
			}
			kw.mu.Unlock()
		}
		return true
	})

	if removed > 0 {
		l.log.Debugf("Rate limiter dropped %d idle keys", removed)
	}
}
