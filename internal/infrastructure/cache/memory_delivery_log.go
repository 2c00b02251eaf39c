package cache

import (
	"context"
	"sync"
	"time"
)

const memoryCleanupInterval = 5 * time.Minute

// MemoryDeliveryLog keeps delivered keys in a map. Suitable for single-instance
// deployments and tests.
type MemoryDeliveryLog struct {
	mu        sync.Mutex
	now       func() time.Time
	expiry    map[string]time.Time
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMemoryDeliveryLog creates the log and starts its expiry sweeper
func NewMemoryDeliveryLog() *MemoryDeliveryLog {
	l := &MemoryDeliveryLog{
		now:    time.Now,
		expiry: make(map[string]time.Time),
		stop:   make(chan struct{}),
	}
	l.wg.Add(1)
	go l.sweepLoop()
	return l
}

// FirstSeen implements DeliveryLog
func (l *MemoryDeliveryLog) FirstSeen(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if exp, ok := l.expiry[key]; ok && now.Before(exp) {
		return false, nil
	}
	l.expiry[key] = now.Add(ttl)
	return true, nil
}

// Close stops the sweeper. Safe to call more than once.
func (l *MemoryDeliveryLog) Close() error {
	l.closeOnce.Do(func() {
		close(l.stop)
		l.wg.Wait()
	})
	return nil
}

// Len returns the number of remembered keys, expired ones included until swept
func (l *MemoryDeliveryLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.expiry)
}

func (l *MemoryDeliveryLog) sweepLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(memoryCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

func (l *MemoryDeliveryLog) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, exp := range l.expiry {
		if !now.Before(exp) {
			delete(l.expiry, key)
		}
	}
}

var _ DeliveryLog = (*MemoryDeliveryLog)(nil)
