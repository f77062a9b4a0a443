package ratelimit_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nutrichat/nutrichat/internal/ratelimit"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func TestAllowWithinLimit(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limiter := ratelimit.NewWithClock(50, time.Hour, clock.Now)

	for i := 1; i <= 50; i++ {
		d := limiter.Allow("203.0.113.7")
		if !d.Allowed {
			t.Fatalf("request %d: Allowed = false, want true", i)
		}
		if d.Remaining != 50-i {
			t.Errorf("request %d: Remaining = %d, want %d", i, d.Remaining, 50-i)
		}
	}
}

func TestRejectsOverLimit(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limiter := ratelimit.NewWithClock(50, time.Hour, clock.Now)
	start := clock.Now()

	for i := 0; i < 50; i++ {
		limiter.Allow("203.0.113.7")
	}

	d := limiter.Allow("203.0.113.7")
	if d.Allowed {
		t.Fatal("request 51: Allowed = true, want false")
	}
	if d.Remaining != 0 {
		t.Errorf("request 51: Remaining = %d, want 0", d.Remaining)
	}
	if d.ResetTime.Before(start) {
		t.Errorf("request 51: ResetTime = %v, want >= %v", d.ResetTime, start)
	}
	if want := start.Add(time.Hour); !d.ResetTime.Equal(want) {
		t.Errorf("request 51: ResetTime = %v, want %v", d.ResetTime, want)
	}
}

func TestWindowResetsAfterExpiry(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limiter := ratelimit.NewWithClock(2, time.Hour, clock.Now)

	limiter.Allow("client")
	limiter.Allow("client")

	if d := limiter.Allow("client"); d.Allowed {
		t.Fatal("third request inside window: Allowed = true, want false")
	}

	clock.Advance(time.Hour)

	d := limiter.Allow("client")
	if !d.Allowed {
		t.Fatal("first request of new window: Allowed = false, want true")
	}
	if d.Remaining != 1 {
		t.Errorf("first request of new window: Remaining = %d, want 1", d.Remaining)
	}
	if want := clock.Now().Add(time.Hour); !d.ResetTime.Equal(want) {
		t.Errorf("new window ResetTime = %v, want %v", d.ResetTime, want)
	}
}

func TestIdentifiersAreIndependent(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limiter := ratelimit.NewWithClock(1, time.Hour, clock.Now)

	if d := limiter.Allow("a"); !d.Allowed {
		t.Fatal("first request for a: Allowed = false, want true")
	}
	if d := limiter.Allow("a"); d.Allowed {
		t.Fatal("second request for a: Allowed = true, want false")
	}
	if d := limiter.Allow("b"); !d.Allowed {
		t.Fatal("first request for b: Allowed = false, want true")
	}
}

func TestSweepRemovesExpiredEntries(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limiter := ratelimit.NewWithClock(50, time.Hour, clock.Now)

	limiter.Allow("old")
	clock.Advance(30 * time.Minute)
	limiter.Allow("fresh")

	if removed := limiter.Sweep(); removed != 0 {
		t.Errorf("Sweep() before expiry = %d, want 0", removed)
	}

	clock.Advance(31 * time.Minute)

	if removed := limiter.Sweep(); removed != 1 {
		t.Errorf("Sweep() after first window expired = %d, want 1", removed)
	}
	if size := limiter.Size(); size != 1 {
		t.Errorf("Size() after sweep = %d, want 1", size)
	}
}

func TestAllowIsSafeForConcurrentUse(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(1000, time.Hour)

	var wg sync.WaitGroup
	allowed := make([]int, 8)

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if limiter.Allow("shared").Allowed {
					allowed[g]++
				}
				limiter.Allow(fmt.Sprintf("client-%d-%d", g, i))
			}
		}(g)
	}
	wg.Wait()

	total := 0
	for _, n := range allowed {
		total += n
	}
	if total != 800 {
		t.Errorf("admitted %d requests for shared identifier, want 800", total)
	}
}
