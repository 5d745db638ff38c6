package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
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

func newTestLimiter(rate int, window time.Duration) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)}
	l := New(rate, window)
	l.now = clock.Now
	return l, clock
}

func TestTakeExhaustsBucket(t *testing.T) {
	l, _ := newTestLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if d := l.Take("10.0.0.1"); !d.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	d := l.Take("10.0.0.1")
	if d.Allowed {
		t.Fatal("4th request should be denied")
	}
	if d.Remaining != 0 || d.Limit != 3 {
		t.Errorf("unexpected decision %+v", d)
	}

	if !l.Take("10.0.0.2").Allowed {
		t.Fatal("another client has its own bucket")
	}
}

func TestTakeRefills(t *testing.T) {
	// One token per second.
	l, clock := newTestLimiter(60, time.Minute)

	for i := 0; i < 60; i++ {
		l.Take("k")
	}
	if l.Take("k").Allowed {
		t.Fatal("should be denied after exhausting tokens")
	}

	clock.Advance(time.Second)
	if !l.Take("k").Allowed {
		t.Fatal("should be allowed after 1s refill")
	}
	if l.Take("k").Allowed {
		t.Fatal("refilled token already consumed")
	}

	clock.Advance(time.Hour)
	d := l.Take("k")
	if !d.Allowed || d.Remaining != 59 {
		t.Fatalf("refill should cap at the rate, got %+v", d)
	}
}

func TestResetAt(t *testing.T) {
	l, clock := newTestLimiter(10, time.Minute)

	d := l.Take("k")
	// One token short at 6s per token.
	want := clock.Now().Add(6 * time.Second)
	if !d.ResetAt.Equal(want) {
		t.Errorf("ResetAt = %v, want %v", d.ResetAt, want)
	}
}

func TestPrune(t *testing.T) {
	l, clock := newTestLimiter(5, time.Minute)

	l.Take("idle")
	clock.Advance(30 * time.Second)
	l.Take("busy")
	clock.Advance(30 * time.Second)

	if n := l.Prune(); n != 1 {
		t.Fatalf("expected 1 pruned bucket, got %d", n)
	}
	if l.Len() != 1 {
		t.Fatalf("expected 1 remaining bucket, got %d", l.Len())
	}
}

func TestConcurrentTake(t *testing.T) {
	l, _ := newTestLimiter(100, time.Minute)

	var wg sync.WaitGroup
	allowed := make(chan bool, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- l.Take("shared").Allowed
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}
	if count != 100 {
		t.Fatalf("expected exactly 100 allowed, got %d", count)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"192.0.2.1:1234", "192.0.2.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"192.0.2.9", "192.0.2.9"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = tt.remote
		if got := ClientIP(r); got != tt.want {
			t.Errorf("ClientIP(%q) = %q, want %q", tt.remote, got, tt.want)
		}
	}
}

func TestMiddleware(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)
	rejected := 0
	h := Middleware(l, func() { rejected++ })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		r.RemoteAddr = "192.0.2.1:5555"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	first := send()
	if first.Code != http.StatusNoContent {
		t.Fatalf("first request: got %d", first.Code)
	}
	if first.Header().Get("X-RateLimit-Limit") != "1" || first.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("unexpected headers %v", first.Header())
	}

	second := send()
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got %d", second.Code)
	}
	if rejected != 1 {
		t.Errorf("onReject called %d times", rejected)
	}
	if ct := second.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}
