package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func costOf(v int) int { return v }

func hourTTL() time.Duration { return time.Hour }

func TestLRUNeverExceedsBudget(t *testing.T) {
	c := NewLRU[string, int](100, costOf)

	c.Set("a", 40)
	c.Set("b", 40)
	c.Set("c", 40)
	c.Set("d", 90)

	if got := c.Size(); got > 100 {
		t.Fatalf("Size() = %d, want <= 100", got)
	}
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[string, int](100, costOf)

	c.Set("a", 40)
	c.Set("b", 40)
	c.Get("a") // promote a; b is now the LRU entry
	c.Set("c", 40)

	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a to survive eviction")
	}
	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted, but it is still present")
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatalf("expected c to be present")
	}
}

func TestLRUOversizeNotAdmitted(t *testing.T) {
	c := NewLRU[string, int](1000, costOf)

	c.Set("big", 2000)
	if got := c.Size(); got != 0 {
		t.Fatalf("Size() after oversize Set = %d, want 0", got)
	}
	if _, ok := c.Get("big"); ok {
		t.Fatalf("oversize value should not be admitted")
	}

	c.Set("small", 10)
	if got := c.Size(); got != 10 {
		t.Fatalf("Size() after subsequent small Set = %d, want 10", got)
	}
}

func TestLRUUpdateDoesNotDoubleCount(t *testing.T) {
	c := NewLRU[string, int](100, costOf)

	c.Set("a", 50)
	c.Set("a", 60) // replacing a should drop the old 50 cost first

	if got := c.Size(); got != 60 {
		t.Fatalf("Size() after update = %d, want 60", got)
	}
}

func TestLRUDelete(t *testing.T) {
	c := NewLRU[string, int](100, costOf)
	c.Set("a", 10)
	c.Delete("a")

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected a to be deleted")
	}
	if got := c.Size(); got != 0 {
		t.Fatalf("Size() after delete = %d, want 0", got)
	}
}

func TestTTLMemoCallsProducerOncePerWindow(t *testing.T) {
	calls := 0
	m := NewTTLMemo(hourTTL(), func(context.Context) (int, error) {
		calls++
		return calls, nil
	})

	// Two calls inside one window share a single producer call; once the
	// stored entry is older than the TTL, the next call recomputes once.
	v1, err := m.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if v1 != 1 {
		t.Fatalf("first Get() = %d, want 1", v1)
	}
	if v2, _ := m.Get(context.Background()); v2 != 1 || calls != 1 {
		t.Fatalf("second Get() within TTL = %d with %d producer calls, want 1 and 1", v2, calls)
	}

	m.at = time.Now().Add(-2 * hourTTL())
	if v3, _ := m.Get(context.Background()); v3 != 2 || calls != 2 {
		t.Fatalf("Get() after TTL = %d with %d producer calls, want 2 and 2", v3, calls)
	}
}

func TestTTLMemoReusesWithinWindow(t *testing.T) {
	calls := 0
	m := NewTTLMemo(0, func(context.Context) (int, error) {
		calls++
		return calls, nil
	})
	m.ttl = hourTTL()

	v1, _ := m.Get(context.Background())
	v2, _ := m.Get(context.Background())

	if v1 != v2 {
		t.Fatalf("Get() returned different values within TTL window: %d != %d", v1, v2)
	}
	if calls != 1 {
		t.Fatalf("producer called %d times, want 1", calls)
	}
}

func TestTTLMemoSurfacesErrorThenRetriesAfterInvalidate(t *testing.T) {
	calls := 0
	wantErr := errors.New("boom")
	m := NewTTLMemo(hourTTL(), func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, wantErr
		}
		return 42, nil
	})

	_, err := m.Get(context.Background())
	if !errors.Is(err, wantErr) {
		t.Fatalf("first Get() error = %v, want %v", err, wantErr)
	}

	_, err = m.Get(context.Background())
	if !errors.Is(err, wantErr) {
		t.Fatalf("second Get() within TTL should still surface the memoized error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("producer called %d times within TTL, want 1", calls)
	}

	m.Invalidate()
	v, err := m.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() after invalidate error: %v", err)
	}
	if v != 42 {
		t.Fatalf("Get() after invalidate = %d, want 42", v)
	}
}
