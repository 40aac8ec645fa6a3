package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemoServesCachedWithinTTL(t *testing.T) {
	calls := 0
	m := NewMemo("prices", 5*time.Minute, func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	}, nil)

	clock := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	v, err := m.Get(context.Background())
	if err != nil || v != 1 {
		t.Fatalf("unexpected %v %v", v, err)
	}

	clock = clock.Add(4 * time.Minute)
	v, err = m.Get(context.Background())
	if err != nil || v != 1 {
		t.Fatalf("expected cached value, got %v %v", v, err)
	}
	if calls != 1 {
		t.Fatalf("expected one fetch, got %d", calls)
	}
}

func TestMemoRefetchesAfterTTL(t *testing.T) {
	calls := 0
	m := NewMemo("prices", 5*time.Minute, func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	}, nil)

	clock := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	if _, err := m.Get(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clock = clock.Add(5*time.Minute + time.Second)
	v, err := m.Get(context.Background())
	if err != nil || v != 2 {
		t.Fatalf("expected refetch, got %v %v", v, err)
	}
	if calls != 2 {
		t.Fatalf("expected two fetches, got %d", calls)
	}
}

func TestMemoDoesNotCacheErrors(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	m := NewMemo("signals", time.Minute, func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, boom
		}
		return calls, nil
	}, nil)

	if _, err := m.Get(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	v, err := m.Get(context.Background())
	if err != nil || v != 2 {
		t.Fatalf("expected retry to succeed, got %v %v", v, err)
	}
}

func TestMemoSingleFlight(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	release := make(chan struct{})
	m := NewMemo("prices", 5*time.Minute, func(ctx context.Context) (int, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		<-release
		return 42, nil
	}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, err := m.Get(context.Background()); err != nil || v != 42 {
				t.Errorf("unexpected %v %v", v, err)
			}
		}()
	}
	close(release)
	wg.Wait()

	if calls != 1 {
		t.Fatalf("expected a single underlying fetch, got %d", calls)
	}
}
