package taskstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestMemoryStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) err = %v", err)
	}
	value := []byte("a,b\n1,2\n")
	if err := s.Put(ctx, "k", value, time.Hour); err != nil {
		t.Fatal(err)
	}
	value[0] = 'x'
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "a,b\n1,2\n" {
		t.Errorf("stored value was aliased: %q", got)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete err = %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Errorf("second delete err = %v", err)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s := NewMemoryStore(0, WithClock(clock.Now))

	if err := s.Put(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	clock.Advance(59 * time.Second)
	if _, err := s.Get(ctx, "k"); err != nil {
		t.Fatalf("before expiry: %v", err)
	}
	clock.Advance(time.Second)
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("at expiry err = %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expired entry should be dropped, len = %d", s.Len())
	}
}

func TestMemoryStore_PutPrunesExpired(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s := NewMemoryStore(0, WithClock(clock.Now))
	for i := 0; i < 5; i++ {
		_ = s.Put(ctx, fmt.Sprintf("old-%d", i), []byte("v"), time.Second)
	}
	clock.Advance(2 * time.Second)
	_ = s.Put(ctx, "new", []byte("v"), time.Second)
	if s.Len() != 1 {
		t.Errorf("len = %d, want 1", s.Len())
	}
}

func TestMemoryStore_CapacityEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)
	_ = s.Put(ctx, "a", []byte("1"), time.Hour)
	_ = s.Put(ctx, "b", []byte("2"), time.Hour)
	if _, err := s.Get(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	_ = s.Put(ctx, "c", []byte("3"), time.Hour)

	if _, err := s.Get(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("b should have been evicted, err = %v", err)
	}
	for _, k := range []string{"a", "c"} {
		if _, err := s.Get(ctx, k); err != nil {
			t.Errorf("Get(%s) err = %v", k, err)
		}
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(50)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i)
			for j := 0; j < 100; j++ {
				_ = s.Put(ctx, key, []byte{byte(j)}, time.Hour)
				_, _ = s.Get(ctx, key)
				if j%10 == 0 {
					_ = s.Delete(ctx, key)
				}
			}
		}(i)
	}
	wg.Wait()
	if s.Len() > 50 {
		t.Errorf("capacity exceeded: %d", s.Len())
	}
}
