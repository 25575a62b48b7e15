package cache

import (
	"context"
	"fmt"
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

func TestMemory(t *testing.T) {
	ctx := context.Background()

	t.Run("get and set", func(t *testing.T) {
		c := NewMemory()
		if _, ok, _ := c.Get(ctx, "k"); ok {
			t.Fatal("expected miss on empty cache")
		}
		if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
			t.Fatalf("set failed: %v", err)
		}
		got, ok, err := c.Get(ctx, "k")
		if err != nil || !ok || string(got) != "v" {
			t.Errorf("expected hit 'v', got %q %v %v", got, ok, err)
		}
	})

	t.Run("expiry uses injected clock", func(t *testing.T) {
		clock := &fakeClock{now: time.Unix(1000, 0)}
		c := NewMemory(WithClock(clock.Now))
		c.Set(ctx, "k", []byte("v"), 10*time.Second)

		clock.Advance(9 * time.Second)
		if _, ok, _ := c.Get(ctx, "k"); !ok {
			t.Error("expected hit before ttl")
		}

		clock.Advance(time.Second)
		if _, ok, _ := c.Get(ctx, "k"); ok {
			t.Error("expected miss at ttl")
		}
		if c.Len() != 0 {
			t.Errorf("expected expired entry to be removed, got %d", c.Len())
		}
	})

	t.Run("values are copied", func(t *testing.T) {
		c := NewMemory()
		v := []byte("abc")
		c.Set(ctx, "k", v, time.Minute)
		v[0] = 'x'

		got, _, _ := c.Get(ctx, "k")
		got[1] = 'y'
		again, _, _ := c.Get(ctx, "k")
		if string(again) != "abc" {
			t.Errorf("expected stored value to be isolated, got %q", again)
		}
	})

	t.Run("non-positive ttl is not stored", func(t *testing.T) {
		c := NewMemory()
		c.Set(ctx, "k", []byte("v"), 0)
		if _, ok, _ := c.Get(ctx, "k"); ok {
			t.Error("expected miss for zero ttl")
		}
	})

	t.Run("max items evicts soonest expiry", func(t *testing.T) {
		c := NewMemory(WithMaxItems(2))
		c.Set(ctx, "short", []byte("1"), time.Minute)
		c.Set(ctx, "long", []byte("2"), time.Hour)
		c.Set(ctx, "new", []byte("3"), time.Hour)

		if _, ok, _ := c.Get(ctx, "short"); ok {
			t.Error("expected short-lived key to be evicted")
		}
		if _, ok, _ := c.Get(ctx, "long"); !ok {
			t.Error("expected long-lived key to remain")
		}
		if c.Len() != 2 {
			t.Errorf("expected 2 keys, got %d", c.Len())
		}
	})

	t.Run("concurrent access", func(t *testing.T) {
		c := NewMemory()
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					key := fmt.Sprintf("k%d", j%10)
					c.Set(ctx, key, []byte(fmt.Sprintf("%d-%d", i, j)), time.Minute)
					c.Get(ctx, key)
				}
			}(i)
		}
		wg.Wait()
		if c.Len() != 10 {
			t.Errorf("expected 10 keys, got %d", c.Len())
		}
	})
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	if err := c.Set(context.Background(), "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, _ := c.Get(context.Background(), "k"); ok {
		t.Error("expected noop cache to miss")
	}
}
