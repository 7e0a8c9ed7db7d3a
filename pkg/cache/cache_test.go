package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestSetGetAndExpire(t *testing.T) {
	c := Default()
	key := KeyFromStrings("unit", "expire", time.Now().String())

	if _, ok := c.Get(key); ok {
		t.Fatalf("expected no value initially")
	}

	c.Set(key, "hello", 50*time.Millisecond)
	if v, ok := c.Get(key); !ok || v.(string) != "hello" {
		t.Fatalf("expected value 'hello', got %v ok=%v", v, ok)
	}

	// int-second expiry granularity; wait past the boundary
	time.Sleep(1100 * time.Millisecond)
	if _, ok := c.Get(key); ok {
		t.Fatalf("expected expired value to be gone")
	}
}

func TestDelete(t *testing.T) {
	c := Default()
	key := KeyFromStrings("unit", "delete", time.Now().String())
	c.Set(key, 42, time.Minute)
	if v, ok := c.Get(key); !ok || v.(int) != 42 {
		t.Fatalf("expected 42 present before delete, got %v ok=%v", v, ok)
	}
	c.Delete(key)
	if _, ok := c.Get(key); ok {
		t.Fatalf("expected deleted value to be absent")
	}
}

func TestKeyFromStringsStability(t *testing.T) {
	k1 := KeyFromStrings("a", "b", "c")
	k2 := KeyFromStrings("a", "b", "c")
	if k1 != k2 {
		t.Fatalf("expected same inputs to yield same key")
	}
	k3 := KeyFromStrings("a", "b", "d")
	if k1 == k3 {
		t.Fatalf("expected different inputs to yield different key")
	}
}

func TestLRUEviction(t *testing.T) {
	c := NewCache(3)
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), i, 0)
	}
	// touch k0 so k1 becomes LRU
	if _, ok := c.Get("k0"); !ok {
		t.Fatalf("k0 should be present")
	}
	c.Set("k3", 3, 0)
	if _, ok := c.Get("k1"); ok {
		t.Fatalf("expected LRU entry k1 to be evicted")
	}
	for _, k := range []string{"k0", "k2", "k3"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("expected %s to survive eviction", k)
		}
	}
}
