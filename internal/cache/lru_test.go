package cache

import (
	"testing"
	"time"
)

func TestLRU_EvictsLeastRecent(t *testing.T) {
	c := New[string, int](2, 0)
	var evicted []string
	c.OnEvict = func(k string, _ int) { evicted = append(evicted, k) }

	c.Add("a", 1)
	c.Add("b", 2)
	if _, ok := c.Get("a"); !ok { // a becomes MRU
		t.Fatal("a missing")
	}
	c.Add("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("evicted = %v", evicted)
	}
	if c.Len() != 2 {
		t.Fatalf("len = %d", c.Len())
	}
}

func TestLRU_IdleExpiry(t *testing.T) {
	now := time.Unix(0, 0)
	c := New[string, int](4, time.Minute)
	c.now = func() time.Time { return now }

	c.Add("a", 1)
	c.Add("b", 2)

	now = now.Add(30 * time.Second)
	if _, ok := c.Get("b"); !ok { // refreshes b
		t.Fatal("b missing")
	}

	now = now.Add(45 * time.Second)
	if n := c.Prune(); n != 1 {
		t.Fatalf("pruned %d, want 1", n)
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("a should have expired")
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Fatalf("b = %v, %v", v, ok)
	}
}

func TestLRU_RemoveSkipsCallback(t *testing.T) {
	c := New[int, string](1, 0)
	called := false
	c.OnEvict = func(int, string) { called = true }

	c.Add(1, "x")
	c.Remove(1)
	if called || c.Len() != 0 {
		t.Fatalf("called = %v, len = %d", called, c.Len())
	}
}
