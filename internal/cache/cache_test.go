package cache

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"finchat/internal/log"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, 0)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be present")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b was least recently used and should be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a = %d, %v", v, ok)
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Fatalf("c = %d, %v", v, ok)
	}

	s := c.Stats()
	if s.Size != 2 || s.Hits != 3 || s.Misses != 1 || s.Evictions != 1 {
		t.Fatalf("unexpected stats %+v", s)
	}
	if r := s.HitRate(); r != 0.75 {
		t.Fatalf("hit rate = %v", r)
	}
}

func TestLRUTTL(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.Set("other", "w")
	if _, ok := c.Get("k"); !ok {
		t.Fatal("fresh entry should hit")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry should miss")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected 1 cleaned entry, got %d", n)
	}
	if c.Size() != 0 {
		t.Fatalf("cache should be empty, size %d", c.Size())
	}
}

func TestLRUZeroTTLNeverExpires(t *testing.T) {
	c := NewLRUCache[int](4, 0)
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set("k", 1)
	now = now.Add(24 * time.Hour)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("zero ttl entries must not expire")
	}
	if c.CleanExpired() != 0 {
		t.Fatal("nothing to clean")
	}
}

func TestLRUSetOverwritesAndDelete(t *testing.T) {
	c := NewLRUCache[int](2, 0)
	c.Set("k", 1)
	c.Set("k", 2)
	if v, _ := c.Get("k"); v != 2 || c.Size() != 1 {
		t.Fatalf("overwrite failed: v=%d size=%d", v, c.Size())
	}
	c.Delete("k")
	c.Delete("missing")
	if c.Size() != 0 {
		t.Fatal("delete failed")
	}
}

func TestManager(t *testing.T) {
	m := NewManager(log.New(log.Config{Level: slog.LevelError, Output: io.Discard}))
	vectors := NewLRUCache[[]float32](8, time.Minute)
	now := time.Now()
	vectors.now = func() time.Time { return now }
	vectors.Set("hello", []float32{1})
	m.Register("embeddings", vectors)

	now = now.Add(time.Hour)
	if n := m.CleanExpired(); n != 1 {
		t.Fatalf("expected 1 cleaned entry, got %d", n)
	}
	if names := m.Names(); len(names) != 1 || names[0] != "embeddings" {
		t.Fatalf("names = %v", names)
	}
	if _, ok := m.Stats()["embeddings"]; !ok {
		t.Fatal("stats missing registered cache")
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
