package cache

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestGetReturnsSetValue(t *testing.T) {
	c := NewMemory(zap.NewNop())

	c.Set("admin:requests:1:10:all:all:none:desc", "payload", time.Minute)

	got, ok := c.Get("admin:requests:1:10:all:all:none:desc")
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if got != "payload" {
		t.Fatalf("unexpected cached value: %v", got)
	}
}

func TestGetEvictsExpiredEntry(t *testing.T) {
	c := NewMemory(zap.NewNop())
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", "v", time.Second)

	now = now.Add(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected expired entry to be absent")
	}
	if c.Len() != 0 {
		t.Fatalf("expected stale entry to be evicted on read, len=%d", c.Len())
	}
}

func TestSetOverwritesExistingEntry(t *testing.T) {
	c := NewMemory(zap.NewNop())

	c.Set("k", "old", time.Minute)
	c.Set("k", "new", time.Minute)

	got, ok := c.Get("k")
	if !ok || got != "new" {
		t.Fatalf("expected overwritten value, got %v ok=%v", got, ok)
	}
}

func TestDeleteWildcardRemovesMatchingKeysOnly(t *testing.T) {
	c := NewMemory(zap.NewNop())

	c.Set("admin:requests:1:10:all:all:none:desc", 1, time.Minute)
	c.Set("admin:requests:2:10:movie:add:counter:asc", 2, time.Minute)
	c.Set("admin:users:1", 3, time.Minute)

	c.Delete("admin:requests:*")

	if _, ok := c.Get("admin:requests:1:10:all:all:none:desc"); ok {
		t.Fatalf("expected first listing key deleted")
	}
	if _, ok := c.Get("admin:requests:2:10:movie:add:counter:asc"); ok {
		t.Fatalf("expected second listing key deleted")
	}
	if _, ok := c.Get("admin:users:1"); !ok {
		t.Fatalf("expected unrelated key untouched")
	}
}

func TestDeleteExactKeyAndMissingKeyNoop(t *testing.T) {
	c := NewMemory(zap.NewNop())

	c.Set("k", "v", time.Minute)
	c.Delete("k")
	c.Delete("missing")

	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected exact key deleted")
	}
}

func TestInvalidateTagRemovesTaggedEntries(t *testing.T) {
	c := NewMemory(zap.NewNop())

	c.Set("admin:requests:1", 1, time.Minute, "listing")
	c.Set("admin:requests:2", 2, time.Minute, "listing")
	c.Set("other", 3, time.Minute)

	c.InvalidateTag("listing")

	if _, ok := c.Get("admin:requests:1"); ok {
		t.Fatalf("expected tagged entry removed")
	}
	if _, ok := c.Get("admin:requests:2"); ok {
		t.Fatalf("expected tagged entry removed")
	}
	if _, ok := c.Get("other"); !ok {
		t.Fatalf("expected untagged entry kept")
	}
}

func TestFlushClearsEverything(t *testing.T) {
	c := NewMemory(zap.NewNop())

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)
	c.Flush()

	if c.Len() != 0 {
		t.Fatalf("expected empty cache after flush, len=%d", c.Len())
	}
}

func TestReapEvictsOnlyExpiredEntries(t *testing.T) {
	c := NewMemory(zap.NewNop())
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("stale", 1, time.Second)
	c.Set("fresh", 2, time.Hour)

	now = now.Add(time.Minute)
	if evicted := c.reap(); evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", evicted)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Fatalf("expected fresh entry to survive reap")
	}
}
