package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dhafnck/taskforge/internal/domain"
)

func newTestDiskTier(t *testing.T) *DiskTier {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	d, err := OpenDiskTier(path)
	if err != nil {
		t.Fatalf("OpenDiskTier: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestDiskTierPutAndGetRoundTrips(t *testing.T) {
	d := newTestDiskTier(t)
	now := time.Now()
	entry := domain.CacheEntry{Key: "a", Value: []byte("hello"), Tags: []string{"x", "y"}, CreatedAt: now}

	if err := d.Put(entry); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := d.Get("a", now)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || string(got.Value) != "hello" {
		t.Fatalf("got %+v ok=%v", got, ok)
	}
	if len(got.Tags) != 2 {
		t.Fatalf("got tags %v", got.Tags)
	}
}

func TestDiskTierGetExpiredReturnsFalse(t *testing.T) {
	d := newTestDiskTier(t)
	now := time.Now()
	entry := domain.CacheEntry{Key: "a", Value: []byte("hello"), CreatedAt: now, ExpiresAt: now.Add(-time.Second)}

	if err := d.Put(entry); err != nil {
		t.Fatalf("Put: %v", err)
	}
	_, ok, err := d.Get("a", now)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatalf("expected expired entry to miss")
	}
}

func TestDiskTierPutOverwritesExisting(t *testing.T) {
	d := newTestDiskTier(t)
	now := time.Now()
	d.Put(domain.CacheEntry{Key: "a", Value: []byte("v1"), CreatedAt: now})
	d.Put(domain.CacheEntry{Key: "a", Value: []byte("v2"), CreatedAt: now})

	got, ok, err := d.Get("a", now)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(got.Value) != "v2" {
		t.Fatalf("got %q, want v2", got.Value)
	}
}

func TestDiskTierInvalidateTagRemovesMatches(t *testing.T) {
	d := newTestDiskTier(t)
	now := time.Now()
	d.Put(domain.CacheEntry{Key: "a", Value: []byte("1"), Tags: []string{"grp"}, CreatedAt: now})
	d.Put(domain.CacheEntry{Key: "b", Value: []byte("2"), Tags: []string{"grp"}, CreatedAt: now})
	d.Put(domain.CacheEntry{Key: "c", Value: []byte("3"), Tags: []string{"other"}, CreatedAt: now})

	n, err := d.InvalidateTag("grp")
	if err != nil {
		t.Fatalf("InvalidateTag: %v", err)
	}
	if n != 2 {
		t.Fatalf("got %d, want 2", n)
	}
	if _, ok, _ := d.Get("c", now); !ok {
		t.Fatalf("expected untagged entry to survive")
	}
}


