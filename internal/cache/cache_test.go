package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/needscore/internal/model"
)

func TestKeys(t *testing.T) {
	if got := ArticleKey(4817234); got != "needscore:v1:article:4817234" {
		t.Errorf("Unexpected article key %q", got)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	value := []byte("payload")
	if err := c.Set("k", value, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value[0] = 'X'

	got, ok := c.Get("k")
	if !ok || string(got) != "payload" {
		t.Errorf("Expected stored copy, got %q (found=%v)", got, ok)
	}

	got[0] = 'Y'
	again, _ := c.Get("k")
	if string(again) != "payload" {
		t.Errorf("Expected Get to return a copy, got %q", again)
	}

	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("Expected key to be deleted")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("k", []byte("v"), time.Millisecond)

	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("Expected expired entry to be missing")
	}
}

func TestDiskCache_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	if err := c.Set(ArticleKey(1), []byte(`{"title":"Thời sự"}`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := c.Get(ArticleKey(1))
	if !ok || string(got) != `{"title":"Thời sự"}` {
		t.Errorf("Unexpected payload %q (found=%v)", got, ok)
	}

	if _, ok := c.Get(ArticleKey(2)); ok {
		t.Error("Expected miss for unknown key")
	}
}

func TestDiskCache_Expired(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set("k", []byte("v"), time.Minute)

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Error("Expected expired entry to be missing")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("Expected expired file to be removed")
	}
}

func TestDiskCache_CorruptEntry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	path := c.path("k")
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	_ = os.WriteFile(path, []byte("not json"), 0o644)

	if _, ok := c.Get("k"); ok {
		t.Error("Expected corrupt entry to be a miss")
	}
}

func TestDiskCache_ClearKeepsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	_ = c.Set("a", []byte("1"), 0)
	_ = c.Set("b", []byte("2"), 0)
	other := filepath.Join(dir, "notes.txt")
	_ = os.WriteFile(other, []byte("keep"), 0o644)

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Expected cache entries to be cleared")
	}
	if _, err := os.Stat(other); err != nil {
		t.Errorf("Expected unrelated file to survive: %v", err)
	}

	if err := c.Delete("missing"); err != nil {
		t.Errorf("Expected deleting a missing key to succeed, got %v", err)
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()

	writer := NewLayeredCache(time.Minute, dir, time.Hour)
	if err := writer.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// fresh process: empty memory, same disk
	reader := NewLayeredCache(time.Minute, dir, time.Hour)
	got, ok := reader.Get("k")
	if !ok || string(got) != "v" {
		t.Fatalf("Expected disk hit, got %q (found=%v)", got, ok)
	}
	if mem := reader.memory.(*MemoryCache); mem.Len() != 1 {
		t.Errorf("Expected promotion to memory, memory has %d entries", mem.Len())
	}
}

func TestNew(t *testing.T) {
	if c := New(model.CacheConfig{Enabled: false}); c != nil {
		t.Error("Expected nil cache when disabled")
	}
	if _, ok := New(model.CacheConfig{Enabled: true, MemoryTTL: time.Minute}).(*MemoryCache); !ok {
		t.Error("Expected memory cache without a directory")
	}
	if _, ok := New(model.CacheConfig{Enabled: true, Dir: t.TempDir()}).(*LayeredCache); !ok {
		t.Error("Expected layered cache with a directory")
	}
}
