package featurestream

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDataFileCacheMissThenHit(t *testing.T) {
	dir := t.TempDir()
	cache, err := openDataFileCache(dir)
	if err != nil {
		t.Fatalf("openDataFileCache: %v", err)
	}
	defer cache.Close()

	if _, ok := cache.get("/data/users.csv", 100, 42); ok {
		t.Fatalf("expected a miss on an empty cache")
	}

	records := []map[string]string{{"name": "ada"}, {"name": "grace"}}
	cache.put("/data/users.csv", 100, 42, records)

	got, ok := cache.get("/data/users.csv", 100, 42)
	if !ok {
		t.Fatalf("expected a hit after put with matching mtime/size")
	}
	if len(got) != 2 || got[0]["name"] != "ada" || got[1]["name"] != "grace" {
		t.Fatalf("unexpected cached records: %v", got)
	}
}

func TestDataFileCacheMissesOnStaleMtimeOrSize(t *testing.T) {
	dir := t.TempDir()
	cache, err := openDataFileCache(dir)
	if err != nil {
		t.Fatalf("openDataFileCache: %v", err)
	}
	defer cache.Close()

	cache.put("/data/users.csv", 100, 42, []map[string]string{{"name": "ada"}})

	if _, ok := cache.get("/data/users.csv", 101, 42); ok {
		t.Fatalf("expected a miss once mtime no longer matches")
	}
	if _, ok := cache.get("/data/users.csv", 100, 43); ok {
		t.Fatalf("expected a miss once size no longer matches")
	}
}

func TestDataFileCachePutOverwritesExistingEntry(t *testing.T) {
	dir := t.TempDir()
	cache, err := openDataFileCache(dir)
	if err != nil {
		t.Fatalf("openDataFileCache: %v", err)
	}
	defer cache.Close()

	cache.put("/data/users.csv", 100, 42, []map[string]string{{"name": "ada"}})
	cache.put("/data/users.csv", 200, 84, []map[string]string{{"name": "grace"}})

	if _, ok := cache.get("/data/users.csv", 100, 42); ok {
		t.Fatalf("expected the stale entry to be gone after a re-put")
	}
	got, ok := cache.get("/data/users.csv", 200, 84)
	if !ok || len(got) != 1 || got[0]["name"] != "grace" {
		t.Fatalf("expected the new entry to be retrievable, got %v ok=%v", got, ok)
	}
}

func TestOpenDataFileCacheCreatesDBFileUnderDotGwen(t *testing.T) {
	dir := t.TempDir()
	cache, err := openDataFileCache(dir)
	if err != nil {
		t.Fatalf("openDataFileCache: %v", err)
	}
	defer cache.Close()

	if _, err := os.Stat(filepath.Join(dir, ".gwen", "cache.db")); err != nil {
		t.Fatalf("expected .gwen/cache.db to exist: %v", err)
	}
}

func TestNilCacheIsANoOp(t *testing.T) {
	var cache *dataFileCache
	if _, ok := cache.get("/data/users.csv", 100, 42); ok {
		t.Fatalf("expected a nil cache to always miss")
	}
	cache.put("/data/users.csv", 100, 42, []map[string]string{{"name": "ada"}})
	if err := cache.Close(); err != nil {
		t.Fatalf("expected Close on a nil cache to be a no-op, got %v", err)
	}
}
