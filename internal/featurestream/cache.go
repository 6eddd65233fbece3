package featurestream

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gwen-interpreter/gwen/internal/gwenerr"
)

// dataFileCache memoises a parsed data file's records keyed by its
// absolute path, modification time and size, so a repeated run against
// an unchanged CSV/JSON data file skips re-parsing it (DOMAIN STACK:
// `github.com/mattn/go-sqlite3` backs this index cache at
// `.gwen/cache.db`, alongside `internal/binding`'s use of the same
// driver for LoadStrategy bindings).
type dataFileCache struct {
	db *sql.DB
}

// openDataFileCache opens (creating if absent) the on-disk cache under
// root/.gwen/cache.db. A nil *dataFileCache is a valid no-op cache, so
// callers that can't obtain one (e.g. a read-only root) can fall back
// to always-reparse rather than failing the whole assemble.
func openDataFileCache(root string) (*dataFileCache, error) {
	dir := filepath.Join(root, ".gwen")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, gwenerr.Wrap(gwenerr.IO, err, "creating cache directory %q", dir)
	}
	db, err := sql.Open("sqlite3", filepath.Join(dir, "cache.db"))
	if err != nil {
		return nil, gwenerr.Wrap(gwenerr.IO, err, "opening data-file cache")
	}
	const schema = `CREATE TABLE IF NOT EXISTS data_files (
		path    TEXT PRIMARY KEY,
		mtime   INTEGER NOT NULL,
		size    INTEGER NOT NULL,
		records TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, gwenerr.Wrap(gwenerr.IO, err, "preparing data-file cache schema")
	}
	return &dataFileCache{db: db}, nil
}

func (c *dataFileCache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}

// get returns the cached records for path if the cache entry's mtime
// and size still match the file on disk, signalling a cache hit.
func (c *dataFileCache) get(path string, mtime, size int64) ([]map[string]string, bool) {
	if c == nil {
		return nil, false
	}
	var recordsJSON string
	var cachedMtime, cachedSize int64
	err := c.db.QueryRow(`SELECT mtime, size, records FROM data_files WHERE path = ?`, path).
		Scan(&cachedMtime, &cachedSize, &recordsJSON)
	if err != nil || cachedMtime != mtime || cachedSize != size {
		return nil, false
	}
	var records []map[string]string
	if err := json.Unmarshal([]byte(recordsJSON), &records); err != nil {
		return nil, false
	}
	return records, true
}

// put stores path's parsed records, replacing any stale entry for the
// same path.
func (c *dataFileCache) put(path string, mtime, size int64, records []map[string]string) {
	if c == nil {
		return
	}
	b, err := json.Marshal(records)
	if err != nil {
		return
	}
	_, _ = c.db.Exec(`INSERT INTO data_files (path, mtime, size, records) VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET mtime = excluded.mtime, size = excluded.size, records = excluded.records`,
		path, mtime, size, string(b))
}
