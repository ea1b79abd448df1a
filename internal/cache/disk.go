package cache

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dhafnck/taskforge/internal/domain"
)

// DiskTier persists cache entries to a sqlite file, used as spill-over when
// the in-memory tier evicts a value callers still want retrievable.
type DiskTier struct {
	db *sql.DB
}

// OpenDiskTier opens (creating if needed) a sqlite-backed disk tier at path.
func OpenDiskTier(path string) (*DiskTier, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrIOFailure, err, "open disk cache %s", path)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	tags TEXT,
	created_at INTEGER NOT NULL,
	expires_at INTEGER
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, domain.WrapError(domain.ErrIOFailure, err, "init disk cache schema")
	}
	return &DiskTier{db: db}, nil
}

// Close releases the underlying sqlite connection.
func (d *DiskTier) Close() error { return d.db.Close() }

// Put writes or replaces one entry.
func (d *DiskTier) Put(e domain.CacheEntry) error {
	var expires sql.NullInt64
	if !e.ExpiresAt.IsZero() {
		expires = sql.NullInt64{Int64: e.ExpiresAt.UnixNano(), Valid: true}
	}
	_, err := d.db.Exec(
		`INSERT INTO cache_entries (key, value, tags, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, tags=excluded.tags,
		   created_at=excluded.created_at, expires_at=excluded.expires_at`,
		e.Key, e.Value, joinTags(e.Tags), e.CreatedAt.UnixNano(), expires,
	)
	if err != nil {
		return domain.WrapError(domain.ErrIOFailure, err, "put disk cache entry %s", e.Key)
	}
	return nil
}

// Get reads one entry, returning ok=false if absent or expired (expired rows
// are deleted lazily on read).
func (d *DiskTier) Get(key string, now time.Time) (domain.CacheEntry, bool, error) {
	row := d.db.QueryRow(`SELECT key, value, tags, created_at, expires_at FROM cache_entries WHERE key = ?`, key)

	var e domain.CacheEntry
	var tags string
	var createdAt int64
	var expires sql.NullInt64
	if err := row.Scan(&e.Key, &e.Value, &tags, &createdAt, &expires); err != nil {
		if err == sql.ErrNoRows {
			return domain.CacheEntry{}, false, nil
		}
		return domain.CacheEntry{}, false, domain.WrapError(domain.ErrIOFailure, err, "get disk cache entry %s", key)
	}
	e.Tags = splitTags(tags)
	e.CreatedAt = time.Unix(0, createdAt)
	e.Size = len(e.Value)
	if expires.Valid {
		e.ExpiresAt = time.Unix(0, expires.Int64)
		if now.After(e.ExpiresAt) {
			_ = d.Delete(key)
			return domain.CacheEntry{}, false, nil
		}
	}
	return e, true, nil
}

// Delete removes one entry.
func (d *DiskTier) Delete(key string) error {
	_, err := d.db.Exec(`DELETE FROM cache_entries WHERE key = ?`, key)
	if err != nil {
		return domain.WrapError(domain.ErrIOFailure, err, "delete disk cache entry %s", key)
	}
	return nil
}

// InvalidateTag removes every row whose tag list contains tag.
func (d *DiskTier) InvalidateTag(tag string) (int, error) {
	rows, err := d.db.Query(`SELECT key, tags FROM cache_entries`)
	if err != nil {
		return 0, domain.WrapError(domain.ErrIOFailure, err, "scan disk cache for tag invalidation")
	}
	defer rows.Close()

	var toRemove []string
	for rows.Next() {
		var key, tags string
		if err := rows.Scan(&key, &tags); err != nil {
			continue
		}
		for _, tg := range splitTags(tags) {
			if tg == tag {
				toRemove = append(toRemove, key)
				break
			}
		}
	}
	for _, key := range toRemove {
		_ = d.Delete(key)
	}
	return len(toRemove), nil
}

func joinTags(tags []string) string {
	out := ""
	for i, t := range tags {
		if i > 0 {
			out += ","
		}
		out += t
	}
	return out
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}


