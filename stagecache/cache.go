// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package stagecache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultTTL is how long a cached stage result stays valid. Advisory: Get
// serves expired entries, only CleanExpired removes them.
const DefaultTTL = 7 * 24 * time.Hour

// Cache stores pipeline stage results on disk, one JSON file per content
// hash. Writes go through a temp file and an atomic rename, so a reader
// never observes a partially written record.
type Cache struct {
	dir    string
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures the cache.
type Option func(*Cache) error

// WithDir sets the cache directory. Default is corpora under the
// user cache dir.
func WithDir(dir string) Option {
	return func(c *Cache) error {
		if dir == "" {
			return fmt.Errorf("cache dir cannot be empty")
		}
		c.dir = dir
		return nil
	}
}

// WithTTL sets the expiry horizon used by CleanExpired.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) error {
		if ttl <= 0 {
			return fmt.Errorf("ttl must be positive, got %v", ttl)
		}
		c.ttl = ttl
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// New creates a cache, creating its directory if needed.
func New(opts ...Option) (*Cache, error) {
	c := &Cache{
		ttl:    DefaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolving user cache dir: %w", err)
		}
		c.dir = filepath.Join(base, "corpora")
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	c.logger = c.logger.With("component", "stagecache")
	return c, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Get loads the record for a content hash. A missing, corrupt or
// newer-versioned file is a miss; corruption is logged and the bad file
// left in place for inspection.
func (c *Cache) Get(hash string) (*DocumentData, bool) {
	if !validHash(hash) {
		return nil, false
	}

	raw, err := os.ReadFile(c.entryPath(hash))
	if err != nil {
		return nil, false
	}

	var data DocumentData
	if err := json.Unmarshal(raw, &data); err != nil {
		c.logger.Warn("corrupt cache entry", "hash", hash, "error", err)
		return nil, false
	}
	if !migrate(&data) {
		c.logger.Warn("cache entry from newer version", "hash", hash, "version", data.Version)
		return nil, false
	}
	return &data, true
}

// Set writes the record for a content hash atomically.
func (c *Cache) Set(hash string, data *DocumentData) error {
	if !validHash(hash) {
		return fmt.Errorf("%w: %q", ErrInvalidHash, hash)
	}
	if data == nil {
		return ErrNilDocument
	}

	data.Version = CurrentVersion
	data.Hash = hash
	if data.ProcessedAt.IsZero() {
		data.ProcessedAt = time.Now().UTC()
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, hash+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.entryPath(hash)); err != nil {
		return fmt.Errorf("publishing cache entry: %w", err)
	}
	return nil
}

// Has reports whether an entry exists for the hash, without decoding it.
func (c *Cache) Has(hash string) bool {
	if !validHash(hash) {
		return false
	}
	_, err := os.Stat(c.entryPath(hash))
	return err == nil
}

// Delete removes the entry for a hash. Missing entries are not an error.
func (c *Cache) Delete(hash string) error {
	if !validHash(hash) {
		return fmt.Errorf("%w: %q", ErrInvalidHash, hash)
	}
	err := os.Remove(c.entryPath(hash))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Clear removes every entry. One stubborn file does not stop the sweep;
// all removal failures come back joined.
func (c *Cache) Clear() error {
	names, err := c.entryNames()
	if err != nil {
		return err
	}
	var errs []error
	for _, name := range names {
		if err := os.Remove(filepath.Join(c.dir, name)); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CleanExpired removes entries older than the TTL and returns how many
// were removed. Age comes from the record's ProcessedAt stamp, so a copied
// or restored cache directory keeps its real ages.
func (c *Cache) CleanExpired() (int, error) {
	names, err := c.entryNames()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-c.ttl)
	removed := 0
	for _, name := range names {
		path := filepath.Join(c.dir, name)
		stamp := c.entryTime(path)
		if !stamp.IsZero() && stamp.Before(cutoff) {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

// Stats describes the cache contents.
type Stats struct {
	Entries    int
	TotalBytes int64
	Oldest     time.Time
	Newest     time.Time
}

// Stats walks the cache directory and summarizes it.
func (c *Cache) Stats() (Stats, error) {
	names, err := c.entryNames()
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for _, name := range names {
		path := filepath.Join(c.dir, name)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()
		stamp := c.entryTime(path)
		if stats.Oldest.IsZero() || stamp.Before(stats.Oldest) {
			stats.Oldest = stamp
		}
		if stamp.After(stats.Newest) {
			stats.Newest = stamp
		}
	}
	return stats, nil
}

// entryTime returns the record's ProcessedAt stamp, falling back to file
// mtime when the record cannot be decoded.
func (c *Cache) entryTime(path string) time.Time {
	if raw, err := os.ReadFile(path); err == nil {
		var meta struct {
			ProcessedAt time.Time `json:"processed_at"`
		}
		if json.Unmarshal(raw, &meta) == nil && !meta.ProcessedAt.IsZero() {
			return meta.ProcessedAt
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

func (c *Cache) entryPath(hash string) string {
	return filepath.Join(c.dir, hash+".json")
}

// entryNames lists cache entry file names, skipping temp files and
// anything else living in the directory.
func (c *Cache) entryNames() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("reading cache dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// validHash accepts lowercase hex digests only, which keeps cache keys from
// ever escaping the cache directory.
func validHash(hash string) bool {
	if hash == "" {
		return false
	}
	for _, r := range hash {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
