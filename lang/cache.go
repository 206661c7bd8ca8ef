package lang

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/zeebo/xxh3"

	"github.com/ardnew/strudel/log"
)

// Cache memoizes compiled templates by source hash.
//
// Entries hold serialized trees rather than nodes, so every program returned
// owns an independent tree. With a directory configured, trees are also
// persisted as JSON, named by source hash, and reused across processes when
// the recorded source matches.
type Cache struct {
	logger  log.Logger
	dir     string
	entries sync.Map // source -> *cacheEntry
}

// cacheRecord is the content of a persisted cache file.
type cacheRecord struct {
	Tree   map[string]any `json:"tree"`
	Source string         `json:"source"`
}

// cacheEntry is parsed exactly once, however many callers race on it.
type cacheEntry struct {
	err  error
	tree map[string]any
	once sync.Once
}

// CacheOption configures a [Cache].
type CacheOption func(*Cache)

// CacheDir persists trees under dir, which is created on first write.
func CacheDir(dir string) CacheOption {
	return func(c *Cache) { c.dir = dir }
}

// CacheLogger sets the logger for cache activity.
func CacheLogger(l log.Logger) CacheOption {
	return func(c *Cache) { c.logger = l }
}

// NewCache returns an empty cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CacheKey returns the base name of the file persisting source in a [Cache]
// directory.
func CacheKey(source string) string {
	return strconv.FormatUint(xxh3.HashString(source), 36)
}

// Compile returns the program for source, parsing it only if no tree is
// cached for it in memory or on disk. Syntax errors are cached too.
func (c *Cache) Compile(ctx context.Context, source string, opts ...Option) (*Program, error) {
	key := CacheKey(source)

	v, hit := c.entries.LoadOrStore(source, new(cacheEntry))

	e, ok := v.(*cacheEntry)
	if !ok {
		return nil, ErrInvalidTree.With(slog.String("key", key))
	}

	c.logger.TraceContext(ctx, "cache lookup",
		slog.String("key", key),
		slog.Bool("cache_hit", hit))

	e.once.Do(func() { e.tree, e.err = c.fill(ctx, key, source, opts...) })

	if e.err != nil {
		return nil, e.err
	}

	root, err := LoadNode(e.tree)
	if err != nil {
		return nil, err
	}

	return newProgram(root, opts...), nil
}

// fill produces the tree for source from disk or by parsing it.
func (c *Cache) fill(ctx context.Context, key, source string, opts ...Option) (map[string]any, error) {
	if tree, ok := c.read(ctx, key, source); ok {
		return tree, nil
	}

	t, err := Parse(ctx, source, opts...)
	if err != nil {
		return nil, err
	}

	tree := Write(t)

	if err := c.write(key, source, tree); err != nil {
		c.logger.WarnContext(ctx, "cache write failed", slog.Any("error", err))
	}

	return tree, nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// read loads the tree persisted for source. A missing or unreadable file, or
// one recorded for a different source, is a miss.
func (c *Cache) read(ctx context.Context, key, source string) (map[string]any, bool) {
	if c.dir == "" {
		return nil, false
	}

	b, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}

	var rec cacheRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		c.logger.DebugContext(ctx, "discarding corrupt cache file",
			slog.String("path", c.path(key)),
			slog.String("error", err.Error()))

		return nil, false
	}

	if rec.Source != source {
		c.logger.DebugContext(ctx, "discarding cache file of another source",
			slog.String("path", c.path(key)))

		return nil, false
	}

	if _, err := LoadNode(rec.Tree); err != nil {
		c.logger.DebugContext(ctx, "discarding invalid cache file",
			slog.String("path", c.path(key)),
			slog.Any("error", err))

		return nil, false
	}

	c.logger.TraceContext(ctx, "cache file loaded", slog.String("path", c.path(key)))

	return rec.Tree, true
}

// write persists tree atomically by renaming a temporary file into place.
func (c *Cache) write(key, source string, tree map[string]any) error {
	if c.dir == "" {
		return nil
	}

	b, err := json.Marshal(cacheRecord{Tree: tree, Source: source})
	if err != nil {
		return ErrCacheWrite.Wrap(err)
	}

	if err := os.MkdirAll(c.dir, 0o750); err != nil {
		return ErrCacheWrite.Wrap(err).With(slog.String("dir", c.dir))
	}

	f, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return ErrCacheWrite.Wrap(err).With(slog.String("dir", c.dir))
	}

	tmp := f.Name()

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)

		return ErrCacheWrite.Wrap(err).With(slog.String("path", tmp))
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)

		return ErrCacheWrite.Wrap(err).With(slog.String("path", tmp))
	}

	if err := os.Rename(tmp, c.path(key)); err != nil {
		_ = os.Remove(tmp)

		return ErrCacheWrite.Wrap(err).With(slog.String("path", c.path(key)))
	}

	return nil
}

// Len returns the number of sources held in memory.
func (c *Cache) Len() int {
	n := 0

	c.entries.Range(func(any, any) bool {
		n++

		return true
	})

	return n
}

// Clear drops every in-memory entry. Persisted files are kept.
func (c *Cache) Clear() {
	c.entries.Clear()
}
