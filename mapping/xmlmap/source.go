package xmlmap

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/syssam/dbmap"
	"github.com/syssam/dbmap/mapping"
)

// Source serves the descriptors of one mapping document. It is safe for
// concurrent use; Reload swaps the document atomically.
type Source struct {
	path  string
	cache dbmap.Cache
	log   *zap.Logger

	mu sync.RWMutex
	db *mapping.Database
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithCache stores parsed documents as snapshots in c, keyed by content
// digest, so unchanged documents are not parsed again.
func WithCache(c dbmap.Cache) SourceOption {
	return func(s *Source) {
		s.cache = c
	}
}

// WithLogger sets the logger used for reload events.
func WithLogger(l *zap.Logger) SourceOption {
	return func(s *Source) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSource returns a Source serving an already parsed document.
func NewSource(db *mapping.Database, opts ...SourceOption) *Source {
	s := &Source{db: db, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open parses the mapping document at path and returns a Source for it.
func Open(ctx context.Context, path string, opts ...SourceOption) (*Source, error) {
	s := &Source{path: path, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the document path, or "" for a Source built by NewSource.
func (s *Source) Path() string {
	return s.path
}

// Database implements meta.Source. The document describes a single
// context, so ctx is not consulted.
func (s *Source) Database(reflect.Type) (*mapping.Database, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db, nil
}

// Table implements meta.Source. It returns the table whose type name is
// the simple or package-qualified name of row.
func (s *Source) Table(row reflect.Type) (*mapping.Table, error) {
	for row.Kind() == reflect.Pointer {
		row = row.Elem()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.db.TableFor(row.PkgPath() + "." + row.Name()); ok {
		return t, nil
	}
	if t, ok := s.db.TableFor(row.Name()); ok {
		return t, nil
	}
	return nil, nil
}

// Snapshot returns the current document. Models built from the Source
// keep the document they were built from across a Reload; build a new
// model (or Forget it in a meta.Cache) to pick up changes.
func (s *Source) Snapshot() *mapping.Database {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

// Reload parses the document again.
func (s *Source) Reload(ctx context.Context) error {
	if s.path == "" {
		return fmt.Errorf("xmlmap: source has no document path")
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	db, err := s.load(ctx, data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.db = db
	s.mu.Unlock()
	return nil
}

func (s *Source) load(ctx context.Context, data []byte) (*mapping.Database, error) {
	if s.cache == nil {
		return ParseBytes(data)
	}
	sum := sha256.Sum256(data)
	key := dbmap.CacheKey{Source: s.path, Digest: hex.EncodeToString(sum[:])}.String()
	if b, err := s.cache.Get(ctx, key); err == nil && b != nil {
		if db, err := mapping.UnmarshalSnapshot(b); err == nil {
			s.log.Debug("mapping snapshot hit", zap.String("path", s.path))
			return db, nil
		}
		_ = s.cache.Delete(ctx, key)
	}
	db, err := ParseBytes(data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := mapping.EncodeSnapshot(&buf, db); err == nil {
		if err := s.cache.Set(ctx, key, buf.Bytes(), 0); err != nil {
			s.log.Warn("store mapping snapshot", zap.String("path", s.path), zap.Error(err))
		}
	}
	return db, nil
}

// Watch reloads the document whenever it changes on disk and calls
// onChange with the new descriptors, or with the parse error. It blocks
// until ctx is done.
func (s *Source) Watch(ctx context.Context, onChange func(*mapping.Database, error)) error {
	if s.path == "" {
		return fmt.Errorf("xmlmap: source has no document path")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	// Editors replace files rather than write them, so watch the directory.
	abs, err := filepath.Abs(s.path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			s.log.Info("mapping document changed", zap.String("path", s.path), zap.Stringer("op", ev.Op))
			if err := s.Reload(ctx); err != nil {
				s.log.Error("reload mapping document", zap.String("path", s.path), zap.Error(err))
				onChange(nil, err)
				continue
			}
			db, _ := s.Database(nil)
			onChange(db, nil)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("watch mapping document", zap.Error(err))
		}
	}
}
