// Package collection persists ordered collections of records under string
// keys of a key-value store.
//
// Every write rewrites the whole collection under its key. Reads never fail:
// a missing or unreadable value degrades to the caller's seed. Write failures
// are logged and returned to the caller, which is the only signal it gets.
//
// Read-modify-write cycles are not serialized. Two concurrent writers to the
// same key race and the later write wins for the whole collection.
package collection

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/stevemurr/school-console/store"
)

// Store is a keyed collection store over a key-value backend.
type Store[V any] struct {
	kv      store.Store
	logger  *zap.Logger
	metrics *Metrics
}

type options struct {
	logger  *zap.Logger
	metrics *Metrics
}

// Option configures a Store.
type Option func(*options)

// WithLogger sets the logger used to report swallowed failures.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics counts operations on m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func New[V any](kv store.Store, opts ...Option) *Store[V] {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[V]{kv: kv, logger: o.logger, metrics: o.metrics}
}

// Load returns the collection stored under key, or seed if there is none or
// it cannot be read. The seed is returned as is and is not persisted.
func (s *Store[V]) Load(key string, seed Collection[V]) Collection[V] {
	c, ok := s.Lookup(key)
	if !ok {
		return seed
	}
	return c
}

// ErrAbsent is returned by Fetch when nothing is stored under a key.
var ErrAbsent = errors.New("collection: absent")

// Lookup returns the collection stored under key and whether one was found.
// Unreadable values are logged and reported as not found.
func (s *Store[V]) Lookup(key string) (Collection[V], bool) {
	c, err := s.Fetch(key)
	return c, err == nil
}

// Fetch returns the collection stored under key. It returns ErrAbsent when
// the key holds nothing (or JSON null), and any other error when the value
// could not be read or parsed.
func (s *Store[V]) Fetch(key string) (Collection[V], error) {
	raw, err := s.kv.GetItem(key)
	if err != nil {
		s.logger.Warn("Failed to read collection", zap.String("key", key), zap.Error(err))
		s.metrics.observe("load", LabelFallback)
		return nil, fmt.Errorf("read collection %q: %w", key, err)
	}
	if raw == nil || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		s.metrics.observe("load", LabelFallback)
		return nil, ErrAbsent
	}
	var c Collection[V]
	if err := json.Unmarshal(raw, &c); err != nil {
		s.logger.Warn("Failed to parse collection", zap.String("key", key), zap.Error(err))
		s.metrics.observe("load", LabelFallback)
		return nil, fmt.Errorf("parse collection %q: %w", key, err)
	}
	if c == nil {
		c = Collection[V]{}
	}
	s.metrics.observe("load", LabelSuccess)
	return c, nil
}

// Save serializes c and stores it under key, replacing any previous value.
func (s *Store[V]) Save(key string, c Collection[V]) error {
	return s.save("save", key, c)
}

func (s *Store[V]) save(op, key string, c Collection[V]) error {
	if c == nil {
		c = Collection[V]{}
	}
	b, err := json.Marshal(c)
	if err == nil {
		err = s.kv.SetItem(key, b)
	}
	if err != nil {
		s.logger.Error("Failed to save collection",
			zap.String("op", op), zap.String("key", key), zap.Int("records", len(c)), zap.Error(err))
		s.metrics.observe(op, LabelError)
		return fmt.Errorf("save collection %q: %w", key, err)
	}
	s.metrics.observe(op, LabelSuccess)
	return nil
}

// Insert appends rec to the collection under key and returns the result.
// Id collisions are not checked.
func (s *Store[V]) Insert(key string, rec Record[V]) (Collection[V], error) {
	c := s.Load(key, nil).Clone()
	c = append(c, NewRecord(rec.ID, rec.Fields))
	if err := s.save("insert", key, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update shallow-merges patch into every record whose id equals id. The
// collection is rewritten even when nothing matches.
func (s *Store[V]) Update(key string, id ID, patch map[string]V) (Collection[V], error) {
	c := s.Load(key, Collection[V]{}).Clone()
	for i, r := range c {
		if r.ID.Equal(id) {
			c[i] = r.Merge(patch)
		}
	}
	if err := s.save("update", key, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Remove drops every record whose id equals id.
func (s *Store[V]) Remove(key string, id ID) (Collection[V], error) {
	current := s.Load(key, nil)
	c := make(Collection[V], 0, len(current))
	for _, r := range current {
		if !r.ID.Equal(id) {
			c = append(c, r)
		}
	}
	if err := s.save("remove", key, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Keys lists the keys present in the underlying store.
func (s *Store[V]) Keys() ([]string, error) {
	return s.kv.Keys()
}

// Drop deletes the value stored under key. Returns true if it existed.
func (s *Store[V]) Drop(key string) (bool, error) {
	existed, err := s.kv.RemoveItem(key)
	if err != nil {
		s.logger.Error("Failed to drop collection", zap.String("key", key), zap.Error(err))
		s.metrics.observe("drop", LabelError)
		return false, fmt.Errorf("drop collection %q: %w", key, err)
	}
	s.metrics.observe("drop", LabelSuccess)
	return existed, nil
}
