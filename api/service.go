// Package api implements the per-entity façades of the admin console on top
// of the keyed collection store: id assignment, simulated request latency,
// timestamps, validation, search and typed errors.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/stevemurr/school-console/collection"
	"github.com/stevemurr/school-console/schema"
)

// Definition describes one entity type.
type Definition struct {
	// Name is used in error messages, e.g. "Resource not found".
	Name string
	// Key is the storage key of the entity's collection.
	Key string
	// Path is the URL segment the entity is served under.
	Path string
	// Schema validates every created or updated record. Optional.
	Schema schema.Schema
	// SearchFields are matched by Query.Search.
	SearchFields []string
	// Defaults fill fields a new record leaves out.
	Defaults map[string]any
	// NewID assigns ids to new records. Defaults to NextIntID.
	NewID IDGenerator
}

type config struct {
	seed       collection.Collection[json.RawMessage]
	latency    time.Duration
	clock      clock.Clock
	logger     *zap.Logger
	timestamps bool
}

// Option configures a Service.
type Option func(*config)

// WithSeed sets the records served, and persisted, while the entity's key is
// empty.
func WithSeed(seed collection.Collection[json.RawMessage]) Option {
	return func(c *config) { c.seed = seed }
}

// WithLatency delays every operation by d to mimic a remote API.
func WithLatency(d time.Duration) Option {
	return func(c *config) { c.latency = d }
}

func WithClock(clk clock.Clock) Option {
	return func(c *config) { c.clock = clk }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithTimestamps controls the createdAt/updatedAt stamps. On by default.
func WithTimestamps(on bool) Option {
	return func(c *config) { c.timestamps = on }
}

// Service is the façade for one entity type T. T must marshal to a JSON
// object with an "id" field.
type Service[T any] struct {
	def   Definition
	store *collection.Store[json.RawMessage]
	cfg   config
}

func New[T any](cs *collection.Store[json.RawMessage], def Definition, opts ...Option) *Service[T] {
	cfg := config{
		clock:      clock.New(),
		logger:     zap.NewNop(),
		timestamps: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if def.NewID == nil {
		def.NewID = NextIntID
	}
	return &Service[T]{
		def:   def,
		store: cs,
		cfg:   cfg,
	}
}

func (s *Service[T]) Definition() Definition { return s.def }

// wait blocks for the configured latency or until ctx is done.
func (s *Service[T]) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.cfg.latency <= 0 {
		return nil
	}
	t := s.cfg.clock.Timer(s.cfg.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// load returns the stored collection. When the key is absent the seed is
// written explicitly and returned. When the stored value cannot be read the
// seed is served but not written, so the stored data survives.
func (s *Service[T]) load() collection.Collection[json.RawMessage] {
	c, err := s.store.Fetch(s.def.Key)
	if err == nil {
		return c
	}
	if len(s.cfg.seed) == 0 {
		return collection.Collection[json.RawMessage]{}
	}
	seed := s.cfg.seed.Clone()
	if !errors.Is(err, collection.ErrAbsent) {
		return seed
	}
	if err := s.store.Save(s.def.Key, seed); err != nil {
		s.cfg.logger.Warn("Failed to persist seed data", zap.String("entity", s.def.Name), zap.Error(err))
	}
	return seed
}

// List returns the records matching q, in insertion order.
func (s *Service[T]) List(ctx context.Context, q Query) (Page[T], error) {
	if err := s.wait(ctx); err != nil {
		return Page[T]{}, err
	}
	q = q.normalize()
	var matched collection.Collection[json.RawMessage]
	for _, r := range s.load() {
		if q.match(r, s.def.SearchFields) {
			matched = append(matched, r)
		}
	}

	page := paginate(matched, q)
	items := make([]T, 0, len(page.Items))
	for _, r := range page.Items {
		item, err := decode[T](r)
		if err != nil {
			return Page[T]{}, err
		}
		items = append(items, item)
	}
	return Page[T]{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}

func (s *Service[T]) Get(ctx context.Context, id collection.ID) (T, error) {
	var zero T
	if err := s.wait(ctx); err != nil {
		return zero, err
	}
	r, ok := s.load().Find(id)
	if !ok {
		return zero, &NotFoundError{Entity: s.def.Name, ID: id}
	}
	return decode[T](r)
}

// Create stores item under a freshly assigned id and returns it as stored.
// Any id set on item is ignored.
func (s *Service[T]) Create(ctx context.Context, item T) (T, error) {
	var zero T
	if err := s.wait(ctx); err != nil {
		return zero, err
	}
	fields, err := toFields(item)
	if err != nil {
		return zero, err
	}
	for k, v := range s.def.Defaults {
		if _, ok := fields[k]; ok {
			continue
		}
		if fields[k], err = json.Marshal(v); err != nil {
			return zero, err
		}
	}

	c := s.load()
	rec := collection.NewRecord(s.def.NewID(c), fields)
	if s.cfg.timestamps {
		now := s.now()
		rec.Fields["createdAt"] = now
		rec.Fields["updatedAt"] = now
	}
	out, err := s.check(rec)
	if err != nil {
		return zero, err
	}
	if _, err := s.store.Insert(s.def.Key, rec); err != nil {
		return zero, err
	}
	s.cfg.logger.Debug("Record created", zap.String("entity", s.def.Name), zap.Stringer("id", rec.ID))
	return out, nil
}

// Update shallow-merges patch into the record and returns the result.
func (s *Service[T]) Update(ctx context.Context, id collection.ID, patch map[string]any) (T, error) {
	var zero T
	if err := s.wait(ctx); err != nil {
		return zero, err
	}
	rec, ok := s.load().Find(id)
	if !ok {
		return zero, &NotFoundError{Entity: s.def.Name, ID: id}
	}

	raw := make(map[string]json.RawMessage, len(patch)+1)
	for k, v := range patch {
		b, err := json.Marshal(v)
		if err != nil {
			return zero, fmt.Errorf("encode field %q: %w", k, err)
		}
		raw[k] = b
	}
	if s.cfg.timestamps {
		raw["updatedAt"] = s.now()
	}

	out, err := s.check(rec.Merge(raw))
	if err != nil {
		return zero, err
	}
	if _, err := s.store.Update(s.def.Key, id, raw); err != nil {
		return zero, err
	}
	return out, nil
}

func (s *Service[T]) Delete(ctx context.Context, id collection.ID) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	if _, ok := s.load().Find(id); !ok {
		return &NotFoundError{Entity: s.def.Name, ID: id}
	}
	_, err := s.store.Remove(s.def.Key, id)
	return err
}

// CountBy groups records by the text of field. Records without the field are
// skipped. Array fields count once per element.
func (s *Service[T]) CountBy(ctx context.Context, field string) (map[string]int, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, r := range s.load() {
		for _, v := range textOf(fieldValue(r, field)) {
			counts[v]++
		}
	}
	return counts, nil
}

func (s *Service[T]) now() json.RawMessage {
	b, _ := json.Marshal(s.cfg.clock.Now().UTC().Format(time.RFC3339))
	return b
}

// check validates rec and decodes it into T. Records that fail either step
// are rejected as a *ValidationError and must not be written.
func (s *Service[T]) check(rec collection.Record[json.RawMessage]) (T, error) {
	var zero T
	if err := s.validate(rec); err != nil {
		return zero, err
	}
	out, err := decode[T](rec)
	if err != nil {
		return zero, &ValidationError{Entity: s.def.Name, Err: err}
	}
	return out, nil
}

func (s *Service[T]) validate(rec collection.Record[json.RawMessage]) error {
	if s.def.Schema == nil {
		return nil
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	if err := schema.Validate(s.def.Schema, doc); err != nil {
		return &ValidationError{Entity: s.def.Name, Err: err}
	}
	return nil
}

// toFields flattens item into raw fields, dropping its id.
func toFields(item any) (map[string]json.RawMessage, error) {
	b, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, fmt.Errorf("entity must encode as a JSON object: %w", err)
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	delete(fields, "id")
	return fields, nil
}

func decode[T any](r collection.Record[json.RawMessage]) (T, error) {
	var out T
	b, err := json.Marshal(r)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(b, &out)
	return out, err
}
