package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stevemurr/school-console/collection"
)

// Endpoint is the untyped view of a Service that transports work with.
type Endpoint interface {
	Definition() Definition
	List(ctx context.Context, q Query) (Page[any], error)
	Get(ctx context.Context, id collection.ID) (any, error)
	Create(ctx context.Context, body json.RawMessage) (any, error)
	Update(ctx context.Context, id collection.ID, patch map[string]any) (any, error)
	Delete(ctx context.Context, id collection.ID) error
	CountBy(ctx context.Context, field string) (map[string]int, error)
}

// Erase wraps s as an Endpoint.
func Erase[T any](s *Service[T]) Endpoint {
	return erased[T]{s: s}
}

type erased[T any] struct {
	s *Service[T]
}

func (e erased[T]) Definition() Definition { return e.s.Definition() }

func (e erased[T]) List(ctx context.Context, q Query) (Page[any], error) {
	p, err := e.s.List(ctx, q)
	if err != nil {
		return Page[any]{}, err
	}
	items := make([]any, len(p.Items))
	for i, item := range p.Items {
		items[i] = item
	}
	return Page[any]{
		Items:      items,
		Total:      p.Total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
	}, nil
}

func (e erased[T]) Get(ctx context.Context, id collection.ID) (any, error) {
	return e.s.Get(ctx, id)
}

func (e erased[T]) Create(ctx context.Context, body json.RawMessage) (any, error) {
	var item T
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, &ValidationError{Entity: e.s.def.Name, Err: fmt.Errorf("decode body: %w", err)}
	}
	return e.s.Create(ctx, item)
}

func (e erased[T]) Update(ctx context.Context, id collection.ID, patch map[string]any) (any, error) {
	return e.s.Update(ctx, id, patch)
}

func (e erased[T]) Delete(ctx context.Context, id collection.ID) error {
	return e.s.Delete(ctx, id)
}

func (e erased[T]) CountBy(ctx context.Context, field string) (map[string]int, error) {
	return e.s.CountBy(ctx, field)
}
