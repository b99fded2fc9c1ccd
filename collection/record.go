package collection

import (
	"encoding/json"
	"errors"
	"maps"
)

// ErrMissingID is returned when a serialized record has no "id" field.
var ErrMissingID = errors.New("collection: record has no id")

const idField = "id"

// Record is one entry of a Collection: a required ID plus open-ended fields.
// Its JSON form is a single flat object carrying "id" next to the fields.
type Record[V any] struct {
	ID     ID
	Fields map[string]V
}

// NewRecord returns a Record with the given id and a copy of fields.
// An "id" key in fields is dropped.
func NewRecord[V any](id ID, fields map[string]V) Record[V] {
	r := Record[V]{ID: id, Fields: maps.Clone(fields)}
	if r.Fields == nil {
		r.Fields = map[string]V{}
	}
	delete(r.Fields, idField)
	return r
}

// Merge returns a copy of r with every field of patch applied on top.
// The id is never changed.
func (r Record[V]) Merge(patch map[string]V) Record[V] {
	out := NewRecord(r.ID, r.Fields)
	for k, v := range patch {
		if k == idField {
			continue
		}
		out.Fields[k] = v
	}
	return out
}

func (r Record[V]) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Fields)+1)
	for k, v := range r.Fields {
		m[k] = v
	}
	m[idField] = r.ID
	return json.Marshal(m)
}

func (r *Record[V]) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	idRaw, ok := raw[idField]
	if !ok {
		return ErrMissingID
	}
	var id ID
	if err := id.UnmarshalJSON(idRaw); err != nil {
		return err
	}
	delete(raw, idField)

	fields := make(map[string]V, len(raw))
	for k, v := range raw {
		var val V
		if err := json.Unmarshal(v, &val); err != nil {
			return err
		}
		fields[k] = val
	}
	r.ID = id
	r.Fields = fields
	return nil
}

// Collection is the ordered set of Records stored under one key.
// Order is insertion order.
type Collection[V any] []Record[V]

// Find returns the first record whose id equals id.
func (c Collection[V]) Find(id ID) (Record[V], bool) {
	for _, r := range c {
		if r.ID.Equal(id) {
			return r, true
		}
	}
	return Record[V]{}, false
}

// Count returns how many records carry id.
func (c Collection[V]) Count(id ID) int {
	n := 0
	for _, r := range c {
		if r.ID.Equal(id) {
			n++
		}
	}
	return n
}

// MaxIntID returns the largest integer id in c, or 0 if there is none.
func (c Collection[V]) MaxIntID() int64 {
	var hi int64
	for _, r := range c {
		if n, ok := r.ID.Int64(); ok && n > hi {
			hi = n
		}
	}
	return hi
}

// Clone copies c and every record's field map. Field values are shared.
func (c Collection[V]) Clone() Collection[V] {
	if c == nil {
		return nil
	}
	out := make(Collection[V], len(c))
	for i, r := range c {
		out[i] = NewRecord(r.ID, r.Fields)
	}
	return out
}
