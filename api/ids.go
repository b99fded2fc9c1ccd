package api

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/stevemurr/school-console/collection"
)

// IDGenerator picks the id for a new record given the current collection.
// Ids are assigned here, above the collection store, which never invents
// them itself.
type IDGenerator func(existing collection.Collection[json.RawMessage]) collection.ID

// NextIntID returns one more than the largest integer id, starting at 1.
func NextIntID(existing collection.Collection[json.RawMessage]) collection.ID {
	return collection.IntID(existing.MaxIntID() + 1)
}

// UUIDs returns a random UUID string id.
func UUIDs(collection.Collection[json.RawMessage]) collection.ID {
	return collection.StringID(uuid.NewString())
}
