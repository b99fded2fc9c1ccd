package api

import (
	"encoding/json"

	"github.com/stevemurr/school-console/collection"
	"github.com/stevemurr/school-console/schema"
)

// Resource is an item of the school library.
type Resource struct {
	ID          collection.ID `json:"id"`
	Title       string        `json:"title"`
	Author      string        `json:"author,omitempty"`
	Type        string        `json:"type"`
	Category    string        `json:"category,omitempty"`
	Subject     string        `json:"subject,omitempty"`
	Grade       string        `json:"grade,omitempty"`
	ISBN        string        `json:"isbn,omitempty"`
	Copies      int           `json:"copies"`
	Available   int           `json:"available"`
	Status      string        `json:"status,omitempty"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
	CreatedAt   string        `json:"createdAt,omitempty"`
	UpdatedAt   string        `json:"updatedAt,omitempty"`
}

var Library = Definition{
	Name:         "Resource",
	Key:          "library_resources",
	Path:         "library",
	SearchFields: []string{"title", "author", "category", "subject", "isbn"},
	Defaults:     map[string]any{"status": "available"},
	Schema: schema.Schema{
		"type":     "object",
		"required": []any{"title", "type"},
		"properties": map[string]any{
			"title":     map[string]any{"type": "string", "minLength": float64(1), "maxLength": float64(200)},
			"type":      map[string]any{"type": "string", "enum": []any{"book", "ebook", "video", "audio", "document"}},
			"copies":    map[string]any{"type": "integer", "minimum": float64(0)},
			"available": map[string]any{"type": "integer", "minimum": float64(0)},
			"status":    map[string]any{"type": "string", "enum": []any{"available", "checked_out", "archived"}},
		},
	},
}

func NewLibrary(cs *collection.Store[json.RawMessage], opts ...Option) *Service[Resource] {
	return New[Resource](cs, Library, opts...)
}
