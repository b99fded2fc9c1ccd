package api

import (
	"encoding/json"

	"github.com/stevemurr/school-console/collection"
	"github.com/stevemurr/school-console/schema"
)

const emailPattern = `^[^@\s]+@[^@\s]+\.[^@\s]+$`

type Branch struct {
	ID        collection.ID `json:"id"`
	Name      string        `json:"name"`
	Code      string        `json:"code"`
	Address   string        `json:"address,omitempty"`
	City      string        `json:"city,omitempty"`
	Phone     string        `json:"phone,omitempty"`
	Email     string        `json:"email,omitempty"`
	Principal string        `json:"principal,omitempty"`
	Students  int           `json:"students"`
	Status    string        `json:"status,omitempty"`
	CreatedAt string        `json:"createdAt,omitempty"`
	UpdatedAt string        `json:"updatedAt,omitempty"`
}

var Branches = Definition{
	Name:         "Branch",
	Key:          "branches",
	Path:         "branches",
	SearchFields: []string{"name", "code", "city", "principal"},
	Defaults:     map[string]any{"status": "active"},
	Schema: schema.Schema{
		"type":     "object",
		"required": []any{"name", "code"},
		"properties": map[string]any{
			"name":     map[string]any{"type": "string", "minLength": float64(1)},
			"code":     map[string]any{"type": "string", "pattern": `^[A-Z0-9-]{2,12}$`},
			"email":    map[string]any{"type": "string", "pattern": emailPattern},
			"students": map[string]any{"type": "integer", "minimum": float64(0)},
			"status":   map[string]any{"type": "string", "enum": []any{"active", "inactive"}},
		},
	},
}

func NewBranches(cs *collection.Store[json.RawMessage], opts ...Option) *Service[Branch] {
	return New[Branch](cs, Branches, opts...)
}

type Teacher struct {
	ID            collection.ID `json:"id"`
	FirstName     string        `json:"firstName"`
	LastName      string        `json:"lastName"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone,omitempty"`
	BranchID      int64         `json:"branchId,omitempty"`
	Subjects      []string      `json:"subjects,omitempty"`
	Qualification string        `json:"qualification,omitempty"`
	JoinedOn      string        `json:"joinedOn,omitempty"`
	Status        string        `json:"status,omitempty"`
	CreatedAt     string        `json:"createdAt,omitempty"`
	UpdatedAt     string        `json:"updatedAt,omitempty"`
}

var Teachers = Definition{
	Name:         "Teacher",
	Key:          "teachers",
	Path:         "teachers",
	SearchFields: []string{"firstName", "lastName", "email", "subjects"},
	Defaults:     map[string]any{"status": "active"},
	Schema: schema.Schema{
		"type":     "object",
		"required": []any{"firstName", "lastName", "email"},
		"properties": map[string]any{
			"firstName": map[string]any{"type": "string", "minLength": float64(1)},
			"lastName":  map[string]any{"type": "string", "minLength": float64(1)},
			"email":     map[string]any{"type": "string", "pattern": emailPattern},
			"branchId":  map[string]any{"type": "integer", "minimum": float64(1)},
			"subjects":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"status":    map[string]any{"type": "string", "enum": []any{"active", "on_leave", "inactive"}},
		},
	},
}

func NewTeachers(cs *collection.Store[json.RawMessage], opts ...Option) *Service[Teacher] {
	return New[Teacher](cs, Teachers, opts...)
}
