package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stevemurr/school-console/collection"
	"github.com/stevemurr/school-console/schema"
)

// Onboarding stages, in order. Completed and rejected are terminal.
const (
	StageSubmitted    = "submitted"
	StageVerification = "verification"
	StageSetup        = "setup"
	StageTraining     = "training"
	StageCompleted    = "completed"
	StageRejected     = "rejected"
)

var stageOrder = []string{StageSubmitted, StageVerification, StageSetup, StageTraining, StageCompleted}

// OnboardingRequest tracks a school being set up by support admins.
type OnboardingRequest struct {
	ID              collection.ID `json:"id"`
	SchoolName      string        `json:"schoolName"`
	ContactName     string        `json:"contactName"`
	Email           string        `json:"email"`
	Phone           string        `json:"phone,omitempty"`
	Plan            string        `json:"plan,omitempty"`
	Branches        int           `json:"branches,omitempty"`
	Stage           string        `json:"stage,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	RejectionReason string        `json:"rejectionReason,omitempty"`
	CreatedAt       string        `json:"createdAt,omitempty"`
	UpdatedAt       string        `json:"updatedAt,omitempty"`
}

var OnboardingRequests = Definition{
	Name:         "Onboarding request",
	Key:          "support_onboarding",
	Path:         "onboarding",
	SearchFields: []string{"schoolName", "contactName", "email"},
	Defaults:     map[string]any{"stage": StageSubmitted, "plan": "standard"},
	NewID:        UUIDs,
	Schema: schema.Schema{
		"type":     "object",
		"required": []any{"schoolName", "contactName", "email", "stage"},
		"properties": map[string]any{
			"schoolName":  map[string]any{"type": "string", "minLength": float64(1)},
			"contactName": map[string]any{"type": "string", "minLength": float64(1)},
			"email":       map[string]any{"type": "string", "pattern": emailPattern},
			"plan":        map[string]any{"type": "string", "enum": []any{"basic", "standard", "premium"}},
			"branches":    map[string]any{"type": "integer", "minimum": float64(0)},
			"stage": map[string]any{"type": "string", "enum": []any{
				StageSubmitted, StageVerification, StageSetup, StageTraining, StageCompleted, StageRejected,
			}},
		},
	},
}

// Onboarding is the onboarding request façade plus its workflow steps.
type Onboarding struct {
	*Service[OnboardingRequest]
}

func NewOnboarding(cs *collection.Store[json.RawMessage], opts ...Option) *Onboarding {
	return &Onboarding{Service: New[OnboardingRequest](cs, OnboardingRequests, opts...)}
}

// NextStage returns the stage after stage, or false if stage is terminal or
// unknown.
func NextStage(stage string) (string, bool) {
	for i, s := range stageOrder[:len(stageOrder)-1] {
		if s == stage {
			return stageOrder[i+1], true
		}
	}
	return "", false
}

// Advance moves the request to its next stage.
func (o *Onboarding) Advance(ctx context.Context, id collection.ID) (OnboardingRequest, error) {
	req, err := o.Get(ctx, id)
	if err != nil {
		return OnboardingRequest{}, err
	}
	next, ok := NextStage(req.Stage)
	if !ok {
		return OnboardingRequest{}, fmt.Errorf("%w: cannot advance from %q", ErrInvalidTransition, req.Stage)
	}
	return o.Service.Update(ctx, id, map[string]any{"stage": next})
}

// Reject closes the request with a reason. Finished requests cannot be
// rejected.
func (o *Onboarding) Reject(ctx context.Context, id collection.ID, reason string) (OnboardingRequest, error) {
	req, err := o.Get(ctx, id)
	if err != nil {
		return OnboardingRequest{}, err
	}
	if req.Stage == StageCompleted || req.Stage == StageRejected {
		return OnboardingRequest{}, fmt.Errorf("%w: cannot reject from %q", ErrInvalidTransition, req.Stage)
	}
	return o.Service.Update(ctx, id, map[string]any{"stage": StageRejected, "rejectionReason": reason})
}

// workflowFields are owned by Advance and Reject.
var workflowFields = []string{"stage", "rejectionReason"}

// Create files a new request. It always starts at the submitted stage.
func (o *Onboarding) Create(ctx context.Context, req OnboardingRequest) (OnboardingRequest, error) {
	if req.Stage != "" && req.Stage != StageSubmitted {
		return OnboardingRequest{}, fmt.Errorf("%w: new requests start at %q, not %q", ErrInvalidTransition, StageSubmitted, req.Stage)
	}
	if req.RejectionReason != "" {
		return OnboardingRequest{}, fmt.Errorf("%w: new requests cannot carry a rejection reason", ErrInvalidTransition)
	}
	return o.Service.Create(ctx, req)
}

// Update patches the request's details. Stage changes must use Advance or
// Reject.
func (o *Onboarding) Update(ctx context.Context, id collection.ID, patch map[string]any) (OnboardingRequest, error) {
	for _, f := range workflowFields {
		if _, ok := patch[f]; ok {
			return OnboardingRequest{}, fmt.Errorf("%w: %s changes only through advance or reject", ErrInvalidTransition, f)
		}
	}
	return o.Service.Update(ctx, id, patch)
}

// Endpoint exposes the requests to transports with the workflow rules of
// Create and Update applied.
func (o *Onboarding) Endpoint() Endpoint {
	return onboardingEndpoint{Endpoint: Erase(o.Service), o: o}
}

type onboardingEndpoint struct {
	Endpoint
	o *Onboarding
}

func (e onboardingEndpoint) Create(ctx context.Context, body json.RawMessage) (any, error) {
	var req OnboardingRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, &ValidationError{Entity: OnboardingRequests.Name, Err: fmt.Errorf("decode body: %w", err)}
	}
	return e.o.Create(ctx, req)
}

func (e onboardingEndpoint) Update(ctx context.Context, id collection.ID, patch map[string]any) (any, error) {
	return e.o.Update(ctx, id, patch)
}
