package api_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevemurr/school-console/api"
	"github.com/stevemurr/school-console/collection"
)

func TestNextStage(t *testing.T) {
	tests := []struct {
		stage string
		next  string
		ok    bool
	}{
		{api.StageSubmitted, api.StageVerification, true},
		{api.StageVerification, api.StageSetup, true},
		{api.StageSetup, api.StageTraining, true},
		{api.StageTraining, api.StageCompleted, true},
		{api.StageCompleted, "", false},
		{api.StageRejected, "", false},
		{"bogus", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.stage, func(t *testing.T) {
			next, ok := api.NextStage(tc.stage)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.next, next)
		})
	}
}

func TestOnboardingWorkflow(t *testing.T) {
	ctx := context.Background()
	cs, _ := newStore()
	ob := api.NewOnboarding(cs, api.WithClock(mockClock()))

	req, err := ob.Create(ctx, api.OnboardingRequest{
		SchoolName:  "Riverside Academy",
		ContactName: "J. Doe",
		Email:       "admin@riverside.edu",
	})
	require.NoError(t, err)
	_, err = uuid.Parse(req.ID.String())
	require.NoError(t, err, "onboarding ids are uuids")
	assert.Equal(t, api.StageSubmitted, req.Stage)
	assert.Equal(t, "standard", req.Plan)

	for _, want := range []string{api.StageVerification, api.StageSetup, api.StageTraining, api.StageCompleted} {
		req, err = ob.Advance(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, want, req.Stage)
	}

	_, err = ob.Advance(ctx, req.ID)
	assert.ErrorIs(t, err, api.ErrInvalidTransition)
	_, err = ob.Reject(ctx, req.ID, "too late")
	assert.ErrorIs(t, err, api.ErrInvalidTransition)
}

func TestOnboardingReject(t *testing.T) {
	ctx := context.Background()
	cs, _ := newStore()
	ob := api.NewOnboarding(cs)

	req, err := ob.Create(ctx, api.OnboardingRequest{
		SchoolName:  "Hillview",
		ContactName: "A. Smith",
		Email:       "office@hillview.edu",
		Plan:        "premium",
	})
	require.NoError(t, err)

	rejected, err := ob.Reject(ctx, req.ID, "duplicate request")
	require.NoError(t, err)
	assert.Equal(t, api.StageRejected, rejected.Stage)
	assert.Equal(t, "duplicate request", rejected.RejectionReason)
	assert.Equal(t, "premium", rejected.Plan)

	_, err = ob.Advance(ctx, req.ID)
	assert.ErrorIs(t, err, api.ErrInvalidTransition)

	_, err = ob.Advance(ctx, collection.StringID("missing"))
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestOnboardingValidation(t *testing.T) {
	cs, _ := newStore()
	ob := api.NewOnboarding(cs)

	_, err := ob.Create(context.Background(), api.OnboardingRequest{
		SchoolName:  "Nowhere",
		ContactName: "X",
		Email:       "not-an-email",
		Plan:        "gold",
	})
	assert.ErrorIs(t, err, api.ErrInvalid)
}

func TestOnboardingStageOwnedByWorkflow(t *testing.T) {
	ctx := context.Background()
	cs, _ := newStore()
	ob := api.NewOnboarding(cs)

	_, err := ob.Create(ctx, api.OnboardingRequest{
		SchoolName:  "Lakeside",
		ContactName: "M. Ito",
		Email:       "office@lakeside.edu",
		Stage:       api.StageCompleted,
	})
	assert.ErrorIs(t, err, api.ErrInvalidTransition)

	req, err := ob.Create(ctx, api.OnboardingRequest{
		SchoolName:  "Lakeside",
		ContactName: "M. Ito",
		Email:       "office@lakeside.edu",
	})
	require.NoError(t, err)

	_, err = ob.Update(ctx, req.ID, map[string]any{"stage": api.StageCompleted})
	assert.ErrorIs(t, err, api.ErrInvalidTransition)

	ep := ob.Endpoint()
	_, err = ep.Update(ctx, req.ID, map[string]any{"rejectionReason": "spam"})
	assert.ErrorIs(t, err, api.ErrInvalidTransition)
	_, err = ep.Create(ctx, json.RawMessage(`{"schoolName":"X","contactName":"Y","email":"x@y.edu","stage":"training"}`))
	assert.ErrorIs(t, err, api.ErrInvalidTransition)

	v, err := ep.Update(ctx, req.ID, map[string]any{"notes": "called back"})
	require.NoError(t, err)
	got := v.(api.OnboardingRequest)
	assert.Equal(t, "called back", got.Notes)
	assert.Equal(t, api.StageSubmitted, got.Stage)

	// The workflow steps still move the stage.
	advanced, err := ob.Advance(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, api.StageVerification, advanced.Stage)
}
