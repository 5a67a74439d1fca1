package stage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/stage-portal/internal/models"
	"github.com/noah-isme/stage-portal/pkg/apierr"
)

type fakeStageGateway struct {
	createCalls   int
	validateCalls int
	rejectCalls   int

	created     *models.Stage
	mutated     *models.Stage
	mutationErr error
}

func (g *fakeStageGateway) CreateStage(ctx context.Context, draft models.StageDraft) (*models.Stage, error) {
	g.createCalls++
	if g.mutationErr != nil {
		return nil, g.mutationErr
	}
	return g.created, nil
}

func (g *fakeStageGateway) ValidateStage(ctx context.Context, id int) (*models.Stage, error) {
	g.validateCalls++
	if g.mutationErr != nil {
		return nil, g.mutationErr
	}
	return g.mutated, nil
}

func (g *fakeStageGateway) RejectStage(ctx context.Context, id int) (*models.Stage, error) {
	g.rejectCalls++
	if g.mutationErr != nil {
		return nil, g.mutationErr
	}
	return g.mutated, nil
}

func validDraft() models.StageDraft {
	return models.StageDraft{
		StudentID: 7,
		Company:   "Acme",
		Subject:   "Backend internship",
		StartDate: "2025-03-01",
		EndDate:   "2025-06-01",
	}
}

func TestSubmitDeclaresStage(t *testing.T) {
	gw := &fakeStageGateway{created: &models.Stage{ID: 11, StudentID: 7, Status: models.StatusPending}}
	svc := NewService(gw, nil, nil)

	created, err := svc.Submit(context.Background(), validDraft())
	require.NoError(t, err)
	assert.Equal(t, 11, created.ID)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Equal(t, 1, gw.createCalls)
}

func TestSubmitRejectsMissingFieldsLocally(t *testing.T) {
	gw := &fakeStageGateway{}
	svc := NewService(gw, nil, nil)

	draft := validDraft()
	draft.Company = ""
	_, err := svc.Submit(context.Background(), draft)
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.KindValidation))
	assert.Zero(t, gw.createCalls)
}

func TestSubmitRejectsMalformedDatesLocally(t *testing.T) {
	gw := &fakeStageGateway{}
	svc := NewService(gw, nil, nil)

	draft := validDraft()
	draft.StartDate = "01/03/2025"
	_, err := svc.Submit(context.Background(), draft)
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.KindValidation))
	assert.Zero(t, gw.createCalls)
}

func TestSubmitRejectsEndBeforeStartLocally(t *testing.T) {
	gw := &fakeStageGateway{}
	svc := NewService(gw, nil, nil)

	draft := validDraft()
	draft.StartDate = "2025-06-01"
	draft.EndDate = "2025-03-01"
	_, err := svc.Submit(context.Background(), draft)
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.KindValidation))
	assert.Contains(t, err.Error(), "end date must be after start date")
	assert.Zero(t, gw.createCalls)
}

func TestSubmitRejectsEqualDatesLocally(t *testing.T) {
	gw := &fakeStageGateway{}
	svc := NewService(gw, nil, nil)

	draft := validDraft()
	draft.EndDate = draft.StartDate
	_, err := svc.Submit(context.Background(), draft)
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.KindValidation))
	assert.Zero(t, gw.createCalls)
}

func TestValidateReturnsUpdatedStage(t *testing.T) {
	gw := &fakeStageGateway{mutated: &models.Stage{ID: 5, Status: models.StatusApproved}}
	svc := NewService(gw, nil, nil)

	updated, err := svc.Validate(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, updated.Status)
	assert.Equal(t, 1, gw.validateCalls)
}

func TestRejectReturnsUpdatedStage(t *testing.T) {
	gw := &fakeStageGateway{mutated: &models.Stage{ID: 5, Status: models.StatusRejected}}
	svc := NewService(gw, nil, nil)

	updated, err := svc.Reject(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, updated.Status)
	assert.Equal(t, 1, gw.rejectCalls)
}

func TestValidateConflictPassesThroughUntouched(t *testing.T) {
	conflict := apierr.Clone(apierr.ErrConflict, "stage already resolved")
	gw := &fakeStageGateway{mutationErr: conflict}
	svc := NewService(gw, nil, nil)

	_, err := svc.Validate(context.Background(), 5)
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.KindConflict))
	assert.Equal(t, "stage already resolved", apierr.FromError(err).Message)
}
