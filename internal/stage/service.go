package stage

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/stage-portal/internal/models"
	"github.com/noah-isme/stage-portal/pkg/apierr"
)

type stageGateway interface {
	CreateStage(ctx context.Context, draft models.StageDraft) (*models.Stage, error)
	ValidateStage(ctx context.Context, id int) (*models.Stage, error)
	RejectStage(ctx context.Context, id int) (*models.Stage, error)
}

// Service drives the stage review lifecycle. Only two transitions exist:
// pending to approved and pending to rejected; both terminal states are
// absorbing and the server is the final arbiter.
type Service struct {
	gw        stageGateway
	validator *validator.Validate
	logger    *zap.Logger
}

// NewService constructs a Service instance.
func NewService(gw stageGateway, validate *validator.Validate, logger *zap.Logger) *Service {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{gw: gw, validator: validate, logger: logger}
}

const draftDateLayout = "2006-01-02"

// Submit validates the draft locally and declares the stage. Invariant
// violations never reach the network.
func (s *Service) Submit(ctx context.Context, draft models.StageDraft) (*models.Stage, error) {
	if err := s.validator.Struct(draft); err != nil {
		return nil, apierr.Wrap(err, apierr.KindValidation, http.StatusUnprocessableEntity, "invalid stage declaration")
	}

	start, err := time.Parse(draftDateLayout, draft.StartDate)
	if err != nil {
		return nil, apierr.Clone(apierr.ErrValidation, "invalid start date, use YYYY-MM-DD")
	}
	end, err := time.Parse(draftDateLayout, draft.EndDate)
	if err != nil {
		return nil, apierr.Clone(apierr.ErrValidation, "invalid end date, use YYYY-MM-DD")
	}
	if !end.After(start) {
		return nil, apierr.Clone(apierr.ErrValidation, "end date must be after start date")
	}

	created, err := s.gw.CreateStage(ctx, draft)
	if err != nil {
		return nil, err
	}
	s.logger.Info("stage declared",
		zap.Int("stage_id", created.ID),
		zap.Int("student_id", created.StudentID))
	return created, nil
}

// Validate requests the pending to approved transition. A stage already
// resolved by another actor surfaces the server's conflict untouched.
func (s *Service) Validate(ctx context.Context, id int) (*models.Stage, error) {
	updated, err := s.gw.ValidateStage(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("stage approved", zap.Int("stage_id", id))
	return updated, nil
}

// Reject requests the pending to rejected transition, symmetric to Validate.
func (s *Service) Reject(ctx context.Context, id int) (*models.Stage, error) {
	updated, err := s.gw.RejectStage(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("stage rejected", zap.Int("stage_id", id))
	return updated, nil
}
