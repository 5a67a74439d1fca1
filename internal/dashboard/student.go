package dashboard

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/stage-portal/internal/models"
)

type studentGateway interface {
	ListStudentStages(ctx context.Context, studentID int) ([]models.Stage, error)
}

// StudentViewModel projects one student's own declarations. The server
// enforces the ownership boundary; the bound id here only selects the
// endpoint.
type StudentViewModel struct {
	projection

	gw        studentGateway
	studentID int
	logger    *zap.Logger
}

// StudentParams groups constructor dependencies.
type StudentParams struct {
	Gateway   studentGateway
	StudentID int
	Logger    *zap.Logger
	PageSize  int
}

// NewStudentViewModel constructs the student projection.
func NewStudentViewModel(params StudentParams) *StudentViewModel {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentViewModel{
		projection: newProjection(params.PageSize),
		gw:         params.Gateway,
		studentID:  params.StudentID,
		logger:     logger,
	}
}

// Load fetches the student's stages and replaces the projection atomically.
func (vm *StudentViewModel) Load(ctx context.Context) error {
	stages, err := vm.gw.ListStudentStages(ctx, vm.studentID)
	if err != nil {
		return err
	}
	vm.replaceSource(stages)
	return nil
}

// Accept caches a freshly declared stage without a full reload; a refresh
// stays available through Load.
func (vm *StudentViewModel) Accept(stage models.Stage) {
	vm.addStage(stage)
}

// StudentID returns the bound student identity.
func (vm *StudentViewModel) StudentID() int {
	return vm.studentID
}
