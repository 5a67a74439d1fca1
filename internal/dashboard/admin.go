package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/stage-portal/internal/models"
	"github.com/noah-isme/stage-portal/pkg/jobs"
)

type adminGateway interface {
	ListStages(ctx context.Context) ([]models.Stage, error)
	GetStage(ctx context.Context, id int) (*models.Stage, error)
	GetStats(ctx context.Context) (*models.StatsReport, error)
	ListStudents(ctx context.Context) ([]models.Student, error)
}

// AdminViewModel projects the full authoritative stage list for the review
// dashboard: filtering, pagination, aggregate counters, recent declarations
// and the registered student roster.
type AdminViewModel struct {
	projection

	gw     adminGateway
	logger *zap.Logger

	statsMu  sync.Mutex
	recent   []models.Stage
	students []models.Student

	statsQueue *jobs.Queue
}

// AdminParams groups constructor dependencies.
type AdminParams struct {
	Gateway      adminGateway
	Logger       *zap.Logger
	PageSize     int
	StatsRetries int
	StatsDelay   time.Duration
}

// NewAdminViewModel constructs the admin projection and its background
// statistics refresher. Call Start before QueueStatsRefresh and Stop on
// shutdown.
func NewAdminViewModel(params AdminParams) *AdminViewModel {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	vm := &AdminViewModel{
		projection: newProjection(params.PageSize),
		gw:         params.Gateway,
		logger:     logger,
	}
	vm.statsQueue = jobs.NewQueue("stats-refresh", vm.handleStatsJob, jobs.QueueConfig{
		MaxRetries: params.StatsRetries,
		RetryDelay: params.StatsDelay,
		Logger:     logger,
	})
	return vm
}

// Start launches the background refresher.
func (vm *AdminViewModel) Start(ctx context.Context) {
	vm.statsQueue.Start(ctx)
}

// Stop drains the background refresher.
func (vm *AdminViewModel) Stop() {
	vm.statsQueue.Stop()
}

// Load fetches the authoritative stage list and replaces the projection
// atomically. Statistics and the student roster are fetched best-effort:
// their failure is logged and the counters fall back to local derivation.
func (vm *AdminViewModel) Load(ctx context.Context) error {
	stages, err := vm.gw.ListStages(ctx)
	if err != nil {
		return err
	}
	vm.replaceSource(stages)

	if report, err := vm.gw.GetStats(ctx); err != nil {
		vm.logger.Warn("stats fetch failed", zap.Error(err))
	} else {
		vm.setRecent(report.Recent)
	}

	if students, err := vm.gw.ListStudents(ctx); err != nil {
		vm.logger.Warn("student roster fetch failed", zap.Error(err))
	} else {
		vm.statsMu.Lock()
		vm.students = students
		vm.statsMu.Unlock()
	}

	return nil
}

// ReloadStage re-fetches one record, the reconciliation path after the
// server reports a conflict for an optimistic action.
func (vm *AdminViewModel) ReloadStage(ctx context.Context, id int) (*models.Stage, error) {
	stage, err := vm.gw.GetStage(ctx, id)
	if err != nil {
		return nil, err
	}
	vm.replaceStage(*stage)
	return stage, nil
}

// Recent returns the latest declarations reported by the stats endpoint.
func (vm *AdminViewModel) Recent() []models.Stage {
	vm.statsMu.Lock()
	defer vm.statsMu.Unlock()
	out := make([]models.Stage, len(vm.recent))
	copy(out, vm.recent)
	return out
}

// Students returns the cached student roster.
func (vm *AdminViewModel) Students() []models.Student {
	vm.statsMu.Lock()
	defer vm.statsMu.Unlock()
	out := make([]models.Student, len(vm.students))
	copy(out, vm.students)
	return out
}

func (vm *AdminViewModel) setRecent(recent []models.Stage) {
	vm.statsMu.Lock()
	vm.recent = recent
	vm.statsMu.Unlock()
}

// RefreshStats re-fetches the recent-declarations panel from the server.
func (vm *AdminViewModel) RefreshStats(ctx context.Context) error {
	report, err := vm.gw.GetStats(ctx)
	if err != nil {
		return err
	}
	vm.setRecent(report.Recent)
	return nil
}

// QueueStatsRefresh schedules a best-effort background refresh. Failure is
// logged by the queue; it never blocks the action that triggered it.
func (vm *AdminViewModel) QueueStatsRefresh() {
	job := jobs.Job{ID: uuid.NewString(), Type: "stats-refresh"}
	if err := vm.statsQueue.Enqueue(job); err != nil {
		vm.logger.Warn("stats refresh not scheduled", zap.Error(err))
	}
}

func (vm *AdminViewModel) handleStatsJob(ctx context.Context, _ jobs.Job) error {
	return vm.RefreshStats(ctx)
}
