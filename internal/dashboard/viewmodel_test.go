package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/stage-portal/internal/models"
)

func statusPtr(s models.StageStatus) *models.StageStatus { return &s }

func sampleStages() []models.Stage {
	declared := time.Date(2025, 1, 2, 10, 30, 0, 0, time.UTC)
	return []models.Stage{
		{ID: 1, StudentID: 7, StudentName: "Eve", Company: "ACME Corp", Subject: "Backend", DeclaredAt: declared, Status: models.StatusPending},
		{ID: 2, StudentID: 8, StudentName: "Bob", Company: "Globex", Subject: "Frontend", DeclaredAt: declared, Status: models.StatusApproved},
		{ID: 3, StudentID: 7, StudentName: "Eve", Company: "Initech", Subject: "Data pipeline", DeclaredAt: declared, Status: models.StatusRejected},
		{ID: 4, StudentID: 9, StudentName: "Mallory", Company: "Acme Labs", Subject: "Security", DeclaredAt: declared, Status: models.StatusPending},
	}
}

func TestFilterByStatus(t *testing.T) {
	p := newProjection(10)
	p.replaceSource(sampleStages())

	p.ApplyFilter(Filter{Status: statusPtr(models.StatusPending)})

	filtered := p.Filtered()
	require.Len(t, filtered, 2)
	for _, stage := range filtered {
		assert.Equal(t, models.StatusPending, stage.Status)
	}
}

func TestFilterSearchIsCaseInsensitive(t *testing.T) {
	p := newProjection(10)
	p.replaceSource(sampleStages())

	p.ApplyFilter(Filter{Search: "acme"})

	filtered := p.Filtered()
	require.Len(t, filtered, 2)
	assert.Equal(t, "ACME Corp", filtered[0].Company)
	assert.Equal(t, "Acme Labs", filtered[1].Company)
}

func TestFilterSearchCoversSubjectAndStudentName(t *testing.T) {
	p := newProjection(10)
	p.replaceSource(sampleStages())

	p.ApplyFilter(Filter{Search: "pipeline"})
	require.Len(t, p.Filtered(), 1)

	p.ApplyFilter(Filter{Search: "mallory"})
	require.Len(t, p.Filtered(), 1)
	assert.Equal(t, 4, p.Filtered()[0].ID)
}

func TestFilterIsIdempotent(t *testing.T) {
	p := newProjection(10)
	p.replaceSource(sampleStages())

	f := Filter{Status: statusPtr(models.StatusPending), Search: "acme"}
	p.ApplyFilter(f)
	first := p.Filtered()
	p.ApplyFilter(f)
	second := p.Filtered()

	assert.Equal(t, first, second)
}

func TestFilterResetsToFirstPage(t *testing.T) {
	p := newProjection(1)
	p.replaceSource(sampleStages())
	p.SetPage(3)
	require.Equal(t, 3, p.Page())

	p.ApplyFilter(Filter{Search: "acme"})
	assert.Equal(t, 1, p.Page())
}

func TestSetPageClampsIntoRange(t *testing.T) {
	p := newProjection(2)
	p.replaceSource(sampleStages())

	p.SetPage(0)
	assert.Equal(t, 1, p.Page())

	p.SetPage(-5)
	assert.Equal(t, 1, p.Page())

	p.SetPage(99)
	assert.Equal(t, 2, p.Page())
	assert.Equal(t, 2, p.TotalPages())
}

func TestEmptyListIsNoDataOnPageOne(t *testing.T) {
	p := newProjection(10)
	p.replaceSource(nil)

	assert.Equal(t, 1, p.Page())
	assert.Equal(t, 1, p.TotalPages())
	assert.Empty(t, p.PageSlice())
	assert.Zero(t, p.Counts().Total)
}

func TestPageSliceWindowsFilteredList(t *testing.T) {
	p := newProjection(3)
	p.replaceSource(sampleStages())

	first := p.PageSlice()
	require.Len(t, first, 3)
	assert.Equal(t, 1, first[0].ID)

	p.SetPage(2)
	second := p.PageSlice()
	require.Len(t, second, 1)
	assert.Equal(t, 4, second[0].ID)
}

func TestCountsDeriveFromSourceNotFilteredList(t *testing.T) {
	p := newProjection(10)
	p.replaceSource(sampleStages())

	p.ApplyFilter(Filter{Status: statusPtr(models.StatusApproved)})

	counts := p.Counts()
	assert.Equal(t, models.Stats{Pending: 2, Approved: 1, Rejected: 1, Total: 4}, counts)
	assert.Equal(t, counts.Pending+counts.Approved+counts.Rejected, counts.Total)
}

func TestApplyStatusPatchRederivesEverything(t *testing.T) {
	p := newProjection(10)
	p.replaceSource(sampleStages())
	p.ApplyFilter(Filter{Status: statusPtr(models.StatusPending)})
	require.Len(t, p.Filtered(), 2)

	require.True(t, p.ApplyStatusPatch(1, models.StatusApproved))

	assert.Len(t, p.Filtered(), 1)
	assert.Equal(t, models.Stats{Pending: 1, Approved: 2, Rejected: 1, Total: 4}, p.Counts())
}

func TestApplyStatusPatchIgnoresUnknownID(t *testing.T) {
	p := newProjection(10)
	p.replaceSource(sampleStages())

	assert.False(t, p.ApplyStatusPatch(999, models.StatusApproved))
	assert.Equal(t, models.Stats{Pending: 2, Approved: 1, Rejected: 1, Total: 4}, p.Counts())
}

func TestPatchThenReplaceDoesNotDrift(t *testing.T) {
	p := newProjection(10)
	p.replaceSource(sampleStages())

	require.True(t, p.ApplyStatusPatch(1, models.StatusApproved))
	patched := p.Counts()

	authoritative := sampleStages()
	authoritative[0].Status = models.StatusApproved
	p.replaceSource(authoritative)

	assert.Equal(t, patched, p.Counts())
}

func TestReplaceStageReconcilesRecord(t *testing.T) {
	p := newProjection(10)
	p.replaceSource(sampleStages())

	server := sampleStages()[0]
	server.Status = models.StatusRejected
	require.True(t, p.replaceStage(server))

	assert.Equal(t, models.Stats{Pending: 1, Approved: 1, Rejected: 2, Total: 4}, p.Counts())
}

func TestAddStageGrowsSourceAndCounts(t *testing.T) {
	p := newProjection(10)
	p.replaceSource(sampleStages())

	p.addStage(models.Stage{ID: 5, StudentID: 7, Company: "Hooli", Subject: "Infra", Status: models.StatusPending})

	assert.Equal(t, 5, p.Len())
	assert.Equal(t, 3, p.Counts().Pending)
}

func TestPageClampAfterShrinkingFilter(t *testing.T) {
	p := newProjection(1)
	p.replaceSource(sampleStages())
	p.SetPage(4)
	require.Equal(t, 4, p.Page())

	require.True(t, p.ApplyStatusPatch(4, models.StatusApproved))
	p.ApplyFilter(Filter{Status: statusPtr(models.StatusPending)})

	assert.Equal(t, 1, p.Page())
	assert.Equal(t, 1, p.TotalPages())
}
