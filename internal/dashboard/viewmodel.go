package dashboard

import (
	"strings"
	"sync"

	"github.com/noah-isme/stage-portal/internal/models"
)

// Filter narrows the projected stage list. A nil Status means any status;
// Search is a case-insensitive substring over company, subject and student
// name.
type Filter struct {
	Status *models.StageStatus
	Search string
}

func (f Filter) matches(stage models.Stage) bool {
	if f.Status != nil && stage.Status != *f.Status {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		haystack := strings.ToLower(stage.Company + " " + stage.Subject + " " + stage.StudentName)
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

// projection is the derived view-model state shared by both roles: the
// cached authoritative list plus everything derived from it. Derived state
// is always recomputed from its inputs, never patched incrementally, so it
// cannot drift.
type projection struct {
	mu       sync.Mutex
	source   []models.Stage
	filter   Filter
	filtered []models.Stage
	page     int
	pageSize int
	counts   models.Stats
}

func newProjection(pageSize int) projection {
	if pageSize <= 0 {
		pageSize = 10
	}
	return projection{page: 1, pageSize: pageSize}
}

// recompute re-derives filtered list, counters and page clamp from the
// source list. Callers must hold the lock.
func (p *projection) recompute() {
	filtered := make([]models.Stage, 0, len(p.source))
	for _, stage := range p.source {
		if p.filter.matches(stage) {
			filtered = append(filtered, stage)
		}
	}
	p.filtered = filtered

	counts := models.Stats{Total: len(p.source)}
	for _, stage := range p.source {
		switch stage.Status {
		case models.StatusApproved:
			counts.Approved++
		case models.StatusRejected:
			counts.Rejected++
		default:
			counts.Pending++
		}
	}
	p.counts = counts

	p.page = clampPage(p.page, len(p.filtered), p.pageSize)
}

func clampPage(page, total, pageSize int) int {
	last := totalPages(total, pageSize)
	if page < 1 {
		return 1
	}
	if page > last {
		return last
	}
	return page
}

func totalPages(total, pageSize int) int {
	if total <= 0 {
		return 1
	}
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// replaceSource swaps the authoritative list atomically; partial updates
// are never observable.
func (p *projection) replaceSource(stages []models.Stage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.source = stages
	p.recompute()
}

// ApplyFilter re-derives the filtered list and resets to the first page.
// Applying the same filter twice yields the same result.
func (p *projection) ApplyFilter(f Filter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filter = f
	p.page = 1
	p.recompute()
}

// SetPage clamps the requested page into the valid range. An empty filtered
// list is a "no data" view on page 1, not an error.
func (p *projection) SetPage(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.page = clampPage(n, len(p.filtered), p.pageSize)
}

// Page returns the current page number.
func (p *projection) Page() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

// TotalPages returns the number of pages for the current filtered list.
func (p *projection) TotalPages() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return totalPages(len(p.filtered), p.pageSize)
}

// PageSlice returns a copy of the current page window.
func (p *projection) PageSlice() []models.Stage {
	p.mu.Lock()
	defer p.mu.Unlock()
	start := (p.page - 1) * p.pageSize
	if start >= len(p.filtered) {
		return []models.Stage{}
	}
	end := start + p.pageSize
	if end > len(p.filtered) {
		end = len(p.filtered)
	}
	window := make([]models.Stage, end-start)
	copy(window, p.filtered[start:end])
	return window
}

// Filtered returns a copy of the whole filtered list.
func (p *projection) Filtered() []models.Stage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.Stage, len(p.filtered))
	copy(out, p.filtered)
	return out
}

// Counts returns aggregate counters derived from the full source list,
// regardless of the active filter.
func (p *projection) Counts() models.Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts
}

// Len returns the size of the cached authoritative list.
func (p *projection) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.source)
}

// ApplyStatusPatch patches a single record's status after a confirmed
// mutation and re-derives everything that depends on it. Unknown ids are
// ignored.
func (p *projection) ApplyStatusPatch(id int, status models.StageStatus) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.source {
		if p.source[i].ID == id {
			p.source[i].Status = status
			p.recompute()
			return true
		}
	}
	return false
}

// replaceStage swaps one cached record for the server's authoritative copy,
// the reconciliation path after a conflict.
func (p *projection) replaceStage(stage models.Stage) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.source {
		if p.source[i].ID == stage.ID {
			p.source[i] = stage
			p.recompute()
			return true
		}
	}
	return false
}

// addStage appends a freshly created record to the cached list.
func (p *projection) addStage(stage models.Stage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.source = append(p.source, stage)
	p.recompute()
}
