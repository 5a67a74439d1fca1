package dashboard

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/noah-isme/stage-portal/internal/models"
	"github.com/noah-isme/stage-portal/pkg/export"
)

// Exporter writes the currently filtered stage list to disk as CSV or PDF.
type Exporter struct {
	dir string
	csv *export.CSVExporter
	pdf *export.PDFExporter
	now func() time.Time
}

// NewExporter ensures the export directory exists and returns a handle.
func NewExporter(dir string) (*Exporter, error) {
	if dir == "" {
		dir = "./exports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	return &Exporter{
		dir: dir,
		csv: export.NewCSVExporter(),
		pdf: export.NewPDFExporter(),
		now: time.Now,
	}, nil
}

const exportDateLayout = "2006-01-02"

func stageDataset(stages []models.Stage) export.Dataset {
	data := export.Dataset{
		Title:   "Stages",
		Headers: []string{"ID", "Etudiant", "Entreprise", "Sujet", "Debut", "Fin", "Statut", "Declare le"},
	}
	for _, stage := range stages {
		data.Rows = append(data.Rows, []string{
			fmt.Sprintf("%d", stage.ID),
			stage.StudentName,
			stage.Company,
			stage.Subject,
			stage.StartDate.Format(exportDateLayout),
			stage.EndDate.Format(exportDateLayout),
			string(stage.Status),
			stage.DeclaredAt.Format(exportDateLayout),
		})
	}
	return data
}

// ExportCSV renders the given stages to a timestamped CSV file and returns
// its path.
func (e *Exporter) ExportCSV(stages []models.Stage) (string, error) {
	payload, err := e.csv.Render(stageDataset(stages))
	if err != nil {
		return "", err
	}
	return e.write("csv", payload)
}

// ExportPDF renders the given stages to a timestamped PDF file and returns
// its path.
func (e *Exporter) ExportPDF(stages []models.Stage) (string, error) {
	payload, err := e.pdf.Render(stageDataset(stages))
	if err != nil {
		return "", err
	}
	return e.write("pdf", payload)
}

func (e *Exporter) write(ext string, payload []byte) (string, error) {
	name := fmt.Sprintf("stages_%s.%s", e.now().Format("20060102T150405"), ext)
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, nil
}
