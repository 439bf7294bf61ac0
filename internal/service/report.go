package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/campusdesk/complaint-console/pkg/errors"
	"github.com/campusdesk/complaint-console/pkg/export"
)

type reportGenerator interface {
	GenerateReport(ctx context.Context) (string, error)
}

// ReportFormat selects the export rendering.
type ReportFormat string

const (
	FormatCSV ReportFormat = "csv"
	FormatPDF ReportFormat = "pdf"
)

// ReportServiceParams groups ReportService constructor dependencies.
type ReportServiceParams struct {
	API    reportGenerator
	Logger *zap.Logger
}

// ReportService generates aggregate reports and exports complaint datasets.
// Exports go through the admin projection, so anonymity masking applies to
// files exactly as it does on screen.
type ReportService struct {
	api    reportGenerator
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewReportService constructs a ReportService.
func NewReportService(params ReportServiceParams) *ReportService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		api:    params.API,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// Generate asks the service for an aggregate report rendered as text.
func (s *ReportService) Generate(ctx context.Context) (string, error) {
	report, err := s.api.GenerateReport(ctx)
	if err != nil {
		return "", err
	}
	s.logger.Info("report generated", zap.Int("bytes", len(report)))
	return report, nil
}

// ExportDataset renders the projected complaints as a CSV or PDF table.
func (s *ReportService) ExportDataset(projections []Projection, format ReportFormat) ([]byte, error) {
	dataset := export.Dataset{
		Headers: []string{"ID", "Heading", "Status", "Submitter", "Anonymous", "Public", "Created", "Updated"},
	}
	for _, p := range projections {
		dataset.Rows = append(dataset.Rows, []string{
			p.ID,
			p.Heading,
			string(p.Status),
			p.SubmitterLabel,
			fmt.Sprintf("%t", p.IsAnonymous),
			fmt.Sprintf("%t", p.IsPublic),
			formatTime(p.CreatedAt),
			formatTime(p.UpdatedAt),
		})
	}

	switch format {
	case FormatCSV:
		return s.csv.Render(dataset)
	case FormatPDF:
		return s.pdf.Render(dataset, "Complaint Overview")
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
