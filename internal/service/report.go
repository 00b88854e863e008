package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldservice/jobvisit/internal/service/report"
	"github.com/fieldservice/jobvisit/internal/service/report/csv"
	"github.com/fieldservice/jobvisit/internal/service/report/types"
	"github.com/fieldservice/jobvisit/internal/service/report/xlsx"
	"github.com/fieldservice/jobvisit/pkg/clock"
	"github.com/fieldservice/jobvisit/pkg/log"
)

type ReportFormat = types.ReportFormat

const (
	ReportFormatCSV  = types.ReportFormatCSV
	ReportFormatXLSX = types.ReportFormatXLSX
)

type Report struct {
	Filename    string
	ContentType string
	Content     []byte
}

type ReportService struct {
	visits    *VisitService
	processor types.SummaryProcessor
	renderers map[types.ReportFormat]types.ReportRenderer
	logger    *log.StructuredLogger
}

func NewReportService(visits *VisitService, c clock.Clock, location *time.Location) *ReportService {
	service := &ReportService{
		visits:    visits,
		processor: report.NewStandardSummaryProcessor(c, location),
		renderers: make(map[types.ReportFormat]types.ReportRenderer),
		logger:    log.NewDebugLogger("report_service"),
	}

	csvRenderer := csv.NewRenderer()
	xlsxRenderer := xlsx.NewRenderer()

	service.renderers[csvRenderer.SupportedFormat()] = csvRenderer
	service.renderers[xlsxRenderer.SupportedFormat()] = xlsxRenderer

	return service
}

// GenerateSummaryReport exports the job's visit summaries.
func (r *ReportService) GenerateSummaryReport(ctx context.Context, jobID uuid.UUID, format ReportFormat) (*Report, error) {
	tracer := r.logger.WithContext(ctx).Operation("generate_summary_report").
		WithUUID("job_id", jobID).
		WithString("format", string(format)).
		Build()

	renderer, exists := r.renderers[format]
	if !exists {
		return nil, NewErrUnsupportedReportFormat(string(format))
	}

	job, summaries, err := r.visits.ListSummaries(ctx, jobID)
	if err != nil {
		return nil, err
	}

	data, err := r.processor.ProcessSummaries(job, summaries)
	if err != nil {
		return nil, fmt.Errorf("failed to process visit summaries: %w", err)
	}

	content, err := renderer.Render(data)
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	tracer.Success().WithInt("visits", len(summaries)).WithInt("bytes", len(content)).Log()
	return &Report{
		Filename:    fmt.Sprintf("job-%s-visits.%s", jobID, format),
		ContentType: renderer.ContentType(),
		Content:     content,
	}, nil
}
