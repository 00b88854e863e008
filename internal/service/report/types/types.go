package types

import (
	"github.com/fieldservice/jobvisit/internal/store/model"
)

type ReportRenderer interface {
	Render(data *ReportData) ([]byte, error)
	SupportedFormat() ReportFormat
	ContentType() string
}

type SummaryProcessor interface {
	ProcessSummaries(job *model.Job, summaries model.VisitSummaryList) (*ReportData, error)
}

type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatXLSX ReportFormat = "xlsx"
)

type ReportData struct {
	Job        *model.Job
	Visits     []VisitDetail
	Totals     VisitTotals
	Timestamps ReportTimestamps
}

type VisitDetail struct {
	Technician              string
	CheckIn                 string
	CheckOut                string
	DurationMinutes         int
	Outcome                 string
	Overview                string
	NextSteps               string
	CommunicationWithClient string
	CompletionNotes         string
	Photos                  int
}

type VisitTotals struct {
	Visits          int
	Technicians     int
	DurationMinutes int
	Photos          int
	// LastOutcome is the outcome of the most recent visit that set one.
	LastOutcome string
}

type ReportTimestamps struct {
	Generated     string
	GeneratedTime string
}
