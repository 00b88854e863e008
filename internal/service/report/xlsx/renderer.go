package xlsx

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/fieldservice/jobvisit/internal/service/report/types"
)

const (
	SummarySheet = "Summary"
	VisitsSheet  = "Visits"
)

var visitColumns = []string{
	"Technician", "Check In", "Check Out", "Minutes", "Outcome",
	"Overview", "Next Steps", "Client Communication", "Completion Notes", "Photos",
}

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) SupportedFormat() types.ReportFormat {
	return types.ReportFormatXLSX
}

func (r *Renderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Render writes a workbook with a job summary sheet and one row per visit.
func (r *Renderer) Render(data *types.ReportData) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	// the default sheet becomes the summary
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := r.writeSummary(f, data); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(VisitsSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet %s: %w", VisitsSheet, err)
	}
	if err := r.writeVisits(f, data.Visits); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) writeSummary(f *excelize.File, data *types.ReportData) error {
	job := data.Job
	rows := [][]any{
		{"Job Visit Report"},
		{"Generated", fmt.Sprintf("%s %s", data.Timestamps.Generated, data.Timestamps.GeneratedTime)},
		{},
		{"Title", job.Title},
		{"Job ID", job.ID.String()},
		{"Status", job.Status},
		{"Outcome", job.Outcome},
		{"Scheduled Date", job.ScheduledDate},
		{"Address", job.AddressFull},
		{},
		{"Visits", data.Totals.Visits},
		{"Technicians", data.Totals.Technicians},
		{"Time On Site (min)", data.Totals.DurationMinutes},
		{"Photos", data.Totals.Photos},
	}
	return writeRows(f, SummarySheet, 1, rows)
}

func (r *Renderer) writeVisits(f *excelize.File, visits []types.VisitDetail) error {
	header := make([]any, 0, len(visitColumns))
	for _, c := range visitColumns {
		header = append(header, c)
	}
	rows := [][]any{header}
	for _, v := range visits {
		rows = append(rows, []any{
			v.Technician,
			v.CheckIn,
			v.CheckOut,
			v.DurationMinutes,
			v.Outcome,
			v.Overview,
			v.NextSteps,
			v.CommunicationWithClient,
			v.CompletionNotes,
			v.Photos,
		})
	}
	if err := writeRows(f, VisitsSheet, 1, rows); err != nil {
		return err
	}

	last, err := excelize.ColumnNumberToName(len(visitColumns))
	if err != nil {
		return err
	}
	return f.AutoFilter(VisitsSheet, fmt.Sprintf("A1:%s%d", last, len(rows)), nil)
}

func writeRows(f *excelize.File, sheet string, startRow int, rows [][]any) error {
	for i, row := range rows {
		for j, value := range row {
			col, err := excelize.ColumnNumberToName(j + 1)
			if err != nil {
				return err
			}
			cell := fmt.Sprintf("%s%d", col, startRow+i)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("failed to set cell %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}
