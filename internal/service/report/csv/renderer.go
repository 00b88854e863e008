package csv

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/fieldservice/jobvisit/internal/service/report/types"
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) SupportedFormat() types.ReportFormat {
	return types.ReportFormatCSV
}

func (r *Renderer) ContentType() string {
	return "text/csv"
}

func (r *Renderer) Render(data *types.ReportData) ([]byte, error) {
	var csvRows [][]string

	csvRows = append(csvRows, []string{"JOB VISIT REPORT"})
	csvRows = append(csvRows, []string{fmt.Sprintf("Generated: %s at %s",
		data.Timestamps.Generated, data.Timestamps.GeneratedTime)})
	csvRows = append(csvRows, []string{""})

	csvRows = r.addJobDetails(csvRows, data)
	csvRows = r.addTotals(csvRows, data.Totals)

	if len(data.Visits) == 0 {
		csvRows = append(csvRows, []string{"No visits recorded for this job."})
		return r.convertRowsToCSV(csvRows)
	}
	csvRows = r.addVisits(csvRows, data.Visits)

	return r.convertRowsToCSV(csvRows)
}

func (r *Renderer) addJobDetails(csvRows [][]string, data *types.ReportData) [][]string {
	job := data.Job
	csvRows = append(csvRows, []string{"Job", "Value"})
	csvRows = append(csvRows, []string{"Title", job.Title})
	csvRows = append(csvRows, []string{"Job ID", job.ID.String()})
	csvRows = append(csvRows, []string{"Status", job.Status})
	csvRows = append(csvRows, []string{"Outcome", job.Outcome})
	csvRows = append(csvRows, []string{"Scheduled", strings.TrimSpace(job.ScheduledDate + " " + job.ScheduledTime)})
	csvRows = append(csvRows, []string{"Address", job.AddressFull})
	csvRows = append(csvRows, []string{""})
	return csvRows
}

func (r *Renderer) addTotals(csvRows [][]string, totals types.VisitTotals) [][]string {
	csvRows = append(csvRows, []string{"Totals", "Value"})
	csvRows = append(csvRows, []string{"Visits", fmt.Sprintf("%d", totals.Visits)})
	csvRows = append(csvRows, []string{"Technicians", fmt.Sprintf("%d", totals.Technicians)})
	csvRows = append(csvRows, []string{"Time On Site (min)", fmt.Sprintf("%d", totals.DurationMinutes)})
	csvRows = append(csvRows, []string{"Photos", fmt.Sprintf("%d", totals.Photos)})
	csvRows = append(csvRows, []string{""})
	return csvRows
}

func (r *Renderer) addVisits(csvRows [][]string, visits []types.VisitDetail) [][]string {
	csvRows = append(csvRows, visitHeader)
	for _, v := range visits {
		csvRows = append(csvRows, []string{
			v.Technician,
			v.CheckIn,
			v.CheckOut,
			fmt.Sprintf("%d", v.DurationMinutes),
			v.Outcome,
			v.Overview,
			v.NextSteps,
			v.CommunicationWithClient,
			v.CompletionNotes,
			fmt.Sprintf("%d", v.Photos),
		})
	}
	return csvRows
}

var visitHeader = []string{
	"Technician", "Check In", "Check Out", "Minutes", "Outcome",
	"Overview", "Next Steps", "Client Communication", "Completion Notes", "Photos",
}

func (r *Renderer) convertRowsToCSV(csvRows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	for _, row := range csvRows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV writer: %w", err)
	}

	return buf.Bytes(), nil
}
