package report

import (
	"time"

	"github.com/fieldservice/jobvisit/internal/service/report/types"
	"github.com/fieldservice/jobvisit/internal/store/model"
	"github.com/fieldservice/jobvisit/pkg/clock"
)

const timeLayout = "2006-01-02 15:04"

type StandardSummaryProcessor struct {
	clock    clock.Clock
	location *time.Location
}

func NewStandardSummaryProcessor(c clock.Clock, location *time.Location) *StandardSummaryProcessor {
	if location == nil {
		location = time.UTC
	}
	return &StandardSummaryProcessor{clock: c, location: location}
}

func (p *StandardSummaryProcessor) ProcessSummaries(job *model.Job, summaries model.VisitSummaryList) (*types.ReportData, error) {
	visits := make([]types.VisitDetail, 0, len(summaries))
	technicians := map[string]struct{}{}
	totals := types.VisitTotals{Visits: len(summaries)}

	for _, s := range summaries {
		minutes := int(s.DurationSeconds / 60)
		visits = append(visits, types.VisitDetail{
			Technician:              s.Technician,
			CheckIn:                 s.CheckInTime.In(p.location).Format(timeLayout),
			CheckOut:                s.CheckOutTime.In(p.location).Format(timeLayout),
			DurationMinutes:         minutes,
			Outcome:                 s.Outcome,
			Overview:                s.Overview,
			NextSteps:               s.NextSteps,
			CommunicationWithClient: s.CommunicationWithClient,
			CompletionNotes:         s.CompletionNotes,
			Photos:                  len(s.PhotoURLs),
		})
		technicians[s.Technician] = struct{}{}
		totals.DurationMinutes += minutes
		totals.Photos += len(s.PhotoURLs)
		if s.Outcome != "" {
			totals.LastOutcome = s.Outcome
		}
	}
	totals.Technicians = len(technicians)

	return &types.ReportData{
		Job:        job,
		Visits:     visits,
		Totals:     totals,
		Timestamps: p.generateTimestamps(),
	}, nil
}

func (p *StandardSummaryProcessor) generateTimestamps() types.ReportTimestamps {
	now := p.clock.Now().In(p.location)
	return types.ReportTimestamps{
		Generated:     now.Format("2006-01-02"),
		GeneratedTime: now.Format("15:04:05"),
	}
}
