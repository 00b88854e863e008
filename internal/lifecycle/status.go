package lifecycle

import (
	"time"

	"github.com/fieldservice/jobvisit/pkg/clock"
)

type Status string

const (
	StatusOpen       Status = "Open"
	StatusScheduled  Status = "Scheduled"
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
	StatusCancelled  Status = "Cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

type Outcome string

const (
	OutcomeNewQuote            Outcome = "new_quote"
	OutcomeUpdateQuote         Outcome = "update_quote"
	OutcomeSendInvoice         Outcome = "send_invoice"
	OutcomeCompleted           Outcome = "completed"
	OutcomeReturnVisitRequired Outcome = "return_visit_required"
)

func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeNewQuote, OutcomeUpdateQuote, OutcomeSendInvoice, OutcomeCompleted, OutcomeReturnVisitRequired:
		return true
	default:
		return false
	}
}

// Completes reports whether the outcome finishes the job.
func (o Outcome) Completes() bool {
	return o == OutcomeCompleted || o == OutcomeSendInvoice
}

const DateLayout = "2006-01-02"

type StatusInput struct {
	// ScheduledDate is a calendar date in DateLayout; empty when unscheduled.
	ScheduledDate    string
	Outcome          Outcome
	CurrentStatus    Status
	HasActiveCheckIn bool
}

// StatusDeriver computes the overall job status. "Today" is taken from the
// injected clock in the configured location.
type StatusDeriver struct {
	clock    clock.Clock
	location *time.Location
}

func NewStatusDeriver(c clock.Clock, location *time.Location) *StatusDeriver {
	if location == nil {
		location = time.UTC
	}
	return &StatusDeriver{clock: c, location: location}
}

// Derive evaluates, first match wins:
//  1. scheduled strictly after today: Scheduled
//  2. currently Cancelled: Cancelled
//  3. outcome completed or send_invoice: Completed
//  4. a technician is checked in: InProgress
//  5. otherwise: Open
func (d *StatusDeriver) Derive(in StatusInput) Status {
	if d.isFuture(in.ScheduledDate) {
		return StatusScheduled
	}
	if in.CurrentStatus == StatusCancelled {
		return StatusCancelled
	}
	if in.Outcome.Completes() {
		return StatusCompleted
	}
	if in.HasActiveCheckIn {
		return StatusInProgress
	}
	return StatusOpen
}

// Today returns the current calendar date in DateLayout.
func (d *StatusDeriver) Today() string {
	return d.clock.Now().In(d.location).Format(DateLayout)
}

func (d *StatusDeriver) isFuture(date string) bool {
	if date == "" {
		return false
	}
	scheduled, err := time.ParseInLocation(DateLayout, date, d.location)
	if err != nil {
		return false
	}
	return scheduled.Format(DateLayout) > d.Today()
}

// ValidDate reports whether date is a calendar date in DateLayout.
func ValidDate(date string) bool {
	_, err := time.Parse(DateLayout, date)
	return err == nil
}
