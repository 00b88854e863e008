package lifecycle

import (
	"github.com/fieldservice/jobvisit/internal/store/model"
)

type TechnicianState int

const (
	NotCheckedIn TechnicianState = iota
	CheckedIn
	CheckedOut
)

func (s TechnicianState) String() string {
	switch s {
	case CheckedIn:
		return "checked-in"
	case CheckedOut:
		return "checked-out"
	default:
		return "not-checked-in"
	}
}

// OpenCheckIns returns the records without a check-out time.
func OpenCheckIns(checkIns []model.CheckIn) []model.CheckIn {
	open := make([]model.CheckIn, 0, len(checkIns))
	for _, c := range checkIns {
		if c.IsOpen() {
			open = append(open, c)
		}
	}
	return open
}

// OpenCheckInFor returns the open record of technician, if any.
func OpenCheckInFor(checkIns []model.CheckIn, technician string) (model.CheckIn, bool) {
	for _, c := range checkIns {
		if c.IsOpen() && c.Technician == technician {
			return c, true
		}
	}
	return model.CheckIn{}, false
}

// IsLastActiveTechnician holds iff exactly one open record exists and it
// belongs to technician.
func IsLastActiveTechnician(checkIns []model.CheckIn, technician string) bool {
	open := OpenCheckIns(checkIns)
	return len(open) == 1 && open[0].Technician == technician
}

// StateOf returns where technician stands on the job.
func StateOf(checkIns []model.CheckIn, technician string) TechnicianState {
	state := NotCheckedIn
	for _, c := range checkIns {
		if c.Technician != technician {
			continue
		}
		if c.IsOpen() {
			return CheckedIn
		}
		state = CheckedOut
	}
	return state
}
