package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CheckIn is one technician's presence on a job. It is open until
// CheckOutTime is set and immutable afterwards.
type CheckIn struct {
	ID              uuid.UUID  `json:"id" gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	JobID           uuid.UUID  `json:"job_id" gorm:"column:job_id;type:VARCHAR(255);not null;index:checkins_job_id_idx"`
	Technician      string     `json:"technician" gorm:"column:technician;not null"`
	CheckInTime     time.Time  `json:"check_in_time" gorm:"column:check_in_time;not null"`
	CheckOutTime    *time.Time `json:"check_out_time,omitempty" gorm:"column:check_out_time"`
	SelectedOutcome string     `json:"selected_outcome,omitempty" gorm:"column:selected_outcome;type:VARCHAR(32)"`
	// Trivial marks a check-out that came too soon to count as a visit.
	Trivial bool `json:"trivial" gorm:"column:trivial;not null"`
}

type CheckInList []CheckIn

func (c CheckIn) IsOpen() bool {
	return c.CheckOutTime == nil
}

func (c CheckIn) String() string {
	val, _ := json.Marshal(c)
	return string(val)
}
