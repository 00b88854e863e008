package model

import (
	"time"

	"github.com/google/uuid"
)

// VisitSummary is written once per non-trivial checkout and never
// changed.
type VisitSummary struct {
	ID                      uuid.UUID `json:"id" gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	CreatedAt               time.Time `json:"created_at" gorm:"column:created_at;not null"`
	JobID                   uuid.UUID `json:"job_id" gorm:"column:job_id;type:VARCHAR(255);not null;index:visit_summaries_job_id_idx"`
	CheckInID               uuid.UUID `json:"checkin_id" gorm:"column:checkin_id;type:VARCHAR(255);not null;uniqueIndex"`
	Technician              string    `json:"technician" gorm:"column:technician;not null"`
	Overview                string    `json:"overview" gorm:"column:overview;type:text"`
	NextSteps               string    `json:"next_steps" gorm:"column:next_steps;type:text"`
	CommunicationWithClient string    `json:"communication_with_client" gorm:"column:communication_with_client;type:text"`
	CompletionNotes         string    `json:"completion_notes" gorm:"column:completion_notes;type:text"`
	Outcome                 string    `json:"outcome" gorm:"column:outcome;type:VARCHAR(32)"`
	PhotoURLs               []string  `json:"photo_urls" gorm:"column:photo_urls;serializer:json;type:text"`
	CheckInTime             time.Time `json:"check_in_time" gorm:"column:check_in_time;not null"`
	CheckOutTime            time.Time `json:"check_out_time" gorm:"column:check_out_time;not null"`
	DurationSeconds         int64     `json:"duration_seconds" gorm:"column:duration_seconds;not null"`
}

type VisitSummaryList []VisitSummary
