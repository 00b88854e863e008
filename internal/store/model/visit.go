package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/fieldservice/jobvisit/internal/scope"
)

// Visit owns the scope list of one trip to a job.
type Visit struct {
	ID         uuid.UUID    `json:"id" gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	CreatedAt  time.Time    `json:"created_at" gorm:"column:created_at;not null"`
	UpdatedAt  *time.Time   `json:"updated_at,omitempty" gorm:"column:updated_at"`
	JobID      uuid.UUID    `json:"job_id" gorm:"column:job_id;type:VARCHAR(255);not null;index:visits_job_id_idx"`
	ScopeItems []scope.Item `json:"scope_items" gorm:"column:scope_items;serializer:json;type:text"`
	// Version is bumped on every scope write.
	Version int `json:"version" gorm:"column:version;not null;default:0"`
}
