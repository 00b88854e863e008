package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldservice/jobvisit/internal/scope"
)

// Job is the long-lived record of one piece of work at one address.
// JSON names double as column names and as record/patch keys.
type Job struct {
	ID                  uuid.UUID  `json:"id" gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	CreatedAt           time.Time  `json:"created_at" gorm:"column:created_at;not null"`
	UpdatedAt           *time.Time `json:"updated_at,omitempty" gorm:"column:updated_at"`
	Title               string     `json:"title" gorm:"column:title;not null"`
	ProjectID           string     `json:"project_id" gorm:"column:project_id;type:VARCHAR(255);index:jobs_project_id_idx"`
	ScheduledDate       string     `json:"scheduled_date" gorm:"column:scheduled_date;type:VARCHAR(10);index:jobs_scheduled_date_idx"`
	ScheduledTime       string     `json:"scheduled_time" gorm:"column:scheduled_time;type:VARCHAR(5)"`
	AssignedTechnicians []string   `json:"assigned_technicians" gorm:"column:assigned_technicians;serializer:json;type:text"`
	Status              string     `json:"status" gorm:"column:status;type:VARCHAR(20);not null;index:jobs_status_idx"`
	Outcome             string     `json:"outcome" gorm:"column:outcome;type:VARCHAR(32)"`

	Measurements    map[string]any `json:"measurements" gorm:"column:measurements;serializer:json;type:text"`
	PhotoURLs       []string       `json:"photo_urls" gorm:"column:photo_urls;serializer:json;type:text"`
	Notes           string         `json:"notes" gorm:"column:notes;type:text"`
	PricingProvided string         `json:"pricing_provided" gorm:"column:pricing_provided;type:text"`
	AdditionalInfo  string         `json:"additional_info" gorm:"column:additional_info;type:text"`
	IssuesFound     string         `json:"issues_found" gorm:"column:issues_found;type:text"`
	Resolution      string         `json:"resolution" gorm:"column:resolution;type:text"`

	Overview                string `json:"overview" gorm:"column:overview;type:text"`
	CompletionNotes         string `json:"completion_notes" gorm:"column:completion_notes;type:text"`
	NextSteps               string `json:"next_steps" gorm:"column:next_steps;type:text"`
	CommunicationWithClient string `json:"communication_with_client" gorm:"column:communication_with_client;type:text"`

	AddressFull     string `json:"address_full" gorm:"column:address_full;type:text"`
	AddressStreet   string `json:"address_street" gorm:"column:address_street;type:text"`
	AddressSuburb   string `json:"address_suburb" gorm:"column:address_suburb;type:text"`
	AddressState    string `json:"address_state" gorm:"column:address_state;type:text"`
	AddressPostcode string `json:"address_postcode" gorm:"column:address_postcode;type:text"`

	// ScopeItems is used when no visit owns the scope list.
	ScopeItems []scope.Item `json:"scope_items" gorm:"column:scope_items;serializer:json;type:text"`
}

type JobList []Job

func (j Job) String() string {
	val, _ := json.Marshal(j)
	return string(val)
}

// system-managed keys that a patch may not write
var readOnlyJobFields = map[string]struct{}{
	"id":          {},
	"created_at":  {},
	"updated_at":  {},
	"scope_items": {},
}

var jobFields = func() map[string]struct{} {
	rec, _ := Job{}.ToRecord()
	fields := make(map[string]struct{}, len(rec))
	for k := range rec {
		fields[k] = struct{}{}
	}
	fields["updated_at"] = struct{}{}
	return fields
}()

// IsPatchableJobField reports whether field names a job column a patch may
// write.
func IsPatchableJobField(field string) bool {
	if _, ok := readOnlyJobFields[field]; ok {
		return false
	}
	_, ok := jobFields[field]
	return ok
}

// CheckJobFieldValue reports whether value has a JSON shape the job field
// can hold. nil always fits since it clears the field.
func CheckJobFieldValue(field string, value any) error {
	if value == nil {
		return nil
	}
	data, err := json.Marshal(map[string]any{field: value})
	if err != nil {
		return err
	}
	var j Job
	return json.Unmarshal(data, &j)
}

// ToRecord returns the job as a generic field map, in the shapes
// encoding/json produces.
func (j Job) ToRecord() (map[string]any, error) {
	data, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	rec := map[string]any{}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// JobFromRecord is the inverse of ToRecord. A key mapped to nil leaves the
// field at its zero value.
func JobFromRecord(rec map[string]any) (*Job, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("failed to decode job record: %w", err)
	}
	return &j, nil
}
