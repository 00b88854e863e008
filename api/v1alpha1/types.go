// Package v1alpha1 holds the request and error bodies of the job visit API.
// Resources are returned in their stored form.
package v1alpha1

type Error struct {
	Message   string  `json:"message"`
	RequestId *string `json:"requestId,omitempty"`
	// Missing lists the unmet checkout requirements.
	Missing []string `json:"missing,omitempty"`
}

type Address struct {
	Full     *string `json:"address_full,omitempty"`
	Street   *string `json:"address_street,omitempty"`
	Suburb   *string `json:"address_suburb,omitempty"`
	State    *string `json:"address_state,omitempty"`
	Postcode *string `json:"address_postcode,omitempty"`
}

type JobCreate struct {
	Title               string   `json:"title" validate:"notblank,max=200"`
	ProjectId           *string  `json:"project_id,omitempty" validate:"omitempty,uuid"`
	ScheduledDate       *string  `json:"scheduled_date,omitempty" validate:"omitempty,date"`
	ScheduledTime       *string  `json:"scheduled_time,omitempty" validate:"omitempty,clock"`
	AssignedTechnicians []string `json:"assigned_technicians,omitempty" validate:"dive,notblank"`
	Notes               *string  `json:"notes,omitempty"`
	Address             *Address `json:"address,omitempty"`
}

// JobPatch is a partial job update. A key mapped to null clears the field.
type JobPatch map[string]any

type Reschedule struct {
	ScheduledDate string  `json:"scheduled_date" validate:"required,date"`
	ScheduledTime *string `json:"scheduled_time,omitempty" validate:"omitempty,clock"`
}

type CheckIn struct {
	Technician *string `json:"technician,omitempty" validate:"omitempty,notblank"`
}

type Checkout struct {
	Technician              *string  `json:"technician,omitempty" validate:"omitempty,notblank"`
	Overview                string   `json:"overview"`
	NextSteps               string   `json:"next_steps"`
	CommunicationWithClient string   `json:"communication_with_client"`
	CompletionNotes         string   `json:"completion_notes"`
	Outcome                 string   `json:"outcome" validate:"omitempty,outcome"`
	PhotoUrls               []string `json:"photo_urls"`
}

type OutcomeSelection struct {
	Technician *string `json:"technician,omitempty" validate:"omitempty,notblank"`
	Outcome    string  `json:"outcome" validate:"required,outcome"`
}

type ScopeSeed struct {
	ProjectId string `json:"project_id" validate:"required,uuid"`
}

type TemplateItem struct {
	Type  string   `json:"type" validate:"required,item_type"`
	RefId string   `json:"ref_id" validate:"notblank"`
	Label string   `json:"label" validate:"notblank"`
	Qty   *float64 `json:"qty,omitempty" validate:"omitempty,gte=0"`
}

type ProjectCreate struct {
	Name     string         `json:"name" validate:"notblank,max=200"`
	Template []TemplateItem `json:"template" validate:"dive"`
}
