package mappers

import (
	"time"

	"github.com/google/uuid"

	"github.com/fieldservice/jobvisit/internal/store/model"
)

type JobCreateForm struct {
	Title               string
	ProjectID           string
	ScheduledDate       string
	ScheduledTime       string
	AssignedTechnicians []string
	Notes               string
	Address             AddressForm
}

func (f JobCreateForm) ToModel() model.Job {
	return model.Job{
		ID:                  uuid.New(),
		Title:               f.Title,
		ProjectID:           f.ProjectID,
		ScheduledDate:       f.ScheduledDate,
		ScheduledTime:       f.ScheduledTime,
		AssignedTechnicians: f.AssignedTechnicians,
		Notes:               f.Notes,
		AddressFull:         valueOf(f.Address.Full),
		AddressStreet:       valueOf(f.Address.Street),
		AddressSuburb:       valueOf(f.Address.Suburb),
		AddressState:        valueOf(f.Address.State),
		AddressPostcode:     valueOf(f.Address.Postcode),
	}
}

// AddressForm is a manual address edit. Nil fields are left unchanged.
type AddressForm struct {
	Full     *string
	Street   *string
	Suburb   *string
	State    *string
	Postcode *string
}

// ToPatch returns the address columns to overwrite.
func (f AddressForm) ToPatch() map[string]any {
	patch := map[string]any{}
	for field, v := range map[string]*string{
		"address_full":     f.Full,
		"address_street":   f.Street,
		"address_suburb":   f.Suburb,
		"address_state":    f.State,
		"address_postcode": f.Postcode,
	} {
		if v != nil {
			patch[field] = *v
		}
	}
	return patch
}

type ProjectCreateForm struct {
	Name     string
	Template []model.TemplateItem
}

func (f ProjectCreateForm) ToModel() model.Project {
	return model.Project{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		Name:      f.Name,
		Template:  f.Template,
	}
}

func valueOf(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
