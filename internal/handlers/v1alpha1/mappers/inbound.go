package mappers

import (
	api "github.com/fieldservice/jobvisit/api/v1alpha1"
	"github.com/fieldservice/jobvisit/internal/lifecycle"
	"github.com/fieldservice/jobvisit/internal/scope"
	"github.com/fieldservice/jobvisit/internal/service/mappers"
	"github.com/fieldservice/jobvisit/internal/store/model"
)

func JobCreateToForm(req api.JobCreate) mappers.JobCreateForm {
	form := mappers.JobCreateForm{
		Title:               req.Title,
		ProjectID:           valueOf(req.ProjectId),
		ScheduledDate:       valueOf(req.ScheduledDate),
		ScheduledTime:       valueOf(req.ScheduledTime),
		AssignedTechnicians: req.AssignedTechnicians,
		Notes:               valueOf(req.Notes),
	}
	if req.Address != nil {
		form.Address = AddressToForm(*req.Address)
	}
	return form
}

func AddressToForm(req api.Address) mappers.AddressForm {
	return mappers.AddressForm{
		Full:     req.Full,
		Street:   req.Street,
		Suburb:   req.Suburb,
		State:    req.State,
		Postcode: req.Postcode,
	}
}

func CheckoutToForm(req api.Checkout) lifecycle.CheckoutForm {
	return lifecycle.CheckoutForm{
		Overview:                req.Overview,
		NextSteps:               req.NextSteps,
		CommunicationWithClient: req.CommunicationWithClient,
		CompletionNotes:         req.CompletionNotes,
		Outcome:                 req.Outcome,
		PhotoURLs:               req.PhotoUrls,
	}
}

func ProjectCreateToForm(req api.ProjectCreate) mappers.ProjectCreateForm {
	template := make([]model.TemplateItem, 0, len(req.Template))
	for _, t := range req.Template {
		template = append(template, model.TemplateItem{
			Type:  scope.ItemType(t.Type),
			RefID: t.RefId,
			Label: t.Label,
			Qty:   t.Qty,
		})
	}
	return mappers.ProjectCreateForm{Name: req.Name, Template: template}
}

func valueOf(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
