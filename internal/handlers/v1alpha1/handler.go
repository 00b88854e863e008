package v1alpha1

import (
	"github.com/go-chi/chi/v5"

	"github.com/fieldservice/jobvisit/internal/handlers/validator"
	"github.com/fieldservice/jobvisit/internal/service"
)

type ServiceHandler struct {
	jobSrv     *service.JobService
	visitSrv   *service.VisitService
	scopeSrv   *service.ScopeService
	projectSrv *service.ProjectService
	reportSrv  *service.ReportService
	validator  *validator.Validator
}

func NewServiceHandler(
	jobSrv *service.JobService,
	visitSrv *service.VisitService,
	scopeSrv *service.ScopeService,
	projectSrv *service.ProjectService,
	reportSrv *service.ReportService,
) *ServiceHandler {
	v := validator.NewValidator()
	v.Register(validator.NewJobValidationRules()...)
	v.Register(validator.NewVisitValidationRules()...)
	v.Register(validator.NewScopeValidationRules()...)

	return &ServiceHandler{
		jobSrv:     jobSrv,
		visitSrv:   visitSrv,
		scopeSrv:   scopeSrv,
		projectSrv: projectSrv,
		reportSrv:  reportSrv,
		validator:  v,
	}
}

// Routes mounts the v1 API under /api/v1.
func (h *ServiceHandler) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", h.ListJobs)
			r.Post("/", h.CreateJob)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetJob)
				r.Patch("/", h.UpdateJob)
				r.Delete("/", h.DeleteJob)
				r.Patch("/draft", h.UpdateJobDraft)
				r.Put("/address", h.UpdateJobAddress)
				r.Post("/reschedule", h.RescheduleJob)
				r.Post("/cancel", h.CancelJob)
				r.Get("/checkins", h.ListCheckIns)
				r.Post("/checkins", h.CheckIn)
				r.Post("/checkout", h.CheckOut)
				r.Put("/outcome", h.SelectOutcome)
				r.Get("/summaries", h.ListSummaries)
				r.Get("/summaries/export", h.ExportSummaries)
				r.Get("/visits", h.ListVisits)
				r.Post("/visits", h.CreateVisit)
			})
		})
		r.Route("/scopes/{kind}/{id}", func(r chi.Router) {
			r.Get("/", h.GetScope)
			r.Patch("/", h.PatchScope)
			r.Post("/seed", h.SeedScope)
		})
		r.Route("/projects", func(r chi.Router) {
			r.Post("/", h.CreateProject)
			r.Get("/{id}", h.GetProject)
		})
	})
}
