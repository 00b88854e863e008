package v1alpha1

import (
	"net/http"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	api "github.com/fieldservice/jobvisit/api/v1alpha1"
	"github.com/fieldservice/jobvisit/internal/auth"
	"github.com/fieldservice/jobvisit/internal/guardrail"
	"github.com/fieldservice/jobvisit/internal/handlers/v1alpha1/mappers"
	"github.com/fieldservice/jobvisit/internal/service"
)

// (GET /api/v1/jobs)
func (h *ServiceHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := service.JobFilter{
		Status:        q["status"],
		ProjectID:     q.Get("project_id"),
		ScheduledDate: q.Get("scheduled_date"),
		Technician:    q.Get("technician"),
	}

	jobs, err := h.jobSrv.ListJobs(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err, "failed to list jobs")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, jobs)
}

// (POST /api/v1/jobs)
func (h *ServiceHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req api.JobCreate
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	job, err := h.jobSrv.CreateJob(r.Context(), mappers.JobCreateToForm(req))
	if err != nil {
		writeServiceError(w, r, err, "failed to create job")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, job)
}

// (GET /api/v1/jobs/{id})
func (h *ServiceHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	job, err := h.jobSrv.GetJob(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "failed to get job")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, job)
}

// (DELETE /api/v1/jobs/{id})
func (h *ServiceHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	if err := h.jobSrv.DeleteJob(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "failed to delete job")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateJob applies a guarded partial update on behalf of the calling actor.
// (PATCH /api/v1/jobs/{id})
func (h *ServiceHandler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	var req api.JobPatch
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	job, err := h.jobSrv.UpdateJob(r.Context(), id, actor, guardrail.Patch(req))
	if err != nil {
		writeServiceError(w, r, err, "failed to update job")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, job)
}

// UpdateJobDraft is the autosave path. Only draft-safe fields are kept and
// empty values never overwrite stored ones.
// (PATCH /api/v1/jobs/{id}/draft)
func (h *ServiceHandler) UpdateJobDraft(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	var req api.JobPatch
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	job, err := h.jobSrv.SafeUpdateDraft(r.Context(), id, actor.ID, guardrail.Patch(req))
	if err != nil {
		writeServiceError(w, r, err, "failed to save draft")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, job)
}

// (PUT /api/v1/jobs/{id}/address)
func (h *ServiceHandler) UpdateJobAddress(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	var req api.Address
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	job, err := h.jobSrv.UpdateAddress(r.Context(), id, mappers.AddressToForm(req))
	if err != nil {
		writeServiceError(w, r, err, "failed to update address")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, job)
}

// (POST /api/v1/jobs/{id}/reschedule)
func (h *ServiceHandler) RescheduleJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	var req api.Reschedule
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	at := ""
	if req.ScheduledTime != nil {
		at = *req.ScheduledTime
	}

	job, err := h.jobSrv.Reschedule(r.Context(), id, req.ScheduledDate, at)
	if err != nil {
		writeServiceError(w, r, err, "failed to reschedule job")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, job)
}

// (POST /api/v1/jobs/{id}/cancel)
func (h *ServiceHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	job, err := h.jobSrv.Cancel(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "failed to cancel job")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, job)
}

func (h *ServiceHandler) requireActor(w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	actor, found := auth.ActorFromContext(r.Context())
	if !found || auth.IsAnonymous(actor) {
		zap.S().Named("handler").Debugw("rejected anonymous request", "path", r.URL.Path)
		writeError(w, r, http.StatusUnauthorized, "an actor id is required")
		return auth.Actor{}, false
	}
	return actor, true
}
