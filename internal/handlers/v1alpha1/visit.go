package v1alpha1

import (
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	api "github.com/fieldservice/jobvisit/api/v1alpha1"
	"github.com/fieldservice/jobvisit/internal/handlers/v1alpha1/mappers"
	"github.com/fieldservice/jobvisit/internal/service"
)

// (GET /api/v1/jobs/{id}/checkins)
func (h *ServiceHandler) ListCheckIns(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	checkIns, err := h.visitSrv.ListCheckIns(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "failed to list check-ins")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, checkIns)
}

// (POST /api/v1/jobs/{id}/checkins)
func (h *ServiceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	var req api.CheckIn
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeServiceError(w, r, err, "")
			return
		}
		if err := h.validator.Struct(req); err != nil {
			writeServiceError(w, r, err, "")
			return
		}
	}

	tech, ok := technician(r, req.Technician)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "a technician is required")
		return
	}

	checkIn, err := h.visitSrv.CheckIn(r.Context(), id, tech)
	if err != nil {
		writeServiceError(w, r, err, "failed to check in")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, checkIn)
}

// (POST /api/v1/jobs/{id}/checkout)
func (h *ServiceHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	var req api.Checkout
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	tech, ok := technician(r, req.Technician)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "a technician is required")
		return
	}

	res, err := h.visitSrv.CheckOut(r.Context(), id, tech, mappers.CheckoutToForm(req))
	if err != nil {
		writeServiceError(w, r, err, "failed to check out")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, mappers.CheckoutResultToResponse(res))
}

// SelectOutcome stages the outcome on the caller's open check-in.
// (PUT /api/v1/jobs/{id}/outcome)
func (h *ServiceHandler) SelectOutcome(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	var req api.OutcomeSelection
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	tech, ok := technician(r, req.Technician)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "a technician is required")
		return
	}

	checkIn, err := h.visitSrv.SelectOutcome(r.Context(), id, tech, req.Outcome)
	if err != nil {
		writeServiceError(w, r, err, "failed to select outcome")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, checkIn)
}

// (GET /api/v1/jobs/{id}/summaries)
func (h *ServiceHandler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	job, summaries, err := h.visitSrv.ListSummaries(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "failed to list visit summaries")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, mappers.SummariesResponse{Job: job, Summaries: summaries})
}

// (GET /api/v1/jobs/{id}/summaries/export)
func (h *ServiceHandler) ExportSummaries(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	format := service.ReportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = service.ReportFormatXLSX
	}

	report, err := h.reportSrv.GenerateSummaryReport(r.Context(), id, format)
	if err != nil {
		writeServiceError(w, r, err, "failed to export visit summaries")
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+report.Filename+"\"")
	w.Header().Set("Content-Length", strconv.Itoa(len(report.Content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(report.Content)
}
