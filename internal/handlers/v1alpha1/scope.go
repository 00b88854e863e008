package v1alpha1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	api "github.com/fieldservice/jobvisit/api/v1alpha1"
	"github.com/fieldservice/jobvisit/internal/handlers/v1alpha1/mappers"
	"github.com/fieldservice/jobvisit/internal/scope"
)

func scopeRef(r *http.Request) scope.Ref {
	return scope.Ref{
		Kind: scope.RefKind(chi.URLParam(r, "kind")),
		ID:   chi.URLParam(r, "id"),
	}
}

// (GET /api/v1/scopes/{kind}/{id})
func (h *ServiceHandler) GetScope(w http.ResponseWriter, r *http.Request) {
	ref := scopeRef(r)

	items, err := h.scopeSrv.GetScope(r.Context(), ref)
	if err != nil {
		writeServiceError(w, r, err, "failed to get scope")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, mappers.ScopeToResponse(ref, items))
}

// PatchScope is the autosave endpoint. The response carries the
// authoritative list the client rebases on.
// (PATCH /api/v1/scopes/{kind}/{id})
func (h *ServiceHandler) PatchScope(w http.ResponseWriter, r *http.Request) {
	ref := scopeRef(r)

	var patch scope.Patch
	if err := decodeBody(r, &patch); err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	items, err := h.scopeSrv.PatchScope(r.Context(), ref, patch)
	if err != nil {
		writeServiceError(w, r, err, "failed to patch scope")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, mappers.ScopeToResponse(ref, items))
}

// (POST /api/v1/scopes/{kind}/{id}/seed)
func (h *ServiceHandler) SeedScope(w http.ResponseWriter, r *http.Request) {
	ref := scopeRef(r)

	var req api.ScopeSeed
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	items, err := h.scopeSrv.SeedFromProject(r.Context(), ref, uuid.MustParse(req.ProjectId))
	if err != nil {
		writeServiceError(w, r, err, "failed to seed scope")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, mappers.ScopeToResponse(ref, items))
}

// (GET /api/v1/jobs/{id}/visits)
func (h *ServiceHandler) ListVisits(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	visits, err := h.scopeSrv.ListVisits(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "failed to list visits")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, visits)
}

// CreateVisit opens a visit whose scope starts as a copy of the job's.
// (POST /api/v1/jobs/{id}/visits)
func (h *ServiceHandler) CreateVisit(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	visit, err := h.scopeSrv.CreateVisit(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "failed to create visit")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, visit)
}
