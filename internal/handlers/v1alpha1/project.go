package v1alpha1

import (
	"net/http"

	"github.com/go-chi/render"

	api "github.com/fieldservice/jobvisit/api/v1alpha1"
	"github.com/fieldservice/jobvisit/internal/handlers/v1alpha1/mappers"
)

// (POST /api/v1/projects)
func (h *ServiceHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req api.ProjectCreate
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	project, err := h.projectSrv.CreateProject(r.Context(), mappers.ProjectCreateToForm(req))
	if err != nil {
		writeServiceError(w, r, err, "failed to create project")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, project)
}

// (GET /api/v1/projects/{id})
func (h *ServiceHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	project, err := h.projectSrv.GetProject(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "failed to get project")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, project)
}
