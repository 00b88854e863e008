package v1alpha1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	api "github.com/fieldservice/jobvisit/api/v1alpha1"
	"github.com/fieldservice/jobvisit/internal/auth"
	"github.com/fieldservice/jobvisit/internal/handlers/validator"
	"github.com/fieldservice/jobvisit/internal/service"
	"github.com/fieldservice/jobvisit/pkg/requestid"
)

func requestIDPtr(r *http.Request) *string {
	id := requestid.FromRequest(r)
	if id == "" {
		return nil
	}
	return &id
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, api.Error{Message: message, RequestId: requestIDPtr(r)})
}

// writeServiceError maps service errors to status codes. Validation is 400,
// outcome gating 403, missing resources 404 and lifecycle conflicts 409.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var (
		notFound      *service.ErrResourceNotFound
		already       *service.ErrAlreadyCheckedIn
		noOpen        *service.ErrNoOpenCheckIn
		notPermitted  *service.ErrOutcomeNotPermitted
		incomplete    *service.ErrCheckoutIncomplete
		invalidOut    *service.ErrInvalidOutcome
		invalidRef    *service.ErrInvalidScopeRef
		invalidPatch  *service.ErrInvalidScopePatch
		invalidField  *service.ErrInvalidField
		invalidDate   *service.ErrInvalidDate
		closed        *service.ErrJobClosed
		unsupported   *service.ErrUnsupportedReportFormat
		invalidReqErr *validator.ErrInvalidRequest
	)

	switch {
	case errors.As(err, &notFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.As(err, &notPermitted):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.As(err, &incomplete):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, api.Error{Message: err.Error(), Missing: incomplete.Missing, RequestId: requestIDPtr(r)})
	case errors.As(err, &already), errors.As(err, &noOpen), errors.As(err, &closed):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.As(err, &invalidOut), errors.As(err, &invalidRef), errors.As(err, &invalidPatch),
		errors.As(err, &invalidField), errors.As(err, &invalidDate), errors.As(err, &unsupported),
		errors.As(err, &invalidReqErr):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("%s: %v", fallback, err))
	}
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return validator.NewErrInvalidRequest("empty body")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return validator.NewErrInvalidRequest("failed to decode body: %v", err)
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, validator.NewErrInvalidRequest("invalid %s %q", name, chi.URLParam(r, name))
	}
	return id, nil
}

// technician resolves who a visit call is for: the body value when given,
// else the calling actor.
func technician(r *http.Request, fromBody *string) (string, bool) {
	if fromBody != nil {
		return *fromBody, true
	}
	actor, found := auth.ActorFromContext(r.Context())
	if !found || auth.IsAnonymous(actor) {
		return "", false
	}
	return actor.ID, true
}
