package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id uuid.UUID, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrJobNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "job")
}

func NewErrProjectNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "project")
}

func NewErrScopeOwnerNotFound(kind, id string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", kind, id)}
}

type ErrAlreadyCheckedIn struct {
	error
}

func NewErrAlreadyCheckedIn(jobID uuid.UUID, technician string) *ErrAlreadyCheckedIn {
	return &ErrAlreadyCheckedIn{fmt.Errorf("technician %s is already checked in on job %s", technician, jobID)}
}

type ErrNoOpenCheckIn struct {
	error
}

func NewErrNoOpenCheckIn(jobID uuid.UUID, technician string) *ErrNoOpenCheckIn {
	return &ErrNoOpenCheckIn{fmt.Errorf("technician %s has no open check-in on job %s", technician, jobID)}
}

type ErrOutcomeNotPermitted struct {
	error
}

func NewErrOutcomeNotPermitted(jobID uuid.UUID, technician string) *ErrOutcomeNotPermitted {
	return &ErrOutcomeNotPermitted{fmt.Errorf("technician %s cannot set the outcome of job %s while other technicians are checked in", technician, jobID)}
}

type ErrCheckoutIncomplete struct {
	error
	Missing []string
}

func NewErrCheckoutIncomplete(missing []string) *ErrCheckoutIncomplete {
	return &ErrCheckoutIncomplete{
		error:   fmt.Errorf("checkout incomplete: missing %s", strings.Join(missing, ", ")),
		Missing: missing,
	}
}

type ErrInvalidOutcome struct {
	error
}

func NewErrInvalidOutcome(outcome string) *ErrInvalidOutcome {
	return &ErrInvalidOutcome{fmt.Errorf("invalid outcome %q", outcome)}
}

type ErrInvalidScopeRef struct {
	error
}

func NewErrInvalidScopeRef(kind, id string) *ErrInvalidScopeRef {
	return &ErrInvalidScopeRef{fmt.Errorf("invalid scope owner %q/%q", kind, id)}
}

type ErrInvalidScopePatch struct {
	error
}

func NewErrInvalidScopePatch(format string, args ...any) *ErrInvalidScopePatch {
	return &ErrInvalidScopePatch{fmt.Errorf(format, args...)}
}

type ErrInvalidField struct {
	error
}

func NewErrInvalidField(field string) *ErrInvalidField {
	return &ErrInvalidField{fmt.Errorf("field %q cannot be written", field)}
}

func NewErrInvalidFieldValue(field string, value any) *ErrInvalidField {
	return &ErrInvalidField{fmt.Errorf("field %q cannot hold %T value %v", field, value, value)}
}

type ErrInvalidDate struct {
	error
}

func NewErrInvalidDate(date string) *ErrInvalidDate {
	return &ErrInvalidDate{fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)}
}

// ErrJobClosed is returned for visit operations on a cancelled or
// completed job.
type ErrJobClosed struct {
	error
}

func NewErrJobClosed(jobID uuid.UUID, status string) *ErrJobClosed {
	return &ErrJobClosed{fmt.Errorf("job %s is %s", jobID, status)}
}

type ErrUnsupportedReportFormat struct {
	error
}

func NewErrUnsupportedReportFormat(format string) *ErrUnsupportedReportFormat {
	return &ErrUnsupportedReportFormat{fmt.Errorf("unsupported report format: %s", format)}
}
