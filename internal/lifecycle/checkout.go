package lifecycle

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Checkout requirement names, reported in this order.
const (
	RequirementOverview      = "overview"
	RequirementNextSteps     = "next_steps"
	RequirementCommunication = "communication_with_client"
	RequirementOutcome       = "outcome"
	RequirementPhotos        = "photos"
)

const DefaultMinVisitDuration = time.Minute

// CheckoutForm is what a technician submits when leaving a job.
type CheckoutForm struct {
	Overview                string   `json:"overview"`
	NextSteps               string   `json:"next_steps"`
	CommunicationWithClient string   `json:"communication_with_client"`
	CompletionNotes         string   `json:"completion_notes"`
	Outcome                 string   `json:"outcome"`
	PhotoURLs               []string `json:"photo_urls"`
}

type ErrCheckoutIncomplete struct {
	Missing []string
}

func (e *ErrCheckoutIncomplete) Error() string {
	return fmt.Sprintf("checkout incomplete: missing %s", strings.Join(e.Missing, ", "))
}

type requirements struct {
	Overview                string   `json:"overview" validate:"notblank"`
	NextSteps               string   `json:"next_steps" validate:"notblank"`
	CommunicationWithClient string   `json:"communication_with_client" validate:"notblank"`
	Outcome                 string   `json:"outcome" validate:"required_if=OutcomeRequired true,omitempty,outcome"`
	OutcomeRequired         bool     `json:"-"`
	Photos                  []string `json:"photos" validate:"min=1"`
}

type CheckoutValidator struct {
	validate *validator.Validate
}

func NewCheckoutValidator() *CheckoutValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", notBlank)
	_ = v.RegisterValidation("outcome", validOutcome)
	return &CheckoutValidator{validate: v}
}

// Validate checks a non-trivial checkout. photos holds every photo known
// for the job, the form's included. The outcome is only required from the
// last active technician. All unmet requirements are reported together.
func (c *CheckoutValidator) Validate(form CheckoutForm, photos []string, outcomeRequired bool) error {
	req := requirements{
		Overview:                form.Overview,
		NextSteps:               form.NextSteps,
		CommunicationWithClient: form.CommunicationWithClient,
		Outcome:                 form.Outcome,
		OutcomeRequired:         outcomeRequired,
		Photos:                  NonBlank(photos),
	}

	err := c.validate.Struct(req)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return &ErrCheckoutIncomplete{Missing: missing}
}

// IsTrivial reports whether a visit was too short to count.
func IsTrivial(checkIn, checkOut time.Time, minDuration time.Duration) bool {
	return checkOut.Sub(checkIn) < minDuration
}

// NonBlank drops blank entries.
func NonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func notBlank(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return strings.TrimSpace(val) != ""
}

func validOutcome(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return Outcome(val).IsValid()
}
