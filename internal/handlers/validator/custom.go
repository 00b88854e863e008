package validator

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fieldservice/jobvisit/internal/lifecycle"
	"github.com/fieldservice/jobvisit/internal/scope"
)

var clockRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

func notBlankValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return strings.TrimSpace(val) != ""
}

// dateValidator accepts calendar dates in YYYY-MM-DD.
func dateValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return lifecycle.ValidDate(val)
}

// clockValidator accepts a 24h wall clock time, HH:MM.
func clockValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return clockRegex.MatchString(val)
}

func outcomeValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return lifecycle.Outcome(val).IsValid()
}

func itemTypeValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return scope.ItemType(val).IsValid()
}

func scopeKindValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	switch scope.RefKind(val) {
	case scope.RefVisit, scope.RefJob:
		return true
	default:
		return false
	}
}
