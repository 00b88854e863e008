package validator

import "github.com/go-playground/validator/v10"

func registerFn(tag string, fn func(fl validator.FieldLevel) bool) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		_ = v.RegisterValidation(tag, fn)
	}
}

func NewJobValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("notblank", notBlankValidator),
		},
		{
			Rule: registerFn("date", dateValidator),
		},
		{
			Rule: registerFn("clock", clockValidator),
		},
	}
}

func NewVisitValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("outcome", outcomeValidator),
		},
	}
}

func NewScopeValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("item_type", itemTypeValidator),
		},
		{
			Rule: registerFn("scope_kind", scopeKindValidator),
		},
	}
}
