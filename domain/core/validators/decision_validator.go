package validators

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"decisionmap/domain/config"
	"decisionmap/domain/core/entities"
	pkgerrors "decisionmap/pkg/errors"
)

// DecisionValidator validates decision input before synthesis
type DecisionValidator struct {
	validate   *validator.Validate
	minOptions int
	maxOptions int
}

// NewDecisionValidator creates a validator bound to the domain limits
func NewDecisionValidator(cfg *config.DomainConfig) *DecisionValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &DecisionValidator{
		validate:   v,
		minOptions: cfg.MinOptions,
		maxOptions: cfg.MaxOptions,
	}
}

// Validate collects every rule violation; nil means the input can be synthesized
func (v *DecisionValidator) Validate(in entities.DecisionInput) error {
	verrs := pkgerrors.NewValidationErrors()

	if err := v.validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				verrs.Add(fieldPath(fe), formatFieldError(fe))
			}
		} else {
			verrs.Add("general", err.Error())
		}
	}

	if strings.TrimSpace(in.Title) == "" {
		verrs.AddError("title", pkgerrors.ErrDecisionTitleRequired)
	}

	if in.Domain != "" && !in.Domain.IsValid() {
		verrs.AddError("domain", pkgerrors.ErrUnknownDomain)
	}

	usable := in.UsableOptions()
	switch {
	case len(usable) < v.minOptions:
		verrs.AddError("options", pkgerrors.ErrTooFewOptions)
	case len(usable) > v.maxOptions:
		verrs.AddError("options", pkgerrors.ErrTooManyOptions)
	}

	seen := make(map[string]struct{}, len(usable))
	for i, o := range usable {
		id := strings.TrimSpace(o.ID)
		if id == "" {
			verrs.Add(fmt.Sprintf("options[%d].id", i), "id is required")
			continue
		}
		if _, dup := seen[id]; dup {
			verrs.AddError(fmt.Sprintf("options[%d].id", i), pkgerrors.ErrDuplicateOptionID)
		}
		seen[id] = struct{}{}
	}

	return verrs.ErrOrNil()
}

// fieldPath strips the root struct name from the namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
