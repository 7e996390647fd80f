package validation

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/profiler/internal/types"
)

// Validator checks profile and recommendation data
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator
func New() *Validator {
	return &Validator{validate: validator.New()}
}

// Section checks data for sectionID against the profile config: the section
// must be configured and every field rule must pass.
func (v *Validator) Section(cfg types.ProfileConfig, sectionID string, data map[string]any) Errors {
	if !cfg.HasSection(sectionID) {
		return Errors{fmt.Sprintf("section %q is not part of this profile", sectionID)}
	}

	rules := cfg.ValidationRules[sectionID]
	fields := make([]string, 0, len(rules))
	for field := range rules {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var errs Errors
	for _, field := range fields {
		if msg := v.checkField(sectionID+"."+field, data[field], rules[field]); msg != "" {
			errs = append(errs, msg)
		}
	}
	return errs
}

// checkField runs a validator tag against one value and returns a message on failure
func (v *Validator) checkField(name string, value any, tag string) (msg string) {
	if value == nil {
		if hasRequired(tag) {
			return fmt.Sprintf("%s is required", name)
		}
		return ""
	}

	// Undefined tags panic inside the validator
	defer func() {
		if r := recover(); r != nil {
			msg = fmt.Sprintf("%s has an invalid rule %q", name, tag)
		}
	}()

	err := v.validate.Var(value, tag)
	if err == nil {
		return ""
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return describeFieldError(name, ve[0])
	}
	return fmt.Sprintf("%s: %v", name, err)
}

func hasRequired(tag string) bool {
	for _, part := range strings.Split(tag, ",") {
		if strings.TrimSpace(part) == "required" {
			return true
		}
	}
	return false
}

// RequiredSections reports every required section that is missing or incomplete
func (v *Validator) RequiredSections(p *types.Profile) Errors {
	var errs Errors
	for _, id := range p.Config.RequiredSections {
		section, ok := p.Sections[id]
		switch {
		case !ok || section == nil:
			errs = append(errs, fmt.Sprintf("required section %q is missing", id))
		case !section.Completed:
			errs = append(errs, fmt.Sprintf("required section %q is not completed", id))
		}
	}
	return errs
}

// Status checks a recommendation status value
func (v *Validator) Status(status string) Errors {
	if types.IsValidStatus(status) {
		return nil
	}
	return Errors{fmt.Sprintf("status must be one of [%s %s %s], got %q",
		types.StatusActive, types.StatusCompleted, types.StatusDismissed, status)}
}

// Progress checks a progress value at the API boundary
func (v *Validator) Progress(progress float64) Errors {
	if math.IsNaN(progress) || progress < 0 || progress > 1 {
		return Errors{fmt.Sprintf("progress must be between 0 and 1, got %v", progress)}
	}
	return nil
}

// Recommendation checks a recommendation before it is stored
func (v *Validator) Recommendation(r *types.Recommendation) Errors {
	var errs Errors
	if strings.TrimSpace(r.Title) == "" {
		errs = append(errs, "title is required")
	}
	if r.Category == "" {
		errs = append(errs, "category is required")
	}
	if r.Priority < types.MinPriority || r.Priority > types.MaxPriority {
		errs = append(errs, fmt.Sprintf("priority must be between %d and %d, got %d",
			types.MinPriority, types.MaxPriority, r.Priority))
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		errs = append(errs, fmt.Sprintf("confidence must be between 0 and 1, got %v", r.Confidence))
	}
	errs = append(errs, v.Status(r.Status)...)
	errs = append(errs, v.Progress(r.Progress)...)
	return errs
}
