package member

import (
	"context"
	"strconv"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/koinonia-app/koinonia/core"
)

// Step is an onboarding wizard step.
type Step string

const (
	StepPersonal  Step = "personal"
	StepContact   Step = "contact"
	StepChurch    Step = "church"
	StepEmergency Step = "emergency"
	StepPhoto     Step = "photo"
)

var (
	Steps = []Step{StepPersonal, StepContact, StepChurch, StepEmergency, StepPhoto}

	ErrInvalidStep = errors.New("invalid onboarding step")

	// json fields validated at each step
	stepFields = map[Step][]string{
		StepPersonal:  {"first_name", "last_name", "other_names", "gender", "date_of_birth", "marital_status", "occupation"},
		StepContact:   {"phone", "email", "address", "city"},
		StepChurch:    {"status", "department", "join_date", "baptized", "baptism_date"},
		StepEmergency: {"emergency_name", "emergency_phone", "emergency_relationship"},
	}

	genderTag  = "gender"
	genderText = "must be one of: " + strings.Join(Genders, ", ")

	maritalTag  = "marital_status"
	maritalText = "must be one of: " + strings.Join(MaritalStatuses, ", ")

	statusTag  = "member_status"
	statusText = "must be one of: " + strings.Join(Statuses, ", ")

	departmentTag  = "department"
	departmentText = "must be one of: " + strings.Join(Departments, ", ")

	afterBirthTag  = "afterbirth"
	afterBirthText = "date cannot be before the date of birth"

	baptizedTag  = "baptized"
	baptizedText = "a baptism date requires the member to be baptized"

	requiredTogetherTag  = "required_together"
	requiredTogetherText = "the emergency contact name and phone go together"
)

// ParseStep accepts a step name or its 1-based position.
func ParseStep(s string) (Step, error) {
	s = core.NormalizeEnum(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= len(Steps) {
			return Steps[n-1], nil
		}
		return "", ErrInvalidStep
	}
	for _, step := range Steps {
		if string(step) == s {
			return step, nil
		}
	}
	return "", ErrInvalidStep
}

// InitValidators registers the member validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(genderTag, oneOfValidation(Genders))
	core.RegisterCustomTranslation(validate, translator, genderTag, genderText)

	_ = validate.RegisterValidation(maritalTag, oneOfValidation(MaritalStatuses))
	core.RegisterCustomTranslation(validate, translator, maritalTag, maritalText)

	_ = validate.RegisterValidation(statusTag, oneOfValidation(Statuses))
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)

	_ = validate.RegisterValidation(departmentTag, oneOfValidation(Departments))
	core.RegisterCustomTranslation(validate, translator, departmentTag, departmentText)

	validate.RegisterStructValidation(memberStructValidation, NewMember{})
	core.RegisterCustomTranslation(validate, translator, afterBirthTag, afterBirthText)
	core.RegisterCustomTranslation(validate, translator, baptizedTag, baptizedText)
	core.RegisterCustomTranslation(validate, translator, requiredTogetherTag, requiredTogetherText)
}

func oneOfValidation(values []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return core.ContainsString(values, fl.Field().String())
	}
}

// memberStructValidation checks the rules spanning several fields.
func memberStructValidation(sl validator.StructLevel) {
	nm, ok := sl.Current().Interface().(NewMember)
	if !ok {
		return
	}

	if !nm.DateOfBirth.IsZero() {
		if !nm.JoinDate.IsZero() && nm.JoinDate.Before(nm.DateOfBirth) {
			sl.ReportError(nm.JoinDate, "join_date", "JoinDate", afterBirthTag, "")
		}
		if !nm.BaptismDate.IsZero() && nm.BaptismDate.Before(nm.DateOfBirth) {
			sl.ReportError(nm.BaptismDate, "baptism_date", "BaptismDate", afterBirthTag, "")
		}
	}
	if !nm.BaptismDate.IsZero() && !nm.Baptized {
		sl.ReportError(nm.BaptismDate, "baptism_date", "BaptismDate", baptizedTag, "")
	}

	hasName, hasPhone := nm.EmergencyName != "", nm.EmergencyPhone != ""
	if hasName && !hasPhone {
		sl.ReportError(nm.EmergencyPhone, "emergency_phone", "EmergencyPhone", requiredTogetherTag, "")
	} else if hasPhone && !hasName {
		sl.ReportError(nm.EmergencyName, "emergency_name", "EmergencyName", requiredTogetherTag, "")
	}
}

// Validate cleans & validates all the wizard steps. `exclude` is the member being updated, if any.
func (nm *NewMember) Validate(ctx context.Context, validate *validator.Validate, svc Service, exclude ...Member) error {
	nm.Clean()
	if err := validate.Struct(nm); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(ctx, nm.Email, exclude...)
}

// ValidateStep cleans `nm` and returns the validation errors of `step` only.
// Earlier steps' data is used for the rules spanning several steps.
func (nm *NewMember) ValidateStep(ctx context.Context, step Step, validate *validator.Validate, svc Service) error {
	fields, ok := stepFields[step]
	if !ok {
		return ErrInvalidStep
	}

	nm.Clean()
	if err := validate.Struct(nm); err != nil {
		vErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		stepErrs := make(validator.ValidationErrors, 0, len(vErrs))
		for _, fe := range vErrs {
			if core.ContainsString(fields, fe.Field()) {
				stepErrs = append(stepErrs, fe)
			}
		}
		if len(stepErrs) > 0 {
			return stepErrs
		}
	}

	if step == StepContact {
		return svc.CheckEmailUniqueness(ctx, nm.Email)
	}
	return nil
}
