package core

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	NowFunc = time.Now // mockable

	// custom validation tags & texts
	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderText  = "only alphanumeric characters and underscores are allowed"
	alphaNumUnderRegex = regexp.MustCompile(`^[\w\s]+$`)

	notBlankTag  = "notblank"
	notBlankText = "this field cannot be blank"

	phoneTag   = "phone"
	phoneText  = "enter a valid phone number"
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

	notFutureTag  = "notfuture"
	notFutureText = "date cannot be in the future"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// NewTranslator returns the english translator used for validation messages.
func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// validate Dates as time.Time; the zero Date counts as empty
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(Date); ok && !d.IsZero() {
			return d.Time
		}
		return nil
	}, Date{})

	// register custom validators
	_ = validate.RegisterValidation(alphaNumUnderTag, alphaNumUnderValidation)
	RegisterCustomTranslation(validate, translator, alphaNumUnderTag, alphaNumUnderText)

	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	RegisterCustomTranslation(validate, translator, notBlankTag, notBlankText)

	_ = validate.RegisterValidation(phoneTag, phoneValidation)
	RegisterCustomTranslation(validate, translator, phoneTag, phoneText)

	_ = validate.RegisterValidation(notFutureTag, notFutureValidation)
	RegisterCustomTranslation(validate, translator, notFutureTag, notFutureText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// NormalizePhone strips the usual phone number separators.
func NormalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "").Replace(strings.TrimSpace(phone))
}

// IsValidPhone reports whether `phone` looks like a phone number once separators are stripped.
func IsValidPhone(phone string) bool {
	return phoneRegex.MatchString(NormalizePhone(phone))
}

// Custom Global Validators

// alphaNumUnderValidation only allows alphanumeric characters and underscores.
func alphaNumUnderValidation(fl validator.FieldLevel) bool {
	return alphaNumUnderRegex.MatchString(fl.Field().String())
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

func phoneValidation(fl validator.FieldLevel) bool {
	return IsValidPhone(fl.Field().String())
}

// notFutureValidation checks that a date (day precision) is not after today.
func notFutureValidation(fl validator.FieldLevel) bool {
	if t, ok := fl.Field().Interface().(time.Time); ok {
		return !DateOf(t).After(Today())
	}
	return false
}

// Today returns the current calendar day.
func Today() Date {
	return DateOf(NowFunc())
}
