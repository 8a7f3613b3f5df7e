package content

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/koinonia-app/koinonia/core"
)

var (
	eventCategoryTag  = "event_category"
	eventCategoryText = "must be one of: " + strings.Join(EventCategories, ", ")

	postStatusTag  = "post_status"
	postStatusText = "must be one of: " + strings.Join(PostStatuses, ", ")

	endsAfterTag  = "endsafter"
	endsAfterText = "an event cannot end before it starts"
)

// InitValidators registers the content validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(eventCategoryTag, func(fl validator.FieldLevel) bool {
		return core.ContainsString(EventCategories, fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, eventCategoryTag, eventCategoryText)

	_ = validate.RegisterValidation(postStatusTag, func(fl validator.FieldLevel) bool {
		return core.ContainsString(PostStatuses, fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, postStatusTag, postStatusText)

	validate.RegisterStructValidation(func(sl validator.StructLevel) {
		ne := sl.Current().Interface().(NewEvent)
		if !ne.StartsAt.IsZero() && ne.EndsAt.Before(ne.StartsAt) {
			sl.ReportError(ne.EndsAt, "ends_at", "EndsAt", endsAfterTag, "")
		}
	}, NewEvent{})
	core.RegisterCustomTranslation(validate, translator, endsAfterTag, endsAfterText)
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.Clean()
	return validate.Struct(ne)
}

func (ns *NewSermon) Validate(validate *validator.Validate) error {
	ns.Clean()
	return validate.Struct(ns)
}

// Validate cleans & validates the post. Slug clashes are resolved when saving.
func (np *NewPost) Validate(validate *validator.Validate) error {
	np.Clean()
	return validate.Struct(np)
}
