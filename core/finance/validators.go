package finance

import (
	"context"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/koinonia-app/koinonia/core"
)

var (
	kindTag  = "entry_kind"
	kindText = "must be one of: " + strings.Join(Kinds, ", ")

	methodTag  = "payment_method"
	methodText = "must be one of: " + strings.Join(PaymentMethods, ", ")

	categoryTag  = "entry_category"
	categoryText = "invalid category for this kind of entry"

	noCategoryTag  = "no_category"
	noCategoryText = "this kind of entry takes no category"

	memberRequiredTag  = "member_required"
	memberRequiredText = "a tithe must be linked to a member"

	memberForbiddenTag  = "member_forbidden"
	memberForbiddenText = "this kind of entry cannot be linked to a member"

	payeeRequiredTag  = "payee_required"
	payeeRequiredText = "enter who the money was paid to"
)

// InitValidators registers the finance validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(kindTag, func(fl validator.FieldLevel) bool {
		return core.ContainsString(Kinds, fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, kindTag, kindText)

	_ = validate.RegisterValidation(methodTag, func(fl validator.FieldLevel) bool {
		return core.ContainsString(PaymentMethods, fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, methodTag, methodText)

	validate.RegisterStructValidation(entryStructValidation, NewEntry{})
	core.RegisterCustomTranslation(validate, translator, categoryTag, categoryText)
	core.RegisterCustomTranslation(validate, translator, noCategoryTag, noCategoryText)
	core.RegisterCustomTranslation(validate, translator, memberRequiredTag, memberRequiredText)
	core.RegisterCustomTranslation(validate, translator, memberForbiddenTag, memberForbiddenText)
	core.RegisterCustomTranslation(validate, translator, payeeRequiredTag, payeeRequiredText)
}

// entryStructValidation checks the rules depending on the entry kind.
func entryStructValidation(sl validator.StructLevel) {
	ne, ok := sl.Current().Interface().(NewEntry)
	if !ok || !core.ContainsString(Kinds, ne.Kind) {
		return
	}

	if cats, ok := Categories[ne.Kind]; ok {
		if !core.ContainsString(cats, ne.Category) {
			sl.ReportError(ne.Category, "category", "Category", categoryTag, "")
		}
	} else if ne.Category != "" {
		sl.ReportError(ne.Category, "category", "Category", noCategoryTag, "")
	}

	switch ne.Kind {
	case KindTithe:
		if ne.MemberID == "" {
			sl.ReportError(ne.MemberID, "member_id", "MemberID", memberRequiredTag, "")
		}
	case KindOffering, KindWithdrawal, KindExpense:
		if ne.MemberID != "" {
			sl.ReportError(ne.MemberID, "member_id", "MemberID", memberForbiddenTag, "")
		}
	}

	if (ne.Kind == KindWithdrawal || ne.Kind == KindExpense) && ne.Payee == "" {
		sl.ReportError(ne.Payee, "payee", "Payee", payeeRequiredTag, "")
	}
}

// Validate cleans & validates the entry, then checks that the linked member exists.
// The balance check happens when the entry is saved.
func (ne *NewEntry) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	ne.Clean()
	if err := validate.Struct(ne); err != nil {
		return err
	}
	return svc.CheckMember(ctx, ne.MemberID)
}
