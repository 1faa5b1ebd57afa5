// Package validation wraps go-playground/validator with English messages
// and the project's custom tags.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/otpauth/internal/common"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// phonePattern accepts up to 15 characters: an optional leading + and digits.
var phonePattern = regexp.MustCompile(`^(\+[0-9]{4,14}|[0-9]{4,15})$`)

var (
	validate *validator.Validate
	trans    ut.Translator
)

func init() {
	english := en.New()
	trans, _ = ut.New(english, english).GetTranslator("en")

	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)

	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		panic(err)
	}

	if err := validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	if err := validate.RegisterTranslation("phone", trans,
		func(t ut.Translator) error {
			return t.Add("phone", "{0} must be a phone number of at most 15 digits, optionally starting with +", true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T("phone", fe.Field())
			return msg
		},
	); err != nil {
		panic(err)
	}
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// Struct validates v by its `validate` tags. Failures come back as a
// common validation error whose message lists every failed field.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(trans))
	}
	return common.NewValidationError(strings.Join(msgs, "; "))
}

// Var validates a single value against tag, e.g. Var(email, "required,email").
func Var(value any, tag string) error {
	return validate.Var(value, tag)
}
