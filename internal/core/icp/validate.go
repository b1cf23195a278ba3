package icp

import (
	"reflect"
	"strings"
	"sync"

	perr "quorum/internal/platform/errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	vOnce  sync.Once
	vld    *validator.Validate
	vTrans ut.Translator
)

// initValidator builds the singleton validator with english translations and json tag names
func initValidator() {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())

		// prefer json tag names in messages
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})

		_ = en_translations.RegisterDefaultTranslations(v, trans)

		vld = v
		vTrans = trans
	})
}

// Validate checks a profile against its struct tags and returns a
// ConfigurationMissing-class error listing every offending field
func Validate(p *Profile) error {
	initValidator()
	err := vld.Struct(p)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return perr.Wrap(err, perr.ErrorCodeConfig, "icp profile validation failed")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(vTrans))
	}
	e := perr.Configf("icp profile invalid: %s", strings.Join(msgs, "; "))
	if len(verrs) > 0 {
		e = perr.WithField(e, verrs[0].Field())
	}
	return e
}
