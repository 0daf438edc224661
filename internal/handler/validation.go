package handler

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/tzconv"
)

// registerGridValidations 注册 timezone 和 iso_date 两个校验标签及其中文翻译
func registerGridValidations(validate *validator.Validate, trans ut.Translator, zones tzconv.ZoneDatabase) error {
	if err := validate.RegisterValidation("timezone", func(fl validator.FieldLevel) bool {
		_, err := zones.Location(fl.Field().String())
		return err == nil
	}); err != nil {
		return err
	}

	if err := validate.RegisterValidation("iso_date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(tzconv.DateLayout, fl.Field().String())
		return err == nil
	}); err != nil {
		return err
	}

	messages := map[string]string{
		"timezone": "{0}必须是有效的 IANA 时区",
		"iso_date": "{0}必须是 YYYY-MM-DD 格式的日期",
	}
	for tag, msg := range messages {
		if err := validate.RegisterTranslation(tag, trans, func(ut ut.Translator) error {
			return ut.Add(tag, msg, true)
		}, func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(fe.Tag(), fe.Field())
			return t
		}); err != nil {
			return err
		}
	}

	return nil
}
