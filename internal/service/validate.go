package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/go-playground/validator/v10"
)

const clockLayout = "15:04"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(clockLayout, fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("bloodtype", func(fl validator.FieldLevel) bool {
		return model.BloodType(fl.Field().String()).IsValid()
	})

	return v
}

// validateInput проверяет теги validate и приводит ошибки к ErrInvalidRequest
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", model.ErrInvalidRequest, err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", model.ErrInvalidRequest, strings.Join(fields, ", "))
}

// checkWindow проверяет, что начало окна раньше конца
func checkWindow(start, end string) error {
	s, err := time.Parse(clockLayout, start)
	if err != nil {
		return fmt.Errorf("%w: start time %q", model.ErrInvalidRequest, start)
	}
	e, err := time.Parse(clockLayout, end)
	if err != nil {
		return fmt.Errorf("%w: end time %q", model.ErrInvalidRequest, end)
	}
	if !s.Before(e) {
		return fmt.Errorf("%w: start time must be before end time", model.ErrInvalidRequest)
	}
	return nil
}

// dateOnly обрезает время до полуночи UTC
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
