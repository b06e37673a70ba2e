package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report koanf key names so messages match the YAML the user wrote.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("koanf"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return wrapValidation(err)
	}
	return c.Prep.checkDates()
}

// Validate checks the preparation parameters on their own.
func (p Prep) Validate() error {
	if err := validate.Struct(p); err != nil {
		return wrapValidation(err)
	}
	return p.checkDates()
}

func (p Prep) checkDates() error {
	switch p.Mode {
	case ModeTrain:
		earliest, err := p.Earliest()
		if err != nil {
			return fmt.Errorf("%w: effective_date_earliest: %v", ErrInvalid, err)
		}
		latest, err := p.Latest()
		if err != nil {
			return fmt.Errorf("%w: effective_date_latest: %v", ErrInvalid, err)
		}
		if latest.Before(earliest) {
			return fmt.Errorf("%w: effective_date_latest %s before effective_date_earliest %s",
				ErrInvalid, p.EffectiveDateLatest, p.EffectiveDateEarliest)
		}
	case ModeScore:
		if _, err := p.Effective(); err != nil {
			return fmt.Errorf("%w: effective_date: %v", ErrInvalid, err)
		}
	}
	return nil
}

func wrapValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s fails %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s fails %s", fe.Namespace(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}
