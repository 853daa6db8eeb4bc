package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidSettings = errors.New("invalid settings")

// Settings are the per-run knobs taken from command-line flags.
type Settings struct {
	Backend              string        `flag:"backend" validate:"required,oneof=whisper openai cloudflare deepgram"`
	ChunkLength          time.Duration `flag:"chunk-length" validate:"gt=0"`
	Format               string        `flag:"format" validate:"required,oneof=text json"`
	Task                 string        `flag:"task" validate:"required,oneof=transcribe translate"`
	Language             string        `flag:"language" validate:"required"`
	Device               string        `flag:"device" validate:"required,oneof=auto cpu gpu"`
	SilenceThresholdDBFS float64       `flag:"silence-threshold-dbfs" validate:"lte=0"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			if name := fld.Tag.Get("flag"); name != "" {
				return "--" + name
			}
			return fld.Name
		})
	})
	return validate
}

// Validate normalizes string fields in place and reports every rule
// violation in one error wrapping ErrInvalidSettings.
func (s *Settings) Validate() error {
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	s.Format = strings.ToLower(strings.TrimSpace(s.Format))
	s.Task = strings.ToLower(strings.TrimSpace(s.Task))
	s.Device = strings.ToLower(strings.TrimSpace(s.Device))
	s.Language = strings.TrimSpace(s.Language)

	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fe.Field()+" "+describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(messages, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", strings.ReplaceAll(fe.Param(), " ", ", "), fmt.Sprint(fe.Value()))
	case "gt":
		return fmt.Sprintf("must be greater than %s, got %v", fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("must be at most %s, got %v", fe.Param(), fe.Value())
	default:
		return "failed " + fe.Tag()
	}
}
