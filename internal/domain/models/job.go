package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"reflect"
	"strings"
)

var ErrMissingFields = errors.New("missing required fields")

// Job is a point-in-time copy of a posting owned by the backend.
type Job struct {
	ID          int    `json:"id,omitempty"`
	Title       string `json:"title" validate:"required"`
	Company     string `json:"company" validate:"required"`
	Location    string `json:"location" validate:"required"`
	JobType     string `json:"job_type" validate:"required"`
	Tags        Tags   `json:"tags"`
	PostingDate string `json:"posting_date" validate:"required"`
}

// IsNew reports whether the job was never stored by the backend.
func (j Job) IsNew() bool {
	return j.ID == 0
}

var jobValidator = newJobValidator()

func newJobValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks required fields only, blank values count as missing.
func (j Job) Validate() error {
	trimmed := j
	trimmed.Title = strings.TrimSpace(j.Title)
	trimmed.Company = strings.TrimSpace(j.Company)
	trimmed.Location = strings.TrimSpace(j.Location)
	trimmed.JobType = strings.TrimSpace(j.JobType)
	trimmed.PostingDate = strings.TrimSpace(j.PostingDate)

	err := jobValidator.Struct(trimmed)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	fields := lo.Map(validationErrors, func(fe validator.FieldError, _ int) string {
		return fe.Field()
	})
	return fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(fields, ", "))
}

// Tags is always held as a flat list of trimmed, non-empty values.
// The backend stores them as one comma-joined string.
type Tags []string

func ParseTags(s string) Tags {
	return normalizeTags(strings.Split(s, ","))
}

func normalizeTags(values []string) Tags {
	tags := lo.FilterMap(values, func(v string, _ int) (string, bool) {
		v = strings.TrimSpace(v)
		return v, v != ""
	})
	return tags
}

func (t Tags) String() string {
	return strings.Join(t, ", ")
}

func (t Tags) Joined() string {
	return strings.Join(t, ",")
}

func (t Tags) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Joined())
}

// UnmarshalJSON accepts a delimited string or a list. Any other shape
// decodes to no tags instead of failing the whole job.
func (t *Tags) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		*t = nil
		return nil
	}

	switch b[0] {
	case '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return fmt.Errorf("parsing tags %s: %v", b, err)
		}
		*t = ParseTags(str)
	case '[':
		var items []any
		if err := json.Unmarshal(b, &items); err != nil {
			*t = nil
			return nil
		}
		values := lo.FilterMap(items, func(item any, _ int) (string, bool) {
			str, ok := item.(string)
			return str, ok
		})
		*t = normalizeTags(values)
	default:
		*t = nil
	}
	return nil
}
