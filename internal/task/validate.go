package task

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/twiced-technology-gmbh/taskdigest/internal/clierr"
)

// validate caches struct info across calls.
var validate = validator.New()

// Validate checks a decoded task against its struct tags.
func Validate(t *Task) error {
	return validateStruct(t)
}

// ValidateProject checks a decoded project against its struct tags.
func ValidateProject(p *Project) error {
	return validateStruct(p)
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("field %s failed rule %q", e.StructNamespace(), e.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// ValidateDate returns a CLIError for invalid date input.
func ValidateDate(field, input string, err error) *clierr.Error {
	return clierr.Newf(clierr.InvalidInput, "invalid %s date: %v", field, err).
		WithDetails(map[string]any{
			"field": field,
			"input": input,
		})
}

// ValidateBucket checks that a bucket name is in the allowed list.
func ValidateBucket(bucket string, allowed []string) error {
	for _, b := range allowed {
		if b == bucket {
			return nil
		}
	}
	return clierr.Newf(clierr.InvalidBucket, "invalid bucket %q; valid: %s", bucket, strings.Join(allowed, ", ")).
		WithDetails(map[string]any{
			"bucket":  bucket,
			"allowed": allowed,
		})
}

// ValidateSort checks that a sort field is in the allowed list.
func ValidateSort(field string, allowed []string) error {
	for _, f := range allowed {
		if f == field {
			return nil
		}
	}
	return clierr.Newf(clierr.InvalidSort, "invalid sort field %q; valid: %s", field, strings.Join(allowed, ", ")).
		WithDetails(map[string]any{
			"sort":    field,
			"allowed": allowed,
		})
}
