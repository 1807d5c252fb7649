package session

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/vistoriaapp/core/internal/errors"
	"github.com/vistoriaapp/core/internal/models"
)

// requiredPropertyFields are the property-form fields that must be
// filled before the wizard can leave the property step.
var requiredPropertyFields = []string{
	"inspectionType",
	"propertyCode",
	"propertyType",
	"address",
	"addressNumber",
	"neighborhood",
	"city",
	"zipCode",
}

// ValidateProperty checks the required property fields. On failure it
// returns a VALIDATION_ERROR whose cause is a validation.Errors map
// keyed by the missing field names; this is the only error class
// surfaced to the end user as a blocking rejection.
func ValidateProperty(p models.PropertyData) error {
	errs := validation.Errors{}
	for _, field := range requiredPropertyFields {
		if err := validation.Validate(strings.TrimSpace(p[field]), validation.Required); err != nil {
			errs[field] = err
		}
	}
	if err := errs.Filter(); err != nil {
		return errors.Wrap(errors.ErrValidation, "missing required property fields", err)
	}
	return nil
}
