// Package validation checks call definitions, descriptors and configuration
// before anything is dispatched.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection.
//
// # Struct Tag Validation
//
//	type Descriptor struct {
//	    Endpoint string `validate:"required"`
//	    Method   string `validate:"required,oneof=GET POST"`
//	}
//	err := validation.Validate(desc)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("api_name", name).NotNil("factory", fn)
//	if appErr := v.Validate(); appErr != nil { ... }
package validation
