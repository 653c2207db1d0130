package model

import (
	"slices"

	"github.com/go-playground/validator/v10"
)

// RegisterValidations installs the cross-field rules of the registry entities
// on v.
func RegisterValidations(v *validator.Validate) {
	v.RegisterStructValidation(validateFlavor, Flavor{})
	v.RegisterStructValidation(validateSLA, SLA{})
	v.RegisterStructValidation(validateService, Service{})
}

// NewValidator returns a validator with the registry rules installed.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	RegisterValidations(v)
	return v
}

func validateFlavor(sl validator.StructLevel) {
	f := sl.Current().Interface().(Flavor)
	if f.GPUs > 0 {
		return
	}
	if f.GPUModel != nil && *f.GPUModel != "" {
		sl.ReportError(f.GPUModel, "gpu_model", "GPUModel", "nogpus", "")
	}
	if f.GPUVendor != nil && *f.GPUVendor != "" {
		sl.ReportError(f.GPUVendor, "gpu_vendor", "GPUVendor", "nogpus", "")
	}
}

func validateSLA(sl validator.StructLevel) {
	s := sl.Current().Interface().(SLA)
	if s.StartDate.IsZero() {
		sl.ReportError(s.StartDate, "start_date", "StartDate", "required", "")
	}
	if s.EndDate.IsZero() {
		sl.ReportError(s.EndDate, "end_date", "EndDate", "required", "")
	}
	if !s.StartDate.IsZero() && !s.EndDate.IsZero() && !s.StartDate.Before(s.EndDate.Time) {
		sl.ReportError(s.EndDate, "end_date", "EndDate", "gtfield", "start_date")
	}
}

func validateService(sl validator.StructLevel) {
	s := sl.Current().Interface().(Service)
	names, ok := ServiceNames[s.Type]
	if ok && !slices.Contains(names, s.Name) {
		sl.ReportError(s.Name, "name", "Name", "oneof", s.Type)
	}
}
