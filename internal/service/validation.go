package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"dossierapi/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	enum := func(valid func(string) bool) validator.Func {
		return func(fl validator.FieldLevel) bool {
			return valid(fl.Field().String())
		}
	}
	mustRegister(v, "visa_type", enum(func(s string) bool { return model.VisaType(s).Valid() }))
	mustRegister(v, "application_status", enum(func(s string) bool { return model.ApplicationStatus(s).Valid() }))
	mustRegister(v, "document_type", enum(func(s string) bool { return model.DocumentType(s).Valid() }))
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}

// validateStruct runs struct tag validation and converts failures into a ValidationError.
func validateStruct(s any) *ValidationError {
	err := validate.Struct(s)
	if err == nil {
		return &ValidationError{}
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewValidationError("request", err.Error())
	}

	out := &ValidationError{}
	for _, fe := range verrs {
		out.Add(fe.Field(), fieldMessage(fe))
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	label := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", label)
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", label, fe.Param())
	case "min":
		return fmt.Sprintf("The %s field must be at least %s characters.", label, fe.Param())
	case "alphanum":
		return fmt.Sprintf("The %s field must only contain letters and numbers.", label)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", label)
	case "datetime":
		return fmt.Sprintf("The %s field must be a valid date (YYYY-MM-DD).", label)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", label)
	case "visa_type", "application_status", "document_type":
		return fmt.Sprintf("Invalid %s selected.", label)
	default:
		return fmt.Sprintf("The %s field is invalid.", label)
	}
}
