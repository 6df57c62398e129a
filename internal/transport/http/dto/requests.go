// Package dto holds the request and response shapes of the HTTP API and
// their validation rules.
package dto

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/careercompass/auth-service/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type RegisterRequest struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

func (r *RegisterRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	return runValidation(r)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	return runValidation(r)
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *ForgotPasswordRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	return runValidation(r)
}

type ResetPasswordRequest struct {
	Token                string `json:"token" validate:"required"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

func (r *ResetPasswordRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	return runValidation(r)
}

// runValidation turns validator tag failures into per-field messages keyed
// by the JSON field name.
func runValidation(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return domain.ErrInvalidJSON(err)
	}

	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := jsonFieldName(fe.Field())
		if _, seen := details[field]; seen {
			continue
		}
		details[field] = messageFor(field, fe)
	}
	return domain.ErrValidation(details)
}

func jsonFieldName(structField string) string {
	switch structField {
	case "PasswordConfirmation":
		return "password_confirmation"
	default:
		return strings.ToLower(structField)
	}
}

func messageFor(field string, fe validator.FieldError) string {
	label := strings.ReplaceAll(field, "_", " ")
	switch fe.Tag() {
	case "required":
		return "The " + label + " field is required."
	case "email":
		return "The " + label + " field must be a valid email address."
	case "min":
		return "The " + label + " field must be at least " + fe.Param() + " characters."
	case "max":
		return "The " + label + " field must not be greater than " + fe.Param() + " characters."
	case "eqfield":
		return "The " + label + " field confirmation does not match."
	default:
		return "The " + label + " field is invalid."
	}
}
