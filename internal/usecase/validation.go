package usecase

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var nonDigits = regexp.MustCompile(`\D`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Tag "phone": 10 ou 11 dígitos depois de remover a máscara.
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return isValidPhoneNumber(fl.Field().String())
	})
	return v
}

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateStruct roda as tags validate e devolve um erro por campo, usando o nome json.
func ValidateStruct(input any) []ValidationError {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []ValidationError{{Field: "input", Message: err.Error()}}
	}

	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{Field: jsonFieldName(fe.StructField()), Message: tagMessage(fe)})
	}
	return out
}

func ValidateCreateLeadInput(input CreateLeadInput) []ValidationError {
	input.ClientName = strings.TrimSpace(input.ClientName)
	return ValidateStruct(input)
}

// validationFailed junta os erros de campo num DomainError.
func validationFailed(errs []ValidationError) error {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return &DomainError{Code: CodeValidation, Message: strings.Join(parts, "; ")}
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "is invalid"
	case "phone":
		return "must be a valid phone number"
	case "min":
		return fmt.Sprintf("must have at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("out of range (%s %s)", fe.Tag(), fe.Param())
	}
	return "is invalid"
}

var fieldNames = map[string]string{
	"ClientName":    "client_name",
	"ClientEmail":   "client_email",
	"ClientPhone":   "client_phone",
	"ProductID":     "product_id",
	"Message":       "message",
	"Priority":      "priority",
	"AgentID":       "agent_id",
	"Action":        "action",
	"Availability":  "availability",
	"TargetAgentID": "target_agent_id",
	"Name":          "name",
	"Email":         "email",
	"Role":          "role",
}

func jsonFieldName(structField string) string {
	if name, ok := fieldNames[structField]; ok {
		return name
	}
	return strings.ToLower(structField)
}

func isValidPhoneNumber(phone string) bool {
	cleaned := nonDigits.ReplaceAllString(phone, "")

	return len(cleaned) >= 10 && len(cleaned) <= 11
}
