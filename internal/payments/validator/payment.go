package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"smartparking/pkg/logger"
	"smartparking/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

func (v ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(v))
	for _, err := range v {
		fields = append(fields, err.Field)
	}
	return fields
}

type PaymentValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewPaymentValidator(log *logger.Logger) *PaymentValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	if err := v.RegisterValidation("payment_status", validatePaymentStatus); err != nil {
		log.Fatal("Failed to register 'payment_status' validator",
			"error", err,
		)
	}

	log.Debug("Payment validator initialized")

	return &PaymentValidator{
		validate: v,
		logger:   log,
	}
}

func validatePaymentStatus(fl validator.FieldLevel) bool {
	status, ok := fl.Field().Interface().(model.PaymentStatus)
	return ok && status.Valid()
}

// ValidateInitiation, ValidateCodeRequest and ValidateConfirmation check the
// three request shapes; ValidatePayment checks a record about to be stored.
func (v *PaymentValidator) ValidateInitiation(in *model.PaymentInitiation) error {
	return v.validateStruct(in)
}

func (v *PaymentValidator) ValidateCodeRequest(in *model.PaymentCodeRequest) error {
	return v.validateStruct(in)
}

func (v *PaymentValidator) ValidateConfirmation(in *model.PaymentConfirmation) error {
	return v.validateStruct(in)
}

func (v *PaymentValidator) ValidatePayment(payment *model.Payment) error {
	return v.validateStruct(payment)
}

func (v *PaymentValidator) validateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: messageFor(err),
		})
	}

	return validationErrors
}

func messageFor(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", err.Param())
	case "email":
		return "must be a valid email address"
	case "payment_status":
		return "is not a known payment status"
	default:
		return fmt.Sprintf("failed %s validation", err.Tag())
	}
}
