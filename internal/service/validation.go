package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/shopcore-next/internal/models"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator 返回共享的结构体校验器，字段名使用 json tag
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateAddress 校验结构化地址
func ValidateAddress(address *models.Address) error {
	if address == nil {
		return fmt.Errorf("%w: address is required", ErrAddressInvalid)
	}
	normalizeAddress(address)
	if err := Validator().Struct(address); err != nil {
		return fmt.Errorf("%w: %s", ErrAddressInvalid, describeValidationError(err))
	}
	return nil
}

func normalizeAddress(address *models.Address) {
	address.Name = strings.TrimSpace(address.Name)
	address.Phone = strings.TrimSpace(address.Phone)
	address.Email = strings.ToLower(strings.TrimSpace(address.Email))
	address.Line1 = strings.TrimSpace(address.Line1)
	address.Line2 = strings.TrimSpace(address.Line2)
	address.City = strings.TrimSpace(address.City)
	address.State = strings.TrimSpace(address.State)
	address.PostalCode = strings.TrimSpace(address.PostalCode)
	address.Country = strings.ToUpper(strings.TrimSpace(address.Country))
}

func describeValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s:%s", fieldErr.Field(), fieldErr.Tag()))
	}
	return strings.Join(parts, ",")
}
