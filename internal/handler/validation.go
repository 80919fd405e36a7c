package handler

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/flicky/storefront-api/internal/service"
)

// RegisterValidators installs the custom binding rules on gin's validator
// and makes field errors report JSON names.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	if err := v.RegisterValidation("mobile_in", func(fl validator.FieldLevel) bool {
		return service.ValidPhone(fl.Field().String())
	}); err != nil {
		return fmt.Errorf("register mobile_in: %w", err)
	}
	if err := v.RegisterValidation("pincode", func(fl validator.FieldLevel) bool {
		return service.ValidPincode(fl.Field().String())
	}); err != nil {
		return fmt.Errorf("register pincode: %w", err)
	}
	return nil
}
