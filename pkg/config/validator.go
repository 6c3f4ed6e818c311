package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator 配置验证器
type Validator struct {
	validate *validator.Validate
}

// NewValidator 创建验证器
func NewValidator() *Validator {
	return &Validator{
		validate: validator.New(),
	}
}

// Validate 验证配置结构体，支持 required、min、max、oneof、gte、lte 等标准 tag
func (v *Validator) Validate(cfg any) error {
	if cfg == nil {
		return ErrNilConfig
	}
	if err := v.validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, formatValidationErrors(err))
	}
	return nil
}

// formatValidationErrors 格式化验证错误信息
func formatValidationErrors(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	var sb strings.Builder
	for i, fieldErr := range validationErrors {
		if i > 0 {
			sb.WriteString("; ")
		}
		field := fieldErr.Namespace()
		param := fieldErr.Param()

		switch fieldErr.Tag() {
		case "required":
			fmt.Fprintf(&sb, "field '%s' is required", field)
		case "min":
			fmt.Fprintf(&sb, "field '%s' must be at least %s", field, param)
		case "max":
			fmt.Fprintf(&sb, "field '%s' must be at most %s", field, param)
		case "oneof":
			fmt.Fprintf(&sb, "field '%s' must be one of [%s]", field, param)
		case "gte":
			fmt.Fprintf(&sb, "field '%s' must be greater than or equal to %s", field, param)
		case "gt":
			fmt.Fprintf(&sb, "field '%s' must be greater than %s", field, param)
		case "lte":
			fmt.Fprintf(&sb, "field '%s' must be less than or equal to %s", field, param)
		default:
			fmt.Fprintf(&sb, "field '%s' failed validation '%s'", field, fieldErr.Tag())
		}
	}
	return sb.String()
}
