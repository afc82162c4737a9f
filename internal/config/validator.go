package config

import (
	"FocusDetect/internal/api/navigation"

	"github.com/go-playground/validator/v10"
)

func NewValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("page", navigation.ValidatePage); err != nil {
		panic(err)
	}
	return v
}
