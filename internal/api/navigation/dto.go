package navigation

import (
	"FocusDetect/internal/entity"

	"github.com/go-playground/validator/v10"
)

type NavigateRequest struct {
	Target string `json:"target" form:"target" validate:"required,page"`
}

type SessionResponse struct {
	State       string   `json:"state"`
	Transitions []string `json:"transitions"`
}

// ValidatePage backs the "page" validation tag.
func ValidatePage(fl validator.FieldLevel) bool {
	_, ok := entity.ParseUIState(fl.Field().String())
	return ok
}
