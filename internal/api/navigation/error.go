package navigation

import (
	"FocusDetect/pkg/response"
	"net/http"
)

var (
	ErrUnknownPage         = response.NewError(http.StatusBadRequest, "unknown page")
	ErrSessionNotFound     = response.NewError(http.StatusNotFound, "session not found")
	ErrViewInactive        = response.NewError(http.StatusConflict, "this view is not open in the current session")
	ErrInternalServerError = response.NewError(http.StatusInternalServerError, "internal server error")
	ErrBadRequest          = response.NewError(http.StatusBadRequest, "bad request")
)
