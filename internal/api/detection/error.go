package detection

import (
	"FocusDetect/pkg/response"
	"net/http"
)

var (
	ErrUnsupportedFormat   = response.NewError(http.StatusUnsupportedMediaType, "unsupported image format, use jpg, jpeg or png")
	ErrDetectionFailed     = response.NewError(http.StatusUnprocessableEntity, "detection failed")
	ErrInvalidImage        = response.NewError(http.StatusBadRequest, "image could not be decoded")
	ErrNoImage             = response.NewError(http.StatusBadRequest, "no image provided")
	ErrFileTooLarge        = response.NewError(http.StatusRequestEntityTooLarge, "image is too large")
	ErrImageTooLarge       = response.NewError(http.StatusRequestEntityTooLarge, "image dimensions are too large, use at most 24 megapixels")
	ErrInvalidConfidence   = response.NewError(http.StatusBadRequest, "confidence must be between 0 and 1")
	ErrInternalServerError = response.NewError(http.StatusInternalServerError, "internal server error")
	ErrBadRequest          = response.NewError(http.StatusBadRequest, "bad request")
)
