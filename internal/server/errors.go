package server

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/career-path/internal/errs"
	"github.com/jonathan/career-path/internal/types"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string    `json:"error"`
	Kind  errs.Kind `json:"kind,omitempty"`
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	switch errs.KindOf(err) {
	case errs.KindInput:
		return http.StatusBadRequest
	case errs.KindPrecondition:
		return http.StatusConflict
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindSchema:
		return http.StatusUnprocessableEntity
	case errs.KindConfig:
		return http.StatusServiceUnavailable
	case errs.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err with the "Error:" prefix users see everywhere else.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.jsonResponse(w, HTTPStatus(err), ErrorResponse{
		Error: types.RenderReply("", err),
		Kind:  errs.KindOf(err),
	})
}

// extractValidationErrors extracts validation error messages from validator errors.
func extractValidationErrors(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok && len(validationErrors) > 0 {
		// first failure only
		ve := validationErrors[0]
		return &errs.InputError{Message: fmt.Sprintf("%s failed %s", ve.Field(), ve.Tag())}
	}
	return &errs.InputError{Message: "invalid request", Cause: err}
}
