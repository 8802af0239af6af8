package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses by their kind.
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	message := apperror.MessageOf(err)
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		UnprocessableEntity(w, message)
	case apperror.KindConflict:
		Conflict(w, message)
	case apperror.KindInvariant:
		InvariantViolation(w, message)
	case apperror.KindAuthorization:
		Forbidden(w, message)
	case apperror.KindUnauthenticated:
		Unauthorized(w, message)
	case apperror.KindNotFound:
		NotFound(w, message)
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
