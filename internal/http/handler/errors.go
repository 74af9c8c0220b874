package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/http/response"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/repository"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/service"
)

const msgInternal = "Internal server error"

// writeServiceError maps service and repository errors onto the API error
// body. Unrecognized errors are logged and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error(), verr.Fields)
	case errors.Is(err, repository.ErrInvalidID):
		response.Error(w, r, http.StatusBadRequest, "INVALID_ID", "Invalid id", nil)
	case errors.Is(err, repository.ErrUnknownField):
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, service.ErrEmailTaken):
		response.Error(w, r, http.StatusBadRequest, "EMAIL_TAKEN", "User with this email already exists", nil)
	case errors.Is(err, service.ErrUserNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
	case errors.Is(err, service.ErrProfileNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "Profile not found", nil)
	case errors.Is(err, service.ErrAlreadyVIP):
		response.Error(w, r, http.StatusConflict, "ALREADY_VIP", "User is already VIP", nil)
	case errors.Is(err, service.ErrProfileExists):
		response.Error(w, r, http.StatusConflict, "CONFLICT", "Profile already exists", nil)
	case errors.Is(err, service.ErrFileTooBig):
		response.Error(w, r, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error(), nil)
	case errors.Is(err, service.ErrInvalidFileType):
		response.Error(w, r, http.StatusBadRequest, "INVALID_FILE_TYPE", err.Error(), nil)
	case errors.Is(err, service.ErrUnauthorizedAccess):
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	case errors.Is(err, service.ErrStorageDisabled):
		response.Error(w, r, http.StatusServiceUnavailable, "STORAGE_DISABLED", "Avatar storage is not enabled", nil)
	default:
		logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", msgInternal, nil)
	}
}
