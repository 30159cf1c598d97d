// Package handlers exposes the storefront content API. Handlers stay thin:
// decode, validate, call the service, map the error taxonomy onto the
// response envelope.
package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"printora-backend/pkg/common"
	pkgerrors "printora-backend/pkg/errors"
)

// respondServiceError maps a service error onto the JSON envelope. Validation
// and not-found outcomes are expected traffic and not logged here; anything
// unclassified is a server fault.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case pkgerrors.IsValidation(err):
		common.RespondError(w, http.StatusBadRequest,
			common.StandardErrorCodes.ValidationError, errorMessage(err))
	case pkgerrors.IsNotFound(err):
		common.RespondError(w, http.StatusNotFound,
			common.StandardErrorCodes.NotFound, errorMessage(err))
	case pkgerrors.IsConflict(err):
		common.RespondError(w, http.StatusConflict,
			common.StandardErrorCodes.Conflict, errorMessage(err))
	default:
		logger.Error("Request failed", zap.Error(err))
		common.RespondError(w, http.StatusInternalServerError,
			common.StandardErrorCodes.InternalError, "An internal error occurred")
	}
}

// errorMessage strips the taxonomy prefix for client-facing messages.
func errorMessage(err error) string {
	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		return appErr.Message
	}
	return err.Error()
}
