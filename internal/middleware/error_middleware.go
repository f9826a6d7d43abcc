package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SF-ND-NEW/miniapp-backend/internal/app/models/dto"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/apperrors"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/logger"
)

// HandleAPIError maps service errors to HTTP responses. Policy failures
// are client errors; only unknown errors surface as 500.
func HandleAPIError(c *gin.Context, err error) {
	switch {
	// Admission policy
	case errors.Is(err, apperrors.ErrCooldownActive):
		respondError(c, http.StatusBadRequest, dto.ErrorCodeCooldownActive, "Only one song request per 30 minutes")
	case errors.Is(err, apperrors.ErrDuplicateRequest):
		respondError(c, http.StatusBadRequest, dto.ErrorCodeDuplicateRequest, "This song is already in the request list")
	case errors.Is(err, apperrors.ErrQuotaExceeded):
		respondError(c, http.StatusBadRequest, dto.ErrorCodeQuotaExceeded, "You already have 3 outstanding song requests")

	// Binding
	case errors.Is(err, apperrors.ErrNotEnrolled):
		respondError(c, http.StatusBadRequest, dto.ErrorCodeNotEnrolled, "Student ID and name do not match any enrollment record")
	case errors.Is(err, apperrors.ErrBoundElsewhere):
		respondError(c, http.StatusBadRequest, dto.ErrorCodeBoundElsewhere, "This student account is already bound to another WeChat identity")
	case errors.Is(err, apperrors.ErrUserNotBound):
		respondError(c, http.StatusUnauthorized, dto.ErrorCodeNotBound, "Bind your student account first")

	// Review and playback
	case errors.Is(err, apperrors.ErrInvalidDecision):
		respondError(c, http.StatusBadRequest, dto.ErrorCodeInvalidDecision, "Review decision must be approved or rejected")
	case errors.Is(err, apperrors.ErrAlreadyReviewed):
		respondError(c, http.StatusBadRequest, dto.ErrorCodeAlreadyReviewed, "This song request has already been reviewed")
	case errors.Is(err, apperrors.ErrInvalidStatus):
		respondError(c, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Invalid song request status")
	case errors.Is(err, apperrors.ErrRequestNotApproved):
		respondError(c, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Song request is not in the approved state")
	case errors.Is(err, apperrors.ErrRequestNotFound):
		respondError(c, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Song request not found")

	// Authentication
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials")
	case errors.Is(err, apperrors.ErrTokenExpired):
		respondError(c, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired")
	case errors.Is(err, apperrors.ErrTokenRevoked):
		respondError(c, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Token revoked")
	case errors.Is(err, apperrors.ErrTokenInvalid):
		respondError(c, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token")
	case errors.Is(err, apperrors.ErrTokenNotFound):
		respondError(c, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound, "Token not found")
	case errors.Is(err, apperrors.ErrPermissionDenied):
		respondError(c, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied")

	// Generic
	case errors.Is(err, apperrors.ErrValidationFailed), errors.Is(err, apperrors.ErrBadRequest):
		respondError(c, http.StatusBadRequest, dto.ErrorCodeValidationFailed, validationMessage(err))
	case errors.Is(err, apperrors.ErrResourceNotFound), errors.Is(err, apperrors.ErrUserNotFound):
		respondError(c, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found")
	case errors.Is(err, apperrors.ErrExternalService):
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("Upstream service error")
		respondError(c, http.StatusBadGateway, dto.ErrorCodeExternalServiceError, "Upstream service error")

	default:
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled API error")
		respondError(c, http.StatusInternalServerError, dto.ErrorCodeInternalServer, "Internal server error")
	}
}

func respondError(c *gin.Context, status int, code dto.ErrorCode, message string) {
	c.JSON(status, dto.NewErrorResponse(dto.NewErrorDetail(code, message)))
}

// validationMessage prefers the wrapped CustomError message when present.
func validationMessage(err error) string {
	var custom *apperrors.CustomError
	if errors.As(err, &custom) && custom.Message != "" {
		return custom.Message
	}
	return "Validation failed"
}
