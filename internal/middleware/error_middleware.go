package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sepehrad/unienroll/internal/app/models/dto"
	"github.com/sepehrad/unienroll/internal/pkg/apperrors"
)

// HandleAPIError maps service errors to HTTP responses. Sentinels are
// matched by group; a CustomError wrapping a sentinel keeps its message.
func HandleAPIError(c *gin.Context, err error) {
	message := err.Error()

	switch {
	case apperrors.Is(err, apperrors.ErrResourceNotFound,
		apperrors.ErrCourseNotFound,
		apperrors.ErrSemesterNotFound,
		apperrors.ErrOfferingNotFound,
		apperrors.ErrTimeSlotNotFound,
		apperrors.ErrEnrollmentNotFound,
		apperrors.ErrUserNotFound):
		c.JSON(http.StatusNotFound, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, message),
		})

	case apperrors.Is(err, apperrors.ErrConflict,
		apperrors.ErrDuplicateCourseCode,
		apperrors.ErrSemesterAlreadyExists,
		apperrors.ErrEmailAlreadyExists,
		apperrors.ErrCourseHasDependants):
		c.JSON(http.StatusConflict, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, message),
		})

	case apperrors.Is(err, apperrors.ErrFullCapacity,
		apperrors.ErrDroppedThisSemester,
		apperrors.ErrAlreadyTaken,
		apperrors.ErrPrerequisiteNotPassed,
		apperrors.ErrExamConflict,
		apperrors.ErrTimeConflict,
		apperrors.ErrMaxUnitExceeded,
		apperrors.ErrInvalidDropStatus):
		c.JSON(http.StatusUnprocessableEntity, dto.APIResponse{
			Error: errorDetailWithContext(err, dto.ErrorCodeAdmissionDenied, message),
		})

	case apperrors.Is(err, apperrors.ErrBadRequest,
		apperrors.ErrUnknownPrerequisite,
		apperrors.ErrSelfPrerequisite,
		apperrors.ErrCyclicPrerequisite,
		apperrors.ErrInvalidSemesterDates,
		apperrors.ErrInvalidSemesterUnits):
		c.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: errorDetailWithContext(err, dto.ErrorCodeValidationFailed, message),
		})

	case errors.Is(err, apperrors.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeInvalidCredentials, "Invalid credentials"),
		})

	case errors.Is(err, apperrors.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired"),
		})

	case apperrors.Is(err, apperrors.ErrTokenInvalid, apperrors.ErrTokenNotFound):
		c.JSON(http.StatusUnauthorized, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token"),
		})

	case errors.Is(err, apperrors.ErrAccountDisabled):
		c.JSON(http.StatusForbidden, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Account is disabled"),
		})

	case errors.Is(err, apperrors.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Permission denied"),
		})

	default:
		c.JSON(http.StatusInternalServerError, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error"),
		})
	}
}

// errorDetailWithContext carries the Details map of a CustomError, if any,
// into the response.
func errorDetailWithContext(err error, code dto.ErrorCode, message string) *dto.ErrorDetail {
	detail := dto.NewErrorDetail(code, message)

	var custom *apperrors.CustomError
	if errors.As(err, &custom) && custom.Details != nil {
		detail = detail.WithDetails(custom.Details)
	}

	return detail
}
