package apperrors

import "errors"

// Error kinds. Every failure crossing the service boundary wraps one of
// these three so the HTTP layer can map it to a status code.
var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrConflict         = errors.New("conflict")
	ErrBadRequest       = errors.New("bad request")
)

// Catalog errors
var (
	ErrCourseNotFound      = errors.New("course not found")
	ErrDuplicateCourseCode = errors.New("duplicate course code")
	ErrUnknownPrerequisite = errors.New("unknown prerequisite code(s)")
	ErrSelfPrerequisite    = errors.New("course cannot require itself")
	ErrCyclicPrerequisite  = errors.New("cyclic prerequisite dependency")
	ErrCourseHasDependants = errors.New("course is a prerequisite of other courses")
)

// Semester / offering errors
var (
	ErrSemesterNotFound      = errors.New("semester not found")
	ErrSemesterAlreadyExists = errors.New("semester with this name already exists")
	ErrInvalidSemesterDates  = errors.New("semester start date must not be after end date")
	ErrInvalidSemesterUnits  = errors.New("semester min units must not exceed max units")
	ErrOfferingNotFound      = errors.New("offering not found")
	ErrTimeSlotNotFound      = errors.New("time slot not found")
)

// Admission errors, in pipeline order.
var (
	ErrFullCapacity          = errors.New("full capacity")
	ErrDroppedThisSemester   = errors.New("course was dropped this semester")
	ErrAlreadyTaken          = errors.New("course already taken this semester")
	ErrPrerequisiteNotPassed = errors.New("prerequisite not passed")
	ErrExamConflict          = errors.New("exam date conflict")
	ErrTimeConflict          = errors.New("class time conflict")
	ErrMaxUnitExceeded       = errors.New("max unit exceeded")
	ErrEnrollmentNotFound    = errors.New("enrollment not found")
	ErrInvalidDropStatus     = errors.New("invalid status for drop")
)

// Authentication errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrPermissionDenied   = errors.New("permission denied")
)

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// Is returns whether target matches err or any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}
	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
