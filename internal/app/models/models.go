package models

// RoleType defines the user role type
type RoleType string

const (
	RoleStudent   RoleType = "STUDENT"
	RoleProfessor RoleType = "PROFESSOR"
	RoleAdmin     RoleType = "ADMIN"
)

// MaxSessions returns how many live session tokens a user of this role may
// hold at the same time. Issuing a token beyond the bound evicts the oldest.
func (r RoleType) MaxSessions() int {
	switch r {
	case RoleProfessor:
		return 3
	case RoleAdmin:
		return 5
	default:
		return 2
	}
}

// TokenType distinguishes access tokens from refresh tokens in the session store.
type TokenType string

const (
	TokenAccess  TokenType = "ACCESS"
	TokenRefresh TokenType = "REFRESH"
)

// EnrollmentStatus is the lifecycle state of an enrollment row.
type EnrollmentStatus string

const (
	EnrollmentSelected EnrollmentStatus = "SELECTED"
	EnrollmentPassed   EnrollmentStatus = "PASSED"
	EnrollmentFailed   EnrollmentStatus = "FAILED"
	EnrollmentDropped  EnrollmentStatus = "DROPPED"
)

// enrollmentTransitions is the fixed transition table. SELECTED is the only
// non-terminal state; PASSED/FAILED are set by the grading process, DROPPED
// by a student or professor drop. Rows are never deleted.
var enrollmentTransitions = map[EnrollmentStatus][]EnrollmentStatus{
	EnrollmentSelected: {EnrollmentPassed, EnrollmentFailed, EnrollmentDropped},
}

// CanTransitionTo reports whether the status change is allowed by the table.
func (s EnrollmentStatus) CanTransitionTo(next EnrollmentStatus) bool {
	for _, allowed := range enrollmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
