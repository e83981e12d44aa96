package models

import "time"

// Enrollment ties a student to a course offering. Rows are created only by
// the enroll pipeline with status SELECTED and are never deleted; DROPPED
// and graded rows stay behind as history feeding later admission decisions.
type Enrollment struct {
	ID         int64            `json:"id" db:"id"`
	StudentID  int64            `json:"studentId" db:"student_id"`
	OfferingID int64            `json:"offeringId" db:"offering_id"`
	Status     EnrollmentStatus `json:"status" db:"status"`
	CreatedAt  time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time        `json:"updatedAt" db:"updated_at"`

	// Relations (populated when needed)
	Offering *CourseOffering `json:"offering,omitempty"`
}
