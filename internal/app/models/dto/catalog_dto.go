package dto

import (
	"time"

	"github.com/sepehrad/unienroll/internal/app/models"
)

// CreateCourseRequest adds a course and its prerequisite edges to the catalog.
type CreateCourseRequest struct {
	Code              string   `json:"code" binding:"required"`
	Name              string   `json:"name" binding:"required"`
	Units             int      `json:"units" binding:"required,gt=0"`
	PrerequisiteCodes []string `json:"prerequisiteCodes"`
}

// CreateSemesterRequest creates an academic term.
type CreateSemesterRequest struct {
	Name      string    `json:"name" binding:"required"`
	StartDate time.Time `json:"startDate" binding:"required"`
	EndDate   time.Time `json:"endDate" binding:"required"`
	MinUnits  int       `json:"minUnits" binding:"required,gt=0"`
	MaxUnits  int       `json:"maxUnits" binding:"required,gt=0"`
}

// UpdateSemesterRequest patches a semester field by field; nil fields are
// left untouched.
type UpdateSemesterRequest struct {
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	MinUnits  *int       `json:"minUnits"`
	MaxUnits  *int       `json:"maxUnits"`
}

// CreateOfferingRequest opens a new section of a course in a semester. The
// section number is assigned by the server.
type CreateOfferingRequest struct {
	CourseCode   string    `json:"courseCode" binding:"required"`
	SemesterName string    `json:"semesterName" binding:"required"`
	ProfessorID  int64     `json:"professorId" binding:"required"`
	Capacity     int       `json:"capacity" binding:"required,gt=0"`
	ExamAt       time.Time `json:"examAt" binding:"required"`
	Classroom    string    `json:"classroom" binding:"required"`
	TimeSlotIDs  []int64   `json:"timeSlotIds" binding:"required,min=1"`
}

// EnrollRequest identifies the offering a student wants a seat in.
type EnrollRequest struct {
	CourseCode   string `json:"courseCode" binding:"required"`
	Section      int    `json:"section" binding:"required,gt=0"`
	SemesterName string `json:"semesterName" binding:"required"`
}

// DropRequest identifies the enrollment to drop by its natural key.
type DropRequest struct {
	CourseCode   string `json:"courseCode" binding:"required"`
	Section      int    `json:"section" binding:"required,gt=0"`
	SemesterName string `json:"semesterName" binding:"required"`
}

// GradeRequest records the outcome of a finished enrollment.
type GradeRequest struct {
	Result models.EnrollmentStatus `json:"result" binding:"required,oneof=PASSED FAILED"`
}

// ProfessorDropRequest removes a student from a section the caller teaches.
type ProfessorDropRequest struct {
	StudentID    int64  `json:"studentId" binding:"required"`
	CourseCode   string `json:"courseCode" binding:"required"`
	Section      int    `json:"section" binding:"required,gt=0"`
	SemesterName string `json:"semesterName" binding:"required"`
}
