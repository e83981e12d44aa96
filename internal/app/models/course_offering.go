package models

import "time"

// CourseOffering represents a section of a course taught by a professor in
// one semester. The section number is unique within (course, semester) and
// assigned sequentially at creation.
type CourseOffering struct {
	ID          int64     `json:"id" db:"id"`
	CourseID    int64     `json:"courseId" db:"course_id"`
	SemesterID  int64     `json:"semesterId" db:"semester_id"`
	ProfessorID int64     `json:"professorId" db:"professor_id"`
	Section     int       `json:"section" db:"section"`
	Capacity    int       `json:"capacity" db:"capacity"`
	ExamAt      time.Time `json:"examAt" db:"exam_at"`
	Classroom   string    `json:"classroom" db:"classroom"`

	// Relations (populated when needed)
	Course    *Course     `json:"course,omitempty"`
	Semester  *Semester   `json:"semester,omitempty"`
	TimeSlots []*TimeSlot `json:"timeSlots,omitempty"`
}
