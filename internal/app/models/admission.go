package models

// AdmissionSnapshot is everything the enroll pipeline needs to decide,
// gathered in one transaction while the target offering row is locked.
// The decision itself is a pure function over this value.
type AdmissionSnapshot struct {
	// Offering is the target, with Course, Semester and TimeSlots populated.
	Offering *CourseOffering
	// EnrolledCount is the number of enrollment rows already referencing
	// the offering, counted per the configured mode (all statuses by
	// default, so history permanently consumes seats).
	EnrolledCount int
	// DroppedSameSemester is true when the student dropped this course in
	// this semester before.
	DroppedSameSemester bool
	// TakenSameSemester is true when any enrollment row exists for
	// (student, semester, course), regardless of status.
	TakenSameSemester bool
	// Prerequisites are the target course's direct prerequisites.
	Prerequisites []*Course
	// PassedCourseIDs holds every course the student has PASSED, any semester.
	PassedCourseIDs map[int64]struct{}
	// SemesterEnrollments are the student's enrollments in the target
	// semester as stored, unfiltered by status, with Offering (Course and
	// TimeSlots included) populated.
	SemesterEnrollments []*Enrollment
}
