package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sepehrad/unienroll/internal/app/models"
	"github.com/sepehrad/unienroll/internal/pkg/apperrors"
)

// EnrollmentStore is the persistence surface the enrollment service needs.
type EnrollmentStore interface {
	// EnrollChecked resolves and locks the target offering, builds the
	// admission snapshot in the same transaction, calls check, and
	// inserts the SELECTED row only when check returns nil.
	EnrollChecked(ctx context.Context, studentID int64, courseCode string, section int, semesterName string, check func(*models.AdmissionSnapshot) error) (*models.Enrollment, error)
	FindByNaturalKey(ctx context.Context, studentID int64, courseCode string, section int, semesterName string) (*models.Enrollment, error)
	UpdateStatusFrom(ctx context.Context, id int64, from, to models.EnrollmentStatus) (bool, error)
	ListForSemester(ctx context.Context, studentID, semesterID int64) ([]*models.Enrollment, error)
}

// EnrollmentService is the admission-control engine: it validates and
// commits or retracts a student's enrollment against capacity,
// duplication, prerequisite, schedule and unit-load constraints. All
// checks and the insert run in one transaction with the offering row
// locked, so two concurrent enrolls cannot both take the last seat.
type EnrollmentService struct {
	store  EnrollmentStore
	logger zerolog.Logger
}

// NewEnrollmentService creates a new EnrollmentService
func NewEnrollmentService(store EnrollmentStore, logger zerolog.Logger) *EnrollmentService {
	return &EnrollmentService{
		store:  store,
		logger: logger,
	}
}

// Enroll admits a student into an offering resolved by (course code,
// section, semester name), creating a SELECTED enrollment when every
// admission check passes.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID int64, courseCode string, section int, semesterName string) (*models.Enrollment, error) {
	enrollment, err := s.store.EnrollChecked(ctx, studentID, courseCode, section, semesterName, admit)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("studentId", studentID).
		Str("course", courseCode).
		Int("section", section).
		Str("semester", semesterName).
		Msg("Enrollment created")

	return enrollment, nil
}

// admit is the ordered admission pipeline, a pure function over the
// snapshot. Steps short-circuit in the order the checks are listed; the
// first violated constraint decides the error.
//
// The capacity count and the same-semester load pass include DROPPED and
// graded rows, matching the observed behaviour: history permanently
// consumes seats and units. The duplicate guard subsumes the re-drop
// guard, but both run and keep their distinct errors because callers may
// rely on the distinction.
func admit(snap *models.AdmissionSnapshot) error {
	offering := snap.Offering

	if snap.EnrolledCount >= offering.Capacity {
		return apperrors.ErrFullCapacity
	}

	if snap.DroppedSameSemester {
		return apperrors.ErrDroppedThisSemester
	}

	if snap.TakenSameSemester {
		return apperrors.ErrAlreadyTaken
	}

	for _, prereq := range snap.Prerequisites {
		if _, passed := snap.PassedCourseIDs[prereq.ID]; !passed {
			return apperrors.NewCustomError(
				apperrors.ErrPrerequisiteNotPassed,
				fmt.Sprintf("prerequisite %s not passed", prereq.Code),
			).WithDetails(map[string]interface{}{"code": prereq.Code})
		}
	}

	newSlots := make(map[int64]struct{}, len(offering.TimeSlots))
	for _, slot := range offering.TimeSlots {
		newSlots[slot.ID] = struct{}{}
	}

	totalUnits := 0
	for _, existing := range snap.SemesterEnrollments {
		if existing.Offering.ExamAt.Equal(offering.ExamAt) {
			return apperrors.ErrExamConflict
		}
		for _, slot := range existing.Offering.TimeSlots {
			if _, clash := newSlots[slot.ID]; clash {
				return apperrors.ErrTimeConflict
			}
		}
		totalUnits += existing.Offering.Course.Units
	}

	totalUnits += offering.Course.Units
	if totalUnits > offering.Semester.MaxUnits {
		return apperrors.ErrMaxUnitExceeded
	}

	return nil
}

// Drop retracts a student's own SELECTED enrollment, resolved by its
// natural key. The row is kept with status DROPPED.
func (s *EnrollmentService) Drop(ctx context.Context, studentID int64, courseCode string, section int, semesterName string) error {
	enrollment, err := s.store.FindByNaturalKey(ctx, studentID, courseCode, section, semesterName)
	if err != nil {
		return err
	}

	return s.drop(ctx, enrollment)
}

// ProfessorDrop removes a student from a section the caller teaches. An
// ownership mismatch reports not-found, indistinguishable from a missing
// enrollment, so non-owners cannot probe for existence.
func (s *EnrollmentService) ProfessorDrop(ctx context.Context, professorID, studentID int64, courseCode string, section int, semesterName string) error {
	enrollment, err := s.store.FindByNaturalKey(ctx, studentID, courseCode, section, semesterName)
	if err != nil {
		return err
	}

	if enrollment.Offering.ProfessorID != professorID {
		return apperrors.ErrEnrollmentNotFound
	}

	return s.drop(ctx, enrollment)
}

func (s *EnrollmentService) drop(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.Status != models.EnrollmentSelected {
		return apperrors.ErrInvalidDropStatus
	}

	transitioned, err := s.store.UpdateStatusFrom(ctx, enrollment.ID, models.EnrollmentSelected, models.EnrollmentDropped)
	if err != nil {
		return fmt.Errorf("error dropping enrollment: %w", err)
	}
	if !transitioned {
		// The status changed between read and update
		return apperrors.ErrInvalidDropStatus
	}

	s.logger.Info().Int64("enrollmentId", enrollment.ID).Msg("Enrollment dropped")
	return nil
}

// Grade transitions a SELECTED enrollment to PASSED or FAILED. The
// admission engine never calls this itself; it is the hook for the
// external grading process, and only reads PASSED rows afterwards.
func (s *EnrollmentService) Grade(ctx context.Context, enrollmentID int64, result models.EnrollmentStatus) error {
	if !models.EnrollmentSelected.CanTransitionTo(result) ||
		(result != models.EnrollmentPassed && result != models.EnrollmentFailed) {
		return apperrors.NewCustomError(apperrors.ErrBadRequest, "invalid grading result")
	}

	transitioned, err := s.store.UpdateStatusFrom(ctx, enrollmentID, models.EnrollmentSelected, result)
	if err != nil {
		return fmt.Errorf("error grading enrollment: %w", err)
	}
	if !transitioned {
		return apperrors.ErrEnrollmentNotFound
	}

	return nil
}

// ListSemesterEnrollments returns a student's enrollments in a semester,
// all statuses included.
func (s *EnrollmentService) ListSemesterEnrollments(ctx context.Context, studentID, semesterID int64) ([]*models.Enrollment, error) {
	return s.store.ListForSemester(ctx, studentID, semesterID)
}
