package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sepehrad/unienroll/internal/app/models"
	"github.com/sepehrad/unienroll/internal/app/models/dto"
	"github.com/sepehrad/unienroll/internal/pkg/apperrors"
)

// OfferingStore is the persistence surface the offering service needs.
type OfferingStore interface {
	// CreateSequenced inserts the offering with the next section number
	// within (course, semester).
	CreateSequenced(ctx context.Context, offering *models.CourseOffering, slotIDs []int64) error
	GetByNaturalKey(ctx context.Context, courseCode string, section int, semesterName string) (*models.CourseOffering, error)
	ListBySemester(ctx context.Context, semesterID int64) ([]*models.CourseOffering, error)
}

// TimeSlotStore is the persistence surface for the fixed slot catalog.
type TimeSlotStore interface {
	List(ctx context.Context) ([]*models.TimeSlot, error)
	FindByIDs(ctx context.Context, ids []int64) ([]*models.TimeSlot, error)
}

// OfferingService opens sections of courses in semesters. Section numbers
// are server-assigned and sequential per (course, semester).
type OfferingService struct {
	store     OfferingStore
	courses   CourseStore
	semesters SemesterStore
	slots     TimeSlotStore
	users     UserStore
	logger    zerolog.Logger
}

// NewOfferingService creates a new OfferingService
func NewOfferingService(store OfferingStore, courses CourseStore, semesters SemesterStore, slots TimeSlotStore, users UserStore, logger zerolog.Logger) *OfferingService {
	return &OfferingService{
		store:     store,
		courses:   courses,
		semesters: semesters,
		slots:     slots,
		users:     users,
		logger:    logger,
	}
}

// CreateOffering opens a new section. The course, semester, professor and
// every referenced time slot must exist, and the professor must actually
// hold the PROFESSOR role.
func (s *OfferingService) CreateOffering(ctx context.Context, req *dto.CreateOfferingRequest) (*models.CourseOffering, error) {
	course, err := s.courses.GetByCode(ctx, req.CourseCode)
	if err != nil {
		return nil, err
	}

	semester, err := s.semesters.GetByName(ctx, req.SemesterName)
	if err != nil {
		return nil, err
	}

	professor, err := s.users.GetByID(ctx, req.ProfessorID)
	if err != nil {
		return nil, err
	}
	if professor.RoleType != models.RoleProfessor {
		return nil, apperrors.NewCustomError(apperrors.ErrBadRequest, "assigned user is not a professor")
	}

	slotIDs, err := s.resolveSlots(ctx, req.TimeSlotIDs)
	if err != nil {
		return nil, err
	}

	offering := &models.CourseOffering{
		CourseID:    course.ID,
		SemesterID:  semester.ID,
		ProfessorID: professor.ID,
		Capacity:    req.Capacity,
		ExamAt:      req.ExamAt,
		Classroom:   req.Classroom,
	}

	if err := s.store.CreateSequenced(ctx, offering, slotIDs); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("course", course.Code).
		Str("semester", semester.Name).
		Int("section", offering.Section).
		Msg("Offering created")

	return s.store.GetByNaturalKey(ctx, course.Code, offering.Section, semester.Name)
}

// resolveSlots checks that every requested slot id exists and that no id
// repeats within the request.
func (s *OfferingService) resolveSlots(ctx context.Context, ids []int64) ([]int64, error) {
	seen := make(map[int64]struct{}, len(ids))
	var unique []int64
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, apperrors.NewCustomError(apperrors.ErrBadRequest, "duplicate time slot id")
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	found, err := s.slots.FindByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("error resolving time slots: %w", err)
	}
	if len(found) != len(unique) {
		return nil, apperrors.ErrTimeSlotNotFound
	}

	return unique, nil
}

// GetOffering resolves an offering by (course code, section, semester name)
func (s *OfferingService) GetOffering(ctx context.Context, courseCode string, section int, semesterName string) (*models.CourseOffering, error) {
	return s.store.GetByNaturalKey(ctx, courseCode, section, semesterName)
}

// ListSemesterOfferings retrieves every offering of a semester
func (s *OfferingService) ListSemesterOfferings(ctx context.Context, semesterName string) ([]*models.CourseOffering, error) {
	semester, err := s.semesters.GetByName(ctx, semesterName)
	if err != nil {
		return nil, err
	}
	return s.store.ListBySemester(ctx, semester.ID)
}

// ListTimeSlots retrieves the fixed weekly slot catalog
func (s *OfferingService) ListTimeSlots(ctx context.Context) ([]*models.TimeSlot, error) {
	return s.slots.List(ctx)
}
