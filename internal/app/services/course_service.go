package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sepehrad/unienroll/internal/app/models"
	"github.com/sepehrad/unienroll/internal/app/models/dto"
	"github.com/sepehrad/unienroll/internal/pkg/apperrors"
)

// CourseStore is the persistence surface the course service needs.
type CourseStore interface {
	CodeExists(ctx context.Context, code string) (bool, error)
	FindByCodes(ctx context.Context, codes []string) ([]*models.Course, error)
	GetByCode(ctx context.Context, code string) (*models.Course, error)
	List(ctx context.Context) ([]*models.Course, error)
	// CreateChecked inserts the course and its edges, then calls check
	// with the full prerequisite adjacency read in the same transaction;
	// a check error rolls the creation back.
	CreateChecked(ctx context.Context, course *models.Course, prerequisiteIDs []int64, check func(adjacency map[int64][]int64) error) error
	HasDependants(ctx context.Context, courseID int64) (bool, error)
	Delete(ctx context.Context, courseID int64) error
}

// CourseService guards the course catalog. Its main job is keeping the
// prerequisite relation acyclic: every creation re-validates the whole
// graph, not just the new node's neighborhood, so cycles closed through
// pre-existing edges are caught too.
type CourseService struct {
	store  CourseStore
	logger zerolog.Logger
}

// NewCourseService creates a new CourseService
func NewCourseService(store CourseStore, logger zerolog.Logger) *CourseService {
	return &CourseService{
		store:  store,
		logger: logger,
	}
}

// AddCourse creates a course with its prerequisite edges. The creation is
// rejected when the code is taken, any prerequisite code is unknown, the
// course requires itself, or the new edges would close a cycle anywhere in
// the catalog.
func (s *CourseService) AddCourse(ctx context.Context, req *dto.CreateCourseRequest) (*models.Course, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, apperrors.NewCustomError(apperrors.ErrBadRequest, "course code cannot be empty")
	}
	if req.Units <= 0 {
		return nil, apperrors.NewCustomError(apperrors.ErrBadRequest, "course units must be positive")
	}

	exists, err := s.store.CodeExists(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("error checking course code: %w", err)
	}
	if exists {
		return nil, apperrors.ErrDuplicateCourseCode
	}

	for _, prereqCode := range req.PrerequisiteCodes {
		if prereqCode == code {
			return nil, apperrors.ErrSelfPrerequisite
		}
	}

	prereqIDs, err := s.resolvePrerequisites(ctx, req.PrerequisiteCodes)
	if err != nil {
		return nil, err
	}

	course := &models.Course{
		Code:  code,
		Name:  req.Name,
		Units: req.Units,
	}

	err = s.store.CreateChecked(ctx, course, prereqIDs, func(adjacency map[int64][]int64) error {
		if hasCycle(adjacency) {
			return apperrors.ErrCyclicPrerequisite
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("code", course.Code).Int("prerequisites", len(prereqIDs)).Msg("Course created")

	return s.store.GetByCode(ctx, course.Code)
}

// resolvePrerequisites maps prerequisite codes to course ids, reporting
// every missing code at once rather than just the first.
func (s *CourseService) resolvePrerequisites(ctx context.Context, codes []string) ([]int64, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	found, err := s.store.FindByCodes(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("error resolving prerequisite codes: %w", err)
	}

	byCode := make(map[string]int64, len(found))
	for _, c := range found {
		byCode[c.Code] = c.ID
	}

	var ids []int64
	var missing []string
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		if seen[code] {
			continue
		}
		seen[code] = true
		id, ok := byCode[code]
		if !ok {
			missing = append(missing, code)
			continue
		}
		ids = append(ids, id)
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, apperrors.NewCustomError(
			apperrors.ErrUnknownPrerequisite,
			fmt.Sprintf("unknown prerequisite code(s): %s", strings.Join(missing, ", ")),
		).WithDetails(map[string]interface{}{"codes": missing})
	}

	return ids, nil
}

// GetCourse retrieves a course by code with prerequisites populated
func (s *CourseService) GetCourse(ctx context.Context, code string) (*models.Course, error) {
	return s.store.GetByCode(ctx, code)
}

// ListCourses retrieves the whole catalog
func (s *CourseService) ListCourses(ctx context.Context) ([]*models.Course, error) {
	return s.store.List(ctx)
}

// DeleteCourse removes a course. Deletion is refused while other courses
// list it as a prerequisite; cascading would silently break their chains.
func (s *CourseService) DeleteCourse(ctx context.Context, code string) error {
	course, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return err
	}

	dependants, err := s.store.HasDependants(ctx, course.ID)
	if err != nil {
		return fmt.Errorf("error checking course dependants: %w", err)
	}
	if dependants {
		return apperrors.ErrCourseHasDependants
	}

	if err := s.store.Delete(ctx, course.ID); err != nil {
		return err
	}

	s.logger.Info().Str("code", code).Msg("Course deleted")
	return nil
}
