package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sepehrad/unienroll/internal/app/models"
	"github.com/sepehrad/unienroll/internal/app/models/dto"
	"github.com/sepehrad/unienroll/internal/pkg/apperrors"
)

// SemesterStore is the persistence surface the semester service needs.
type SemesterStore interface {
	Create(ctx context.Context, semester *models.Semester) error
	GetByName(ctx context.Context, name string) (*models.Semester, error)
	GetByID(ctx context.Context, id int64) (*models.Semester, error)
	List(ctx context.Context) ([]*models.Semester, error)
	Update(ctx context.Context, semester *models.Semester) error
}

// SemesterService manages academic terms and their unit-load window.
type SemesterService struct {
	store  SemesterStore
	logger zerolog.Logger
}

// NewSemesterService creates a new SemesterService
func NewSemesterService(store SemesterStore, logger zerolog.Logger) *SemesterService {
	return &SemesterService{
		store:  store,
		logger: logger,
	}
}

// CreateSemester creates an academic term after validating its date range
// and unit window.
func (s *SemesterService) CreateSemester(ctx context.Context, req *dto.CreateSemesterRequest) (*models.Semester, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.NewCustomError(apperrors.ErrBadRequest, "semester name cannot be empty")
	}

	semester := &models.Semester{
		Name:      name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		MinUnits:  req.MinUnits,
		MaxUnits:  req.MaxUnits,
	}

	if err := validateSemester(semester); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, semester); err != nil {
		return nil, err
	}

	s.logger.Info().Str("name", semester.Name).Msg("Semester created")
	return semester, nil
}

// UpdateSemester patches a semester field by field; nil request fields are
// left untouched. The patched result must still satisfy the invariants.
func (s *SemesterService) UpdateSemester(ctx context.Context, name string, req *dto.UpdateSemesterRequest) (*models.Semester, error) {
	semester, err := s.store.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if req.StartDate != nil {
		semester.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		semester.EndDate = *req.EndDate
	}
	if req.MinUnits != nil {
		semester.MinUnits = *req.MinUnits
	}
	if req.MaxUnits != nil {
		semester.MaxUnits = *req.MaxUnits
	}

	if err := validateSemester(semester); err != nil {
		return nil, err
	}

	if err := s.store.Update(ctx, semester); err != nil {
		return nil, err
	}

	s.logger.Info().Str("name", semester.Name).Msg("Semester updated")
	return semester, nil
}

func validateSemester(semester *models.Semester) error {
	if semester.StartDate.After(semester.EndDate) {
		return apperrors.ErrInvalidSemesterDates
	}
	if semester.MinUnits <= 0 || semester.MaxUnits <= 0 {
		return apperrors.NewCustomError(apperrors.ErrBadRequest, "semester unit bounds must be positive")
	}
	if semester.MinUnits > semester.MaxUnits {
		return apperrors.ErrInvalidSemesterUnits
	}
	return nil
}

// GetSemester retrieves a semester by its unique name
func (s *SemesterService) GetSemester(ctx context.Context, name string) (*models.Semester, error) {
	return s.store.GetByName(ctx, name)
}

// ListSemesters retrieves all semesters ordered by start date
func (s *SemesterService) ListSemesters(ctx context.Context) ([]*models.Semester, error) {
	return s.store.List(ctx)
}
