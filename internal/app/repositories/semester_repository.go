package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/sepehrad/unienroll/internal/app/models"
	"github.com/sepehrad/unienroll/internal/db"
	"github.com/sepehrad/unienroll/internal/pkg/apperrors"
	"github.com/sepehrad/unienroll/internal/pkg/dberrors"
)

// SemesterRepository handles semester database operations
type SemesterRepository struct {
	db *db.PostgresDB
	q  Querier
	sb squirrel.StatementBuilderType
}

// NewSemesterRepository creates a new SemesterRepository
func NewSemesterRepository(database *db.PostgresDB) *SemesterRepository {
	return &SemesterRepository{
		db: database,
		q:  database.Pool,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new semester
func (r *SemesterRepository) Create(ctx context.Context, semester *models.Semester) error {
	sql, args, err := r.sb.Insert("semesters").
		Columns("name", "start_date", "end_date", "min_units", "max_units").
		Values(semester.Name, semester.StartDate, semester.EndDate, semester.MinUnits, semester.MaxUnits).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert semester query: %w", err)
	}

	if err := r.q.QueryRow(ctx, sql, args...).Scan(&semester.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "semesters_name_key") {
			return apperrors.ErrSemesterAlreadyExists
		}
		return fmt.Errorf("error inserting semester: %w", err)
	}

	return nil
}

// GetByName retrieves a semester by its unique name
func (r *SemesterRepository) GetByName(ctx context.Context, name string) (*models.Semester, error) {
	return r.getOne(ctx, squirrel.Eq{"name": name})
}

// GetByID retrieves a semester by id
func (r *SemesterRepository) GetByID(ctx context.Context, id int64) (*models.Semester, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

func (r *SemesterRepository) getOne(ctx context.Context, where squirrel.Eq) (*models.Semester, error) {
	sql, args, err := r.sb.Select("id", "name", "start_date", "end_date", "min_units", "max_units").
		From("semesters").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get semester query: %w", err)
	}

	var s models.Semester
	err = r.q.QueryRow(ctx, sql, args...).
		Scan(&s.ID, &s.Name, &s.StartDate, &s.EndDate, &s.MinUnits, &s.MaxUnits)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSemesterNotFound
		}
		return nil, fmt.Errorf("error retrieving semester: %w", err)
	}

	return &s, nil
}

// List retrieves all semesters ordered by start date
func (r *SemesterRepository) List(ctx context.Context) ([]*models.Semester, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, name, start_date, end_date, min_units, max_units
		FROM semesters
		ORDER BY start_date`)
	if err != nil {
		return nil, fmt.Errorf("error listing semesters: %w", err)
	}
	defer rows.Close()

	var semesters []*models.Semester
	for rows.Next() {
		var s models.Semester
		if err := rows.Scan(&s.ID, &s.Name, &s.StartDate, &s.EndDate, &s.MinUnits, &s.MaxUnits); err != nil {
			return nil, err
		}
		semesters = append(semesters, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return semesters, nil
}

// Update persists a patched semester
func (r *SemesterRepository) Update(ctx context.Context, semester *models.Semester) error {
	sql, args, err := r.sb.Update("semesters").
		Set("start_date", semester.StartDate).
		Set("end_date", semester.EndDate).
		Set("min_units", semester.MinUnits).
		Set("max_units", semester.MaxUnits).
		Where(squirrel.Eq{"id": semester.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update semester query: %w", err)
	}

	cmdTag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating semester: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrSemesterNotFound
	}

	return nil
}
