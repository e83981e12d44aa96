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
	"github.com/sepehrad/unienroll/internal/pkg/logger"
)

// CourseRepository handles course and prerequisite-edge database operations
type CourseRepository struct {
	db *db.PostgresDB
	q  Querier
	sb squirrel.StatementBuilderType
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(database *db.PostgresDB) *CourseRepository {
	return &CourseRepository{
		db: database,
		q:  database.Pool,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *CourseRepository) withTx(tx pgx.Tx) *CourseRepository {
	return &CourseRepository{db: r.db, q: tx, sb: r.sb}
}

// CodeExists checks whether a course code is already taken
func (r *CourseRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM courses WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking course code existence: %w", err)
	}
	return exists, nil
}

// FindByCodes resolves a set of course codes. Codes without a matching row
// are simply absent from the result; the caller decides what missing means.
func (r *CourseRepository) FindByCodes(ctx context.Context, codes []string) ([]*models.Course, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	sql, args, err := r.sb.Select("id", "code", "name", "units").
		From("courses").
		Where(squirrel.Eq{"code": codes}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build find courses query: %w", err)
	}

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying courses by codes: %w", err)
	}
	defer rows.Close()

	return scanCourses(rows)
}

// GetByCode retrieves a course by code with its prerequisites populated
func (r *CourseRepository) GetByCode(ctx context.Context, code string) (*models.Course, error) {
	var course models.Course
	err := r.q.QueryRow(ctx,
		`SELECT id, code, name, units FROM courses WHERE code = $1`, code).
		Scan(&course.ID, &course.Code, &course.Name, &course.Units)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		return nil, fmt.Errorf("error retrieving course: %w", err)
	}

	prereqs, err := r.prerequisitesOf(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	course.Prerequisites = prereqs

	return &course, nil
}

// List retrieves all courses ordered by code
func (r *CourseRepository) List(ctx context.Context) ([]*models.Course, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, code, name, units FROM courses ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("error listing courses: %w", err)
	}
	defer rows.Close()

	return scanCourses(rows)
}

// prerequisitesOf returns the direct prerequisites of a course
func (r *CourseRepository) prerequisitesOf(ctx context.Context, courseID int64) ([]*models.Course, error) {
	rows, err := r.q.Query(ctx, `
		SELECT c.id, c.code, c.name, c.units
		FROM courses c
		JOIN course_prerequisites p ON p.prerequisite_id = c.id
		WHERE p.course_id = $1
		ORDER BY c.code`, courseID)
	if err != nil {
		return nil, fmt.Errorf("error querying prerequisites: %w", err)
	}
	defer rows.Close()

	return scanCourses(rows)
}

// CreateChecked inserts the course and its prerequisite edges, then hands
// the full prerequisite adjacency (course id -> prerequisite ids, read in
// the same transaction) to the check function. A non-nil check error rolls
// everything back, so a rejected course leaves no partial edges behind.
func (r *CourseRepository) CreateChecked(ctx context.Context, course *models.Course, prerequisiteIDs []int64, check func(adjacency map[int64][]int64) error) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		txRepo := r.withTx(tx)

		sql, args, err := txRepo.sb.Insert("courses").
			Columns("code", "name", "units").
			Values(course.Code, course.Name, course.Units).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build insert course query: %w", err)
		}

		if err := tx.QueryRow(ctx, sql, args...).Scan(&course.ID); err != nil {
			if dberrors.IsDuplicateConstraintError(err, "courses_code_key") {
				return apperrors.ErrDuplicateCourseCode
			}
			return fmt.Errorf("error inserting course: %w", err)
		}

		for _, prereqID := range prerequisiteIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO course_prerequisites (course_id, prerequisite_id) VALUES ($1, $2)`,
				course.ID, prereqID); err != nil {
				return fmt.Errorf("error inserting prerequisite edge: %w", err)
			}
		}

		adjacency, err := txRepo.adjacency(ctx)
		if err != nil {
			return err
		}

		if err := check(adjacency); err != nil {
			logger.Warn().Str("code", course.Code).Err(err).Msg("Course creation rejected by invariant check")
			return err
		}

		return nil
	})
}

// adjacency reads every prerequisite edge in the catalog
func (r *CourseRepository) adjacency(ctx context.Context) (map[int64][]int64, error) {
	rows, err := r.q.Query(ctx,
		`SELECT course_id, prerequisite_id FROM course_prerequisites`)
	if err != nil {
		return nil, fmt.Errorf("error querying prerequisite edges: %w", err)
	}
	defer rows.Close()

	adjacency := make(map[int64][]int64)
	for rows.Next() {
		var courseID, prereqID int64
		if err := rows.Scan(&courseID, &prereqID); err != nil {
			return nil, err
		}
		adjacency[courseID] = append(adjacency[courseID], prereqID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return adjacency, nil
}

// HasDependants reports whether any other course lists this one as a prerequisite
func (r *CourseRepository) HasDependants(ctx context.Context, courseID int64) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM course_prerequisites WHERE prerequisite_id = $1)`,
		courseID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking course dependants: %w", err)
	}
	return exists, nil
}

// Delete removes a course and its outgoing prerequisite edges. The caller
// must have verified no other course depends on it; the foreign key acts
// as a backstop and is reported as a conflict.
func (r *CourseRepository) Delete(ctx context.Context, courseID int64) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM course_prerequisites WHERE course_id = $1`, courseID); err != nil {
			return fmt.Errorf("error deleting prerequisite edges: %w", err)
		}

		cmdTag, err := tx.Exec(ctx, `DELETE FROM courses WHERE id = $1`, courseID)
		if err != nil {
			if dberrors.IsForeignKeyViolation(err, "course_prerequisites_prerequisite_id_fkey") {
				return apperrors.ErrCourseHasDependants
			}
			return fmt.Errorf("error deleting course: %w", err)
		}

		if cmdTag.RowsAffected() == 0 {
			return apperrors.ErrCourseNotFound
		}

		return nil
	})
}

func scanCourses(rows pgx.Rows) ([]*models.Course, error) {
	var courses []*models.Course
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Units); err != nil {
			return nil, err
		}
		courses = append(courses, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return courses, nil
}
