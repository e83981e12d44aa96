package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/sepehrad/unienroll/internal/app/models"
	"github.com/sepehrad/unienroll/internal/db"
	"github.com/sepehrad/unienroll/internal/pkg/apperrors"
)

// EnrollmentRepository handles enrollment database operations.
//
// countActiveOnly switches capacity and load accounting from the observed
// behaviour (every historical row counts) to active-only counting; see the
// enrollment.count_active_only config switch.
type EnrollmentRepository struct {
	db              *db.PostgresDB
	q               Querier
	sb              squirrel.StatementBuilderType
	countActiveOnly bool
}

// NewEnrollmentRepository creates a new EnrollmentRepository
func NewEnrollmentRepository(database *db.PostgresDB, countActiveOnly bool) *EnrollmentRepository {
	return &EnrollmentRepository{
		db:              database,
		q:               database.Pool,
		sb:              squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		countActiveOnly: countActiveOnly,
	}
}

func (r *EnrollmentRepository) withTx(tx pgx.Tx) *EnrollmentRepository {
	return &EnrollmentRepository{db: r.db, q: tx, sb: r.sb, countActiveOnly: r.countActiveOnly}
}

// EnrollChecked runs the whole admission sequence in one transaction: it
// locks the target offering row (closing the capacity check-then-insert
// race between concurrent enrolls), gathers the admission snapshot, calls
// the check function and inserts the SELECTED row only when the check
// passes. Any check error rolls the transaction back.
func (r *EnrollmentRepository) EnrollChecked(ctx context.Context, studentID int64, courseCode string, section int, semesterName string, check func(*models.AdmissionSnapshot) error) (*models.Enrollment, error) {
	var enrollment *models.Enrollment

	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		txRepo := r.withTx(tx)

		offering, err := scanOfferingRow(tx.QueryRow(ctx, offeringByKeyForUpdateSQL, courseCode, section, semesterName))
		if err != nil {
			return err
		}

		slots, err := loadOfferingSlots(ctx, tx, []int64{offering.ID})
		if err != nil {
			return err
		}
		offering.TimeSlots = slots[offering.ID]

		snapshot, err := txRepo.buildSnapshot(ctx, studentID, offering)
		if err != nil {
			return err
		}

		if err := check(snapshot); err != nil {
			return err
		}

		now := time.Now()
		enrollment = &models.Enrollment{
			StudentID:  studentID,
			OfferingID: offering.ID,
			Status:     models.EnrollmentSelected,
			CreatedAt:  now,
			UpdatedAt:  now,
			Offering:   offering,
		}

		sql, args, err := txRepo.sb.Insert("enrollments").
			Columns("student_id", "offering_id", "status", "created_at", "updated_at").
			Values(enrollment.StudentID, enrollment.OfferingID, enrollment.Status, now, now).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build insert enrollment query: %w", err)
		}

		if err := tx.QueryRow(ctx, sql, args...).Scan(&enrollment.ID); err != nil {
			return fmt.Errorf("error inserting enrollment: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return enrollment, nil
}

// buildSnapshot collects every admission input while the offering lock is held
func (r *EnrollmentRepository) buildSnapshot(ctx context.Context, studentID int64, offering *models.CourseOffering) (*models.AdmissionSnapshot, error) {
	snapshot := &models.AdmissionSnapshot{Offering: offering}

	countQuery := r.sb.Select("COUNT(*)").
		From("enrollments").
		Where(squirrel.Eq{"offering_id": offering.ID})
	if r.countActiveOnly {
		countQuery = countQuery.Where(squirrel.NotEq{"status": models.EnrollmentDropped})
	}
	sql, args, err := countQuery.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build enrollment count query: %w", err)
	}
	if err := r.q.QueryRow(ctx, sql, args...).Scan(&snapshot.EnrolledCount); err != nil {
		return nil, fmt.Errorf("error counting enrollments: %w", err)
	}

	err = r.q.QueryRow(ctx, `
		SELECT
			EXISTS(
				SELECT 1 FROM enrollments e
				JOIN course_offerings o ON o.id = e.offering_id
				WHERE e.student_id = $1 AND o.semester_id = $2 AND o.course_id = $3
				  AND e.status = $4),
			EXISTS(
				SELECT 1 FROM enrollments e
				JOIN course_offerings o ON o.id = e.offering_id
				WHERE e.student_id = $1 AND o.semester_id = $2 AND o.course_id = $3)`,
		studentID, offering.SemesterID, offering.CourseID, models.EnrollmentDropped).
		Scan(&snapshot.DroppedSameSemester, &snapshot.TakenSameSemester)
	if err != nil {
		return nil, fmt.Errorf("error checking prior enrollments: %w", err)
	}

	prereqRows, err := r.q.Query(ctx, `
		SELECT c.id, c.code, c.name, c.units
		FROM courses c
		JOIN course_prerequisites p ON p.prerequisite_id = c.id
		WHERE p.course_id = $1
		ORDER BY c.code`, offering.CourseID)
	if err != nil {
		return nil, fmt.Errorf("error querying prerequisites: %w", err)
	}
	snapshot.Prerequisites, err = scanCourses(prereqRows)
	prereqRows.Close()
	if err != nil {
		return nil, err
	}

	passedRows, err := r.q.Query(ctx, `
		SELECT DISTINCT o.course_id
		FROM enrollments e
		JOIN course_offerings o ON o.id = e.offering_id
		WHERE e.student_id = $1 AND e.status = $2`,
		studentID, models.EnrollmentPassed)
	if err != nil {
		return nil, fmt.Errorf("error querying passed courses: %w", err)
	}
	snapshot.PassedCourseIDs = make(map[int64]struct{})
	for passedRows.Next() {
		var courseID int64
		if err := passedRows.Scan(&courseID); err != nil {
			passedRows.Close()
			return nil, err
		}
		snapshot.PassedCourseIDs[courseID] = struct{}{}
	}
	if err := passedRows.Err(); err != nil {
		passedRows.Close()
		return nil, err
	}
	passedRows.Close()

	snapshot.SemesterEnrollments, err = r.listForSemester(ctx, studentID, offering.SemesterID)
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

// FindByNaturalKey resolves an enrollment by (student, course code,
// section, semester name) with its offering populated.
func (r *EnrollmentRepository) FindByNaturalKey(ctx context.Context, studentID int64, courseCode string, section int, semesterName string) (*models.Enrollment, error) {
	var e models.Enrollment
	var o models.CourseOffering
	err := r.q.QueryRow(ctx, `
		SELECT e.id, e.student_id, e.offering_id, e.status, e.created_at, e.updated_at,
		       o.id, o.course_id, o.semester_id, o.professor_id, o.section, o.capacity, o.exam_at, o.classroom
		FROM enrollments e
		JOIN course_offerings o ON o.id = e.offering_id
		JOIN courses c ON c.id = o.course_id
		JOIN semesters s ON s.id = o.semester_id
		WHERE e.student_id = $1 AND c.code = $2 AND o.section = $3 AND s.name = $4`,
		studentID, courseCode, section, semesterName).
		Scan(&e.ID, &e.StudentID, &e.OfferingID, &e.Status, &e.CreatedAt, &e.UpdatedAt,
			&o.ID, &o.CourseID, &o.SemesterID, &o.ProfessorID, &o.Section, &o.Capacity, &o.ExamAt, &o.Classroom)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("error retrieving enrollment: %w", err)
	}

	e.Offering = &o
	return &e, nil
}

// UpdateStatusFrom transitions an enrollment's status only when it still
// holds the expected current status. Returns false when the row was not in
// that status anymore (or is gone), so lost races surface to the caller.
func (r *EnrollmentRepository) UpdateStatusFrom(ctx context.Context, id int64, from, to models.EnrollmentStatus) (bool, error) {
	cmdTag, err := r.q.Exec(ctx, `
		UPDATE enrollments
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4`,
		to, time.Now(), id, from)
	if err != nil {
		return false, fmt.Errorf("error updating enrollment status: %w", err)
	}

	return cmdTag.RowsAffected() > 0, nil
}

// ListForSemester retrieves a student's enrollments in a semester, as
// stored, unfiltered by status, with offering, course and slots populated.
func (r *EnrollmentRepository) ListForSemester(ctx context.Context, studentID, semesterID int64) ([]*models.Enrollment, error) {
	return r.listForSemester(ctx, studentID, semesterID)
}

func (r *EnrollmentRepository) listForSemester(ctx context.Context, studentID, semesterID int64) ([]*models.Enrollment, error) {
	rows, err := r.q.Query(ctx, `
		SELECT e.id, e.student_id, e.offering_id, e.status, e.created_at, e.updated_at,
		       o.id, o.course_id, o.semester_id, o.professor_id, o.section, o.capacity, o.exam_at, o.classroom,
		       c.id, c.code, c.name, c.units
		FROM enrollments e
		JOIN course_offerings o ON o.id = e.offering_id
		JOIN courses c ON c.id = o.course_id
		WHERE e.student_id = $1 AND o.semester_id = $2
		ORDER BY e.created_at`, studentID, semesterID)
	if err != nil {
		return nil, fmt.Errorf("error listing semester enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []*models.Enrollment
	var offeringIDs []int64
	for rows.Next() {
		var e models.Enrollment
		var o models.CourseOffering
		var c models.Course
		if err := rows.Scan(
			&e.ID, &e.StudentID, &e.OfferingID, &e.Status, &e.CreatedAt, &e.UpdatedAt,
			&o.ID, &o.CourseID, &o.SemesterID, &o.ProfessorID, &o.Section, &o.Capacity, &o.ExamAt, &o.Classroom,
			&c.ID, &c.Code, &c.Name, &c.Units,
		); err != nil {
			return nil, err
		}
		o.Course = &c
		e.Offering = &o
		enrollments = append(enrollments, &e)
		offeringIDs = append(offeringIDs, o.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	slots, err := loadOfferingSlots(ctx, r.q, offeringIDs)
	if err != nil {
		return nil, err
	}
	for _, e := range enrollments {
		e.Offering.TimeSlots = slots[e.Offering.ID]
	}

	return enrollments, nil
}
