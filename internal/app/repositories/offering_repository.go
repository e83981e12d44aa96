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
)

// OfferingRepository handles course offering database operations
type OfferingRepository struct {
	db *db.PostgresDB
	q  Querier
	sb squirrel.StatementBuilderType
}

// NewOfferingRepository creates a new OfferingRepository
func NewOfferingRepository(database *db.PostgresDB) *OfferingRepository {
	return &OfferingRepository{
		db: database,
		q:  database.Pool,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *OfferingRepository) withTx(tx pgx.Tx) *OfferingRepository {
	return &OfferingRepository{db: r.db, q: tx, sb: r.sb}
}

// CreateSequenced inserts an offering, assigning the next section number
// within (course, semester). The course row is locked for the duration so
// two concurrent creations cannot claim the same section; the unique
// constraint on (course_id, semester_id, section) is the backstop.
func (r *OfferingRepository) CreateSequenced(ctx context.Context, offering *models.CourseOffering, slotIDs []int64) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var lockedID int64
		err := tx.QueryRow(ctx,
			`SELECT id FROM courses WHERE id = $1 FOR UPDATE`, offering.CourseID).Scan(&lockedID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrCourseNotFound
			}
			return fmt.Errorf("error locking course row: %w", err)
		}

		err = tx.QueryRow(ctx, `
			SELECT COALESCE(MAX(section), 0) + 1
			FROM course_offerings
			WHERE course_id = $1 AND semester_id = $2`,
			offering.CourseID, offering.SemesterID).Scan(&offering.Section)
		if err != nil {
			return fmt.Errorf("error computing next section number: %w", err)
		}

		sql, args, err := r.sb.Insert("course_offerings").
			Columns("course_id", "semester_id", "professor_id", "section", "capacity", "exam_at", "classroom").
			Values(offering.CourseID, offering.SemesterID, offering.ProfessorID,
				offering.Section, offering.Capacity, offering.ExamAt, offering.Classroom).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build insert offering query: %w", err)
		}

		if err := tx.QueryRow(ctx, sql, args...).Scan(&offering.ID); err != nil {
			return fmt.Errorf("error inserting offering: %w", err)
		}

		for _, slotID := range slotIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO offering_time_slots (offering_id, time_slot_id) VALUES ($1, $2)`,
				offering.ID, slotID); err != nil {
				return fmt.Errorf("error attaching time slot: %w", err)
			}
		}

		return nil
	})
}

// GetByNaturalKey resolves an offering by (course code, section, semester
// name) with course, semester and time slots populated.
func (r *OfferingRepository) GetByNaturalKey(ctx context.Context, courseCode string, section int, semesterName string) (*models.CourseOffering, error) {
	offering, err := scanOfferingRow(r.q.QueryRow(ctx, offeringByKeySQL, courseCode, section, semesterName))
	if err != nil {
		return nil, err
	}

	slots, err := loadOfferingSlots(ctx, r.q, []int64{offering.ID})
	if err != nil {
		return nil, err
	}
	offering.TimeSlots = slots[offering.ID]

	return offering, nil
}

// ListBySemester retrieves every offering of a semester with course and
// time slots populated.
func (r *OfferingRepository) ListBySemester(ctx context.Context, semesterID int64) ([]*models.CourseOffering, error) {
	rows, err := r.q.Query(ctx, `
		SELECT o.id, o.course_id, o.semester_id, o.professor_id, o.section, o.capacity, o.exam_at, o.classroom,
		       c.id, c.code, c.name, c.units
		FROM course_offerings o
		JOIN courses c ON c.id = o.course_id
		WHERE o.semester_id = $1
		ORDER BY c.code, o.section`, semesterID)
	if err != nil {
		return nil, fmt.Errorf("error listing offerings: %w", err)
	}
	defer rows.Close()

	var offerings []*models.CourseOffering
	var ids []int64
	for rows.Next() {
		var o models.CourseOffering
		var c models.Course
		if err := rows.Scan(
			&o.ID, &o.CourseID, &o.SemesterID, &o.ProfessorID, &o.Section, &o.Capacity, &o.ExamAt, &o.Classroom,
			&c.ID, &c.Code, &c.Name, &c.Units,
		); err != nil {
			return nil, err
		}
		o.Course = &c
		offerings = append(offerings, &o)
		ids = append(ids, o.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	slots, err := loadOfferingSlots(ctx, r.q, ids)
	if err != nil {
		return nil, err
	}
	for _, o := range offerings {
		o.TimeSlots = slots[o.ID]
	}

	return offerings, nil
}

const offeringByKeySQL = `
	SELECT o.id, o.course_id, o.semester_id, o.professor_id, o.section, o.capacity, o.exam_at, o.classroom,
	       c.id, c.code, c.name, c.units,
	       s.id, s.name, s.start_date, s.end_date, s.min_units, s.max_units
	FROM course_offerings o
	JOIN courses c ON c.id = o.course_id
	JOIN semesters s ON s.id = o.semester_id
	WHERE c.code = $1 AND o.section = $2 AND s.name = $3`

// offeringByKeyForUpdateSQL locks the offering row for the duration of the
// enclosing transaction; used by the admission pipeline to serialize
// capacity check-then-insert.
const offeringByKeyForUpdateSQL = offeringByKeySQL + `
	FOR UPDATE OF o`

func scanOfferingRow(row pgx.Row) (*models.CourseOffering, error) {
	var o models.CourseOffering
	var c models.Course
	var s models.Semester
	err := row.Scan(
		&o.ID, &o.CourseID, &o.SemesterID, &o.ProfessorID, &o.Section, &o.Capacity, &o.ExamAt, &o.Classroom,
		&c.ID, &c.Code, &c.Name, &c.Units,
		&s.ID, &s.Name, &s.StartDate, &s.EndDate, &s.MinUnits, &s.MaxUnits,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrOfferingNotFound
		}
		return nil, fmt.Errorf("error retrieving offering: %w", err)
	}

	o.Course = &c
	o.Semester = &s
	return &o, nil
}

// loadOfferingSlots fetches the time slot sets of the given offerings in
// one query, keyed by offering id.
func loadOfferingSlots(ctx context.Context, q Querier, offeringIDs []int64) (map[int64][]*models.TimeSlot, error) {
	result := make(map[int64][]*models.TimeSlot)
	if len(offeringIDs) == 0 {
		return result, nil
	}

	rows, err := q.Query(ctx, `
		SELECT ots.offering_id, ts.id, ts.weekday, ts.start_time, ts.end_time
		FROM offering_time_slots ots
		JOIN time_slots ts ON ts.id = ots.time_slot_id
		WHERE ots.offering_id = ANY($1)
		ORDER BY ts.weekday, ts.start_time`, offeringIDs)
	if err != nil {
		return nil, fmt.Errorf("error querying offering time slots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var offeringID int64
		var s models.TimeSlot
		if err := rows.Scan(&offeringID, &s.ID, &s.Weekday, &s.StartTime, &s.EndTime); err != nil {
			return nil, err
		}
		result[offeringID] = append(result[offeringID], &s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
