package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/sepehrad/unienroll/internal/app/models"
	"github.com/sepehrad/unienroll/internal/db"
)

// TimeSlotRepository handles time slot database operations. Slots are
// seeded once and immutable afterwards.
type TimeSlotRepository struct {
	db *db.PostgresDB
	q  Querier
	sb squirrel.StatementBuilderType
}

// NewTimeSlotRepository creates a new TimeSlotRepository
func NewTimeSlotRepository(database *db.PostgresDB) *TimeSlotRepository {
	return &TimeSlotRepository{
		db: database,
		q:  database.Pool,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// List retrieves all time slots
func (r *TimeSlotRepository) List(ctx context.Context) ([]*models.TimeSlot, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, weekday, start_time, end_time
		FROM time_slots
		ORDER BY weekday, start_time`)
	if err != nil {
		return nil, fmt.Errorf("error listing time slots: %w", err)
	}
	defer rows.Close()

	var slots []*models.TimeSlot
	for rows.Next() {
		var s models.TimeSlot
		if err := rows.Scan(&s.ID, &s.Weekday, &s.StartTime, &s.EndTime); err != nil {
			return nil, err
		}
		slots = append(slots, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return slots, nil
}

// FindByIDs resolves a set of slot ids. Missing ids are absent from the
// result; the caller decides whether that is an error.
func (r *TimeSlotRepository) FindByIDs(ctx context.Context, ids []int64) ([]*models.TimeSlot, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	sql, args, err := r.sb.Select("id", "weekday", "start_time", "end_time").
		From("time_slots").
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build find time slots query: %w", err)
	}

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying time slots: %w", err)
	}
	defer rows.Close()

	var slots []*models.TimeSlot
	for rows.Next() {
		var s models.TimeSlot
		if err := rows.Scan(&s.ID, &s.Weekday, &s.StartTime, &s.EndTime); err != nil {
			return nil, err
		}
		slots = append(slots, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return slots, nil
}

// Seed inserts a slot if the (weekday, start, end) triple is not present yet
func (r *TimeSlotRepository) Seed(ctx context.Context, slot *models.TimeSlot) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO time_slots (weekday, start_time, end_time)
		VALUES ($1, $2, $3)
		ON CONFLICT (weekday, start_time, end_time) DO NOTHING`,
		slot.Weekday, slot.StartTime, slot.EndTime)
	if err != nil {
		return fmt.Errorf("error seeding time slot: %w", err)
	}
	return nil
}
