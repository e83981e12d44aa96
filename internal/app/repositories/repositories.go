package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sepehrad/unienroll/internal/config"
	"github.com/sepehrad/unienroll/internal/db"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx, so repository
// methods can run against the pool or inside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories bundles all repositories for dependency wiring.
type Repositories struct {
	UserRepository       *UserRepository
	CourseRepository     *CourseRepository
	SemesterRepository   *SemesterRepository
	TimeSlotRepository   *TimeSlotRepository
	OfferingRepository   *OfferingRepository
	EnrollmentRepository *EnrollmentRepository
	TokenRepository      *TokenRepository
}

// NewRepositories creates all repositories sharing one database handle.
func NewRepositories(database *db.PostgresDB, cfg *config.Config) *Repositories {
	return &Repositories{
		UserRepository:       NewUserRepository(database),
		CourseRepository:     NewCourseRepository(database),
		SemesterRepository:   NewSemesterRepository(database),
		TimeSlotRepository:   NewTimeSlotRepository(database),
		OfferingRepository:   NewOfferingRepository(database),
		EnrollmentRepository: NewEnrollmentRepository(database, cfg.Enrollment.CountActiveOnly),
		TokenRepository:      NewTokenRepository(database),
	}
}
