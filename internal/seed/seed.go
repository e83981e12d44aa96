package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sepehrad/unienroll/internal/app/models"
	"github.com/sepehrad/unienroll/internal/app/repositories"
	"github.com/sepehrad/unienroll/internal/db"
	"github.com/sepehrad/unienroll/internal/pkg/apperrors"
	"github.com/sepehrad/unienroll/internal/pkg/auth"
)

// slotTimes is the fixed daily grid; every offering picks from these.
var slotTimes = [][2]string{
	{"08:00", "09:30"},
	{"09:45", "11:15"},
	{"11:30", "13:00"},
	{"14:00", "15:30"},
	{"15:45", "17:15"},
}

// teachingWeekdays covers Saturday (0) through Wednesday (4).
const teachingWeekdays = 5

// CreateDefaultData seeds the time slot catalog and a default admin
// account. Both are idempotent.
func CreateDefaultData(ctx context.Context, database *db.PostgresDB, adminEmail, adminPassword string, lgr zerolog.Logger) error {
	slotRepo := repositories.NewTimeSlotRepository(database)
	userRepo := repositories.NewUserRepository(database)

	lgr.Info().Msg("Checking/Creating default data (time slots, admin account)...")
	var finalErr error

	for weekday := 0; weekday < teachingWeekdays; weekday++ {
		for _, window := range slotTimes {
			slot := &models.TimeSlot{
				Weekday:   weekday,
				StartTime: window[0],
				EndTime:   window[1],
			}
			if err := slotRepo.Seed(ctx, slot); err != nil {
				lgr.Error().Err(err).Int("weekday", weekday).Str("start", window[0]).Msg("Error seeding time slot")
				finalErr = errors.Join(finalErr, err)
			}
		}
	}

	if adminEmail == "" || adminPassword == "" {
		lgr.Warn().Msg("Admin credentials not configured, skipping admin account seed")
		return finalErr
	}

	exists, err := userRepo.EmailExists(ctx, adminEmail)
	if err != nil {
		return errors.Join(finalErr, fmt.Errorf("error checking admin account: %w", err))
	}
	if exists {
		return finalErr
	}

	hashed, err := auth.HashPassword(adminPassword)
	if err != nil {
		return errors.Join(finalErr, fmt.Errorf("error hashing admin password: %w", err))
	}

	admin := &models.User{
		Email:     adminEmail,
		Password:  hashed,
		FirstName: "System",
		LastName:  "Admin",
		RoleType:  models.RoleAdmin,
		IsActive:  true,
	}

	if err := userRepo.Create(ctx, admin); err != nil && !errors.Is(err, apperrors.ErrEmailAlreadyExists) {
		lgr.Error().Err(err).Msg("Error creating default admin account")
		return errors.Join(finalErr, err)
	}

	lgr.Info().Str("email", adminEmail).Msg("Default admin account created")
	return finalErr
}
