package models

import "time"

// Semester represents an academic term, identified by its unique name
// (e.g. "1404-1"). MinUnits/MaxUnits bound a student's unit load; only
// MaxUnits is enforced at enroll time.
type Semester struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	StartDate time.Time `json:"startDate" db:"start_date"`
	EndDate   time.Time `json:"endDate" db:"end_date"`
	MinUnits  int       `json:"minUnits" db:"min_units"`
	MaxUnits  int       `json:"maxUnits" db:"max_units"`
}
