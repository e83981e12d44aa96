package models

// TimeSlot is an immutable, globally unique (weekday, start, end) triple
// seeded once at startup. Offerings reference slots by id, so schedule
// intersection reduces to comparing slot id sets.
type TimeSlot struct {
	ID        int64  `json:"id" db:"id"`
	Weekday   int    `json:"weekday" db:"weekday"` // 0=Saturday .. 6=Friday
	StartTime string `json:"startTime" db:"start_time"`
	EndTime   string `json:"endTime" db:"end_time"`
}
