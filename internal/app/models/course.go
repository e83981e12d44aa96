package models

// Course represents a course in the catalog. Prerequisite edges are stored
// by id pairs (course_prerequisites table); the Prerequisites slice is a
// relation populated when needed, never a live back-reference graph.
type Course struct {
	ID    int64  `json:"id" db:"id"`
	Code  string `json:"code" db:"code"`
	Name  string `json:"name" db:"name"`
	Units int    `json:"units" db:"units"`

	// Relations (populated when needed)
	Prerequisites []*Course `json:"prerequisites,omitempty"`
}
