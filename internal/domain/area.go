package domain

import "time"

// Area is an organizational team: the unit of ticket routing and
// membership-based visibility. Names are unique case-insensitively.
type Area struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
