package domain

import "time"

// Announcement is a staff broadcast. Listing marks the viewer as having
// read it; ordering is newest first.
type Announcement struct {
	ID        string
	Title     string
	Body      string
	AuthorID  string
	CreatedAt time.Time
}
