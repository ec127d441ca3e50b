package domain

import "time"

// Task groups related tickets under a shared set of assigned areas.
// A task never finishes on its own; it is implicitly done when its child
// tickets are finalized, which is a reporting concern only.
type Task struct {
	ID          string
	Title       string
	Description string
	CreatorID   string
	AreaIDs     []string
	// ChildAreaIDs holds the distinct assigned-area ids of the task's
	// tickets, loaded with the task for visibility evaluation.
	ChildAreaIDs []string
	CreatedAt    time.Time
}
