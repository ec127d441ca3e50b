package domain

import "time"

// StatusPending is the canonical initial status name. Ticket creation
// resolves this row at runtime; its absence is a fatal misconfiguration.
const StatusPending = "Pending"

// Seeded alongside StatusPending. The status set is open: new rows may be
// added without code changes, and transitions are unrestricted.
const (
	StatusAccepted  = "Accepted"
	StatusFinalized = "Finalized"
)

// TicketStatus is a named lifecycle state backed by a database row.
type TicketStatus struct {
	ID   string
	Name string
}

// Ticket is the aggregate for helpdesk requests.
type Ticket struct {
	ID                string
	ExternalKey       string
	Title             string
	Description       string
	CreatorID         string
	StatusID          string
	StatusName        string
	AreaID            *string
	AssignedAccountID *string
	TaskID            *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Comment is one entry in a ticket's thread.
type Comment struct {
	ID          string
	TicketID    string
	AuthorID    string
	Body        string
	Attachments []Attachment
	CreatedAt   time.Time
}

// Attachment records file metadata for a ticket or one of its comments.
// CommentID is nil for files attached at ticket creation, before any
// comment exists. Bytes live in an external store behind StorageKey.
type Attachment struct {
	ID         string
	TicketID   string
	CommentID  *string
	StorageKey string
	FileName   string
	UploadedAt time.Time
}
