package dto

import (
	"time"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	AreaID      *string             `json:"area_id"`
	Attachments []AttachmentRequest `json:"attachments"`
}

// AttachmentRequest describes attachment input.
type AttachmentRequest struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
}

// TicketSummary response.
type TicketSummary struct {
	ID                string    `json:"id"`
	ExternalKey       string    `json:"external_key"`
	Title             string    `json:"title"`
	Status            string    `json:"status"`
	AreaID            *string   `json:"area_id"`
	AssignedAccountID *string   `json:"assigned_account_id"`
	TaskID            *string   `json:"task_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID                string               `json:"id"`
	ExternalKey       string               `json:"external_key"`
	Title             string               `json:"title"`
	Description       string               `json:"description"`
	Status            string               `json:"status"`
	CreatorID         string               `json:"creator_id"`
	AreaID            *string              `json:"area_id"`
	AssignedAccountID *string              `json:"assigned_account_id"`
	TaskID            *string              `json:"task_id"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
	Comments          []CommentResponse    `json:"comments"`
	Attachments       []AttachmentResponse `json:"attachments"`
}

// CommentResponse represents a thread entry.
type CommentResponse struct {
	ID          string               `json:"id"`
	AuthorID    string               `json:"author_id"`
	Body        string               `json:"body"`
	Attachments []AttachmentResponse `json:"attachments"`
	CreatedAt   time.Time            `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	StorageKey string    `json:"storage_key"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body        string              `json:"body"`
	Attachments []AttachmentRequest `json:"attachments"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status string `json:"status"`
}

// StatusChangeResponse reports the transition that took place.
type StatusChangeResponse struct {
	TicketID  string `json:"ticket_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// StatusResponse is a configured status row.
type StatusResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
