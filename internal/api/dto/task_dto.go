package dto

import "time"

// CreateTaskRequest payload.
type CreateTaskRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	AreaIDs     []string `json:"area_ids"`
}

// TaskSummary response.
type TaskSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatorID   string    `json:"creator_id"`
	AreaIDs     []string  `json:"area_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

// TaskDetailResponse includes the visible child tickets.
type TaskDetailResponse struct {
	TaskSummary
	Tickets []TicketSummary `json:"tickets"`
}
