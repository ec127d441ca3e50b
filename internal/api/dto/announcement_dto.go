package dto

import "time"

// CreateAnnouncementRequest payload.
type CreateAnnouncementRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// AnnouncementResponse is a broadcast entry.
type AnnouncementResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// UnreadCountResponse reports unread announcements for the caller.
type UnreadCountResponse struct {
	Unread int `json:"unread"`
}

// PushSubscriptionRequest registers a delivery endpoint for the caller.
type PushSubscriptionRequest struct {
	Endpoint string `json:"endpoint"`
}
