package dto

import "time"

// LoginRequest payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Account   AccountResponse `json:"account"`
}

// ExternalAccessRequest payload for the portal credential check.
type ExternalAccessRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ExternalAccessResponse reports the access decision.
type ExternalAccessResponse struct {
	Granted bool   `json:"granted"`
	Reason  string `json:"reason,omitempty"`
}
