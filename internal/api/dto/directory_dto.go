package dto

import "time"

// CreateAccountRequest payload.
type CreateAccountRequest struct {
	Username      string   `json:"username"`
	Password      string   `json:"password"`
	IsStaff       bool     `json:"is_staff"`
	AreaID        *string  `json:"area_id"`
	Groups        []string `json:"groups"`
	InternalPhone *string  `json:"internal_phone"`
}

// AccountResponse is the directory view of an account.
type AccountResponse struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	IsStaff       bool      `json:"is_staff"`
	IsActive      bool      `json:"is_active"`
	IsSuperuser   bool      `json:"is_superuser"`
	AreaID        *string   `json:"area_id"`
	InternalPhone *string   `json:"internal_phone"`
	Groups        []string  `json:"groups"`
	CreatedAt     time.Time `json:"created_at"`
}

// ChangeAreaRequest payload.
type ChangeAreaRequest struct {
	AreaID *string `json:"area_id"`
}

// ChangeGroupsRequest payload.
type ChangeGroupsRequest struct {
	Groups []string `json:"groups"`
}

// ChangeRoleRequest payload.
type ChangeRoleRequest struct {
	IsStaff bool `json:"is_staff"`
}

// SetPasswordRequest is the admin-side password reset payload.
type SetPasswordRequest struct {
	Password string `json:"password"`
}

// ChangeOwnPasswordRequest payload.
type ChangeOwnPasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// UpdateProfileRequest payload.
type UpdateProfileRequest struct {
	InternalPhone *string `json:"internal_phone"`
}

// CreateAreaRequest payload.
type CreateAreaRequest struct {
	Name string `json:"name"`
}

// AreaResponse is a directory area.
type AreaResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
