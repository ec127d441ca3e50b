package domain

import "time"

// Account is a directory member: a person who files, triages, or
// administers tickets. Role flags mirror the directory; group names are an
// open set resolved to capabilities by the policy package.
type Account struct {
	ID            string
	Username      string
	PasswordHash  string
	IsStaff       bool
	IsActive      bool
	IsSuperuser   bool
	AreaID        *string
	InternalPhone *string
	Groups        []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// InGroup reports membership in a named group.
func (a *Account) InGroup(name string) bool {
	for _, g := range a.Groups {
		if g == name {
			return true
		}
	}
	return false
}

// HomeArea returns the account's area id, or "" when unassigned.
func (a *Account) HomeArea() string {
	if a == nil || a.AreaID == nil {
		return ""
	}
	return *a.AreaID
}
