// Package users renders the read-only user directory sourced from the
// upstream API.
package users

import "github.com/pilotdeck/pilotdeck/internal/session"

// DirectoryUser is one row of the user directory.
type DirectoryUser struct {
	ID     int
	Name   string
	Email  string
	Role   session.Role
	Status session.Status
}

// backendUser is the raw record the upstream directory API returns.
type backendUser struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// fromBackend derives the console fields missing from the upstream
// record. The derivations are deterministic per ID.
func fromBackend(u backendUser) DirectoryUser {
	role := session.RoleUser
	if u.ID%2 == 0 {
		role = session.RoleAdmin
	}
	status := session.StatusActive
	if u.ID%3 == 0 {
		status = session.StatusInactive
	}
	return DirectoryUser{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   role,
		Status: status,
	}
}
