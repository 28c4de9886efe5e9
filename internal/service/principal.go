package service

import "github.com/noah-isme/quizdesk-api/internal/models"

// Principal identifies the authenticated caller of a service operation. It is
// resolved once per request by the JWT middleware and passed explicitly; no
// service reads auth state from ambient storage.
type Principal struct {
	UserID uint
	Role   string
}

// IsTeacher reports whether the caller holds the teacher role.
func (p Principal) IsTeacher() bool {
	return p.Role == models.RoleTeacher
}

// IsStudent reports whether the caller holds the student role.
func (p Principal) IsStudent() bool {
	return p.Role == models.RoleStudent
}
