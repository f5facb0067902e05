package domain

import "strings"

// Role strings as the backend emits them. Bare ADMIN/USER are accepted on
// input for forward compatibility.
const (
	RoleAdmin = "ROLE_ADMIN"
	RoleUser  = "ROLE_USER"
)

// User is the authenticated viewer's profile as returned by the login exchange.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// IsAdmin reports whether the user's role grants admin capabilities.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || strings.TrimPrefix(u.Role, "ROLE_") == "ADMIN"
}

// UserRef is the abbreviated creator reference embedded in polls.
type UserRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UserHistory is the viewer's participation record: polls they created and
// polls they voted on, with the option they picked.
type UserHistory struct {
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Role         string      `json:"role"`
	CreatedPolls []Poll      `json:"createdPolls"`
	VotedPolls   []VotedPoll `json:"votedPolls"`
}

// VotedPoll pairs a poll with the text of the option the viewer selected.
type VotedPoll struct {
	Poll               Poll   `json:"poll"`
	SelectedOptionText string `json:"selectedOptionText"`
}
