package domain

// Session is the authenticated viewer's identity plus the bearer credential
// attached to every authenticated request. It is the single source of truth
// for "is the viewer logged in" and "is the viewer an admin".
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// SessionStore persists a session across process restarts (the stand-in for
// browser local storage). Implementations must tolerate a missing store on
// Load and report it as (nil, nil).
type SessionStore interface {
	Load() (*Session, error)
	Save(session *Session) error
	Clear() error
}
