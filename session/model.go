package session

import "time"

// Session is a pending challenge for one user. Values returned by the
// store are copies.
type Session struct {
	ID        string
	UserID    string
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is past its deadline at now.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Result is the outcome of [Store.Validate].
type Result uint8

const (
	// NoSession means no pending challenge existed, or it had expired.
	NoSession Result = iota
	// Match means the candidate equalled the pending code.
	Match
	// Mismatch means a pending challenge existed and the candidate was wrong.
	Mismatch
)

func (r Result) String() string {
	switch r {
	case Match:
		return "match"
	case Mismatch:
		return "mismatch"
	default:
		return "no_session"
	}
}
