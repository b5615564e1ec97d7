package models

// Player represents a participant in a session
type Player struct {
	// Username is the display name the player registered under.
	// Unique within a session, case-sensitive, never mutated.
	Username string `json:"username"`
}
