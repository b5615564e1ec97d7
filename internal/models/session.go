package models

import (
	"time"
)

// Session is one independent estimation room: its players, task backlog,
// and card deck. Sessions are addressed by an opaque token and are fully
// independent of each other.
type Session struct {
	// Token is the unique identifier for this session
	Token string `json:"token"`

	// CreatedAt is when the session was created
	CreatedAt time.Time `json:"created_at"`

	// Players maps username to player, one entry per registered participant
	Players map[string]*Player `json:"players"`

	// Tasks is the ordered backlog; tasks are append-only and addressed
	// by their position in this slice
	Tasks []*Task `json:"tasks"`

	// Cards is the deck currently offered for voting
	Cards []Card `json:"cards"`
}

// Clone returns a deep copy of the session. Stores hand out clones so
// callers can read without holding any lock.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}

	clone := &Session{
		Token:     s.Token,
		CreatedAt: s.CreatedAt,
		Players:   make(map[string]*Player, len(s.Players)),
		Tasks:     make([]*Task, 0, len(s.Tasks)),
		Cards:     append([]Card(nil), s.Cards...),
	}

	for name, player := range s.Players {
		p := *player
		clone.Players[name] = &p
	}

	for _, task := range s.Tasks {
		clone.Tasks = append(clone.Tasks, task.Clone())
	}

	return clone
}
