package session

import (
	"time"

	"github.com/KirkDiggler/storypoker/internal/models"
)

type EnsureSessionInput struct {
	// Token is the session token, caller-supplied or freshly minted
	Token string

	// CreatedAt is stamped on the session if this call creates it
	CreatedAt time.Time

	// DefaultCards is the deck a newly created session starts with
	DefaultCards []models.Card
}

type GetSessionInput struct {
	Token string
}

type DeleteSessionInput struct {
	Token string
}

type RegisterPlayerInput struct {
	Token    string
	Username string
}

type AppendTasksInput struct {
	Token string

	// Descriptions are already trimmed, non-blank task descriptions
	Descriptions []string
}

type SetVoteInput struct {
	Token     string
	TaskIndex int
	Username  string
	Points    int
}

type SetDeckInput struct {
	Token string
	Cards []models.Card
}
