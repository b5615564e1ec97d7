package session

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/KirkDiggler/storypoker/internal/repositories/session Repository

import (
	"context"
	"errors"

	"github.com/KirkDiggler/storypoker/internal/models"
)

// ErrSessionNotFound is returned when a token has no matching session
var ErrSessionNotFound = errors.New("session not found")

// ErrTaskIndexOutOfRange is returned when a task index is outside the
// session's backlog
var ErrTaskIndexOutOfRange = errors.New("task index out of range")

// Repository defines the interface for session state storage.
//
// Each method is atomic with respect to the addressed session: concurrent
// task appends never lose entries, concurrent votes resolve last-write-wins,
// and a concurrent double-ensure of one unseen token resolves to a single
// winning session. Mutations addressing a deleted token fail with
// ErrSessionNotFound.
type Repository interface {
	// EnsureSession returns the session for a token, creating an empty
	// one with the supplied deck if the token is unseen
	EnsureSession(ctx context.Context, input *EnsureSessionInput) (*models.Session, error)

	// GetSession retrieves a snapshot of a session by token
	GetSession(ctx context.Context, input *GetSessionInput) (*models.Session, error)

	// DeleteSession removes a session; removing an absent token is a no-op
	DeleteSession(ctx context.Context, input *DeleteSessionInput) error

	// RegisterPlayer adds a player under a username, reusing the existing
	// player if the name is already taken
	RegisterPlayer(ctx context.Context, input *RegisterPlayerInput) (*models.Player, error)

	// AppendTasks appends tasks to the end of the session's backlog,
	// preserving input order
	AppendTasks(ctx context.Context, input *AppendTasksInput) error

	// SetVote records one player's vote on one task, overwriting any
	// earlier vote by the same player
	SetVote(ctx context.Context, input *SetVoteInput) error

	// SetDeck replaces the session's card deck wholesale
	SetDeck(ctx context.Context, input *SetDeckInput) error
}
