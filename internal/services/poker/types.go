package poker

import (
	"github.com/KirkDiggler/storypoker/internal/common/clock"
	"github.com/KirkDiggler/storypoker/internal/common/uuid"
	"github.com/KirkDiggler/storypoker/internal/models"
	sessionRepo "github.com/KirkDiggler/storypoker/internal/repositories/session"
)

// Config holds configuration for the poker service
type Config struct {
	// DefaultDeck is the comma-separated point values new sessions start
	// with; leave empty for the standard planning deck
	DefaultDeck string

	// Repository dependencies
	SessionRepo sessionRepo.Repository

	// Service dependencies
	Clock         clock.Clock
	UUIDGenerator uuid.UUID
}

// CreateSessionInput contains parameters for creating a new session
type CreateSessionInput struct {
}

// CreateSessionOutput contains the result of creating a new session
type CreateSessionOutput struct {
	// Token is the unique identifier for the created session
	Token string
}

// JoinSessionInput contains parameters for joining an existing session
type JoinSessionInput struct {
	// Token is the session token presented by the caller
	Token string
}

// JoinSessionOutput contains the result of joining a session
type JoinSessionOutput struct {
	// Session is the joined session
	Session *models.Session
}

// GetOverviewInput contains parameters for the session overview
type GetOverviewInput struct {
	// Token is the session token presented by the caller
	Token string

	// Username is the caller's registered display name, empty when the
	// caller has not claimed one yet. A known username is re-registered
	// idempotently so a returning player survives a session recreation.
	Username string
}

// GetOverviewOutput contains the result of the session overview
type GetOverviewOutput struct {
	// Session is the addressed session
	Session *models.Session
}

// ClaimIdentityInput contains parameters for claiming a display name
type ClaimIdentityInput struct {
	// Token is the session token presented by the caller
	Token string

	// CurrentUsername is the identity the caller already holds for this
	// session, empty when none
	CurrentUsername string

	// Username is the display name being claimed
	Username string
}

// ClaimIdentityOutput contains the result of claiming a display name
type ClaimIdentityOutput struct {
	// Player is the registered player, created or reused by name
	Player *models.Player
}

// AddTasksInput contains parameters for appending tasks
type AddTasksInput struct {
	// Token is the session token presented by the caller
	Token string

	// RawText is newline-delimited task descriptions; blank lines are
	// dropped and the rest trimmed
	RawText string
}

// AddTasksOutput contains the result of appending tasks
type AddTasksOutput struct {
	// Added is the number of tasks appended
	Added int
}

// TaskCountInput contains parameters for counting the backlog
type TaskCountInput struct {
	// Token is the session token presented by the caller
	Token string
}

// TaskCountOutput contains the backlog length
type TaskCountOutput struct {
	Count int
}

// StartEstimationInput contains parameters for starting estimation
type StartEstimationInput struct {
	// Token is the session token presented by the caller
	Token string
}

// StartEstimationOutput contains the result of starting estimation
type StartEstimationOutput struct {
	// TaskIndex is the position of the first task to estimate
	TaskIndex int
}

// GetRoundInput contains parameters for one voting round
type GetRoundInput struct {
	// Token is the session token presented by the caller
	Token string

	// TaskIndex is the zero-based position of the task
	TaskIndex int
}

// GetRoundOutput contains the task under estimation and the deck to
// choose from
type GetRoundOutput struct {
	Task  *models.Task
	Cards []models.Card
}

// VoteInput contains parameters for casting a vote
type VoteInput struct {
	// Token is the session token presented by the caller
	Token string

	// TaskIndex is the zero-based position of the task
	TaskIndex int

	// Username is the voting player's display name
	Username string

	// Points is the chosen point value; not validated against the deck
	Points int
}

// VoteOutput contains the result of casting a vote
type VoteOutput struct {
}

// GetResultsInput contains parameters for reading a task's votes
type GetResultsInput struct {
	// Token is the session token presented by the caller
	Token string

	// TaskIndex is the zero-based position of the task
	TaskIndex int
}

// GetResultsOutput contains a task's raw vote map
type GetResultsOutput struct {
	// Task is the task with its votes
	Task *models.Task

	// HasNext indicates whether another task follows this one
	HasNext bool
}

// ExportSessionInput contains parameters for exporting a session
type ExportSessionInput struct {
	// Token is the session token presented by the caller
	Token string
}

// ExportSessionOutput contains the full session contents
type ExportSessionOutput struct {
	Tasks   []*models.Task
	Players map[string]*models.Player
}

// SetDeckInput contains parameters for replacing the deck
type SetDeckInput struct {
	// Token is the session token presented by the caller
	Token string

	// RawCards is a comma-separated list of point values; tokens that are
	// not all decimal digits are dropped
	RawCards string
}

// SetDeckOutput contains the deck that replaced the previous one
type SetDeckOutput struct {
	Cards []models.Card
}

// GetDeckInput contains parameters for reading the deck
type GetDeckInput struct {
	// Token is the session token presented by the caller
	Token string
}

// GetDeckOutput contains the session's current deck
type GetDeckOutput struct {
	Cards []models.Card
}

// ResetSessionInput contains parameters for destroying a session
type ResetSessionInput struct {
	// Token is the session token presented by the caller
	Token string
}

// ResetSessionOutput contains the result of destroying a session
type ResetSessionOutput struct {
}
