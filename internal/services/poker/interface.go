package poker

import "context"

// Service defines the interface for planning poker operations
type Service interface {
	// CreateSession mints a fresh token and creates an empty session with
	// the default deck
	CreateSession(ctx context.Context, input *CreateSessionInput) (*CreateSessionOutput, error)

	// JoinSession resolves an existing session by token
	JoinSession(ctx context.Context, input *JoinSessionInput) (*JoinSessionOutput, error)

	// GetOverview returns a session's players, backlog and deck, creating
	// the session if the token is unseen
	GetOverview(ctx context.Context, input *GetOverviewInput) (*GetOverviewOutput, error)

	// ClaimIdentity registers a display name for a caller that does not
	// hold one yet
	ClaimIdentity(ctx context.Context, input *ClaimIdentityInput) (*ClaimIdentityOutput, error)

	// AddTasks appends one task per non-blank line of raw text
	AddTasks(ctx context.Context, input *AddTasksInput) (*AddTasksOutput, error)

	// TaskCount returns the length of the session's backlog
	TaskCount(ctx context.Context, input *TaskCountInput) (*TaskCountOutput, error)

	// StartEstimation returns the index of the first task to estimate
	StartEstimation(ctx context.Context, input *StartEstimationInput) (*StartEstimationOutput, error)

	// GetRound returns one task together with the current deck
	GetRound(ctx context.Context, input *GetRoundInput) (*GetRoundOutput, error)

	// Vote records a player's point vote on a task
	Vote(ctx context.Context, input *VoteInput) (*VoteOutput, error)

	// GetResults returns a task's raw vote map
	GetResults(ctx context.Context, input *GetResultsInput) (*GetResultsOutput, error)

	// ExportSession returns the full backlog and player set
	ExportSession(ctx context.Context, input *ExportSessionInput) (*ExportSessionOutput, error)

	// SetDeck replaces the session's deck from a comma-separated list
	SetDeck(ctx context.Context, input *SetDeckInput) (*SetDeckOutput, error)

	// GetDeck returns the session's current deck
	GetDeck(ctx context.Context, input *GetDeckInput) (*GetDeckOutput, error)

	// ResetSession destroys a session
	ResetSession(ctx context.Context, input *ResetSessionInput) (*ResetSessionOutput, error)
}
