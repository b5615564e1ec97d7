package poker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/KirkDiggler/storypoker/internal/common/clock"
	"github.com/KirkDiggler/storypoker/internal/common/uuid"
	"github.com/KirkDiggler/storypoker/internal/models"
	sessionRepo "github.com/KirkDiggler/storypoker/internal/repositories/session"
)

// defaultDeckCSV is the deck new sessions start with unless configured
// otherwise
const defaultDeckCSV = "1,2,3,5,8,13,20,40,100"

// tagPalette is the fixed palette of cosmetic display tags. A card's tag
// is chosen by its pre-filter position in the input, so dropped tokens
// still advance the cycle.
var tagPalette = []string{"success", "danger", "primary", "warning", "info"}

// service implements the Service interface
type service struct {
	config      *Config
	sessionRepo sessionRepo.Repository
	clock       clock.Clock
	uuidGen     uuid.UUID
	defaultDeck []models.Card
}

// New creates a new poker service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.SessionRepo == nil {
		return nil, errors.New("session repository cannot be nil")
	}

	if cfg.Clock == nil {
		return nil, errors.New("clock cannot be nil")
	}

	if cfg.UUIDGenerator == nil {
		return nil, errors.New("UUID generator cannot be nil")
	}

	deckCSV := cfg.DefaultDeck
	if deckCSV == "" {
		deckCSV = defaultDeckCSV
	}

	return &service{
		config:      cfg,
		sessionRepo: cfg.SessionRepo,
		clock:       cfg.Clock,
		uuidGen:     cfg.UUIDGenerator,
		defaultDeck: parseDeck(deckCSV),
	}, nil
}

// CreateSession mints a fresh token and creates an empty session under it
func (s *service) CreateSession(ctx context.Context, input *CreateSessionInput) (*CreateSessionOutput, error) {
	token := s.uuidGen.NewUUID()

	_, err := s.sessionRepo.EnsureSession(ctx, &sessionRepo.EnsureSessionInput{
		Token:        token,
		CreatedAt:    s.clock.Now(),
		DefaultCards: s.defaultDeck,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &CreateSessionOutput{
		Token: token,
	}, nil
}

// JoinSession resolves an existing session; unlike GetOverview it never
// creates one, so a mistyped token is rejected
func (s *service) JoinSession(ctx context.Context, input *JoinSessionInput) (*JoinSessionOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	session, err := s.sessionRepo.GetSession(ctx, &sessionRepo.GetSessionInput{
		Token: input.Token,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	return &JoinSessionOutput{
		Session: session,
	}, nil
}

// GetOverview returns the session for a token, lazily creating it for an
// unseen token and idempotently re-registering the caller's username
func (s *service) GetOverview(ctx context.Context, input *GetOverviewInput) (*GetOverviewOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	session, err := s.sessionRepo.EnsureSession(ctx, &sessionRepo.EnsureSessionInput{
		Token:        input.Token,
		CreatedAt:    s.clock.Now(),
		DefaultCards: s.defaultDeck,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure session: %w", err)
	}

	if input.Username != "" {
		if _, ok := session.Players[input.Username]; !ok {
			player, err := s.sessionRepo.RegisterPlayer(ctx, &sessionRepo.RegisterPlayerInput{
				Token:    input.Token,
				Username: input.Username,
			})
			if err != nil {
				return nil, mapRepoError(err)
			}
			session.Players[player.Username] = player
		}
	}

	return &GetOverviewOutput{
		Session: session,
	}, nil
}

// ClaimIdentity registers a display name for a caller without one. The
// name is stored exactly as entered; only empty and whitespace-only names
// are rejected.
func (s *service) ClaimIdentity(ctx context.Context, input *ClaimIdentityInput) (*ClaimIdentityOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	if input.CurrentUsername != "" {
		return nil, ErrAlreadyRegistered
	}

	if strings.TrimSpace(input.Username) == "" {
		return nil, ErrInvalidUsername
	}

	player, err := s.sessionRepo.RegisterPlayer(ctx, &sessionRepo.RegisterPlayerInput{
		Token:    input.Token,
		Username: input.Username,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	return &ClaimIdentityOutput{
		Player: player,
	}, nil
}

// AddTasks appends one task per non-blank line of raw text, in input order
func (s *service) AddTasks(ctx context.Context, input *AddTasksInput) (*AddTasksOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	descriptions := splitTasks(input.RawText)

	err := s.sessionRepo.AppendTasks(ctx, &sessionRepo.AppendTasksInput{
		Token:        input.Token,
		Descriptions: descriptions,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	return &AddTasksOutput{
		Added: len(descriptions),
	}, nil
}

// TaskCount returns the length of the session's backlog
func (s *service) TaskCount(ctx context.Context, input *TaskCountInput) (*TaskCountOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	session, err := s.sessionRepo.GetSession(ctx, &sessionRepo.GetSessionInput{
		Token: input.Token,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	return &TaskCountOutput{
		Count: len(session.Tasks),
	}, nil
}

// StartEstimation points the caller at the first task of the backlog
func (s *service) StartEstimation(ctx context.Context, input *StartEstimationInput) (*StartEstimationOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	session, err := s.sessionRepo.GetSession(ctx, &sessionRepo.GetSessionInput{
		Token: input.Token,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	if len(session.Tasks) == 0 {
		return nil, ErrNoTasks
	}

	return &StartEstimationOutput{
		TaskIndex: 0,
	}, nil
}

// GetRound returns one task and the deck to vote with
func (s *service) GetRound(ctx context.Context, input *GetRoundInput) (*GetRoundOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	session, err := s.sessionRepo.GetSession(ctx, &sessionRepo.GetSessionInput{
		Token: input.Token,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	if input.TaskIndex < 0 || input.TaskIndex >= len(session.Tasks) {
		return nil, ErrTaskIndexOutOfRange
	}

	return &GetRoundOutput{
		Task:  session.Tasks[input.TaskIndex],
		Cards: session.Cards,
	}, nil
}

// Vote records a player's point vote on a task. Re-votes overwrite, past
// tasks stay votable, and the points are not checked against the deck.
func (s *service) Vote(ctx context.Context, input *VoteInput) (*VoteOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	err := s.sessionRepo.SetVote(ctx, &sessionRepo.SetVoteInput{
		Token:     input.Token,
		TaskIndex: input.TaskIndex,
		Username:  input.Username,
		Points:    input.Points,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	return &VoteOutput{}, nil
}

// GetResults returns a task's raw vote map; aggregation is the caller's
// business
func (s *service) GetResults(ctx context.Context, input *GetResultsInput) (*GetResultsOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	session, err := s.sessionRepo.GetSession(ctx, &sessionRepo.GetSessionInput{
		Token: input.Token,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	if input.TaskIndex < 0 || input.TaskIndex >= len(session.Tasks) {
		return nil, ErrTaskIndexOutOfRange
	}

	return &GetResultsOutput{
		Task:    session.Tasks[input.TaskIndex],
		HasNext: input.TaskIndex+1 < len(session.Tasks),
	}, nil
}

// ExportSession returns the full backlog and player set, unfiltered
func (s *service) ExportSession(ctx context.Context, input *ExportSessionInput) (*ExportSessionOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	session, err := s.sessionRepo.GetSession(ctx, &sessionRepo.GetSessionInput{
		Token: input.Token,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	return &ExportSessionOutput{
		Tasks:   session.Tasks,
		Players: session.Players,
	}, nil
}

// SetDeck replaces the session's deck with the parsed card list, which
// may legitimately be empty
func (s *service) SetDeck(ctx context.Context, input *SetDeckInput) (*SetDeckOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	cards := parseDeck(input.RawCards)

	err := s.sessionRepo.SetDeck(ctx, &sessionRepo.SetDeckInput{
		Token: input.Token,
		Cards: cards,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	return &SetDeckOutput{
		Cards: cards,
	}, nil
}

// GetDeck returns the session's current deck
func (s *service) GetDeck(ctx context.Context, input *GetDeckInput) (*GetDeckOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	session, err := s.sessionRepo.GetSession(ctx, &sessionRepo.GetSessionInput{
		Token: input.Token,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	return &GetDeckOutput{
		Cards: session.Cards,
	}, nil
}

// ResetSession destroys a session. Destroying an unknown token succeeds;
// any caller holding the token may reset it.
func (s *service) ResetSession(ctx context.Context, input *ResetSessionInput) (*ResetSessionOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	err := s.sessionRepo.DeleteSession(ctx, &sessionRepo.DeleteSessionInput{
		Token: input.Token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reset session: %w", err)
	}

	return &ResetSessionOutput{}, nil
}

// splitTasks splits raw text on line breaks, trims each line and drops
// blank or whitespace-only lines
func splitTasks(raw string) []string {
	descriptions := []string{}
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		descriptions = append(descriptions, trimmed)
	}
	return descriptions
}

// parseDeck splits a comma-separated list and keeps only tokens made of
// decimal digits. Tokens are not trimmed first, so "1, 2" keeps only "1".
// The display tag is chosen by the token's pre-filter position.
func parseDeck(raw string) []models.Card {
	cards := []models.Card{}
	for i, token := range strings.Split(raw, ",") {
		if !isDigits(token) {
			continue
		}
		cards = append(cards, models.Card{
			Value: token,
			Tag:   tagPalette[i%len(tagPalette)],
		})
	}
	return cards
}

// isDigits reports whether s is non-empty and entirely ASCII digits
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// mapRepoError translates repository errors into the service's error set
func mapRepoError(err error) error {
	switch {
	case errors.Is(err, sessionRepo.ErrSessionNotFound):
		return ErrSessionNotFound
	case errors.Is(err, sessionRepo.ErrTaskIndexOutOfRange):
		return ErrTaskIndexOutOfRange
	}
	return err
}
