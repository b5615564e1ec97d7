package session

import (
	"context"
	"errors"
	"sync"

	"github.com/KirkDiggler/storypoker/internal/models"
)

// memoryRepository implements the Repository interface with in-process state
type memoryRepository struct {
	// mu guards the token map itself, not the sessions it points to
	mu       sync.RWMutex
	sessions map[string]*memorySession
}

// memorySession pairs one session with its own lock so that mutations of
// one session do not serialize the whole store
type memorySession struct {
	mu      sync.RWMutex
	session *models.Session
}

// NewMemory creates a new in-memory session repository
func NewMemory() *memoryRepository {
	return &memoryRepository{
		sessions: make(map[string]*memorySession),
	}
}

// EnsureSession returns the session for a token, creating it if unseen.
// Under a double-create race the first writer wins and the second caller
// observes the winner's session.
func (r *memoryRepository) EnsureSession(ctx context.Context, input *EnsureSessionInput) (*models.Session, error) {
	if input == nil || input.Token == "" {
		return nil, errors.New("input and token cannot be empty")
	}

	r.mu.RLock()
	entry, ok := r.sessions[input.Token]
	r.mu.RUnlock()

	if !ok {
		r.mu.Lock()
		// Re-check under the write lock; another caller may have won
		entry, ok = r.sessions[input.Token]
		if !ok {
			entry = &memorySession{
				session: &models.Session{
					Token:     input.Token,
					CreatedAt: input.CreatedAt,
					Players:   make(map[string]*models.Player),
					Tasks:     []*models.Task{},
					Cards:     append([]models.Card(nil), input.DefaultCards...),
				},
			}
			r.sessions[input.Token] = entry
		}
		r.mu.Unlock()
	}

	entry.mu.RLock()
	defer entry.mu.RUnlock()

	return entry.session.Clone(), nil
}

// GetSession retrieves a deep-copied snapshot of a session
func (r *memoryRepository) GetSession(ctx context.Context, input *GetSessionInput) (*models.Session, error) {
	if input == nil || input.Token == "" {
		return nil, errors.New("input and token cannot be empty")
	}

	entry, err := r.entry(input.Token)
	if err != nil {
		return nil, err
	}

	entry.mu.RLock()
	defer entry.mu.RUnlock()

	return entry.session.Clone(), nil
}

// DeleteSession removes a session from the store
func (r *memoryRepository) DeleteSession(ctx context.Context, input *DeleteSessionInput) error {
	if input == nil || input.Token == "" {
		return errors.New("input and token cannot be empty")
	}

	r.mu.Lock()
	delete(r.sessions, input.Token)
	r.mu.Unlock()

	return nil
}

// RegisterPlayer adds a player to a session, reusing an existing player
// registered under the same username
func (r *memoryRepository) RegisterPlayer(ctx context.Context, input *RegisterPlayerInput) (*models.Player, error) {
	if input == nil || input.Token == "" || input.Username == "" {
		return nil, errors.New("input, token and username cannot be empty")
	}

	entry, err := r.entry(input.Token)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	player, ok := entry.session.Players[input.Username]
	if !ok {
		player = &models.Player{Username: input.Username}
		entry.session.Players[input.Username] = player
	}

	p := *player
	return &p, nil
}

// AppendTasks appends tasks to the end of the session's backlog
func (r *memoryRepository) AppendTasks(ctx context.Context, input *AppendTasksInput) error {
	if input == nil || input.Token == "" {
		return errors.New("input and token cannot be empty")
	}

	entry, err := r.entry(input.Token)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	for _, description := range input.Descriptions {
		entry.session.Tasks = append(entry.session.Tasks, models.NewTask(description))
	}

	return nil
}

// SetVote records a vote on a task, overwriting any earlier vote by the
// same player
func (r *memoryRepository) SetVote(ctx context.Context, input *SetVoteInput) error {
	if input == nil || input.Token == "" || input.Username == "" {
		return errors.New("input, token and username cannot be empty")
	}

	entry, err := r.entry(input.Token)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if input.TaskIndex < 0 || input.TaskIndex >= len(entry.session.Tasks) {
		return ErrTaskIndexOutOfRange
	}

	entry.session.Tasks[input.TaskIndex].Votes[input.Username] = input.Points

	return nil
}

// SetDeck replaces the session's deck wholesale
func (r *memoryRepository) SetDeck(ctx context.Context, input *SetDeckInput) error {
	if input == nil || input.Token == "" {
		return errors.New("input and token cannot be empty")
	}

	entry, err := r.entry(input.Token)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.session.Cards = append([]models.Card(nil), input.Cards...)

	return nil
}

// entry resolves a token to its live session entry. An operation that has
// already resolved its entry completes even if the session is deleted
// concurrently; callers resolving after the delete see ErrSessionNotFound.
func (r *memoryRepository) entry(token string) (*memorySession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}

	return entry, nil
}
