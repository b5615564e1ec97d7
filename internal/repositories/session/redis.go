package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/storypoker/internal/models"
)

const (
	// Key prefixes for Redis
	sessionKeyPrefix = "poker:session:"
	playersKeySuffix = ":players"
	tasksKeySuffix   = ":tasks"
	deckKeySuffix    = ":deck"
	votesKeySuffix   = ":votes:"
)

// sessionMeta is the payload stored under the session's base key. Its
// presence is what makes a token "known".
type sessionMeta struct {
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

// Config holds configuration for the Redis session repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis.
//
// Tasks live in a list (RPUSH keeps concurrent appends lossless), votes in
// one hash per task (HSET is last-write-wins), players in a hash, and the
// deck in a single JSON value. Session creation uses SETNX so a concurrent
// double-ensure resolves to a single winner.
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed session repository
func NewRedis(cfg *Config) (*redisRepository, error) {
	// Validate config
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	// Test connection
	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisRepository{
		client: cfg.RedisClient,
	}, nil
}

// EnsureSession returns the session for a token, creating it if unseen
func (r *redisRepository) EnsureSession(ctx context.Context, input *EnsureSessionInput) (*models.Session, error) {
	if input == nil || input.Token == "" {
		return nil, errors.New("input and token cannot be empty")
	}

	meta := sessionMeta{
		Token:     input.Token,
		CreatedAt: input.CreatedAt,
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session meta: %w", err)
	}

	deckJSON, err := json.Marshal(deckOrEmpty(input.DefaultCards))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal deck: %w", err)
	}

	// Deck first, meta second, both SETNX: a session whose meta key
	// exists always has a deck, and neither side of an ensure race can
	// clobber state the winner already wrote
	if err := r.client.SetNX(ctx, r.deckKey(input.Token), deckJSON, 0).Err(); err != nil {
		return nil, fmt.Errorf("failed to store default deck: %w", err)
	}

	if err := r.client.SetNX(ctx, r.metaKey(input.Token), metaJSON, 0).Err(); err != nil {
		return nil, fmt.Errorf("failed to ensure session: %w", err)
	}

	return r.GetSession(ctx, &GetSessionInput{Token: input.Token})
}

// GetSession assembles a session from its Redis key family
func (r *redisRepository) GetSession(ctx context.Context, input *GetSessionInput) (*models.Session, error) {
	if input == nil || input.Token == "" {
		return nil, errors.New("input and token cannot be empty")
	}

	metaJSON, err := r.client.Get(ctx, r.metaKey(input.Token)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var meta sessionMeta
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session meta: %w", err)
	}

	session := &models.Session{
		Token:     meta.Token,
		CreatedAt: meta.CreatedAt,
		Players:   make(map[string]*models.Player),
		Tasks:     []*models.Task{},
		Cards:     []models.Card{},
	}

	// Players
	playerFields, err := r.client.HGetAll(ctx, r.playersKey(input.Token)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}
	for username, playerJSON := range playerFields {
		var player models.Player
		if err := json.Unmarshal([]byte(playerJSON), &player); err != nil {
			return nil, fmt.Errorf("failed to unmarshal player %s: %w", username, err)
		}
		session.Players[username] = &player
	}

	// Tasks and their votes
	descriptions, err := r.client.LRange(ctx, r.tasksKey(input.Token), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks: %w", err)
	}
	for i, description := range descriptions {
		task := models.NewTask(description)

		voteFields, err := r.client.HGetAll(ctx, r.votesKey(input.Token, i)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to get votes for task %d: %w", i, err)
		}
		for username, rawPoints := range voteFields {
			points, err := strconv.Atoi(rawPoints)
			if err != nil {
				return nil, fmt.Errorf("failed to parse vote for task %d: %w", i, err)
			}
			task.Votes[username] = points
		}

		session.Tasks = append(session.Tasks, task)
	}

	// Deck
	deckJSON, err := r.client.Get(ctx, r.deckKey(input.Token)).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get deck: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal([]byte(deckJSON), &session.Cards); err != nil {
			return nil, fmt.Errorf("failed to unmarshal deck: %w", err)
		}
	}

	return session, nil
}

// DeleteSession removes a session and its whole key family
func (r *redisRepository) DeleteSession(ctx context.Context, input *DeleteSessionInput) error {
	if input == nil || input.Token == "" {
		return errors.New("input and token cannot be empty")
	}

	taskCount, err := r.client.LLen(ctx, r.tasksKey(input.Token)).Result()
	if err != nil {
		return fmt.Errorf("failed to count tasks: %w", err)
	}

	keys := []string{
		r.metaKey(input.Token),
		r.playersKey(input.Token),
		r.tasksKey(input.Token),
		r.deckKey(input.Token),
	}
	for i := int64(0); i < taskCount; i++ {
		keys = append(keys, r.votesKey(input.Token, int(i)))
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// RegisterPlayer adds a player to a session, keeping an existing player
// registered under the same username
func (r *redisRepository) RegisterPlayer(ctx context.Context, input *RegisterPlayerInput) (*models.Player, error) {
	if input == nil || input.Token == "" || input.Username == "" {
		return nil, errors.New("input, token and username cannot be empty")
	}

	if err := r.requireSession(ctx, input.Token); err != nil {
		return nil, err
	}

	player := &models.Player{Username: input.Username}
	playerJSON, err := json.Marshal(player)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal player: %w", err)
	}

	// HSETNX keeps the first registration; re-registering is a no-op
	if err := r.client.HSetNX(ctx, r.playersKey(input.Token), input.Username, playerJSON).Err(); err != nil {
		return nil, fmt.Errorf("failed to register player: %w", err)
	}

	return player, nil
}

// AppendTasks appends tasks to the end of the session's backlog
func (r *redisRepository) AppendTasks(ctx context.Context, input *AppendTasksInput) error {
	if input == nil || input.Token == "" {
		return errors.New("input and token cannot be empty")
	}

	if err := r.requireSession(ctx, input.Token); err != nil {
		return err
	}

	if len(input.Descriptions) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(input.Descriptions))
	for _, description := range input.Descriptions {
		values = append(values, description)
	}

	if err := r.client.RPush(ctx, r.tasksKey(input.Token), values...).Err(); err != nil {
		return fmt.Errorf("failed to append tasks: %w", err)
	}

	return nil
}

// SetVote records a vote on a task. Tasks are append-only, so the index
// check cannot be invalidated between the length read and the write.
func (r *redisRepository) SetVote(ctx context.Context, input *SetVoteInput) error {
	if input == nil || input.Token == "" || input.Username == "" {
		return errors.New("input, token and username cannot be empty")
	}

	if err := r.requireSession(ctx, input.Token); err != nil {
		return err
	}

	taskCount, err := r.client.LLen(ctx, r.tasksKey(input.Token)).Result()
	if err != nil {
		return fmt.Errorf("failed to count tasks: %w", err)
	}

	if input.TaskIndex < 0 || int64(input.TaskIndex) >= taskCount {
		return ErrTaskIndexOutOfRange
	}

	if err := r.client.HSet(ctx, r.votesKey(input.Token, input.TaskIndex), input.Username, input.Points).Err(); err != nil {
		return fmt.Errorf("failed to set vote: %w", err)
	}

	return nil
}

// SetDeck replaces the session's deck wholesale
func (r *redisRepository) SetDeck(ctx context.Context, input *SetDeckInput) error {
	if input == nil || input.Token == "" {
		return errors.New("input and token cannot be empty")
	}

	if err := r.requireSession(ctx, input.Token); err != nil {
		return err
	}

	deckJSON, err := json.Marshal(deckOrEmpty(input.Cards))
	if err != nil {
		return fmt.Errorf("failed to marshal deck: %w", err)
	}

	if err := r.client.Set(ctx, r.deckKey(input.Token), deckJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set deck: %w", err)
	}

	return nil
}

// requireSession maps an absent meta key to ErrSessionNotFound
func (r *redisRepository) requireSession(ctx context.Context, token string) error {
	exists, err := r.client.Exists(ctx, r.metaKey(token)).Result()
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}

	if exists == 0 {
		return ErrSessionNotFound
	}

	return nil
}

func (r *redisRepository) metaKey(token string) string {
	return fmt.Sprintf("%s%s", sessionKeyPrefix, token)
}

func (r *redisRepository) playersKey(token string) string {
	return fmt.Sprintf("%s%s%s", sessionKeyPrefix, token, playersKeySuffix)
}

func (r *redisRepository) tasksKey(token string) string {
	return fmt.Sprintf("%s%s%s", sessionKeyPrefix, token, tasksKeySuffix)
}

func (r *redisRepository) deckKey(token string) string {
	return fmt.Sprintf("%s%s%s", sessionKeyPrefix, token, deckKeySuffix)
}

func (r *redisRepository) votesKey(token string, taskIndex int) string {
	return fmt.Sprintf("%s%s%s%d", sessionKeyPrefix, token, votesKeySuffix, taskIndex)
}

// deckOrEmpty keeps an empty deck marshaling as [] rather than null
func deckOrEmpty(cards []models.Card) []models.Card {
	if cards == nil {
		return []models.Card{}
	}
	return cards
}
