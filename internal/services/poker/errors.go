package poker

import "errors"

// Define errors
var (
	// ErrSessionNotFound indicates the token has no matching session
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidUsername indicates an empty or whitespace-only username
	ErrInvalidUsername = errors.New("username must not be empty or whitespace only")

	// ErrAlreadyRegistered indicates the caller already holds an identity
	// in this session
	ErrAlreadyRegistered = errors.New("caller is already registered in this session")

	// ErrTaskIndexOutOfRange indicates a task index outside the backlog
	ErrTaskIndexOutOfRange = errors.New("task index out of range")

	// ErrNoTasks indicates estimation cannot start on an empty backlog
	ErrNoTasks = errors.New("no tasks added")
)
