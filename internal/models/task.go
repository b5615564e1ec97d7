package models

// Task represents one backlog item being estimated
type Task struct {
	// Description is the trimmed free-text description of the item
	Description string `json:"description"`

	// Votes maps username to the point value that player last cast.
	// At most one live vote per player; re-votes overwrite.
	Votes map[string]int `json:"votes"`
}

// NewTask creates a task with an empty vote map
func NewTask(description string) *Task {
	return &Task{
		Description: description,
		Votes:       make(map[string]int),
	}
}

// Clone returns a deep copy of the task
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}

	clone := &Task{
		Description: t.Description,
		Votes:       make(map[string]int, len(t.Votes)),
	}
	for username, points := range t.Votes {
		clone.Votes[username] = points
	}

	return clone
}
