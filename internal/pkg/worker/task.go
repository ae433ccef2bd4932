package worker

import (
	"encoding/json"
	"fmt"
	"time"
)

// Task represents a unit of work to be processed by a Handler
type Task struct {
	// ID is the unique identifier for the task
	ID string

	// Type selects the handler; it also labels logs and metrics
	Type string

	// Payload contains the raw data for the task
	Payload []byte

	// Metadata holds additional information about the task
	Metadata map[string]string

	// Timeout is the maximum duration for task execution
	Timeout time.Duration

	// CreatedAt is the timestamp when the task was created
	CreatedAt time.Time
}

// NewTask creates a task with a JSON encoded payload
func NewTask(id, taskType string, payload any, timeout time.Duration) (*Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", taskType, err)
	}

	return &Task{
		ID:        id,
		Type:      taskType,
		Payload:   data,
		Metadata:  map[string]string{},
		Timeout:   timeout,
		CreatedAt: time.Now(),
	}, nil
}

// Decode unmarshals the JSON payload into v
func (t *Task) Decode(v any) error {
	if err := json.Unmarshal(t.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", t.Type, err)
	}
	return nil
}
