package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	// Contact/lead submissions from the marketing pages
	TypeContactSubmit = "contact:submit"

	// Periodic purge of old lead records
	TypeLeadsCleanup = "leads:cleanup"
)

// ContactPayload carries a contact form submission into the worker
type ContactPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Category string `json:"category,omitempty"`
	Message  string `json:"message"`
}

// CleanupPayload controls the lead retention purge
type CleanupPayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewContactSubmitTask creates a task delivering a contact submission
func NewContactSubmitTask(payload ContactPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeContactSubmit, data), nil
}

// NewLeadsCleanupTask creates a task purging leads older than retentionDays
func NewLeadsCleanupTask(retentionDays int) (*asynq.Task, error) {
	data, err := json.Marshal(CleanupPayload{RetentionDays: retentionDays})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeLeadsCleanup, data), nil
}

// ParseContactPayload parses a contact payload from an Asynq task
func ParseContactPayload(task *asynq.Task) (ContactPayload, error) {
	var payload ContactPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}

// ParseCleanupPayload parses a cleanup payload from an Asynq task
func ParseCleanupPayload(task *asynq.Task) (CleanupPayload, error) {
	var payload CleanupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
