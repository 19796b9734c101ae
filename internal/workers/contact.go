package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/errandhub-dev/errandhub/internal/models"
	"github.com/errandhub-dev/errandhub/internal/tasks"
)

// HandleContactSubmit persists a contact submission and records the
// notification hand-off
func HandleContactSubmit(ctx context.Context, task *asynq.Task, db *gorm.DB, log zerolog.Logger) error {
	payload, err := tasks.ParseContactPayload(task)
	if err != nil {
		return err
	}

	submission := models.ContactSubmission{
		Name:     payload.Name,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Category: payload.Category,
		Message:  payload.Message,
	}
	if err := db.WithContext(ctx).Create(&submission).Error; err != nil {
		return fmt.Errorf("failed to store contact submission: %w", err)
	}

	// Notification delivery is a log line until an outbound channel exists.
	// TODO: wire the ops email sender once the notifications service ships.
	now := time.Now()
	if err := db.WithContext(ctx).Model(&submission).Update("notified_at", &now).Error; err != nil {
		return fmt.Errorf("failed to mark submission notified: %w", err)
	}

	log.Info().
		Str("submission_id", submission.ID).
		Str("email", submission.Email).
		Str("category", submission.Category).
		Msg("Contact submission processed")
	return nil
}

// HandleLeadsCleanup purges submissions older than the retention window
func HandleLeadsCleanup(ctx context.Context, task *asynq.Task, db *gorm.DB, log zerolog.Logger) error {
	payload, err := tasks.ParseCleanupPayload(task)
	if err != nil {
		return err
	}

	retentionDays := payload.RetentionDays
	if retentionDays <= 0 {
		retentionDays = 365
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	result := db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.ContactSubmission{})
	if result.Error != nil {
		return fmt.Errorf("failed to purge old submissions: %w", result.Error)
	}

	log.Info().
		Int64("purged", result.RowsAffected).
		Time("cutoff", cutoff).
		Msg("Lead retention purge complete")
	return nil
}

// StartCleanupScheduler enqueues a leads:cleanup task once a day
func StartCleanupScheduler(client *asynq.Client, retentionDays int, log zerolog.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	enqueueCleanup(client, retentionDays, log)

	for range ticker.C {
		enqueueCleanup(client, retentionDays, log)
	}
}

func enqueueCleanup(client *asynq.Client, retentionDays int, log zerolog.Logger) {
	task, err := tasks.NewLeadsCleanupTask(retentionDays)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build cleanup task")
		return
	}
	if _, err := client.Enqueue(task, asynq.Queue("low")); err != nil {
		log.Error().Err(err).Msg("Failed to enqueue cleanup task")
	}
}
