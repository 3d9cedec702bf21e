// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/fangate/fangate/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// GateRepository defines operations for gates
type GateRepository interface {
	Repository[models.Gate, models.GateFilter]
	BySlug(ctx context.Context, slug string) (*models.Gate, error)
	ByUUID(ctx context.Context, uuid string) (*models.Gate, error)
	// IncrementDownloads bumps the gate's download counter by one.
	IncrementDownloads(ctx context.Context, gateID uint) error
}

// SubmissionRepository defines operations for submissions
type SubmissionRepository interface {
	Repository[models.Submission, models.SubmissionFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Submission, error)
	ByGateAndEmail(ctx context.Context, gateID uint, email string) (*models.Submission, error)
	ListByGate(ctx context.Context, gateID uint, limit, offset int) ([]*models.Submission, error)
	// MarkStep sets the step's verified flag and timestamp if not already set.
	// Returns true when this call performed the transition, false when the flag
	// was already true (or the row does not exist). First write wins; repeats
	// are no-ops, never errors.
	MarkStep(ctx context.Context, submissionID uint, step models.Step, at time.Time) (bool, error)
	// MarkDownloaded flips download_completed with the same first-write-wins
	// contract as MarkStep.
	MarkDownloaded(ctx context.Context, submissionID uint, at time.Time) (bool, error)
}

// AnalyticsEventRepository defines operations for the append-only event log
type AnalyticsEventRepository interface {
	Repository[models.AnalyticsEvent, models.AnalyticsEventFilter]
	// CountByType returns event counts per event type for one gate.
	CountByType(ctx context.Context, gateID uint) (map[string]int64, error)
}
