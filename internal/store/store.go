// Package store provides persistent generation-job storage. It keeps the
// request inputs, lifecycle status, and final result of each kit generation
// so that callers can poll for completion and re-fetch past kits across
// Lambda container recycling, concurrent invocations, and deployments.
//
// The DynamoDB implementation uses a single-table design where all records
// for an account share a partition key (ACCOUNT#{accountId}) and each job is
// one item under a JOB#{jobId} sort key. A TTL attribute (expiresAt)
// auto-deletes records after 30 days, matching the artifact bucket
// lifecycle policy.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/propscribe/listing-copy-kit/internal/facts"
	"github.com/propscribe/listing-copy-kit/internal/pipeline"
)

// JobTTL is the default time-to-live for job records. Matches the S3
// artifact bucket lifecycle policy (30 days).
const JobTTL = 30 * 24 * time.Hour

// Job lifecycle statuses.
const (
	StatusProcessing = "processing"
	StatusComplete   = "complete"
	StatusError      = "error"
)

// NewJobID creates a new random job ID.
func NewJobID() string {
	return "kit-" + uuid.NewString()
}

// JobStore defines the persistence interface for generation jobs.
// Each method is safe for concurrent use. Implementations must handle
// context cancellation and propagate errors with sufficient detail for
// debugging.
//
// GetJob returns (nil, nil) when the requested record does not exist.
// PutJob performs full-item replacement (upsert semantics).
type JobStore interface {
	// PutJob creates or replaces a job record.
	PutJob(ctx context.Context, job *GenerationJob) error

	// GetJob retrieves a job by account and ID. Returns nil, nil if not found.
	GetJob(ctx context.Context, accountID, jobID string) (*GenerationJob, error)

	// UpdateJobStatus atomically updates the status field of a job without
	// overwriting other fields.
	UpdateJobStatus(ctx context.Context, accountID, jobID, status string) error

	// ListJobs retrieves all job records for an account.
	ListJobs(ctx context.Context, accountID string) ([]*GenerationJob, error)

	// DeleteJob deletes a single job record.
	DeleteJob(ctx context.Context, accountID, jobID string) error

	// PurgeAccount deletes every job record for an account (data deletion
	// request). Returns the deleted job IDs for logging.
	PurgeAccount(ctx context.Context, accountID string) ([]string, error)
}

// GenerationJob is one kit generation request and its outcome
// (DynamoDB SK = JOB#{jobId}). The ID and AccountID fields are derived
// from PK/SK on read and excluded from DynamoDB attributes on write.
type GenerationJob struct {
	ID            string               `json:"id" dynamodbav:"-"`
	AccountID     string               `json:"-" dynamodbav:"-"`
	Status        string               `json:"status" dynamodbav:"status"`
	Facts         facts.Facts          `json:"facts" dynamodbav:"facts"`
	Controls      facts.Controls       `json:"controls,omitempty" dynamodbav:"controls,omitempty"`
	PhotoInsights *facts.PhotoInsights `json:"photoInsights,omitempty" dynamodbav:"photoInsights,omitempty"`
	Result        *pipeline.Result     `json:"result,omitempty" dynamodbav:"result,omitempty"`
	ArtifactKey   string               `json:"artifactKey,omitempty" dynamodbav:"artifactKey,omitempty"`
	Error         string               `json:"error,omitempty" dynamodbav:"error,omitempty"`
	CreatedAt     int64                `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt     int64                `json:"updatedAt" dynamodbav:"updatedAt"`
}
