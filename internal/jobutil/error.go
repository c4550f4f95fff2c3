// Package jobutil provides shared helpers for job lifecycle operations.
//
// SetJobError unifies the error-writing pattern for handlers that log a
// failure and persist an error status for the job.
package jobutil

import (
	"context"

	"github.com/rs/zerolog/log"
)

// ErrorWriter is a function that persists a job error to the backing store.
// Each caller provides its own implementation on top of store.JobStore.
type ErrorWriter func(ctx context.Context, accountID, jobID, errMsg string) error

// SetJobError logs the error and delegates persistence to the provided writer.
func SetJobError(ctx context.Context, accountID, jobID, msg string, write ErrorWriter) error {
	log.Error().
		Str("job", jobID).
		Str("accountId", accountID).
		Str("error", msg).
		Msg("Job failed")
	return write(ctx, accountID, jobID, msg)
}
