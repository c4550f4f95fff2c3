package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/propscribe/listing-copy-kit/internal/jobutil"
	"github.com/propscribe/listing-copy-kit/internal/metrics"
	"github.com/propscribe/listing-copy-kit/internal/pipeline"
	"github.com/propscribe/listing-copy-kit/internal/provider"
	"github.com/propscribe/listing-copy-kit/internal/store"
)

// writeJobError persists an error status for a job without clobbering the
// stored request inputs.
func writeJobError(ctx context.Context, accountID, jobID, errMsg string) error {
	job, err := jobStore.GetJob(ctx, accountID, jobID)
	if err != nil || job == nil {
		job = &store.GenerationJob{ID: jobID, AccountID: accountID}
	}
	job.Status = store.StatusError
	job.Error = errMsg
	return jobStore.PutJob(ctx, job)
}

func handleGenerate(ctx context.Context, event GenerateEvent) (*store.GenerationJob, error) {
	jobStart := time.Now()

	jobID := event.JobID
	if jobID == "" {
		jobID = store.NewJobID()
	}

	job := &store.GenerationJob{
		ID:            jobID,
		AccountID:     event.AccountID,
		Status:        store.StatusProcessing,
		Facts:         event.Facts,
		Controls:      event.Controls,
		PhotoInsights: event.PhotoInsights,
	}
	if err := jobStore.PutJob(ctx, job); err != nil {
		return nil, fmt.Errorf("persist job %s: %w", jobID, err)
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, jobutil.SetJobError(ctx, event.AccountID, jobID, "API key not configured", writeJobError)
	}

	gemini, err := provider.NewGemini(ctx, apiKey)
	if err != nil {
		return nil, jobutil.SetJobError(ctx, event.AccountID, jobID, "failed to initialize AI client", writeJobError)
	}

	model := event.Model
	if model == "" {
		model = provider.GetModelName()
	}
	orch := pipeline.New(gemini, pipeline.Config{Model: model})

	result, err := orch.GenerateKit(ctx, pipeline.Request{
		Facts:         event.Facts,
		Controls:      event.Controls,
		PhotoInsights: event.PhotoInsights,
	})
	if err != nil {
		return nil, jobutil.SetJobError(ctx, event.AccountID, jobID, err.Error(), writeJobError)
	}

	// Artifact upload is best-effort: the kit also lives in the job record.
	artifactKey, err := artifacts.UploadKit(ctx, event.AccountID, jobID, result)
	if err != nil {
		log.Warn().Err(err).Str("job", jobID).Msg("Artifact upload failed, kit available from job record only")
		artifactKey = ""
	}

	job.Status = store.StatusComplete
	job.Result = result
	job.ArtifactKey = artifactKey
	if err := jobStore.PutJob(ctx, job); err != nil {
		return nil, fmt.Errorf("persist completed job %s: %w", jobID, err)
	}

	emitGenerateMetrics(event.AccountID, jobID, result, time.Since(jobStart))

	log.Info().
		Str("job", jobID).
		Int("totalTokens", result.Tokens.Total).
		Int("flags", len(result.Flags)).
		Dur("duration", time.Since(jobStart)).
		Msg("Kit generation complete")
	return job, nil
}

func handleStatus(ctx context.Context, event GenerateEvent) (*store.GenerationJob, error) {
	job, err := jobStore.GetJob(ctx, event.AccountID, event.JobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("job %s not found for account %s", event.JobID, event.AccountID)
	}
	return job, nil
}

func handlePurge(ctx context.Context, event GenerateEvent) error {
	deleted, err := jobStore.PurgeAccount(ctx, event.AccountID)
	if err != nil {
		return err
	}
	log.Info().Str("accountId", event.AccountID).Int("deleted", len(deleted)).Msg("Account purge complete")
	return nil
}

// emitGenerateMetrics records one EMF document per completed generation.
func emitGenerateMetrics(accountID, jobID string, result *pipeline.Result, elapsed time.Duration) {
	rec := metrics.New("ListingCopyKit").
		Dimension("Operation", "generate").
		Duration("GenerationLatencyMs", elapsed).
		Metric("PromptTokens", float64(result.Tokens.Prompt), metrics.UnitCount).
		Metric("CompletionTokens", float64(result.Tokens.Completion), metrics.UnitCount).
		Metric("PolicyFlags", float64(len(result.Flags)), metrics.UnitCount).
		Property("accountId", accountID).
		Property("jobId", jobID).
		Property("promptVersion", result.PromptVersion)
	if result.Integration != nil {
		rec.Metric("IntegrationScore", float64(result.Integration.Score), metrics.UnitNone)
	}
	rec.Flush()
}
