// Package main provides the Lambda entry point for kit generation.
//
// This Lambda handles AI-powered listing copy generation:
//   - generate: Run the full pipeline for one listing and persist the kit
//   - status:   Fetch a job record for polling
//   - purge:    Delete all job records for an account
//
// Invoked asynchronously by the API layer via lambda:Invoke (Event type).
//
// Memory: 1 GB
// Timeout: 5 minutes
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/propscribe/listing-copy-kit/internal/artifact"
	"github.com/propscribe/listing-copy-kit/internal/lambdaboot"
	"github.com/propscribe/listing-copy-kit/internal/logging"
	"github.com/propscribe/listing-copy-kit/internal/provider"
	"github.com/propscribe/listing-copy-kit/internal/store"
)

var coldStart = true

var (
	jobStore  *store.DynamoStore
	artifacts *artifact.Uploader
)

func init() {
	initStart := time.Now()
	logging.Init()

	aws := lambdaboot.InitAWS()
	s3s := lambdaboot.InitS3(aws.Config, "ARTIFACT_BUCKET_NAME")
	artifacts = artifact.NewUploader(s3s.Client, s3s.Presigner, s3s.Bucket)
	jobStore = lambdaboot.InitDynamo(aws.Config, "DYNAMO_TABLE_NAME")
	lambdaboot.LoadGeminiKey(aws.SSM)

	lambdaboot.StartupLog("generate-lambda", initStart).
		S3Bucket("artifactBucket", s3s.Bucket).
		DynamoTable("jobs", os.Getenv("DYNAMO_TABLE_NAME")).
		SSMParam("geminiApiKey", logging.EnvOrDefault("SSM_API_KEY_PARAM", lambdaboot.GeminiKeyParamDefault)).
		Config("model", provider.GetModelName()).
		Log()
}

func main() {
	lambda.Start(handler)
}

func handler(ctx context.Context, event GenerateEvent) (*store.GenerationJob, error) {
	if coldStart {
		coldStart = false
		log.Info().Str("function", "generate-lambda").Msg("Cold start — first invocation")
	}
	log.Info().
		Str("type", event.Type).
		Str("accountId", event.AccountID).
		Str("jobId", event.JobID).
		Msg("Generate Lambda invoked")

	switch event.Type {
	case "generate":
		return handleGenerate(ctx, event)
	case "status":
		return handleStatus(ctx, event)
	case "purge":
		return nil, handlePurge(ctx, event)
	default:
		return nil, fmt.Errorf("unknown event type: %s", event.Type)
	}
}
