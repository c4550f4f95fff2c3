// Package artifact persists finished kits to S3. Each completed job writes
// one JSON document under kits/{accountId}/{jobId}.json; callers fetch it
// via presigned GET URLs rather than reading the full result back out of
// DynamoDB.
package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/propscribe/listing-copy-kit/internal/pipeline"
)

// DefaultURLExpiry is how long presigned artifact URLs stay valid.
const DefaultURLExpiry = 24 * time.Hour

// Uploader writes kit artifacts to a single S3 bucket.
type Uploader struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
}

// NewUploader creates an Uploader for the given bucket.
func NewUploader(client *s3.Client, presigner *s3.PresignClient, bucket string) *Uploader {
	return &Uploader{client: client, presigner: presigner, bucket: bucket}
}

// Key returns the S3 object key for a job's kit artifact.
func Key(accountID, jobID string) string {
	return fmt.Sprintf("kits/%s/%s.json", accountID, jobID)
}

// UploadKit serializes the result and writes it to S3, returning the object key.
func (u *Uploader) UploadKit(ctx context.Context, accountID, jobID string, result *pipeline.Result) (string, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal kit for %s/%s: %w", accountID, jobID, err)
	}

	key := Key(accountID, jobID)
	contentType := "application/json"
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &u.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload kit to s3://%s/%s: %w", u.bucket, key, err)
	}

	log.Info().
		Str("accountId", accountID).
		Str("jobId", jobID).
		Str("key", key).
		Int("bytes", len(data)).
		Msg("Kit artifact uploaded to S3")
	return key, nil
}

// PresignedURL creates a presigned GET URL for a kit artifact.
func (u *Uploader) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	result, err := u.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &u.bucket, Key: &key,
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		return "", fmt.Errorf("presign GetObject %s: %w", key, err)
	}
	return result.URL, nil
}
