package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"
)

// DynamoDB key constants for the single-table design.
const (
	pkPrefix = "ACCOUNT#"
	skJob    = "JOB#"

	// maxBatchWrite is the DynamoDB BatchWriteItem limit per call.
	maxBatchWrite = 25
)

// DynamoStore implements JobStore using AWS DynamoDB.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
}

// Compile-time interface check.
var _ JobStore = (*DynamoStore)(nil)

// NewDynamoStore creates a DynamoStore for the given table.
// The client should be initialized from the shared AWS config.
func NewDynamoStore(client *dynamodb.Client, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
	}
}

// --- Internal helpers ---

// accountPK returns the partition key for an account.
func accountPK(accountID string) string {
	return pkPrefix + accountID
}

// expiresAt returns the Unix epoch timestamp for record expiration (now + JobTTL).
func expiresAt() int64 {
	return time.Now().Add(JobTTL).Unix()
}

// putItem marshals a domain object and writes it to DynamoDB with PK, SK, and TTL.
// The domain object should use dynamodbav:"-" for fields derived from PK/SK.
func (s *DynamoStore) putItem(ctx context.Context, pk, sk string, data interface{}) error {
	item, err := attributevalue.MarshalMap(data)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	// Add key and TTL attributes (overwrite any conflicting keys from the data).
	item["PK"] = &types.AttributeValueMemberS{Value: pk}
	item["SK"] = &types.AttributeValueMemberS{Value: sk}
	item["expiresAt"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(expiresAt(), 10)}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("PutItem PK=%s SK=%s: %w", pk, sk, err)
	}
	return nil
}

// getItem reads a single item from DynamoDB and unmarshals it into out.
// Returns false if the item does not exist (out is not modified).
func (s *DynamoStore) getItem(ctx context.Context, pk, sk string, out interface{}) (bool, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
	})
	if err != nil {
		return false, fmt.Errorf("GetItem PK=%s SK=%s: %w", pk, sk, err)
	}
	if result.Item == nil {
		return false, nil
	}
	if err := attributevalue.UnmarshalMap(result.Item, out); err != nil {
		return false, fmt.Errorf("unmarshal PK=%s SK=%s: %w", pk, sk, err)
	}
	return true, nil
}

// queryJobs queries all job items for an account, following pagination —
// DynamoDB returns up to 1MB per Query call.
func (s *DynamoStore) queryJobs(ctx context.Context, accountID string) ([]map[string]types.AttributeValue, error) {
	pk := accountPK(accountID)

	input := &dynamodb.QueryInput{
		TableName:              &s.tableName,
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :skPrefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":       &types.AttributeValueMemberS{Value: pk},
			":skPrefix": &types.AttributeValueMemberS{Value: skJob},
		},
	}

	var allItems []map[string]types.AttributeValue
	for {
		result, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("Query PK=%s: %w", pk, err)
		}
		allItems = append(allItems, result.Items...)

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return allItems, nil
}

// batchDeleteKeys deletes multiple items by their PK/SK keys.
// Handles DynamoDB's 25-item-per-batch limit automatically.
func (s *DynamoStore) batchDeleteKeys(ctx context.Context, keys []map[string]types.AttributeValue) error {
	for i := 0; i < len(keys); i += maxBatchWrite {
		end := i + maxBatchWrite
		if end > len(keys) {
			end = len(keys)
		}

		var requests []types.WriteRequest
		for _, key := range keys[i:end] {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: key},
			})
		}

		_, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				s.tableName: requests,
			},
		})
		if err != nil {
			return fmt.Errorf("BatchWriteItem delete (%d items): %w", len(requests), err)
		}

		// Note: UnprocessedItems are not retried here. With PAY_PER_REQUEST
		// billing and low throughput, unprocessed items are extremely rare.
		// The 30-day TTL provides a safety net for any missed deletes.
	}
	return nil
}

// --- Job operations ---

func (s *DynamoStore) PutJob(ctx context.Context, job *GenerationJob) error {
	now := time.Now().Unix()
	if job.CreatedAt == 0 {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	if err := s.putItem(ctx, accountPK(job.AccountID), skJob+job.ID, job); err != nil {
		return fmt.Errorf("put job %s/%s: %w", job.AccountID, job.ID, err)
	}

	log.Debug().
		Str("accountId", job.AccountID).
		Str("jobId", job.ID).
		Str("status", job.Status).
		Bool("hasResult", job.Result != nil).
		Msg("Generation job persisted")
	return nil
}

func (s *DynamoStore) GetJob(ctx context.Context, accountID, jobID string) (*GenerationJob, error) {
	var job GenerationJob
	found, err := s.getItem(ctx, accountPK(accountID), skJob+jobID, &job)
	if err != nil {
		return nil, fmt.Errorf("get job %s/%s: %w", accountID, jobID, err)
	}
	if !found {
		return nil, nil
	}

	job.ID = jobID
	job.AccountID = accountID
	return &job, nil
}

func (s *DynamoStore) UpdateJobStatus(ctx context.Context, accountID, jobID, status string) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: accountPK(accountID)},
			"SK": &types.AttributeValueMemberS{Value: skJob + jobID},
		},
		UpdateExpression: aws.String("SET #s = :s, updatedAt = :u"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status", // "status" is a DynamoDB reserved word
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s": &types.AttributeValueMemberS{Value: status},
			":u": &types.AttributeValueMemberN{Value: strconv.FormatInt(time.Now().Unix(), 10)},
		},
	})
	if err != nil {
		return fmt.Errorf("update job status %s/%s -> %s: %w", accountID, jobID, status, err)
	}

	log.Debug().Str("accountId", accountID).Str("jobId", jobID).Str("status", status).Msg("Job status updated")
	return nil
}

func (s *DynamoStore) ListJobs(ctx context.Context, accountID string) ([]*GenerationJob, error) {
	items, err := s.queryJobs(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list jobs for %s: %w", accountID, err)
	}

	jobs := make([]*GenerationJob, 0, len(items))
	for _, item := range items {
		var job GenerationJob
		if err := attributevalue.UnmarshalMap(item, &job); err != nil {
			log.Warn().Err(err).Str("accountId", accountID).Msg("Failed to unmarshal job, skipping")
			continue
		}

		// Derive the job ID from SK: "JOB#kit-001" → "kit-001"
		if skAttr, ok := item["SK"].(*types.AttributeValueMemberS); ok {
			job.ID = strings.TrimPrefix(skAttr.Value, skJob)
		}
		job.AccountID = accountID

		jobs = append(jobs, &job)
	}

	return jobs, nil
}

func (s *DynamoStore) DeleteJob(ctx context.Context, accountID, jobID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: accountPK(accountID)},
			"SK": &types.AttributeValueMemberS{Value: skJob + jobID},
		},
	})
	if err != nil {
		return fmt.Errorf("delete job %s/%s: %w", accountID, jobID, err)
	}

	log.Debug().Str("accountId", accountID).Str("jobId", jobID).Msg("Job deleted")
	return nil
}

func (s *DynamoStore) PurgeAccount(ctx context.Context, accountID string) ([]string, error) {
	items, err := s.queryJobs(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("query account %s for purge: %w", accountID, err)
	}

	var keysToDelete []map[string]types.AttributeValue
	var deletedIDs []string
	for _, item := range items {
		skAttr, ok := item["SK"].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		keysToDelete = append(keysToDelete, map[string]types.AttributeValue{
			"PK": item["PK"],
			"SK": item["SK"],
		})
		deletedIDs = append(deletedIDs, strings.TrimPrefix(skAttr.Value, skJob))
	}

	if len(keysToDelete) == 0 {
		log.Debug().Str("accountId", accountID).Msg("No jobs to purge")
		return nil, nil
	}

	if err := s.batchDeleteKeys(ctx, keysToDelete); err != nil {
		return deletedIDs, fmt.Errorf("batch delete jobs for %s: %w", accountID, err)
	}

	log.Info().
		Str("accountId", accountID).
		Int("deleted", len(deletedIDs)).
		Strs("jobIds", deletedIDs).
		Msg("Account jobs purged from DynamoDB")

	return deletedIDs, nil
}
