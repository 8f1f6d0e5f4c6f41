package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/expression"

	"github.com/terskinalex/leetcode-activity-tracker/internal/apperr"
	"github.com/terskinalex/leetcode-activity-tracker/internal/config"
	"github.com/terskinalex/leetcode-activity-tracker/internal/models"
)

// DynamoDBStorage implements Storage using AWS DynamoDB. PutItem is a
// native upsert keyed on id; range queries scan with a timestamp filter
// and sort in memory since timestamp is not part of the key schema.
type DynamoDBStorage struct {
	client    *dynamodb.DynamoDB
	tableName string
}

// NewDynamoDBStorage creates a new DynamoDB storage instance
func NewDynamoDBStorage(cfg config.StorageConfig) (*DynamoDBStorage, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}

	// For local testing with DynamoDB Local
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	storage := &DynamoDBStorage{
		client:    dynamodb.New(sess),
		tableName: cfg.TableName,
	}

	if err := storage.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure table exists: %w", err)
	}

	return storage, nil
}

// ensureTable creates the DynamoDB table if it doesn't exist
func (d *DynamoDBStorage) ensureTable() error {
	_, err := d.client.DescribeTable(&dynamodb.DescribeTableInput{
		TableName: aws.String(d.tableName),
	})

	if err == nil {
		return nil // Table already exists
	}

	input := &dynamodb.CreateTableInput{
		TableName: aws.String(d.tableName),
		KeySchema: []*dynamodb.KeySchemaElement{
			{
				AttributeName: aws.String("id"),
				KeyType:       aws.String("HASH"),
			},
		},
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{
				AttributeName: aws.String("id"),
				AttributeType: aws.String("S"),
			},
		},
		BillingMode: aws.String("PAY_PER_REQUEST"),
	}

	_, err = d.client.CreateTable(input)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	return d.client.WaitUntilTableExists(&dynamodb.DescribeTableInput{
		TableName: aws.String(d.tableName),
	})
}

// UpsertSubmissions stores each submission with PutItem, counting as added
// those whose id had no previous item.
func (d *DynamoDBStorage) UpsertSubmissions(ctx context.Context, subs []models.Submission) (int, error) {
	added := 0
	for _, sub := range subs {
		item, err := dynamodbattribute.MarshalMap(sub)
		if err != nil {
			return added, apperr.Storage(err, "failed to marshal submission %s", sub.ID)
		}

		out, err := d.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
			TableName:    aws.String(d.tableName),
			Item:         item,
			ReturnValues: aws.String(dynamodb.ReturnValueAllOld),
		})
		if err != nil {
			return added, apperr.Storage(err, "failed to store submission %s", sub.ID)
		}
		if len(out.Attributes) == 0 {
			added++
		}
	}

	return added, nil
}

// QueryRange scans for submissions with start <= timestamp <= end and
// sorts the result newest first.
func (d *DynamoDBStorage) QueryRange(ctx context.Context, start, end int64) ([]models.Submission, error) {
	filt := expression.Name("timestamp").Between(
		expression.Value(start),
		expression.Value(end),
	)
	expr, err := expression.NewBuilder().WithFilter(filt).Build()
	if err != nil {
		return nil, apperr.Storage(err, "failed to build scan expression")
	}

	input := &dynamodb.ScanInput{
		TableName:                 aws.String(d.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	var subs []models.Submission
	err = d.client.ScanPagesWithContext(ctx, input, func(page *dynamodb.ScanOutput, lastPage bool) bool {
		var pageSubs []models.Submission
		if err := dynamodbattribute.UnmarshalListOfMaps(page.Items, &pageSubs); err == nil {
			subs = append(subs, pageSubs...)
		}
		return true
	})
	if err != nil {
		return nil, apperr.Storage(err, "failed to scan submissions")
	}

	sort.Slice(subs, func(i, j int) bool {
		return subs[i].Timestamp > subs[j].Timestamp
	})

	return subs, nil
}

// Reset deletes and recreates the table. A table that does not exist is
// treated as already deleted.
func (d *DynamoDBStorage) Reset(ctx context.Context) error {
	_, err := d.client.DeleteTableWithContext(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(d.tableName),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); !ok || aerr.Code() != dynamodb.ErrCodeResourceNotFoundException {
			return apperr.Storage(err, "failed to delete table")
		}
	} else {
		if err := d.client.WaitUntilTableNotExistsWithContext(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(d.tableName),
		}); err != nil {
			return apperr.Storage(err, "failed waiting for table deletion")
		}
	}

	if err := d.ensureTable(); err != nil {
		return apperr.Storage(err, "failed to recreate table")
	}
	return nil
}

// Close closes the DynamoDB connection
func (d *DynamoDBStorage) Close() error {
	// DynamoDB client doesn't need explicit closing
	return nil
}
