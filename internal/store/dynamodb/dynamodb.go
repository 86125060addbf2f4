// Package dynamodb stores relay records as DynamoDB items.
package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"relay/internal/relay"
)

// PutItemAPI is the part of the DynamoDB client used by Store.
type PutItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Store writes each record with a single unconditional PutItem.
type Store struct {
	client PutItemAPI
	table  string
}

// NewStore creates a store writing to table.
func NewStore(client PutItemAPI, table string) (*Store, error) {
	if table == "" {
		return nil, fmt.Errorf("%w: table name is required", relay.ErrConfiguration)
	}
	return &Store{client: client, table: table}, nil
}

// NewStoreFromConfig creates a store from an AWS config.
func NewStoreFromConfig(cfg aws.Config, table string) (*Store, error) {
	return NewStore(dynamodb.NewFromConfig(cfg), table)
}

// Put implements relay.Store.
func (s *Store) Put(ctx context.Context, record relay.StoredRecord) error {
	record.EventDetails = numbers(record.EventDetails).(map[string]any)

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", record.ID, err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to put item into %s: %w", relay.ErrDependency, s.table, err)
	}

	return nil
}

// numbers rewrites json.Number values as attributevalue.Number so they are
// stored as N attributes with their exact decimal text.
func numbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		return attributevalue.Number(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = numbers(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = numbers(e)
		}
		return out
	}
	return v
}
