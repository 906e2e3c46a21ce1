package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Item attribute names. expires_at is meant to be configured as the
// table's TTL attribute.
const (
	attrSessionID = "session_id"
	attrPayload   = "payload"
	attrExpiresAt = "expires_at"
	attrUpdatedAt = "updated_at"
)

// DynamoAPI is the subset of the DynamoDB client used by Dynamo.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Dynamo stores sessions as JSON in a DynamoDB table keyed by a numeric
// session_id. DynamoDB deletes expired items lazily, so Get also checks
// expires_at itself.
type Dynamo[T any] struct {
	api   DynamoAPI
	table string
	ttl   time.Duration
	now   Clock
}

// NewDynamo constructs a DynamoDB-backed store.
func NewDynamo[T any](api DynamoAPI, table string, ttl time.Duration) (*Dynamo[T], error) {
	if api == nil {
		return nil, errors.New("state: dynamodb api must not be nil")
	}
	if strings.TrimSpace(table) == "" {
		return nil, errors.New("state: dynamodb table name must not be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Dynamo[T]{api: api, table: table, ttl: ttl, now: time.Now}, nil
}

func sessionKey(id int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrSessionID: &types.AttributeValueMemberN{Value: strconv.FormatInt(id, 10)},
	}
}

// Get loads the session for id.
func (d *Dynamo[T]) Get(ctx context.Context, id int64) (T, bool, error) {
	var zero T
	out, err := d.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            sessionKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return zero, false, fmt.Errorf("state: get session %d: %w", id, err)
	}
	if out == nil || len(out.Item) == 0 {
		return zero, false, nil
	}

	if exp, ok := out.Item[attrExpiresAt].(*types.AttributeValueMemberN); ok {
		unix, err := strconv.ParseInt(exp.Value, 10, 64)
		if err != nil {
			return zero, false, fmt.Errorf("state: session %d: parse %s: %w", id, attrExpiresAt, err)
		}
		if !d.now().Before(time.Unix(unix, 0)) {
			return zero, false, nil
		}
	}

	payload, ok := out.Item[attrPayload].(*types.AttributeValueMemberS)
	if !ok {
		return zero, false, fmt.Errorf("state: session %d: missing %s attribute", id, attrPayload)
	}
	var value T
	if err := json.Unmarshal([]byte(payload.Value), &value); err != nil {
		return zero, false, fmt.Errorf("state: session %d: decode payload: %w", id, err)
	}
	return value, true, nil
}

// Put overwrites the session for id and pushes its expiry forward.
func (d *Dynamo[T]) Put(ctx context.Context, id int64, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("state: session %d: encode payload: %w", id, err)
	}
	now := d.now()
	item := sessionKey(id)
	item[attrPayload] = &types.AttributeValueMemberS{Value: string(raw)}
	item[attrExpiresAt] = &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Add(d.ttl).Unix(), 10)}
	item[attrUpdatedAt] = &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339)}

	if _, err := d.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("state: put session %d: %w", id, err)
	}
	return nil
}

// Clear deletes the session for id. Deleting a missing item is not an error.
func (d *Dynamo[T]) Clear(ctx context.Context, id int64) error {
	if _, err := d.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.table),
		Key:       sessionKey(id),
	}); err != nil {
		return fmt.Errorf("state: clear session %d: %w", id, err)
	}
	return nil
}
