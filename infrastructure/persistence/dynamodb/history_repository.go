// Package dynamodb stores decision history in a single DynamoDB table
package dynamodb

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"decisionmap/domain/history"
	pkgerrors "decisionmap/pkg/errors"
)

const (
	historyPartition = "HISTORY"
	recordSortKey    = "RECORD"
	historyIndex     = "GSI1"
	entityType       = "DECISION_RECORD"

	// timeLayout is fixed width so GSI1SK ordering matches time ordering
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// Client is the subset of the DynamoDB API the repository uses
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// HistoryRepository implements ports.HistoryRepository on DynamoDB.
// Records live under PK=DECISION#<id>, SK=RECORD; GSI1 (PK=HISTORY,
// SK=<createdAt>#<id>) serves newest-first listings.
type HistoryRepository struct {
	client    Client
	tableName string
	logger    *zap.Logger
}

// NewHistoryRepository creates a new HistoryRepository
func NewHistoryRepository(client Client, tableName string, logger *zap.Logger) *HistoryRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryRepository{client: client, tableName: tableName, logger: logger}
}

// recordItem represents the DynamoDB item structure for a decision record
type recordItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	EntityType string `dynamodbav:"EntityType"`
	RecordID   string `dynamodbav:"RecordID"`
	Domain     string `dynamodbav:"Domain"`
	Title      string `dynamodbav:"Title"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	Payload    string `dynamodbav:"Payload"`
}

func recordPK(id string) string { return "DECISION#" + id }

func listSortKey(createdAt time.Time, id string) string {
	return createdAt.UTC().Format(timeLayout) + "#" + id
}

func (r *HistoryRepository) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: recordPK(id)},
		"SK": &types.AttributeValueMemberS{Value: recordSortKey},
	}
}

// Save implements ports.HistoryRepository
func (r *HistoryRepository) Save(ctx context.Context, record history.DecisionRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	item := recordItem{
		PK:         recordPK(record.ID),
		SK:         recordSortKey,
		GSI1PK:     historyPartition,
		GSI1SK:     listSortKey(record.CreatedAt, record.ID),
		EntityType: entityType,
		RecordID:   record.ID,
		Domain:     record.Domain,
		Title:      record.Title,
		CreatedAt:  record.CreatedAt.UTC().Format(time.RFC3339Nano),
		Payload:    string(payload),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		r.logger.Error("Failed to save record", zap.String("record_id", record.ID), zap.Error(err))
		return pkgerrors.NewDatabaseError("save record", err)
	}
	r.logger.Debug("Record saved", zap.String("record_id", record.ID), zap.String("domain", record.Domain))
	return nil
}

// GetByID implements ports.HistoryRepository
func (r *HistoryRepository) GetByID(ctx context.Context, id string) (history.DecisionRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       r.key(id),
	})
	if err != nil {
		return history.DecisionRecord{}, pkgerrors.NewDatabaseError("get record", err)
	}
	if len(out.Item) == 0 {
		return history.DecisionRecord{}, pkgerrors.ErrRecordNotFound
	}
	var item recordItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return history.DecisionRecord{}, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return decode(item)
}

// List implements ports.HistoryRepository. A domain filter runs after
// DynamoDB's Limit, so pages are filled by repeated queries.
func (r *HistoryRepository) List(ctx context.Context, opts history.ListOptions) (history.Page, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	var startKey map[string]types.AttributeValue
	if opts.Cursor != "" {
		k, err := decodeCursor(opts.Cursor)
		if err != nil {
			return history.Page{}, err
		}
		startKey = k
	}

	input, err := r.listInput(opts.Domain)
	if err != nil {
		return history.Page{}, err
	}
	input.Limit = aws.Int32(int32(limit + 1))

	page := history.Page{Records: make([]history.DecisionRecord, 0, limit)}
	var items []recordItem
	for {
		input.ExclusiveStartKey = startKey
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return history.Page{}, pkgerrors.NewDatabaseError("list records", err)
		}
		var batch []recordItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &batch); err != nil {
			return history.Page{}, fmt.Errorf("failed to unmarshal items: %w", err)
		}
		items = append(items, batch...)
		if len(items) > limit || len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	if len(items) > limit {
		items = items[:limit]
		page.HasMore = true
	}
	for _, item := range items {
		rec, err := decode(item)
		if err != nil {
			r.logger.Warn("Skipping unreadable record", zap.String("record_id", item.RecordID), zap.Error(err))
			continue
		}
		page.Records = append(page.Records, rec)
	}
	if page.HasMore && len(items) > 0 {
		page.NextCursor = encodeCursor(items[len(items)-1])
	}
	return page, nil
}

func (r *HistoryRepository) listInput(domain string) (*dynamodb.QueryInput, error) {
	builder := expression.NewBuilder().
		WithKeyCondition(expression.Key("GSI1PK").Equal(expression.Value(historyPartition)))
	if domain != "" {
		builder = builder.WithFilter(expression.Name("Domain").Equal(expression.Value(domain)))
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}
	return &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(historyIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	}, nil
}

// Delete implements ports.HistoryRepository
func (r *HistoryRepository) Delete(ctx context.Context, id string) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}
	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       r.key(id),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	var missing *types.ConditionalCheckFailedException
	if errors.As(err, &missing) {
		return pkgerrors.ErrRecordNotFound
	}
	if err != nil {
		return pkgerrors.NewDatabaseError("delete record", err)
	}
	r.logger.Info("Record deleted", zap.String("record_id", id))
	return nil
}

// All implements ports.HistoryRepository
func (r *HistoryRepository) All(ctx context.Context) ([]history.DecisionRecord, error) {
	input, err := r.listInput("")
	if err != nil {
		return nil, err
	}

	var out []history.DecisionRecord
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("load records", err)
		}
		var items []recordItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items: %w", err)
		}
		for _, item := range items {
			if rec, err := decode(item); err == nil {
				out = append(out, rec)
			}
		}
	}
	return out, nil
}

func decode(item recordItem) (history.DecisionRecord, error) {
	var rec history.DecisionRecord
	if err := json.Unmarshal([]byte(item.Payload), &rec); err != nil {
		return history.DecisionRecord{}, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return rec, nil
}

// Cursors carry the record id and its GSI1 sort key; the full
// ExclusiveStartKey is rebuilt from them.
func encodeCursor(item recordItem) string {
	return base64.RawURLEncoding.EncodeToString([]byte(item.GSI1SK))
}

func decodeCursor(cursor string) (map[string]types.AttributeValue, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, pkgerrors.NewValidationError("invalid cursor")
	}
	sortKey := string(raw)
	i := strings.LastIndex(sortKey, "#")
	if i <= 0 || i == len(sortKey)-1 {
		return nil, pkgerrors.NewValidationError("invalid cursor")
	}
	id := sortKey[i+1:]
	return map[string]types.AttributeValue{
		"PK":     &types.AttributeValueMemberS{Value: recordPK(id)},
		"SK":     &types.AttributeValueMemberS{Value: recordSortKey},
		"GSI1PK": &types.AttributeValueMemberS{Value: historyPartition},
		"GSI1SK": &types.AttributeValueMemberS{Value: sortKey},
	}, nil
}
