package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-apns-push/internal/domain"
)

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewNotificationRepo(client *dynamodb.Client, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

func (r *NotificationRepo) Put(ctx context.Context, n *domain.Notification) error {
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("notification_id", notificationID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	var n domain.Notification
	if err := attributevalue.UnmarshalMap(out.Item, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListPending scans for records whose sent_at attribute is absent. sent_at is
// the single source of truth for delivery, so nothing delivered ever comes back.
func (r *NotificationRepo) ListPending(ctx context.Context) ([]domain.Notification, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("attribute_not_exists(sent_at)"),
	})
	if err != nil {
		return nil, err
	}
	var notifications []domain.Notification
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// claimLease bounds how long a claim excludes a record from other batches.
// A batch that crashed between claiming and sending loses its claim after the
// lease, so the record re-enters delivery instead of staying wedged.
const claimLease = 5 * time.Minute

// Claim marks a pending record as owned by the calling batch. The conditional
// write loses against a live concurrent claim (or an already-sent record) and
// maps that loss to domain.ErrConflict, so two batches can never double-send.
// Claims older than the lease are taken over. RFC3339 UTC timestamps compare
// correctly as strings, which is what the condition relies on.
func (r *NotificationRepo) Claim(ctx context.Context, notificationID string) error {
	now := time.Now().UTC()
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("notification_id", notificationID),
		UpdateExpression:    aws.String("SET claimed_at = :now"),
		ConditionExpression: aws.String("attribute_not_exists(sent_at) AND (attribute_not_exists(claimed_at) OR claimed_at < :stale)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now":   &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			":stale": &types.AttributeValueMemberS{Value: now.Add(-claimLease).Format(time.RFC3339)},
		},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return fmt.Errorf("notification already claimed or sent: %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}

// Release clears a claim so the record re-enters the next batch immediately
// instead of waiting out the lease. Safe on records that were never claimed.
func (r *NotificationRepo) Release(ctx context.Context, notificationID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("notification_id", notificationID),
		UpdateExpression: aws.String("REMOVE claimed_at"),
	})
	return err
}

// MarkSent persists the delivery outcome: sent_at plus the captured gateway
// error code (0 on success). Nothing else on the record is touched.
func (r *NotificationRepo) MarkSent(ctx context.Context, notificationID string, errorCode int) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		"sent_at":    time.Now().UTC().Format(time.RFC3339),
		"error_code": errorCode,
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("notification_id", notificationID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
