package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// notificationCounter names the counter row issuing enhanced-frame identifiers.
const notificationCounter = "notification_identifier"

// CounterRepo issues monotonically increasing numeric identifiers from a
// single-row counter table via atomic ADD updates.
type CounterRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCounterRepo(client *dynamodb.Client, tableName string) *CounterRepo {
	return &CounterRepo{client: client, tableName: tableName}
}

// NextIdentifier atomically increments and returns the notification identifier
// sequence. The value wraps into uint32 space, matching the 4-byte identifier
// field of the enhanced frame.
func (r *CounterRepo) NextIdentifier(ctx context.Context) (uint32, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("counter_name", notificationCounter),
		UpdateExpression:         aws.String("ADD #seq :one"),
		ExpressionAttributeNames: map[string]string{"#seq": "seq"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("increment notification counter: %w", err)
	}

	seq, ok := out.Attributes["seq"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("notification counter returned no numeric seq attribute")
	}
	var value uint64
	if _, err := fmt.Sscanf(seq.Value, "%d", &value); err != nil {
		return 0, fmt.Errorf("parse notification counter value %q: %w", seq.Value, err)
	}
	return uint32(value), nil
}
