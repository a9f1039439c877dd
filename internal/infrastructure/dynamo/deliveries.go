package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sms-confirm-api/internal/domain"
)

// DeliveryRepo records outbound SMS dispatch attempts for auditing.
type DeliveryRepo struct {
	client    API
	tableName string
}

func NewDeliveryRepo(client API, tableName string) *DeliveryRepo {
	return &DeliveryRepo{client: client, tableName: tableName}
}

func (r *DeliveryRepo) Put(ctx context.Context, d *domain.Delivery) error {
	item, err := attributevalue.MarshalMap(d)
	if err != nil {
		return fmt.Errorf("marshal delivery: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// ListByTenant returns the most recent dispatch attempts for a tenant,
// newest first, via the tenant-created_at-index GSI.
func (r *DeliveryRepo) ListByTenant(ctx context.Context, tenant string, limit int32) ([]domain.Delivery, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		IndexName:                aws.String("tenant-created_at-index"),
		KeyConditionExpression:   aws.String("#t = :t"),
		ExpressionAttributeNames: map[string]string{"#t": "tenant"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberS{Value: tenant},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
	})
	if err != nil {
		return nil, err
	}
	var deliveries []domain.Delivery
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &deliveries); err != nil {
		return nil, err
	}
	return deliveries, nil
}
