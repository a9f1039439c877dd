package dynamo

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sms-confirm-api/internal/domain"
)

// ConfirmationRepo provides typed DynamoDB operations for the confirmations table.
//
// DynamoDB TTL deletion is asynchronous, so every read path re-checks
// expires_at against the repo clock: an expired pending record is reported as
// not found even if the reaper has not collected it yet.
type ConfirmationRepo struct {
	client    API
	tableName string
	now       func() time.Time
}

func NewConfirmationRepo(client API, tableName string) *ConfirmationRepo {
	return &ConfirmationRepo{client: client, tableName: tableName, now: time.Now}
}

// UpsertPending stores a fresh pending record for (tenant, identifier),
// replacing whatever was there before. The previous record's hash-index entry,
// if any, disappears with the overwrite.
func (r *ConfirmationRepo) UpsertPending(ctx context.Context, tenant, identifier, code string, ttl time.Duration) (*domain.Confirmation, error) {
	if identifier == "" {
		return nil, fmt.Errorf("empty identifier: %w", domain.ErrBadRequest)
	}
	c := &domain.Confirmation{
		Tenant:     tenant,
		Identifier: identifier,
		Code:       code,
		ExpiresAt:  r.now().Add(ttl).Unix(),
	}
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return nil, fmt.Errorf("marshal confirmation: %w", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	}); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the live record for (tenant, identifier).
func (r *ConfirmationRepo) Get(ctx context.Context, tenant, identifier string) (*domain.Confirmation, error) {
	if identifier == "" {
		return nil, fmt.Errorf("empty identifier: %w", domain.ErrBadRequest)
	}
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("tenant", tenant, "identifier", identifier),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("confirmation not found: %w", domain.ErrNotFound)
	}
	var c domain.Confirmation
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	if c.Expired(r.now()) {
		return nil, fmt.Errorf("confirmation expired: %w", domain.ErrNotFound)
	}
	return &c, nil
}

// PromoteConfirmed persists an already-confirmed record, replacing the pending
// one in place. The single PutItem keeps the transition atomic for readers of
// the same identifier. The hash slot in the secondary index is checked first:
// another identifier already holding this hash is an invariant violation.
func (r *ConfirmationRepo) PromoteConfirmed(ctx context.Context, c *domain.Confirmation) error {
	if !c.Confirmed() || c.IssuedAt == nil {
		return fmt.Errorf("record is not confirmed: %w", domain.ErrBadRequest)
	}
	existing, err := r.GetByHash(ctx, c.Tenant, c.Hash)
	if err == nil && existing.Identifier != c.Identifier {
		return fmt.Errorf("hash %q already bound to another identifier: %w", c.Hash, domain.ErrConflict)
	}
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal confirmation: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// GetByHash looks up a confirmed record via the tenant-hash-index GSI.
// The index is sparse: pending records carry no hash attribute.
func (r *ConfirmationRepo) GetByHash(ctx context.Context, tenant, hash string) (*domain.Confirmation, error) {
	if hash == "" {
		return nil, fmt.Errorf("empty hash: %w", domain.ErrBadRequest)
	}
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("tenant-hash-index"),
		KeyConditionExpression: aws.String("#t = :t AND #h = :h"),
		// "hash" is a DynamoDB reserved word, hence the aliases.
		ExpressionAttributeNames: map[string]string{"#t": "tenant", "#h": "hash"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberS{Value: tenant},
			":h": &types.AttributeValueMemberS{Value: hash},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("confirmation not found: %w", domain.ErrNotFound)
	}
	var c domain.Confirmation
	if err := attributevalue.UnmarshalMap(out.Items[0], &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Delete removes the record for (tenant, identifier) and returns the value
// that existed. The hash-index entry goes away with the item.
func (r *ConfirmationRepo) Delete(ctx context.Context, tenant, identifier string) (*domain.Confirmation, error) {
	if identifier == "" {
		return nil, fmt.Errorf("empty identifier: %w", domain.ErrBadRequest)
	}
	out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(r.tableName),
		Key:          compositeKey("tenant", tenant, "identifier", identifier),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, err
	}
	if len(out.Attributes) == 0 {
		return nil, fmt.Errorf("confirmation not found: %w", domain.ErrNotFound)
	}
	var c domain.Confirmation
	if err := attributevalue.UnmarshalMap(out.Attributes, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// List lazily yields every live record in the tenant, paging through the
// partition as the consumer advances. Order is store-defined. Records whose
// TTL elapsed are skipped; best-effort with respect to concurrent writes.
func (r *ConfirmationRepo) List(ctx context.Context, tenant string) iter.Seq2[domain.Confirmation, error] {
	return func(yield func(domain.Confirmation, error) bool) {
		var startKey map[string]types.AttributeValue
		for {
			out, err := r.client.Query(ctx, &dynamodb.QueryInput{
				TableName:                aws.String(r.tableName),
				KeyConditionExpression:   aws.String("#t = :t"),
				ExpressionAttributeNames: map[string]string{"#t": "tenant"},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":t": &types.AttributeValueMemberS{Value: tenant},
				},
				ExclusiveStartKey: startKey,
			})
			if err != nil {
				yield(domain.Confirmation{}, err)
				return
			}
			now := r.now()
			for _, item := range out.Items {
				var c domain.Confirmation
				if err := attributevalue.UnmarshalMap(item, &c); err != nil {
					yield(domain.Confirmation{}, err)
					return
				}
				if c.Expired(now) {
					continue
				}
				if !yield(c, nil) {
					return
				}
			}
			if len(out.LastEvaluatedKey) == 0 {
				return
			}
			startKey = out.LastEvaluatedKey
		}
	}
}
