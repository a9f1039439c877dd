package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sms-confirm-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct{ mock.Mock }

func (m *mockAPI) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, params)
	if out, _ := args.Get(0).(*dynamodb.GetItemOutput); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, params)
	if out, _ := args.Get(0).(*dynamodb.PutItemOutput); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, params)
	if out, _ := args.Get(0).(*dynamodb.DeleteItemOutput); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, params)
	if out, _ := args.Get(0).(*dynamodb.QueryOutput); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

var repoNow = time.Date(2017, time.January, 25, 10, 30, 0, 0, time.UTC)

func newTestRepo(client API) *ConfirmationRepo {
	r := NewConfirmationRepo(client, "confirmations")
	r.now = func() time.Time { return repoNow }
	return r
}

func mustMarshal(t *testing.T, c domain.Confirmation) map[string]types.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(c)
	require.NoError(t, err)
	return item
}

func TestUpsertPending_SetsExpiry(t *testing.T) {
	client := &mockAPI{}
	client.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		n, ok := in.Item["expires_at"].(*types.AttributeValueMemberN)
		return *in.TableName == "confirmations" && ok && n.Value != "" && in.Item["hash"] == nil
	})).Return(&dynamodb.PutItemOutput{}, nil)

	repo := newTestRepo(client)
	c, err := repo.UpsertPending(context.Background(), "acme", "5551234567", "4821", 24*time.Hour)

	require.NoError(t, err)
	assert.Equal(t, repoNow.Add(24*time.Hour).Unix(), c.ExpiresAt)
	client.AssertExpectations(t)
}

func TestUpsertPending_EmptyIdentifier(t *testing.T) {
	repo := newTestRepo(&mockAPI{})
	_, err := repo.UpsertPending(context.Background(), "acme", "", "4821", 24*time.Hour)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestGet_Miss(t *testing.T) {
	client := &mockAPI{}
	client.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	repo := newTestRepo(client)
	_, err := repo.Get(context.Background(), "acme", "5551234567")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGet_LiveRecord(t *testing.T) {
	item := mustMarshal(t, domain.Confirmation{
		Tenant: "acme", Identifier: "5551234567", Code: "4821",
		ExpiresAt: repoNow.Add(time.Hour).Unix(),
	})
	client := &mockAPI{}
	client.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		tenant, ok := in.Key["tenant"].(*types.AttributeValueMemberS)
		return ok && tenant.Value == "acme"
	})).Return(&dynamodb.GetItemOutput{Item: item}, nil)

	repo := newTestRepo(client)
	c, err := repo.Get(context.Background(), "acme", "5551234567")

	require.NoError(t, err)
	assert.Equal(t, "4821", c.Code)
	assert.False(t, c.Confirmed())
}

func TestGet_ExpiredRecordIsNotFound(t *testing.T) {
	// The item is still present (the TTL reaper is async) but its expiry has
	// elapsed, so the read must hide it.
	item := mustMarshal(t, domain.Confirmation{
		Tenant: "acme", Identifier: "5551234567", Code: "4821",
		ExpiresAt: repoNow.Add(-time.Minute).Unix(),
	})
	client := &mockAPI{}
	client.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: item}, nil)

	repo := newTestRepo(client)
	_, err := repo.Get(context.Background(), "acme", "5551234567")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPromoteConfirmed_RejectsPendingRecord(t *testing.T) {
	client := &mockAPI{}
	repo := newTestRepo(client)

	err := repo.PromoteConfirmed(context.Background(), &domain.Confirmation{
		Tenant: "acme", Identifier: "5551234567", Code: "4821",
	})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	client.AssertNotCalled(t, "PutItem", mock.Anything, mock.Anything)
}

func confirmedRecord(identifier string) *domain.Confirmation {
	c := &domain.Confirmation{Tenant: "acme", Identifier: identifier, Code: "4821"}
	c.Confirm(repoNow)
	return c
}

func TestPromoteConfirmed_WritesWithoutExpiry(t *testing.T) {
	client := &mockAPI{}
	// Hash slot free: the GSI lookup comes back empty.
	client.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{}, nil)
	client.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		_, hasExpiry := in.Item["expires_at"]
		_, hasHash := in.Item["hash"]
		return !hasExpiry && hasHash
	})).Return(&dynamodb.PutItemOutput{}, nil)

	repo := newTestRepo(client)
	err := repo.PromoteConfirmed(context.Background(), confirmedRecord("5551234567"))

	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestPromoteConfirmed_HashConflict(t *testing.T) {
	c := confirmedRecord("5551234567")
	other := *c
	other.Identifier = "5559999999"
	client := &mockAPI{}
	client.On("Query", mock.Anything, mock.Anything).
		Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{mustMarshal(t, other)}}, nil)

	repo := newTestRepo(client)
	err := repo.PromoteConfirmed(context.Background(), c)

	assert.ErrorIs(t, err, domain.ErrConflict)
	client.AssertNotCalled(t, "PutItem", mock.Anything, mock.Anything)
}

func TestGetByHash_QueriesGSI(t *testing.T) {
	c := confirmedRecord("5551234567")
	client := &mockAPI{}
	client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.IndexName != nil && *in.IndexName == "tenant-hash-index" &&
			in.ExpressionAttributeNames["#h"] == "hash"
	})).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{mustMarshal(t, *c)}}, nil)

	repo := newTestRepo(client)
	got, err := repo.GetByHash(context.Background(), "acme", c.Hash)

	require.NoError(t, err)
	assert.Equal(t, "5551234567", got.Identifier)
	assert.Equal(t, c.Hash, got.Hash)
}

func TestGetByHash_EmptyHash(t *testing.T) {
	repo := newTestRepo(&mockAPI{})
	_, err := repo.GetByHash(context.Background(), "acme", "")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestGetByHash_Miss(t *testing.T) {
	client := &mockAPI{}
	client.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{}, nil)

	repo := newTestRepo(client)
	_, err := repo.GetByHash(context.Background(), "acme", "deadbeef")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_ReturnsOldValue(t *testing.T) {
	old := mustMarshal(t, domain.Confirmation{Tenant: "acme", Identifier: "5551234567", Code: "4821"})
	client := &mockAPI{}
	client.On("DeleteItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.DeleteItemInput) bool {
		return in.ReturnValues == types.ReturnValueAllOld
	})).Return(&dynamodb.DeleteItemOutput{Attributes: old}, nil)

	repo := newTestRepo(client)
	c, err := repo.Delete(context.Background(), "acme", "5551234567")

	require.NoError(t, err)
	assert.Equal(t, "4821", c.Code)
}

func TestDelete_Miss(t *testing.T) {
	client := &mockAPI{}
	client.On("DeleteItem", mock.Anything, mock.Anything).Return(&dynamodb.DeleteItemOutput{}, nil)

	repo := newTestRepo(client)
	_, err := repo.Delete(context.Background(), "acme", "5551234567")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList_PaginatesAndFiltersExpired(t *testing.T) {
	live1 := mustMarshal(t, domain.Confirmation{Tenant: "acme", Identifier: "5551111111", Code: "1111", ExpiresAt: repoNow.Add(time.Hour).Unix()})
	expired := mustMarshal(t, domain.Confirmation{Tenant: "acme", Identifier: "5552222222", Code: "2222", ExpiresAt: repoNow.Add(-time.Hour).Unix()})
	live2 := mustMarshal(t, domain.Confirmation{Tenant: "acme", Identifier: "5553333333", Code: "3333", ExpiresAt: repoNow.Add(time.Hour).Unix()})

	lastKey := compositeKey("tenant", "acme", "identifier", "5552222222")
	client := &mockAPI{}
	client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.ExclusiveStartKey == nil
	})).Return(&dynamodb.QueryOutput{
		Items:            []map[string]types.AttributeValue{live1, expired},
		LastEvaluatedKey: lastKey,
	}, nil).Once()
	client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.ExclusiveStartKey != nil
	})).Return(&dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{live2},
	}, nil).Once()

	repo := newTestRepo(client)
	var got []string
	for c, err := range repo.List(context.Background(), "acme") {
		require.NoError(t, err)
		got = append(got, c.Identifier)
	}

	assert.Equal(t, []string{"5551111111", "5553333333"}, got)
	client.AssertExpectations(t)
}

func TestList_StopsOnEarlyBreak(t *testing.T) {
	live1 := mustMarshal(t, domain.Confirmation{Tenant: "acme", Identifier: "5551111111", Code: "1111", ExpiresAt: repoNow.Add(time.Hour).Unix()})
	live2 := mustMarshal(t, domain.Confirmation{Tenant: "acme", Identifier: "5553333333", Code: "3333", ExpiresAt: repoNow.Add(time.Hour).Unix()})

	client := &mockAPI{}
	client.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{
		Items:            []map[string]types.AttributeValue{live1, live2},
		LastEvaluatedKey: compositeKey("tenant", "acme", "identifier", "5553333333"),
	}, nil).Once()

	repo := newTestRepo(client)
	var got []string
	for c, err := range repo.List(context.Background(), "acme") {
		require.NoError(t, err)
		got = append(got, c.Identifier)
		break
	}

	assert.Equal(t, []string{"5551111111"}, got)
	client.AssertExpectations(t) // only the first page was fetched
}

func TestList_SurfacesQueryError(t *testing.T) {
	client := &mockAPI{}
	queryErr := errors.New("dynamo: throttled")
	client.On("Query", mock.Anything, mock.Anything).Return(nil, queryErr)

	repo := newTestRepo(client)
	var errs []error
	for _, err := range repo.List(context.Background(), "acme") {
		errs = append(errs, err)
	}

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], queryErr)
}
