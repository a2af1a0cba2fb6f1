package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"wayfinder/application/ports"
	"wayfinder/domain/core/entities"
	"wayfinder/domain/core/valueobjects"
	pkgerrors "wayfinder/pkg/errors"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}

func (m *mockAPI) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}

func (m *mockAPI) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.DeleteItemOutput)
	return out, args.Error(1)
}

func (m *mockAPI) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.QueryOutput)
	return out, args.Error(1)
}

func (m *mockAPI) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.ScanOutput)
	return out, args.Error(1)
}

func (m *mockAPI) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.TransactWriteItemsOutput)
	return out, args.Error(1)
}

func marshalItems(t *testing.T, items ...interface{}) []map[string]types.AttributeValue {
	t.Helper()
	out := make([]map[string]types.AttributeValue, len(items))
	for i, it := range items {
		av, err := attributevalue.MarshalMap(it)
		require.NoError(t, err)
		out[i] = av
	}
	return out
}

func TestSaveNodeWritesItem(t *testing.T) {
	api := &mockAPI{}
	store := NewGraphStore(api, "wayfinder", zaptest.NewLogger(t))
	node := entities.ReconstructNode("n1", "m1", 2, valueobjects.Point{X: 3, Y: 4}, true, time.Unix(100, 0))

	api.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		var item nodeItem
		if err := attributevalue.UnmarshalMap(in.Item, &item); err != nil {
			return false
		}
		return *in.TableName == "wayfinder" &&
			item.PK == "MAP#m1" && item.SK == "NODE#n1" &&
			item.GSI1PK == "NODE#n1" && item.Floor == 2 && item.IsLandmark
	})).Return(&dynamodb.PutItemOutput{}, nil)

	require.NoError(t, store.SaveNode(context.Background(), node))
	api.AssertExpectations(t)
}

func TestListNodesRoundTripsAndOrders(t *testing.T) {
	api := &mockAPI{}
	store := NewGraphStore(api, "wayfinder", zaptest.NewLogger(t))

	late := entities.ReconstructNode("b", "m1", 1, valueobjects.Point{X: 1, Y: 1}, false, time.Unix(200, 0))
	early := entities.ReconstructNode("a", "m1", 0, valueobjects.Point{X: 2, Y: 2}, false, time.Unix(100, 0))
	items := marshalItems(t, toNodeItem(late), toNodeItem(early))

	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.IndexName == nil && in.FilterExpression != nil
	})).Return(&dynamodb.QueryOutput{Items: items}, nil)

	nodes, err := store.ListNodes(context.Background(), "m1", 1)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, valueobjects.NodeID("a"), nodes[0].ID())
	assert.Equal(t, valueobjects.Point{X: 2, Y: 2}, nodes[0].Position())
	assert.Equal(t, valueobjects.NodeID("b"), nodes[1].ID())
}

func TestListNodesWithoutFloorHasNoFilter(t *testing.T) {
	api := &mockAPI{}
	store := NewGraphStore(api, "wayfinder", nil)

	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.FilterExpression == nil
	})).Return(&dynamodb.QueryOutput{}, nil)

	nodes, err := store.ListNodes(context.Background(), "m1", 0)
	require.NoError(t, err)
	assert.Empty(t, nodes)
	api.AssertExpectations(t)
}

func TestEdgePolylineRoundTrip(t *testing.T) {
	api := &mockAPI{}
	store := NewGraphStore(api, "wayfinder", nil)

	line := valueobjects.Polyline{{X: 0, Y: 0}, {X: 30, Y: 40}, {X: 30, Y: 90}}
	edge := entities.ReconstructEdge("e1", "m1", 1, "n1", "n2", line, 100, true, time.Unix(5, 0))
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.IndexName != nil && *in.IndexName == gsi1
	})).Return(&dynamodb.QueryOutput{Items: marshalItems(t, toEdgeItem(edge))}, nil)

	got, err := store.GetEdge(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, line, got.Polyline())
	assert.Equal(t, 100.0, got.Weight())
	assert.True(t, got.Bidirectional())
}

func TestGetMissingRecords(t *testing.T) {
	api := &mockAPI{}
	store := NewGraphStore(api, "wayfinder", nil)
	ctx := context.Background()

	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)
	api.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{}, nil)

	_, err := store.GetMap(ctx, "m1")
	assert.True(t, pkgerrors.IsNotFound(err))
	_, err = store.GetNode(ctx, "n1")
	assert.True(t, pkgerrors.IsNotFound(err))
	_, err = store.GetAlias(ctx, "a1")
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.True(t, pkgerrors.IsNotFound(store.DeleteEdge(ctx, "e1")))
}

func TestDeleteConditionFailureIsNotFound(t *testing.T) {
	api := &mockAPI{}
	store := NewGraphStore(api, "wayfinder", nil)

	name, err := valueobjects.NewAliasName("Gate", 0)
	require.NoError(t, err)
	alias := entities.ReconstructAlias("a1", "n1", name, "vi", 1, time.Unix(1, 0))
	api.On("Query", mock.Anything, mock.Anything).
		Return(&dynamodb.QueryOutput{Items: marshalItems(t, toAliasItem(alias))}, nil)
	api.On("DeleteItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.DeleteItemInput) bool {
		return in.ConditionExpression != nil
	})).Return(nil, &types.ConditionalCheckFailedException{})

	err = store.DeleteAlias(context.Background(), "a1")
	assert.True(t, pkgerrors.IsNotFound(err), "removed between read and delete")
}

func TestStoreErrorsAreDatabaseErrors(t *testing.T) {
	api := &mockAPI{}
	store := NewGraphStore(api, "wayfinder", zaptest.NewLogger(t))
	boom := errors.New("throttled")

	api.On("Query", mock.Anything, mock.Anything).Return(nil, boom)

	_, err := store.ListEdges(context.Background(), "m1", 0)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
	assert.ErrorIs(t, err, boom)
}

func TestListAllAliasesScansAliasItems(t *testing.T) {
	api := &mockAPI{}
	store := NewGraphStore(api, "wayfinder", nil)

	name, err := valueobjects.NewAliasName("Thư viện", 0)
	require.NoError(t, err)
	alias := entities.ReconstructAlias("a1", "n1", name, "vi", 1, time.Unix(1, 0))

	api.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		return in.FilterExpression != nil
	})).Return(&dynamodb.ScanOutput{Items: marshalItems(t, toAliasItem(alias))}, nil)

	all, err := store.ListAllAliases(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Thư viện", all[0].Name())
	assert.Equal(t, "thu vien", all[0].NormName())
}

func TestDeleteBatchIsOneTransaction(t *testing.T) {
	api := &mockAPI{}
	store := NewGraphStore(api, "wayfinder", nil)

	name, err := valueobjects.NewAliasName("Gate", 0)
	require.NoError(t, err)
	batch := ports.GraphDeletion{
		Nodes:   []*entities.Node{entities.ReconstructNode("n1", "m1", 1, valueobjects.Point{}, false, time.Time{})},
		Edges:   []*entities.Edge{entities.ReconstructEdge("e1", "m1", 1, "n1", "n2", nil, 1, true, time.Time{})},
		Aliases: []*entities.Alias{entities.ReconstructAlias("a1", "n1", name, "vi", 1, time.Time{})},
	}

	var got *dynamodb.TransactWriteItemsInput
	api.On("TransactWriteItems", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(1).(*dynamodb.TransactWriteItemsInput) }).
		Return(&dynamodb.TransactWriteItemsOutput{}, nil).Once()

	require.NoError(t, store.DeleteBatch(context.Background(), batch))
	require.NotNil(t, got)
	require.Len(t, got.TransactItems, 3)

	sortKeys := make([]string, 0, 3)
	for _, item := range got.TransactItems {
		require.NotNil(t, item.Delete)
		assert.NotNil(t, item.Delete.ConditionExpression)
		sortKeys = append(sortKeys, item.Delete.Key["SK"].(*types.AttributeValueMemberS).Value)
	}
	assert.Equal(t, []string{"ALIAS#a1", "EDGE#e1", "NODE#n1"}, sortKeys, "children go first")
	api.AssertExpectations(t)
}

func TestDeleteBatchChunksLargeCascades(t *testing.T) {
	api := &mockAPI{}
	store := NewGraphStore(api, "wayfinder", nil)

	var batch ports.GraphDeletion
	for i := 0; i < maxTransactItems+5; i++ {
		id := valueobjects.EdgeID(fmt.Sprintf("e%d", i))
		batch.Edges = append(batch.Edges, entities.ReconstructEdge(id, "m1", 1, "n1", "n2", nil, 1, true, time.Time{}))
	}
	batch.Map = "m1"

	var sizes []int
	api.On("TransactWriteItems", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			sizes = append(sizes, len(args.Get(1).(*dynamodb.TransactWriteItemsInput).TransactItems))
		}).
		Return(&dynamodb.TransactWriteItemsOutput{}, nil)

	require.NoError(t, store.DeleteBatch(context.Background(), batch))
	assert.Equal(t, []int{maxTransactItems, 6}, sizes)
}

func TestDeleteBatchCanceledIsConflict(t *testing.T) {
	api := &mockAPI{}
	store := NewGraphStore(api, "wayfinder", zaptest.NewLogger(t))
	api.On("TransactWriteItems", mock.Anything, mock.Anything).
		Return(nil, &types.TransactionCanceledException{})

	err := store.DeleteBatch(context.Background(), ports.GraphDeletion{Map: "m1"})
	assert.True(t, pkgerrors.IsConflict(err))

	assert.NoError(t, NewGraphStore(&mockAPI{}, "wayfinder", nil).DeleteBatch(context.Background(), ports.GraphDeletion{}))
}
