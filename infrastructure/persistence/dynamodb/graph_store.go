package dynamodb

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"wayfinder/application/ports"
	"wayfinder/domain/core/entities"
	"wayfinder/domain/core/valueobjects"
	pkgerrors "wayfinder/pkg/errors"
)

// API is the subset of the DynamoDB client the store and lock use
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// maxTransactItems is the DynamoDB limit on actions per transaction
const maxTransactItems = 100

var _ API = (*dynamodb.Client)(nil)

// GraphStore keeps maps, nodes, edges and aliases in one DynamoDB table
type GraphStore struct {
	client    API
	tableName string
	logger    *zap.Logger
}

var _ ports.GraphStore = (*GraphStore)(nil)

// NewGraphStore creates a store over tableName
func NewGraphStore(client API, tableName string, logger *zap.Logger) *GraphStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphStore{client: client, tableName: tableName, logger: logger}
}

// ListMaps returns every map, oldest first
func (s *GraphStore) ListMaps(ctx context.Context) ([]*entities.Map, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("GSI1PK").Equal(expression.Value(mapsGSI1PK))).
		Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list maps", err)
	}

	items, err := queryAll[mapItem](ctx, s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		IndexName:                 aws.String(gsi1),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		s.logger.Error("Failed to list maps", zap.Error(err))
		return nil, pkgerrors.NewDatabaseError("list maps", err)
	}

	out := make([]*entities.Map, len(items))
	for i, it := range items {
		out[i] = it.toEntity()
	}
	sortByCreated(out, func(m *entities.Map) (time.Time, string) { return m.CreatedAt(), m.ID().String() })
	return out, nil
}

// GetMap loads one map
func (s *GraphStore) GetMap(ctx context.Context, id valueobjects.MapID) (*entities.Map, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       itemKey(mapPK(id), metadataSK),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get map", err)
	}
	if len(result.Item) == 0 {
		return nil, pkgerrors.NewNotFoundError("map")
	}

	var item mapItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("decode map", err)
	}
	return item.toEntity(), nil
}

// SaveMap writes a map
func (s *GraphStore) SaveMap(ctx context.Context, m *entities.Map) error {
	return s.put(ctx, "save map", toMapItem(m))
}

// ListNodes returns the nodes of a map, filtered to one floor when floor is set
func (s *GraphStore) ListNodes(ctx context.Context, mapID valueobjects.MapID, floor valueobjects.Floor) ([]*entities.Node, error) {
	items, err := queryPartition[nodeItem](ctx, s.client, s.tableName, mapPK(mapID), "NODE#", floor)
	if err != nil {
		s.logger.Error("Failed to list nodes", zap.String("mapID", mapID.String()), zap.Error(err))
		return nil, pkgerrors.NewDatabaseError("list nodes", err)
	}

	out := make([]*entities.Node, len(items))
	for i, it := range items {
		out[i] = it.toEntity()
	}
	sortByCreated(out, func(n *entities.Node) (time.Time, string) { return n.CreatedAt(), n.ID().String() })
	return out, nil
}

// GetNode looks a node up by ID through GSI1
func (s *GraphStore) GetNode(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	item, err := getByGSI1[nodeItem](ctx, s.client, s.tableName, nodeKey(id))
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get node", err)
	}
	if item == nil {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	return item.toEntity(), nil
}

// SaveNode writes a node
func (s *GraphStore) SaveNode(ctx context.Context, node *entities.Node) error {
	return s.put(ctx, "save node", toNodeItem(node))
}

// ListEdges returns the edges of a map, filtered to one floor when floor is set
func (s *GraphStore) ListEdges(ctx context.Context, mapID valueobjects.MapID, floor valueobjects.Floor) ([]*entities.Edge, error) {
	items, err := queryPartition[edgeItem](ctx, s.client, s.tableName, mapPK(mapID), "EDGE#", floor)
	if err != nil {
		s.logger.Error("Failed to list edges", zap.String("mapID", mapID.String()), zap.Error(err))
		return nil, pkgerrors.NewDatabaseError("list edges", err)
	}

	out := make([]*entities.Edge, len(items))
	for i, it := range items {
		out[i] = it.toEntity()
	}
	sortByCreated(out, func(e *entities.Edge) (time.Time, string) { return e.CreatedAt(), e.ID().String() })
	return out, nil
}

// GetEdge looks an edge up by ID through GSI1
func (s *GraphStore) GetEdge(ctx context.Context, id valueobjects.EdgeID) (*entities.Edge, error) {
	item, err := getByGSI1[edgeItem](ctx, s.client, s.tableName, edgeKey(id))
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get edge", err)
	}
	if item == nil {
		return nil, pkgerrors.NewNotFoundError("edge")
	}
	return item.toEntity(), nil
}

// SaveEdge writes an edge
func (s *GraphStore) SaveEdge(ctx context.Context, edge *entities.Edge) error {
	return s.put(ctx, "save edge", toEdgeItem(edge))
}

// DeleteEdge removes an edge record
func (s *GraphStore) DeleteEdge(ctx context.Context, id valueobjects.EdgeID) error {
	edge, err := s.GetEdge(ctx, id)
	if err != nil {
		return err
	}
	return s.deleteExisting(ctx, "delete edge", "edge", mapPK(edge.MapID()), edgeKey(id))
}

// ListAliases returns the aliases of one node
func (s *GraphStore) ListAliases(ctx context.Context, nodeID valueobjects.NodeID) ([]*entities.Alias, error) {
	items, err := queryPartition[aliasItem](ctx, s.client, s.tableName, nodeKey(nodeID), "ALIAS#", 0)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list aliases", err)
	}
	return aliasEntities(items), nil
}

// ListAllAliases scans every alias in the table
func (s *GraphStore) ListAllAliases(ctx context.Context) ([]*entities.Alias, error) {
	expr, err := expression.NewBuilder().
		WithFilter(expression.Name("EntityType").Equal(expression.Value(entityAlias))).
		Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("scan aliases", err)
	}

	var items []aliasItem
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:                 aws.String(s.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			s.logger.Error("Failed to scan aliases", zap.Error(err))
			return nil, pkgerrors.NewDatabaseError("scan aliases", err)
		}
		var batch []aliasItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, pkgerrors.NewDatabaseError("decode aliases", err)
		}
		items = append(items, batch...)
	}
	return aliasEntities(items), nil
}

// GetAlias looks an alias up by ID through GSI1
func (s *GraphStore) GetAlias(ctx context.Context, id valueobjects.AliasID) (*entities.Alias, error) {
	item, err := getByGSI1[aliasItem](ctx, s.client, s.tableName, aliasKey(id))
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get alias", err)
	}
	if item == nil {
		return nil, pkgerrors.NewNotFoundError("alias")
	}
	return item.toEntity(), nil
}

// SaveAlias writes an alias
func (s *GraphStore) SaveAlias(ctx context.Context, alias *entities.Alias) error {
	return s.put(ctx, "save alias", toAliasItem(alias))
}

// DeleteAlias removes an alias record
func (s *GraphStore) DeleteAlias(ctx context.Context, id valueobjects.AliasID) error {
	alias, err := s.GetAlias(ctx, id)
	if err != nil {
		return err
	}
	return s.deleteExisting(ctx, "delete alias", "alias", nodeKey(alias.NodeID()), aliasKey(id))
}

// DeleteBatch removes a cascade through TransactWriteItems, each delete
// conditioned on the record existing. Batches over maxTransactItems commit
// in chunks, children before parents, so a failed chunk never leaves an
// edge or alias pointing at a removed node.
func (s *GraphStore) DeleteBatch(ctx context.Context, batch ports.GraphDeletion) error {
	keys := make([]map[string]types.AttributeValue, 0, batch.Len())
	for _, a := range batch.Aliases {
		keys = append(keys, itemKey(nodeKey(a.NodeID()), aliasKey(a.ID())))
	}
	for _, e := range batch.Edges {
		keys = append(keys, itemKey(mapPK(e.MapID()), edgeKey(e.ID())))
	}
	for _, n := range batch.Nodes {
		keys = append(keys, itemKey(mapPK(n.MapID()), nodeKey(n.ID())))
	}
	if !batch.Map.IsZero() {
		keys = append(keys, itemKey(mapPK(batch.Map), metadataSK))
	}
	if len(keys) == 0 {
		return nil
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.Name("PK").AttributeExists()).
		Build()
	if err != nil {
		return pkgerrors.NewDatabaseError("delete batch", err)
	}

	for start := 0; start < len(keys); start += maxTransactItems {
		end := min(start+maxTransactItems, len(keys))
		items := make([]types.TransactWriteItem, 0, end-start)
		for _, key := range keys[start:end] {
			items = append(items, types.TransactWriteItem{
				Delete: &types.Delete{
					TableName:                aws.String(s.tableName),
					Key:                      key,
					ConditionExpression:      expr.Condition(),
					ExpressionAttributeNames: expr.Names(),
				},
			})
		}

		_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
		if err != nil {
			var canceled *types.TransactionCanceledException
			if errors.As(err, &canceled) {
				return pkgerrors.NewConflictError("graph changed during delete")
			}
			s.logger.Error("Failed to delete batch",
				zap.Int("records", len(keys)),
				zap.Int("committed", start),
				zap.Error(err),
			)
			return pkgerrors.NewDatabaseError("delete batch", err)
		}
	}
	return nil
}

func (s *GraphStore) put(ctx context.Context, op string, item interface{}) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pkgerrors.NewDatabaseError(op, err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}); err != nil {
		s.logger.Error("Failed to write item", zap.String("operation", op), zap.Error(err))
		return pkgerrors.NewDatabaseError(op, err)
	}
	return nil
}

func (s *GraphStore) deleteExisting(ctx context.Context, op, resource, pk, sk string) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.Name("PK").AttributeExists()).
		Build()
	if err != nil {
		return pkgerrors.NewDatabaseError(op, err)
	}

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(s.tableName),
		Key:                      itemKey(pk, sk),
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			return pkgerrors.NewNotFoundError(resource)
		}
		s.logger.Error("Failed to delete item", zap.String("operation", op), zap.Error(err))
		return pkgerrors.NewDatabaseError(op, err)
	}
	return nil
}

func itemKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

// queryPartition reads every item of pk whose sort key starts with prefix.
// A set floor also matches records stored without one when it is the default floor.
func queryPartition[T any](ctx context.Context, client API, table, pk, prefix string, floor valueobjects.Floor) ([]T, error) {
	builder := expression.NewBuilder().WithKeyCondition(
		expression.Key("PK").Equal(expression.Value(pk)).
			And(expression.Key("SK").BeginsWith(prefix)),
	)
	if floor.IsSet() {
		cond := expression.Name("Floor").Equal(expression.Value(floor.Int()))
		if floor == valueobjects.DefaultFloor {
			cond = cond.Or(expression.Name("Floor").Equal(expression.Value(0)))
		}
		builder = builder.WithFilter(cond)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, err
	}

	return queryAll[T](ctx, client, &dynamodb.QueryInput{
		TableName:                 aws.String(table),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
}

func getByGSI1[T any](ctx context.Context, client API, table, gsiPK string) (*T, error) {
	expr, err := expression.NewBuilder().WithKeyCondition(
		expression.Key("GSI1PK").Equal(expression.Value(gsiPK)).
			And(expression.Key("GSI1SK").Equal(expression.Value(metadataSK))),
	).Build()
	if err != nil {
		return nil, err
	}

	result, err := client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(table),
		IndexName:                 aws.String(gsi1),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(result.Items) == 0 {
		return nil, nil
	}

	var item T
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func queryAll[T any](ctx context.Context, client API, input *dynamodb.QueryInput) ([]T, error) {
	var out []T
	paginator := dynamodb.NewQueryPaginator(client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []T
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

func aliasEntities(items []aliasItem) []*entities.Alias {
	out := make([]*entities.Alias, len(items))
	for i, it := range items {
		out[i] = it.toEntity()
	}
	sortByCreated(out, func(a *entities.Alias) (time.Time, string) { return a.CreatedAt(), a.ID().String() })
	return out
}

func sortByCreated[T any](list []T, key func(T) (time.Time, string)) {
	sort.SliceStable(list, func(i, j int) bool {
		ti, idi := key(list[i])
		tj, idj := key(list[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return idi < idj
	})
}
