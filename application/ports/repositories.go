package ports

import (
	"context"
	"fmt"

	"wayfinder/domain/core/entities"
	"wayfinder/domain/core/valueobjects"
	"wayfinder/domain/events"
)

// MapReader lists and loads map descriptors
type MapReader interface {
	// ListMaps returns every known map
	ListMaps(ctx context.Context) ([]*entities.Map, error)

	// GetMap retrieves a map by its ID
	GetMap(ctx context.Context, id valueobjects.MapID) (*entities.Map, error)
}

// GraphReader is the read side of the persistence collaborator.
// A zero floor means every floor of the map.
type GraphReader interface {
	// ListNodes returns the nodes of a map, optionally scoped to one floor
	ListNodes(ctx context.Context, mapID valueobjects.MapID, floor valueobjects.Floor) ([]*entities.Node, error)

	// ListEdges returns the edges of a map, optionally scoped to one floor
	ListEdges(ctx context.Context, mapID valueobjects.MapID, floor valueobjects.Floor) ([]*entities.Edge, error)

	// ListAliases returns the aliases bound to a node
	ListAliases(ctx context.Context, nodeID valueobjects.NodeID) ([]*entities.Alias, error)
}

// GraphWriter is the mutation side of the persistence collaborator
type GraphWriter interface {
	// CreateNode places a node on a map floor
	CreateNode(ctx context.Context, req CreateNodeRequest) (*entities.Node, error)

	// CreateEdge connects two nodes. It fails when either node is missing,
	// when they are the same node, or when they sit on different floors.
	CreateEdge(ctx context.Context, req CreateEdgeRequest) (*entities.Edge, error)

	// CreateAlias binds a name to a node
	CreateAlias(ctx context.Context, req CreateAliasRequest) (*entities.Alias, error)

	// DeleteAlias removes an alias
	DeleteAlias(ctx context.Context, id valueobjects.AliasID) error
}

// AliasSearcher finds nodes by alias name
type AliasSearcher interface {
	SearchAliases(ctx context.Context, query string, limit int) ([]AliasMatch, error)
}

// RoutePlanner forwards route queries to the routing service
type RoutePlanner interface {
	Route(ctx context.Context, req RouteRequest) (*RouteResult, error)
}

// Backend is everything an editing session needs from the collaborator
type Backend interface {
	MapReader
	GraphReader
	GraphWriter
	AliasSearcher
	RoutePlanner
}

// GraphStore is the server-side storage behind the collaborator API.
// Get methods return a NotFoundError when the record does not exist.
type GraphStore interface {
	MapReader
	GraphReader

	// SaveMap creates or replaces a map
	SaveMap(ctx context.Context, m *entities.Map) error

	// SaveNode creates or replaces a node
	SaveNode(ctx context.Context, node *entities.Node) error

	// GetNode retrieves a node by its ID
	GetNode(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error)

	// SaveEdge creates or replaces an edge
	SaveEdge(ctx context.Context, edge *entities.Edge) error

	// GetEdge retrieves an edge by its ID
	GetEdge(ctx context.Context, id valueobjects.EdgeID) (*entities.Edge, error)

	// DeleteEdge removes an edge
	DeleteEdge(ctx context.Context, id valueobjects.EdgeID) error

	// SaveAlias creates or replaces an alias
	SaveAlias(ctx context.Context, alias *entities.Alias) error

	// GetAlias retrieves an alias by its ID
	GetAlias(ctx context.Context, id valueobjects.AliasID) (*entities.Alias, error)

	// ListAllAliases returns every alias, used by search
	ListAllAliases(ctx context.Context) ([]*entities.Alias, error)

	// DeleteAlias removes an alias
	DeleteAlias(ctx context.Context, id valueobjects.AliasID) error

	// DeleteBatch removes every record of a cascade together. When a
	// record is already gone nothing is removed and a ConflictError is returned.
	DeleteBatch(ctx context.Context, batch GraphDeletion) error
}

// GraphDeletion is the set of records one cascade removes
type GraphDeletion struct {
	// Map is set when the map descriptor goes too
	Map     valueobjects.MapID
	Nodes   []*entities.Node
	Edges   []*entities.Edge
	Aliases []*entities.Alias
}

// Len counts the records in the batch
func (d GraphDeletion) Len() int {
	n := len(d.Nodes) + len(d.Edges) + len(d.Aliases)
	if !d.Map.IsZero() {
		n++
	}
	return n
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Locker guards mutating operations per key. TryAcquire never waits:
// it fails with a ConflictError while another holder owns the key.
type Locker interface {
	TryAcquire(ctx context.Context, key string) (release func(), err error)
}

// GraphLockKey is the Locker key guarding mutations on one map floor
func GraphLockKey(mapID valueobjects.MapID, floor valueobjects.Floor) string {
	return fmt.Sprintf("graph#%s#%d", mapID, floor.OrDefault())
}
