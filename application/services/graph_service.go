package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"wayfinder/application/ports"
	"wayfinder/domain/config"
	"wayfinder/domain/core/entities"
	"wayfinder/domain/core/validators"
	"wayfinder/domain/core/valueobjects"
	"wayfinder/domain/events"
	"wayfinder/domain/geometry"
	pkgerrors "wayfinder/pkg/errors"
)

// MutationRecorder counts graph mutations
type MutationRecorder interface {
	RecordMutation(kind string, err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordMutation(string, error) {}

// GraphService applies the server-side graph rules on top of a GraphStore.
// It implements ports.Backend, so an editing session can run against it
// in-process; routing is not provided.
type GraphService struct {
	store     ports.GraphStore
	publisher ports.EventPublisher
	validator *validators.GraphValidator
	cfg       *config.DomainConfig
	metrics   MutationRecorder
	logger    *zap.Logger
}

var _ ports.Backend = (*GraphService)(nil)

// NewGraphService creates a graph service. metrics may be nil.
func NewGraphService(
	store ports.GraphStore,
	publisher ports.EventPublisher,
	cfg *config.DomainConfig,
	metrics MutationRecorder,
	logger *zap.Logger,
) *GraphService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphService{
		store:     store,
		publisher: publisher,
		validator: validators.NewGraphValidator(),
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger,
	}
}

// ListMaps returns every map
func (s *GraphService) ListMaps(ctx context.Context) ([]*entities.Map, error) {
	return s.store.ListMaps(ctx)
}

// GetMap returns one map
func (s *GraphService) GetMap(ctx context.Context, id valueobjects.MapID) (*entities.Map, error) {
	return s.store.GetMap(ctx, id)
}

// CreateMap registers a floor-plan map
func (s *GraphService) CreateMap(ctx context.Context, req ports.CreateMapRequest) (*entities.Map, error) {
	m, err := entities.NewMap(req.Name, req.Width, req.Height, req.PixelsPerMeter, req.ImageURL)
	if err != nil {
		return nil, err
	}
	err = s.store.SaveMap(ctx, m)
	s.metrics.RecordMutation("map_create", err)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to save map")
	}
	s.publish(ctx, m.GetUncommittedEvents(), m.MarkEventsAsCommitted)
	return m, nil
}

// ListNodes returns the nodes of a map, all floors when floor is zero
func (s *GraphService) ListNodes(ctx context.Context, mapID valueobjects.MapID, floor valueobjects.Floor) ([]*entities.Node, error) {
	return s.store.ListNodes(ctx, mapID, floor)
}

// GetNode returns one node
func (s *GraphService) GetNode(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	return s.store.GetNode(ctx, id)
}

// CreateNode places a node on an existing map
func (s *GraphService) CreateNode(ctx context.Context, req ports.CreateNodeRequest) (*entities.Node, error) {
	m, err := s.store.GetMap(ctx, req.MapID)
	if err != nil {
		return nil, err
	}
	pos := valueobjects.Point{X: req.X, Y: req.Y}
	if err := s.validator.ValidateNodePlacement(m, req.Floor, pos); err != nil {
		return nil, err
	}

	node, err := entities.NewNode(req.MapID, req.Floor, pos, req.IsLandmark)
	if err != nil {
		return nil, err
	}
	err = s.store.SaveNode(ctx, node)
	s.metrics.RecordMutation("node_create", err)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to save node")
	}

	s.logger.Debug("node created",
		zap.String("nodeID", node.ID().String()),
		zap.String("mapID", req.MapID.String()),
		zap.Int("floor", node.Floor().Int()),
	)
	s.publish(ctx, node.GetUncommittedEvents(), node.MarkEventsAsCommitted)
	return node, nil
}

// DeleteNode removes a node with its edges and aliases in one store batch
func (s *GraphService) DeleteNode(ctx context.Context, id valueobjects.NodeID) error {
	node, err := s.store.GetNode(ctx, id)
	if err != nil {
		return err
	}

	edges, err := s.store.ListEdges(ctx, node.MapID(), 0)
	if err != nil {
		return err
	}
	batch := ports.GraphDeletion{Nodes: []*entities.Node{node}}
	for _, e := range edges {
		if e.Touches(id) {
			batch.Edges = append(batch.Edges, e)
		}
	}
	if batch.Aliases, err = s.store.ListAliases(ctx, id); err != nil {
		return err
	}

	err = s.store.DeleteBatch(ctx, batch)
	s.metrics.RecordMutation("node_delete", err)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to delete node %s", id)
	}

	s.publish(ctx, []events.DomainEvent{
		events.NewNodeDeleted(id, node.MapID(), len(batch.Edges), len(batch.Aliases), now()),
	}, nil)
	return nil
}

// ListEdges returns the edges of a map, all floors when floor is zero
func (s *GraphService) ListEdges(ctx context.Context, mapID valueobjects.MapID, floor valueobjects.Floor) ([]*entities.Edge, error) {
	return s.store.ListEdges(ctx, mapID, floor)
}

// GetEdge returns one edge
func (s *GraphService) GetEdge(ctx context.Context, id valueobjects.EdgeID) (*entities.Edge, error) {
	return s.store.GetEdge(ctx, id)
}

// CreateEdge joins two nodes on the same map floor. A polyline with fewer
// than two points is replaced by the straight segment between the nodes.
func (s *GraphService) CreateEdge(ctx context.Context, req ports.CreateEdgeRequest) (*entities.Edge, error) {
	if _, err := s.store.GetMap(ctx, req.MapID); err != nil {
		return nil, err
	}
	start, err := s.endpoint(ctx, req.StartNodeID)
	if err != nil {
		return nil, err
	}
	end, err := s.endpoint(ctx, req.EndNodeID)
	if err != nil {
		return nil, err
	}
	floor, err := s.validator.ResolveEdgeFloor(req.MapID, req.Floor, start, end)
	if err != nil {
		return nil, err
	}

	polyline := req.Polyline
	if len(polyline) < 2 {
		polyline = geometry.Segment(start.Position(), end.Position())
	}

	edge, err := entities.NewEdge(req.MapID, floor, start.ID(), end.ID(), polyline, req.Bidirectional)
	if err != nil {
		return nil, err
	}
	err = s.store.SaveEdge(ctx, edge)
	s.metrics.RecordMutation("edge_create", err)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to save edge")
	}

	s.logger.Debug("edge created",
		zap.String("edgeID", edge.ID().String()),
		zap.Int("floor", floor.Int()),
		zap.Float64("weight", edge.Weight()),
	)
	s.publish(ctx, edge.GetUncommittedEvents(), edge.MarkEventsAsCommitted)
	return edge, nil
}

// UpdateEdge reshapes an edge or flips its direction flag. The change is
// made on a copy, so the stored edge only moves when SaveEdge succeeds.
func (s *GraphService) UpdateEdge(ctx context.Context, id valueobjects.EdgeID, req ports.UpdateEdgeRequest) (*entities.Edge, error) {
	current, err := s.store.GetEdge(ctx, id)
	if err != nil {
		return nil, err
	}
	edge := current.Clone()
	if req.Polyline != nil {
		if err := edge.Reshape(req.Polyline); err != nil {
			return nil, err
		}
	}
	if req.Bidirectional != nil {
		edge.SetBidirectional(*req.Bidirectional)
	}

	err = s.store.SaveEdge(ctx, edge)
	s.metrics.RecordMutation("edge_update", err)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to save edge")
	}
	s.publish(ctx, edge.GetUncommittedEvents(), edge.MarkEventsAsCommitted)
	return edge, nil
}

// DeleteEdge removes an edge
func (s *GraphService) DeleteEdge(ctx context.Context, id valueobjects.EdgeID) error {
	err := s.store.DeleteEdge(ctx, id)
	s.metrics.RecordMutation("edge_delete", err)
	if err != nil {
		return err
	}
	s.publish(ctx, []events.DomainEvent{events.NewEdgeDeleted(id, now())}, nil)
	return nil
}

// ListAliases returns the aliases of a node
func (s *GraphService) ListAliases(ctx context.Context, nodeID valueobjects.NodeID) ([]*entities.Alias, error) {
	return s.store.ListAliases(ctx, nodeID)
}

// CreateAlias names a node. The name is trimmed and stored with its
// normalized search form.
func (s *GraphService) CreateAlias(ctx context.Context, req ports.CreateAliasRequest) (*entities.Alias, error) {
	if _, err := s.store.GetNode(ctx, req.NodeID); err != nil {
		return nil, err
	}
	name, err := valueobjects.NewAliasName(req.Name, s.cfg.MaxAliasLength)
	if err != nil {
		return nil, err
	}
	alias, err := entities.NewAlias(req.NodeID, name, req.Lang, req.Weight)
	if err != nil {
		return nil, err
	}

	err = s.store.SaveAlias(ctx, alias)
	s.metrics.RecordMutation("alias_create", err)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to save alias")
	}
	s.publish(ctx, alias.GetUncommittedEvents(), alias.MarkEventsAsCommitted)
	return alias, nil
}

// DeleteAlias removes an alias
func (s *GraphService) DeleteAlias(ctx context.Context, id valueobjects.AliasID) error {
	err := s.store.DeleteAlias(ctx, id)
	s.metrics.RecordMutation("alias_delete", err)
	if err != nil {
		return err
	}
	s.publish(ctx, []events.DomainEvent{events.NewAliasDeleted(id, now())}, nil)
	return nil
}

// SearchAliases ranks every alias by word-set similarity to the query.
// A blank query yields no results.
func (s *GraphService) SearchAliases(ctx context.Context, query string, limit int) ([]ports.AliasMatch, error) {
	norm := valueobjects.NormalizeName(query)
	if norm == "" {
		return []ports.AliasMatch{}, nil
	}
	if limit <= 0 {
		limit = s.cfg.DefaultSearchLimit
	}
	if limit > s.cfg.MaxSearchLimit {
		limit = s.cfg.MaxSearchLimit
	}

	aliases, err := s.store.ListAllAliases(ctx)
	if err != nil {
		return nil, err
	}
	return rankAliases(norm, aliases, limit, s.cfg.MinSearchScore), nil
}

// Route is served by a separate routing service
func (s *GraphService) Route(ctx context.Context, req ports.RouteRequest) (*ports.RouteResult, error) {
	return nil, pkgerrors.NewUnavailableError("routing")
}

// ClearMap deletes every alias, edge and node of a map, and the map
// itself when asked.
func (s *GraphService) ClearMap(ctx context.Context, req ports.ClearMapRequest) (*ports.ClearMapResult, error) {
	if _, err := s.store.GetMap(ctx, req.MapID); err != nil {
		return nil, err
	}
	nodes, err := s.store.ListNodes(ctx, req.MapID, 0)
	if err != nil {
		return nil, err
	}
	edges, err := s.store.ListEdges(ctx, req.MapID, 0)
	if err != nil {
		return nil, err
	}
	batch := ports.GraphDeletion{Nodes: nodes, Edges: edges}
	for _, n := range nodes {
		aliases, err := s.store.ListAliases(ctx, n.ID())
		if err != nil {
			return nil, err
		}
		batch.Aliases = append(batch.Aliases, aliases...)
	}
	if req.DeleteMap {
		batch.Map = req.MapID
	}

	err = s.store.DeleteBatch(ctx, batch)
	s.metrics.RecordMutation("map_clear", err)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to clear map %s", req.MapID)
	}

	res := &ports.ClearMapResult{OK: true, Deleted: ports.ClearedCount{
		Aliases: len(batch.Aliases),
		Edges:   len(batch.Edges),
		Nodes:   len(batch.Nodes),
		Map:     req.DeleteMap,
	}}

	s.logger.Info("map cleared",
		zap.String("mapID", req.MapID.String()),
		zap.Int("nodes", res.Deleted.Nodes),
		zap.Int("edges", res.Deleted.Edges),
		zap.Int("aliases", res.Deleted.Aliases),
		zap.Bool("mapDeleted", res.Deleted.Map),
	)
	s.publish(ctx, []events.DomainEvent{
		events.NewMapCleared(req.MapID, res.Deleted.Nodes, res.Deleted.Edges, res.Deleted.Aliases, res.Deleted.Map, now()),
	}, nil)
	return res, nil
}

func (s *GraphService) endpoint(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	node, err := s.store.GetNode(ctx, id)
	if pkgerrors.IsNotFound(err) {
		return nil, pkgerrors.NewValidationError("node " + id.String() + " does not exist").WithCode("UNKNOWN_NODE")
	}
	return node, err
}

// publish sends events after a committed change. Failures are logged only.
func (s *GraphService) publish(ctx context.Context, evts []events.DomainEvent, committed func()) {
	if len(evts) == 0 || s.publisher == nil {
		return
	}
	if err := s.publisher.PublishBatch(ctx, evts); err != nil {
		s.logger.Error("Failed to publish domain events",
			zap.Error(err),
			zap.Int("eventCount", len(evts)),
			zap.String("eventType", evts[0].GetEventType()),
		)
		if rec, ok := s.metrics.(interface{ RecordPublishFailure() }); ok {
			rec.RecordPublishFailure()
		}
		return
	}
	if committed != nil {
		committed()
	}
}

func now() time.Time { return time.Now().UTC() }
