package aggregates

import (
	"context"
	"math"

	"wayfinder/domain/core/entities"
	"wayfinder/domain/core/valueobjects"
	pkgerrors "wayfinder/pkg/errors"
)

// SnapshotSource is the read side a snapshot is loaded from.
// A zero floor lists every floor of the map.
type SnapshotSource interface {
	ListNodes(ctx context.Context, mapID valueobjects.MapID, floor valueobjects.Floor) ([]*entities.Node, error)
	ListEdges(ctx context.Context, mapID valueobjects.MapID, floor valueobjects.Floor) ([]*entities.Edge, error)
	ListAliases(ctx context.Context, nodeID valueobjects.NodeID) ([]*entities.Alias, error)
}

// Snapshot holds the nodes, edges and aliases of one map floor.
// It is rebuilt wholesale and never patched.
type Snapshot struct {
	mapID   valueobjects.MapID
	floor   valueobjects.Floor
	nodes   []*entities.Node
	index   map[valueobjects.NodeID]int
	edges   []*entities.Edge
	aliases map[valueobjects.NodeID][]*entities.Alias
}

// EmptySnapshot returns a snapshot with no graph data
func EmptySnapshot(mapID valueobjects.MapID, floor valueobjects.Floor) *Snapshot {
	return NewSnapshot(mapID, floor, nil, nil, nil)
}

// NewSnapshot builds a snapshot from already loaded records.
// Node order is kept for nearest-node tie breaking.
func NewSnapshot(
	mapID valueobjects.MapID,
	floor valueobjects.Floor,
	nodes []*entities.Node,
	edges []*entities.Edge,
	aliases map[valueobjects.NodeID][]*entities.Alias,
) *Snapshot {
	s := &Snapshot{
		mapID:   mapID,
		floor:   floor.OrDefault(),
		nodes:   append([]*entities.Node(nil), nodes...),
		index:   make(map[valueobjects.NodeID]int, len(nodes)),
		edges:   append([]*entities.Edge(nil), edges...),
		aliases: make(map[valueobjects.NodeID][]*entities.Alias, len(aliases)),
	}
	for i, n := range s.nodes {
		s.index[n.ID()] = i
	}
	for id, list := range aliases {
		s.aliases[id] = append([]*entities.Alias(nil), list...)
	}
	return s
}

// LoadSnapshot fetches everything on one map floor. Any failed fetch
// yields a LoadError and no snapshot, so callers keep the one they had.
func LoadSnapshot(ctx context.Context, source SnapshotSource, mapID valueobjects.MapID, floor valueobjects.Floor) (*Snapshot, error) {
	floor = floor.OrDefault()

	nodes, err := source.ListNodes(ctx, mapID, floor)
	if err != nil {
		return nil, pkgerrors.NewLoadError("nodes", err)
	}
	edges, err := source.ListEdges(ctx, mapID, floor)
	if err != nil {
		return nil, pkgerrors.NewLoadError("edges", err)
	}

	aliases := make(map[valueobjects.NodeID][]*entities.Alias, len(nodes))
	for _, n := range nodes {
		list, err := source.ListAliases(ctx, n.ID())
		if err != nil {
			return nil, pkgerrors.NewLoadError("aliases for node "+n.ID().String(), err)
		}
		if len(list) > 0 {
			aliases[n.ID()] = list
		}
	}

	return NewSnapshot(mapID, floor, nodes, edges, aliases), nil
}

// FloorsForMap derives the floor labels in use on a map. Records without
// floor metadata count as floor 1, and an empty map reports {1}.
func FloorsForMap(ctx context.Context, source SnapshotSource, mapID valueobjects.MapID) ([]valueobjects.Floor, error) {
	nodes, err := source.ListNodes(ctx, mapID, 0)
	if err != nil {
		return nil, pkgerrors.NewLoadError("nodes", err)
	}
	edges, err := source.ListEdges(ctx, mapID, 0)
	if err != nil {
		return nil, pkgerrors.NewLoadError("edges", err)
	}

	floors := make([]valueobjects.Floor, 0, len(nodes)+len(edges))
	for _, n := range nodes {
		floors = append(floors, n.Floor().OrDefault())
	}
	for _, e := range edges {
		floors = append(floors, e.Floor().OrDefault())
	}
	floors = valueobjects.SortFloors(floors)
	if len(floors) == 0 {
		return []valueobjects.Floor{valueobjects.DefaultFloor}, nil
	}
	return floors, nil
}

func (s *Snapshot) MapID() valueobjects.MapID { return s.mapID }
func (s *Snapshot) Floor() valueobjects.Floor { return s.floor }
func (s *Snapshot) NodeCount() int            { return len(s.nodes) }
func (s *Snapshot) EdgeCount() int            { return len(s.edges) }

// Node looks up a node on this floor
func (s *Snapshot) Node(id valueobjects.NodeID) (*entities.Node, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.nodes[i], true
}

// Nodes returns the nodes in load order
func (s *Snapshot) Nodes() []*entities.Node {
	return append([]*entities.Node(nil), s.nodes...)
}

// Edges returns the edges in load order
func (s *Snapshot) Edges() []*entities.Edge {
	return append([]*entities.Edge(nil), s.edges...)
}

// Aliases returns the aliases bound to a node
func (s *Snapshot) Aliases(id valueobjects.NodeID) []*entities.Alias {
	return append([]*entities.Alias(nil), s.aliases[id]...)
}

// NearestNode finds the closest node to p within maxDistance.
// Exact ties go to the node loaded first.
func (s *Snapshot) NearestNode(p valueobjects.Point, maxDistance float64) (valueobjects.NodeID, bool) {
	var (
		best     valueobjects.NodeID
		bestDist = math.Inf(1)
	)
	for _, n := range s.nodes {
		if d := n.Position().DistanceTo(p); d < bestDist {
			best, bestDist = n.ID(), d
		}
	}
	if best.IsZero() || bestDist > maxDistance {
		return "", false
	}
	return best, true
}
