// Package memory provides an in-process GraphStore for local runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"wayfinder/application/ports"
	"wayfinder/domain/core/entities"
	"wayfinder/domain/core/valueobjects"
	pkgerrors "wayfinder/pkg/errors"
)

// Store keeps every record in maps guarded by one RWMutex.
// Records are copied on the way in and out, so callers never share
// state with the stored version. Lists come back in creation order.
type Store struct {
	mu sync.RWMutex

	maps    map[valueobjects.MapID]*entities.Map
	nodes   map[valueobjects.NodeID]*entities.Node
	edges   map[valueobjects.EdgeID]*entities.Edge
	aliases map[valueobjects.AliasID]*entities.Alias

	// insertion sequence per record, for stable ordering
	seq   uint64
	order map[string]uint64

	failOn map[string]error
}

var _ ports.GraphStore = (*Store)(nil)

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		maps:    make(map[valueobjects.MapID]*entities.Map),
		nodes:   make(map[valueobjects.NodeID]*entities.Node),
		edges:   make(map[valueobjects.EdgeID]*entities.Edge),
		aliases: make(map[valueobjects.AliasID]*entities.Alias),
		order:   make(map[string]uint64),
		failOn:  make(map[string]error),
	}
}

// SetError makes the named method fail with err until ClearErrors
func (s *Store) SetError(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn[method] = err
}

// ClearErrors removes all configured failures
func (s *Store) ClearErrors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn = make(map[string]error)
}

func (s *Store) check(method string) error {
	return s.failOn[method]
}

func (s *Store) touch(key string) {
	if _, ok := s.order[key]; !ok {
		s.seq++
		s.order[key] = s.seq
	}
}

func (s *Store) rank(key string) uint64 {
	return s.order[key]
}

func (s *Store) ListMaps(ctx context.Context) ([]*entities.Map, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("ListMaps"); err != nil {
		return nil, err
	}

	out := make([]*entities.Map, 0, len(s.maps))
	for _, m := range s.maps {
		out = append(out, m.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return s.rank("map#"+out[i].ID().String()) < s.rank("map#"+out[j].ID().String())
	})
	return out, nil
}

func (s *Store) GetMap(ctx context.Context, id valueobjects.MapID) (*entities.Map, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("GetMap"); err != nil {
		return nil, err
	}
	m, ok := s.maps[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("map")
	}
	return m.Clone(), nil
}

func (s *Store) SaveMap(ctx context.Context, m *entities.Map) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("SaveMap"); err != nil {
		return err
	}
	s.maps[m.ID()] = m.Clone()
	s.touch("map#" + m.ID().String())
	return nil
}

func (s *Store) ListNodes(ctx context.Context, mapID valueobjects.MapID, floor valueobjects.Floor) ([]*entities.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("ListNodes"); err != nil {
		return nil, err
	}

	var out []*entities.Node
	for _, n := range s.nodes {
		if n.MapID() != mapID {
			continue
		}
		if floor.IsSet() && n.Floor().OrDefault() != floor {
			continue
		}
		out = append(out, n.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return s.rank("node#"+out[i].ID().String()) < s.rank("node#"+out[j].ID().String())
	})
	return out, nil
}

func (s *Store) GetNode(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("GetNode"); err != nil {
		return nil, err
	}
	n, ok := s.nodes[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	return n.Clone(), nil
}

func (s *Store) SaveNode(ctx context.Context, node *entities.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("SaveNode"); err != nil {
		return err
	}
	s.nodes[node.ID()] = node.Clone()
	s.touch("node#" + node.ID().String())
	return nil
}

func (s *Store) ListEdges(ctx context.Context, mapID valueobjects.MapID, floor valueobjects.Floor) ([]*entities.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("ListEdges"); err != nil {
		return nil, err
	}

	var out []*entities.Edge
	for _, e := range s.edges {
		if e.MapID() != mapID {
			continue
		}
		if floor.IsSet() && e.Floor().OrDefault() != floor {
			continue
		}
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return s.rank("edge#"+out[i].ID().String()) < s.rank("edge#"+out[j].ID().String())
	})
	return out, nil
}

func (s *Store) GetEdge(ctx context.Context, id valueobjects.EdgeID) (*entities.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("GetEdge"); err != nil {
		return nil, err
	}
	e, ok := s.edges[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("edge")
	}
	return e.Clone(), nil
}

func (s *Store) SaveEdge(ctx context.Context, edge *entities.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("SaveEdge"); err != nil {
		return err
	}
	s.edges[edge.ID()] = edge.Clone()
	s.touch("edge#" + edge.ID().String())
	return nil
}

func (s *Store) DeleteEdge(ctx context.Context, id valueobjects.EdgeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("DeleteEdge"); err != nil {
		return err
	}
	if _, ok := s.edges[id]; !ok {
		return pkgerrors.NewNotFoundError("edge")
	}
	delete(s.edges, id)
	delete(s.order, "edge#"+id.String())
	return nil
}

func (s *Store) ListAliases(ctx context.Context, nodeID valueobjects.NodeID) ([]*entities.Alias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("ListAliases"); err != nil {
		return nil, err
	}

	var out []*entities.Alias
	for _, a := range s.aliases {
		if a.NodeID() == nodeID {
			out = append(out, a.Clone())
		}
	}
	s.sortAliases(out)
	return out, nil
}

func (s *Store) ListAllAliases(ctx context.Context) ([]*entities.Alias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("ListAllAliases"); err != nil {
		return nil, err
	}

	out := make([]*entities.Alias, 0, len(s.aliases))
	for _, a := range s.aliases {
		out = append(out, a.Clone())
	}
	s.sortAliases(out)
	return out, nil
}

func (s *Store) GetAlias(ctx context.Context, id valueobjects.AliasID) (*entities.Alias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("GetAlias"); err != nil {
		return nil, err
	}
	a, ok := s.aliases[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("alias")
	}
	return a.Clone(), nil
}

func (s *Store) SaveAlias(ctx context.Context, alias *entities.Alias) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("SaveAlias"); err != nil {
		return err
	}
	s.aliases[alias.ID()] = alias.Clone()
	s.touch("alias#" + alias.ID().String())
	return nil
}

func (s *Store) DeleteAlias(ctx context.Context, id valueobjects.AliasID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("DeleteAlias"); err != nil {
		return err
	}
	if _, ok := s.aliases[id]; !ok {
		return pkgerrors.NewNotFoundError("alias")
	}
	delete(s.aliases, id)
	delete(s.order, "alias#"+id.String())
	return nil
}

// DeleteBatch removes the whole batch under one lock, or nothing
func (s *Store) DeleteBatch(ctx context.Context, batch ports.GraphDeletion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("DeleteBatch"); err != nil {
		return err
	}

	if !batch.Map.IsZero() {
		if _, ok := s.maps[batch.Map]; !ok {
			return pkgerrors.NewConflictError("map " + batch.Map.String() + " changed during delete")
		}
	}
	for _, n := range batch.Nodes {
		if _, ok := s.nodes[n.ID()]; !ok {
			return pkgerrors.NewConflictError("node " + n.ID().String() + " changed during delete")
		}
	}
	for _, e := range batch.Edges {
		if _, ok := s.edges[e.ID()]; !ok {
			return pkgerrors.NewConflictError("edge " + e.ID().String() + " changed during delete")
		}
	}
	for _, a := range batch.Aliases {
		if _, ok := s.aliases[a.ID()]; !ok {
			return pkgerrors.NewConflictError("alias " + a.ID().String() + " changed during delete")
		}
	}

	for _, a := range batch.Aliases {
		delete(s.aliases, a.ID())
		delete(s.order, "alias#"+a.ID().String())
	}
	for _, e := range batch.Edges {
		delete(s.edges, e.ID())
		delete(s.order, "edge#"+e.ID().String())
	}
	for _, n := range batch.Nodes {
		delete(s.nodes, n.ID())
		delete(s.order, "node#"+n.ID().String())
	}
	if !batch.Map.IsZero() {
		delete(s.maps, batch.Map)
		delete(s.order, "map#"+batch.Map.String())
	}
	return nil
}

func (s *Store) sortAliases(list []*entities.Alias) {
	sort.Slice(list, func(i, j int) bool {
		return s.rank("alias#"+list[i].ID().String()) < s.rank("alias#"+list[j].ID().String())
	})
}
