// Package mocks provides testify mocks of the application ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"wayfinder/application/ports"
	"wayfinder/domain/core/entities"
	"wayfinder/domain/core/valueobjects"
	"wayfinder/domain/events"
)

// Backend mocks ports.Backend
type Backend struct {
	mock.Mock
}

var _ ports.Backend = (*Backend)(nil)

func (m *Backend) ListMaps(ctx context.Context) ([]*entities.Map, error) {
	args := m.Called(ctx)
	maps, _ := args.Get(0).([]*entities.Map)
	return maps, args.Error(1)
}

func (m *Backend) GetMap(ctx context.Context, id valueobjects.MapID) (*entities.Map, error) {
	args := m.Called(ctx, id)
	mp, _ := args.Get(0).(*entities.Map)
	return mp, args.Error(1)
}

func (m *Backend) ListNodes(ctx context.Context, mapID valueobjects.MapID, floor valueobjects.Floor) ([]*entities.Node, error) {
	args := m.Called(ctx, mapID, floor)
	nodes, _ := args.Get(0).([]*entities.Node)
	return nodes, args.Error(1)
}

func (m *Backend) ListEdges(ctx context.Context, mapID valueobjects.MapID, floor valueobjects.Floor) ([]*entities.Edge, error) {
	args := m.Called(ctx, mapID, floor)
	edges, _ := args.Get(0).([]*entities.Edge)
	return edges, args.Error(1)
}

func (m *Backend) ListAliases(ctx context.Context, nodeID valueobjects.NodeID) ([]*entities.Alias, error) {
	args := m.Called(ctx, nodeID)
	aliases, _ := args.Get(0).([]*entities.Alias)
	return aliases, args.Error(1)
}

func (m *Backend) CreateNode(ctx context.Context, req ports.CreateNodeRequest) (*entities.Node, error) {
	args := m.Called(ctx, req)
	node, _ := args.Get(0).(*entities.Node)
	return node, args.Error(1)
}

func (m *Backend) CreateEdge(ctx context.Context, req ports.CreateEdgeRequest) (*entities.Edge, error) {
	args := m.Called(ctx, req)
	edge, _ := args.Get(0).(*entities.Edge)
	return edge, args.Error(1)
}

func (m *Backend) CreateAlias(ctx context.Context, req ports.CreateAliasRequest) (*entities.Alias, error) {
	args := m.Called(ctx, req)
	alias, _ := args.Get(0).(*entities.Alias)
	return alias, args.Error(1)
}

func (m *Backend) DeleteAlias(ctx context.Context, id valueobjects.AliasID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *Backend) SearchAliases(ctx context.Context, query string, limit int) ([]ports.AliasMatch, error) {
	args := m.Called(ctx, query, limit)
	matches, _ := args.Get(0).([]ports.AliasMatch)
	return matches, args.Error(1)
}

func (m *Backend) Route(ctx context.Context, req ports.RouteRequest) (*ports.RouteResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*ports.RouteResult)
	return res, args.Error(1)
}

// EventPublisher mocks ports.EventPublisher
type EventPublisher struct {
	mock.Mock
}

var _ ports.EventPublisher = (*EventPublisher)(nil)

func (m *EventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *EventPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	return m.Called(ctx, evts).Error(0)
}
