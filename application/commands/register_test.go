package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"wayfinder/application/commands/bus"
	"wayfinder/application/ports"
	"wayfinder/application/services"
	"wayfinder/domain/core/entities"
	"wayfinder/infrastructure/persistence/memory"
	pkgerrors "wayfinder/pkg/errors"
)

func newBus(t *testing.T) *bus.CommandBus {
	t.Helper()
	logger := zaptest.NewLogger(t)
	svc := services.NewGraphService(memory.NewStore(), nil, nil, nil, logger)
	b := bus.NewCommandBus(bus.LoggingMiddleware(logger))
	require.NoError(t, Register(b, svc))
	return b
}

func TestGraphCommandsRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := newBus(t)

	out, err := b.Send(ctx, CreateMap{ports.CreateMapRequest{Name: "Campus", Width: 800, Height: 600}})
	require.NoError(t, err)
	m := out.(*entities.Map)

	out, err = b.Send(ctx, CreateNode{ports.CreateNodeRequest{MapID: m.ID(), X: 10, Y: 10}})
	require.NoError(t, err)
	a := out.(*entities.Node)
	out, err = b.Send(ctx, CreateNode{ports.CreateNodeRequest{MapID: m.ID(), X: 100, Y: 10}})
	require.NoError(t, err)
	c := out.(*entities.Node)

	out, err = b.Send(ctx, CreateEdge{ports.CreateEdgeRequest{MapID: m.ID(), StartNodeID: a.ID(), EndNodeID: c.ID()}})
	require.NoError(t, err)
	edge := out.(*entities.Edge)
	assert.InDelta(t, 90.0, edge.Weight(), 1e-9)

	flag := true
	out, err = b.Send(ctx, UpdateEdge{EdgeID: edge.ID(), UpdateEdgeRequest: ports.UpdateEdgeRequest{Bidirectional: &flag}})
	require.NoError(t, err)
	assert.True(t, out.(*entities.Edge).Bidirectional())

	out, err = b.Send(ctx, DeleteEdge{EdgeID: edge.ID()})
	require.NoError(t, err)
	assert.Equal(t, okResult{OK: true}, out)

	out, err = b.Send(ctx, ClearMap{ports.ClearMapRequest{MapID: m.ID(), DeleteMap: true}})
	require.NoError(t, err)
	res := out.(*ports.ClearMapResult)
	assert.Equal(t, 2, res.Deleted.Nodes)
	assert.True(t, res.Deleted.Map)
}

func TestGraphCommandsValidate(t *testing.T) {
	b := newBus(t)
	ctx := context.Background()

	cases := []bus.Command{
		CreateMap{ports.CreateMapRequest{Name: "", Width: 10, Height: 10}},
		CreateMap{ports.CreateMapRequest{Name: "x", Width: 0, Height: 10}},
		CreateNode{ports.CreateNodeRequest{}},
		CreateEdge{ports.CreateEdgeRequest{MapID: "m", StartNodeID: "a", EndNodeID: "a"}},
		UpdateEdge{EdgeID: "e1"},
		DeleteEdge{},
		DeleteNode{},
		CreateAlias{ports.CreateAliasRequest{NodeID: "n"}},
		DeleteAlias{},
		ClearMap{},
	}
	for _, cmd := range cases {
		_, err := b.Send(ctx, cmd)
		assert.True(t, pkgerrors.IsValidation(err), "%T: %v", cmd, err)
	}
}

func TestDeleteMissingNodeIsNotFound(t *testing.T) {
	_, err := newBus(t).Send(context.Background(), DeleteNode{NodeID: "missing"})
	assert.True(t, pkgerrors.IsNotFound(err))
}
