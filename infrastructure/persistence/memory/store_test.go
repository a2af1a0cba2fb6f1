package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wayfinder/application/ports"
	"wayfinder/domain/core/entities"
	"wayfinder/domain/core/valueobjects"
	pkgerrors "wayfinder/pkg/errors"
)

func node(id string, floor valueobjects.Floor) *entities.Node {
	return entities.ReconstructNode(valueobjects.NodeID(id), "m1", floor, valueobjects.Point{X: 1, Y: 2}, false, time.Time{})
}

func TestStoreListsInCreationOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	for _, id := range []string{"z", "a", "m"} {
		require.NoError(t, s.SaveNode(ctx, node(id, 1)))
	}
	require.NoError(t, s.SaveNode(ctx, node("a", 1)), "resave keeps position")

	nodes, err := s.ListNodes(ctx, "m1", 0)
	require.NoError(t, err)
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID().String())
	}
	assert.Equal(t, []string{"z", "a", "m"}, ids)
}

func TestStoreFloorFilter(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.SaveNode(ctx, node("n0", 0)))
	require.NoError(t, s.SaveNode(ctx, node("n1", 1)))
	require.NoError(t, s.SaveNode(ctx, node("n2", 2)))

	floor1, err := s.ListNodes(ctx, "m1", 1)
	require.NoError(t, err)
	assert.Len(t, floor1, 2, "unset floor counts as floor one")

	all, err := s.ListNodes(ctx, "m1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	other, err := s.ListNodes(ctx, "m2", 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.GetNode(ctx, "missing")
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.True(t, pkgerrors.IsNotFound(s.DeleteEdge(ctx, "missing")))
	_, err = s.GetMap(ctx, "missing")
	assert.True(t, pkgerrors.IsNotFound(err))
	_, err = s.GetAlias(ctx, "missing")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestStoreAliases(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	name, err := valueobjects.NewAliasName("Gate", 0)
	require.NoError(t, err)

	a1 := entities.ReconstructAlias("a1", "n1", name, "vi", 1, time.Time{})
	a2 := entities.ReconstructAlias("a2", "n2", name, "vi", 1, time.Time{})
	require.NoError(t, s.SaveAlias(ctx, a1))
	require.NoError(t, s.SaveAlias(ctx, a2))

	forN1, err := s.ListAliases(ctx, "n1")
	require.NoError(t, err)
	require.Len(t, forN1, 1)
	assert.Equal(t, valueobjects.AliasID("a1"), forN1[0].ID())

	all, err := s.ListAllAliases(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, s.DeleteAlias(ctx, "a1"))
	all, err = s.ListAllAliases(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStoreInjectedErrors(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	boom := errors.New("boom")
	s.SetError("ListEdges", boom)

	_, err := s.ListEdges(ctx, "m1", 0)
	assert.ErrorIs(t, err, boom)

	_, err = s.ListNodes(ctx, "m1", 0)
	assert.NoError(t, err)

	s.ClearErrors()
	_, err = s.ListEdges(ctx, "m1", 0)
	assert.NoError(t, err)
}

func TestStoreCopiesRecords(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	line := valueobjects.Polyline{{X: 0, Y: 0}, {X: 10, Y: 0}}
	edge := entities.ReconstructEdge("e1", "m1", 1, "n1", "n2", line, 10, true, time.Time{})
	require.NoError(t, s.SaveEdge(ctx, edge))

	require.NoError(t, edge.Reshape(valueobjects.Polyline{{X: 0, Y: 0}, {X: 0, Y: 30}}))
	got, err := s.GetEdge(ctx, "e1")
	require.NoError(t, err)
	assert.InDelta(t, 10.0, got.Weight(), 1e-9, "caller changes after save stay local")

	got.SetBidirectional(false)
	listed, err := s.ListEdges(ctx, "m1", 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].Bidirectional(), "changes to a read copy stay local")
	assert.Empty(t, listed[0].GetUncommittedEvents())
}

func TestStoreDeleteBatchIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.SaveMap(ctx, entities.ReconstructMap("m1", "Campus", 10, 10, 0, "", time.Time{})))
	n1, n2 := node("n1", 1), node("n2", 1)
	require.NoError(t, s.SaveNode(ctx, n1))
	require.NoError(t, s.SaveNode(ctx, n2))
	edge := entities.ReconstructEdge("e1", "m1", 1, "n1", "n2", valueobjects.Polyline{{X: 1, Y: 2}, {X: 1, Y: 2}}, 0, true, time.Time{})
	require.NoError(t, s.SaveEdge(ctx, edge))

	ghost := entities.ReconstructEdge("gone", "m1", 1, "n1", "n2", nil, 0, true, time.Time{})
	err := s.DeleteBatch(ctx, ports.GraphDeletion{Nodes: []*entities.Node{n1}, Edges: []*entities.Edge{edge, ghost}})
	assert.True(t, pkgerrors.IsConflict(err))
	_, err = s.GetNode(ctx, "n1")
	require.NoError(t, err, "nothing removed when one record is missing")
	_, err = s.GetEdge(ctx, "e1")
	require.NoError(t, err)

	batch := ports.GraphDeletion{Map: "m1", Nodes: []*entities.Node{n1, n2}, Edges: []*entities.Edge{edge}}
	require.NoError(t, s.DeleteBatch(ctx, batch))
	nodes, err := s.ListNodes(ctx, "m1", 0)
	require.NoError(t, err)
	assert.Empty(t, nodes)
	_, err = s.GetMap(ctx, "m1")
	assert.True(t, pkgerrors.IsNotFound(err))
}
