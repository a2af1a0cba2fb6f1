package validators

import (
	"math"
	"testing"
	"time"

	"wayfinder/domain/core/entities"
	"wayfinder/domain/core/valueobjects"
	"wayfinder/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func n(id string, mapID string, floor int) *entities.Node {
	return entities.ReconstructNode(valueobjects.NodeID(id), valueobjects.MapID(mapID), valueobjects.Floor(floor), valueobjects.Point{}, false, time.Time{})
}

func TestResolveEdgeFloor(t *testing.T) {
	v := NewGraphValidator()

	tests := []struct {
		name      string
		requested valueobjects.Floor
		start     *entities.Node
		end       *entities.Node
		want      valueobjects.Floor
		code      string
	}{
		{name: "shared floor", start: n("a", "m", 2), end: n("b", "m", 2), want: 2},
		{name: "unset floors count as 1", start: n("a", "m", 0), end: n("b", "m", 1), want: 1},
		{name: "requested floor matches", requested: 3, start: n("a", "m", 3), end: n("b", "m", 3), want: 3},
		{name: "requested floor mismatch", requested: 2, start: n("a", "m", 3), end: n("b", "m", 3), code: "FLOOR_MISMATCH"},
		{name: "nodes on different floors", start: n("a", "m", 1), end: n("b", "m", 2), code: "FLOOR_MISMATCH"},
		{name: "self loop", start: n("a", "m", 1), end: n("a", "m", 1), code: "SELF_LOOP"},
		{name: "foreign node", start: n("a", "m", 1), end: n("b", "other", 1), code: "MAP_MISMATCH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.ResolveEdgeFloor("m", tt.requested, tt.start, tt.end)
			if tt.code != "" {
				require.Error(t, err)
				assert.True(t, errors.IsValidation(err))
				assert.Equal(t, tt.code, errors.GetAppError(err).Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateNodePlacement(t *testing.T) {
	m, err := entities.NewMap("Campus", 100, 50, 0, "")
	require.NoError(t, err)

	v := NewGraphValidator()
	assert.NoError(t, v.ValidateNodePlacement(m, 1, valueobjects.Point{X: 500, Y: 500}))
	assert.Error(t, v.ValidateNodePlacement(m, 1, valueobjects.Point{X: math.NaN()}))
	assert.Error(t, v.ValidateNodePlacement(m, -1, valueobjects.Point{}))

	v.StrictBounds = true
	assert.Error(t, v.ValidateNodePlacement(m, 1, valueobjects.Point{X: 500, Y: 500}))
	assert.NoError(t, v.ValidateNodePlacement(m, 1, valueobjects.Point{X: 100, Y: 50}))
}
