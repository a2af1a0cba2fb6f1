package validators

import (
	"math"

	"wayfinder/domain/core/entities"
	"wayfinder/domain/core/valueobjects"
	"wayfinder/pkg/errors"
)

// GraphValidator checks the rules that span several records
type GraphValidator struct {
	// StrictBounds rejects nodes placed outside the map image
	StrictBounds bool
}

// NewGraphValidator creates a validator with default rules
func NewGraphValidator() *GraphValidator {
	return &GraphValidator{}
}

// ValidateNodePlacement checks a new node position against its map
func (v *GraphValidator) ValidateNodePlacement(m *entities.Map, floor valueobjects.Floor, p valueobjects.Point) error {
	errs := errors.NewFieldErrors()
	if floor < 0 {
		errs.Add("floor", "floor cannot be negative")
	}
	if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
		errs.Add("position", "coordinates must be finite")
	} else if v.StrictBounds && !m.Contains(p) {
		errs.Addf("position", "point %s is outside the %dx%d image", p, m.Width(), m.Height())
	}
	if appErr := errs.AsAppError(); appErr != nil {
		return appErr
	}
	return nil
}

// ResolveEdgeFloor checks that two nodes can be joined on one map and
// returns the floor the edge belongs to. With a requested floor both
// nodes must be on it; without one they must share a floor.
func (v *GraphValidator) ResolveEdgeFloor(
	mapID valueobjects.MapID,
	requested valueobjects.Floor,
	start, end *entities.Node,
) (valueobjects.Floor, error) {
	if start.ID() == end.ID() {
		return 0, errors.NewValidationError("an edge cannot start and end at the same node").WithCode("SELF_LOOP")
	}
	if start.MapID() != mapID || end.MapID() != mapID {
		return 0, errors.NewValidationError("both nodes must belong to the map").
			WithCode("MAP_MISMATCH").
			WithDetails(map[string]interface{}{"map_id": mapID.String()})
	}

	sf, ef := start.Floor().OrDefault(), end.Floor().OrDefault()
	if requested.IsSet() {
		if sf != requested || ef != requested {
			return 0, errors.NewValidationError("both nodes must be on the edge's floor").
				WithCode("FLOOR_MISMATCH").
				WithDetails(map[string]interface{}{
					"floor":       requested.Int(),
					"start_floor": sf.Int(),
					"end_floor":   ef.Int(),
				})
		}
		return requested, nil
	}
	if sf != ef {
		return 0, errors.NewValidationError("nodes are on different floors").
			WithCode("FLOOR_MISMATCH").
			WithDetails(map[string]interface{}{"start_floor": sf.Int(), "end_floor": ef.Int()})
	}
	return sf, nil
}
