package entities

import (
	"encoding/json"
	"time"

	"wayfinder/domain/core/valueobjects"
	"wayfinder/domain/events"
	pkgerrors "wayfinder/pkg/errors"
)

// Edge is a walkable path between two nodes on one floor.
// The weight is the polyline length in pixels.
type Edge struct {
	id            valueobjects.EdgeID
	mapID         valueobjects.MapID
	floor         valueobjects.Floor
	startNodeID   valueobjects.NodeID
	endNodeID     valueobjects.NodeID
	polyline      valueobjects.Polyline
	weight        float64
	bidirectional bool
	createdAt     time.Time

	events []events.DomainEvent
}

// NewEdge creates an edge after checking the structural invariants.
// Endpoint existence and floor agreement are checked by the caller,
// which has access to the nodes.
func NewEdge(
	mapID valueobjects.MapID,
	floor valueobjects.Floor,
	start, end valueobjects.NodeID,
	polyline valueobjects.Polyline,
	bidirectional bool,
) (*Edge, error) {
	if mapID.IsZero() {
		return nil, pkgerrors.NewValidationError("map ID cannot be empty")
	}
	if start.IsZero() || end.IsZero() {
		return nil, pkgerrors.NewValidationError("start and end nodes are required")
	}
	if start == end {
		return nil, pkgerrors.NewValidationError("an edge cannot start and end at the same node")
	}
	if len(polyline) < 2 {
		return nil, pkgerrors.NewValidationError("polyline needs at least 2 points")
	}

	now := time.Now().UTC()
	edge := &Edge{
		id:            valueobjects.NewEdgeID(),
		mapID:         mapID,
		floor:         floor.OrDefault(),
		startNodeID:   start,
		endNodeID:     end,
		polyline:      polyline.Clone(),
		weight:        polyline.Length(),
		bidirectional: bidirectional,
		createdAt:     now,
	}
	edge.addEvent(events.NewEdgeCreated(edge.id, mapID, edge.floor, start, end, edge.weight, now))
	return edge, nil
}

// ReconstructEdge rebuilds an edge from stored data
func ReconstructEdge(
	id valueobjects.EdgeID,
	mapID valueobjects.MapID,
	floor valueobjects.Floor,
	start, end valueobjects.NodeID,
	polyline valueobjects.Polyline,
	weight float64,
	bidirectional bool,
	createdAt time.Time,
) *Edge {
	return &Edge{
		id:            id,
		mapID:         mapID,
		floor:         floor,
		startNodeID:   start,
		endNodeID:     end,
		polyline:      polyline,
		weight:        weight,
		bidirectional: bidirectional,
		createdAt:     createdAt,
	}
}

func (e *Edge) ID() valueobjects.EdgeID          { return e.id }
func (e *Edge) MapID() valueobjects.MapID        { return e.mapID }
func (e *Edge) Floor() valueobjects.Floor        { return e.floor }
func (e *Edge) StartNodeID() valueobjects.NodeID { return e.startNodeID }
func (e *Edge) EndNodeID() valueobjects.NodeID   { return e.endNodeID }
func (e *Edge) Weight() float64                  { return e.weight }
func (e *Edge) Bidirectional() bool              { return e.bidirectional }
func (e *Edge) CreatedAt() time.Time             { return e.createdAt }

// Polyline returns a copy of the edge geometry
func (e *Edge) Polyline() valueobjects.Polyline { return e.polyline.Clone() }

// Touches reports whether the node is one of the endpoints
func (e *Edge) Touches(id valueobjects.NodeID) bool {
	return e.startNodeID == id || e.endNodeID == id
}

// Reshape replaces the geometry and recomputes the weight
func (e *Edge) Reshape(polyline valueobjects.Polyline) error {
	if len(polyline) < 2 {
		return pkgerrors.NewValidationError("polyline needs at least 2 points")
	}
	e.polyline = polyline.Clone()
	e.weight = polyline.Length()
	e.addEvent(events.NewEdgeUpdated(e.id, e.weight, e.bidirectional, time.Now().UTC()))
	return nil
}

// SetBidirectional changes the direction flag
func (e *Edge) SetBidirectional(bidirectional bool) {
	if e.bidirectional == bidirectional {
		return
	}
	e.bidirectional = bidirectional
	e.addEvent(events.NewEdgeUpdated(e.id, e.weight, e.bidirectional, time.Now().UTC()))
}

// Clone returns a detached copy without pending events
func (e *Edge) Clone() *Edge {
	return ReconstructEdge(e.id, e.mapID, e.floor, e.startNodeID, e.endNodeID,
		e.polyline.Clone(), e.weight, e.bidirectional, e.createdAt)
}

// GetUncommittedEvents returns events raised since the last commit
func (e *Edge) GetUncommittedEvents() []events.DomainEvent { return e.events }

// MarkEventsAsCommitted clears the pending events
func (e *Edge) MarkEventsAsCommitted() { e.events = nil }

func (e *Edge) addEvent(event events.DomainEvent) {
	e.events = append(e.events, event)
}

type edgeJSON struct {
	ID            valueobjects.EdgeID   `json:"id"`
	MapID         valueobjects.MapID    `json:"map_id"`
	Floor         valueobjects.Floor    `json:"floor,omitempty"`
	StartNodeID   valueobjects.NodeID   `json:"start_node_id"`
	EndNodeID     valueobjects.NodeID   `json:"end_node_id"`
	Polyline      valueobjects.Polyline `json:"polyline"`
	Weight        float64               `json:"weight"`
	Bidirectional bool                  `json:"bidirectional"`
	CreatedAt     *time.Time            `json:"created_at,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (e *Edge) MarshalJSON() ([]byte, error) {
	out := edgeJSON{
		ID:            e.id,
		MapID:         e.mapID,
		Floor:         e.floor,
		StartNodeID:   e.startNodeID,
		EndNodeID:     e.endNodeID,
		Polyline:      e.polyline,
		Weight:        e.weight,
		Bidirectional: e.bidirectional,
	}
	if out.Polyline == nil {
		out.Polyline = valueobjects.Polyline{}
	}
	if !e.createdAt.IsZero() {
		out.CreatedAt = &e.createdAt
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler
func (e *Edge) UnmarshalJSON(data []byte) error {
	var in edgeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*e = Edge{
		id:            in.ID,
		mapID:         in.MapID,
		floor:         in.Floor,
		startNodeID:   in.StartNodeID,
		endNodeID:     in.EndNodeID,
		polyline:      in.Polyline,
		weight:        in.Weight,
		bidirectional: in.Bidirectional,
	}
	if in.CreatedAt != nil {
		e.createdAt = *in.CreatedAt
	}
	return nil
}
