package entities

import (
	"encoding/json"
	"time"

	"wayfinder/domain/core/valueobjects"
	"wayfinder/domain/events"
	pkgerrors "wayfinder/pkg/errors"
)

// Node is a junction or landmark placed on a floor plan.
// Nodes are never edited in place; they are deleted and recreated.
type Node struct {
	id         valueobjects.NodeID
	mapID      valueobjects.MapID
	floor      valueobjects.Floor
	position   valueobjects.Point
	isLandmark bool
	createdAt  time.Time

	events []events.DomainEvent
}

// NewNode creates a node at a position on a floor
func NewNode(mapID valueobjects.MapID, floor valueobjects.Floor, position valueobjects.Point, isLandmark bool) (*Node, error) {
	if mapID.IsZero() {
		return nil, pkgerrors.NewValidationError("map ID cannot be empty")
	}
	if _, err := valueobjects.NewPoint(position.X, position.Y); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	now := time.Now().UTC()
	node := &Node{
		id:         valueobjects.NewNodeID(),
		mapID:      mapID,
		floor:      floor.OrDefault(),
		position:   position,
		isLandmark: isLandmark,
		createdAt:  now,
	}
	node.addEvent(events.NewNodeCreated(node.id, mapID, node.floor, position, isLandmark, now))
	return node, nil
}

// ReconstructNode rebuilds a node from stored data
func ReconstructNode(
	id valueobjects.NodeID,
	mapID valueobjects.MapID,
	floor valueobjects.Floor,
	position valueobjects.Point,
	isLandmark bool,
	createdAt time.Time,
) *Node {
	return &Node{
		id:         id,
		mapID:      mapID,
		floor:      floor,
		position:   position,
		isLandmark: isLandmark,
		createdAt:  createdAt,
	}
}

func (n *Node) ID() valueobjects.NodeID      { return n.id }
func (n *Node) MapID() valueobjects.MapID    { return n.mapID }
func (n *Node) Position() valueobjects.Point { return n.position }
func (n *Node) IsLandmark() bool             { return n.isLandmark }
func (n *Node) CreatedAt() time.Time         { return n.createdAt }

// Floor returns the recorded floor, which may be unset for legacy records
func (n *Node) Floor() valueobjects.Floor { return n.floor }

// Clone returns a detached copy without pending events
func (n *Node) Clone() *Node {
	return ReconstructNode(n.id, n.mapID, n.floor, n.position, n.isLandmark, n.createdAt)
}

// GetUncommittedEvents returns events raised since the last commit
func (n *Node) GetUncommittedEvents() []events.DomainEvent { return n.events }

// MarkEventsAsCommitted clears the pending events
func (n *Node) MarkEventsAsCommitted() { n.events = nil }

func (n *Node) addEvent(event events.DomainEvent) {
	n.events = append(n.events, event)
}

type nodeJSON struct {
	ID         valueobjects.NodeID `json:"id"`
	MapID      valueobjects.MapID  `json:"map_id"`
	X          float64             `json:"x"`
	Y          float64             `json:"y"`
	Floor      valueobjects.Floor  `json:"floor,omitempty"`
	IsLandmark bool                `json:"is_landmark"`
	CreatedAt  *time.Time          `json:"created_at,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (n *Node) MarshalJSON() ([]byte, error) {
	out := nodeJSON{
		ID:         n.id,
		MapID:      n.mapID,
		X:          n.position.X,
		Y:          n.position.Y,
		Floor:      n.floor,
		IsLandmark: n.isLandmark,
	}
	if !n.createdAt.IsZero() {
		out.CreatedAt = &n.createdAt
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler
func (n *Node) UnmarshalJSON(data []byte) error {
	var in nodeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*n = Node{
		id:         in.ID,
		mapID:      in.MapID,
		floor:      in.Floor,
		position:   valueobjects.Point{X: in.X, Y: in.Y},
		isLandmark: in.IsLandmark,
	}
	if in.CreatedAt != nil {
		n.createdAt = *in.CreatedAt
	}
	return nil
}
