package events

import (
	"time"

	"wayfinder/domain/core/valueobjects"
)

// Source is the event source name used on the bus
const Source = "wayfinder.graph"

// DomainEvent is the base interface for all domain events
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(aggregateID, eventType string, at time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: aggregateID,
		EventType:   eventType,
		Timestamp:   at,
		Version:     1,
	}
}

// MapCreated is raised when a floor-plan map is registered
type MapCreated struct {
	BaseEvent
	MapID valueobjects.MapID `json:"map_id"`
	Name  string             `json:"name"`
}

// NewMapCreated creates a MapCreated event
func NewMapCreated(mapID valueobjects.MapID, name string, at time.Time) MapCreated {
	return MapCreated{BaseEvent: newBase(mapID.String(), "map.created", at), MapID: mapID, Name: name}
}

// NodeCreated is raised when a node is placed
type NodeCreated struct {
	BaseEvent
	NodeID     valueobjects.NodeID `json:"node_id"`
	MapID      valueobjects.MapID  `json:"map_id"`
	Floor      valueobjects.Floor  `json:"floor"`
	Position   valueobjects.Point  `json:"position"`
	IsLandmark bool                `json:"is_landmark"`
}

// NewNodeCreated creates a NodeCreated event
func NewNodeCreated(nodeID valueobjects.NodeID, mapID valueobjects.MapID, floor valueobjects.Floor, pos valueobjects.Point, landmark bool, at time.Time) NodeCreated {
	return NodeCreated{
		BaseEvent:  newBase(nodeID.String(), "node.created", at),
		NodeID:     nodeID,
		MapID:      mapID,
		Floor:      floor,
		Position:   pos,
		IsLandmark: landmark,
	}
}

// NodeDeleted is raised when a node and everything hanging off it is removed
type NodeDeleted struct {
	BaseEvent
	NodeID         valueobjects.NodeID `json:"node_id"`
	MapID          valueobjects.MapID  `json:"map_id"`
	EdgesRemoved   int                 `json:"edges_removed"`
	AliasesRemoved int                 `json:"aliases_removed"`
}

// NewNodeDeleted creates a NodeDeleted event
func NewNodeDeleted(nodeID valueobjects.NodeID, mapID valueobjects.MapID, edges, aliases int, at time.Time) NodeDeleted {
	return NodeDeleted{
		BaseEvent:      newBase(nodeID.String(), "node.deleted", at),
		NodeID:         nodeID,
		MapID:          mapID,
		EdgesRemoved:   edges,
		AliasesRemoved: aliases,
	}
}

// EdgeCreated is raised when an edge is committed
type EdgeCreated struct {
	BaseEvent
	EdgeID      valueobjects.EdgeID `json:"edge_id"`
	MapID       valueobjects.MapID  `json:"map_id"`
	Floor       valueobjects.Floor  `json:"floor"`
	StartNodeID valueobjects.NodeID `json:"start_node_id"`
	EndNodeID   valueobjects.NodeID `json:"end_node_id"`
	Weight      float64             `json:"weight"`
}

// NewEdgeCreated creates an EdgeCreated event
func NewEdgeCreated(edgeID valueobjects.EdgeID, mapID valueobjects.MapID, floor valueobjects.Floor, start, end valueobjects.NodeID, weight float64, at time.Time) EdgeCreated {
	return EdgeCreated{
		BaseEvent:   newBase(edgeID.String(), "edge.created", at),
		EdgeID:      edgeID,
		MapID:       mapID,
		Floor:       floor,
		StartNodeID: start,
		EndNodeID:   end,
		Weight:      weight,
	}
}

// EdgeUpdated is raised when an edge's geometry or direction changes
type EdgeUpdated struct {
	BaseEvent
	EdgeID        valueobjects.EdgeID `json:"edge_id"`
	Weight        float64             `json:"weight"`
	Bidirectional bool                `json:"bidirectional"`
}

// NewEdgeUpdated creates an EdgeUpdated event
func NewEdgeUpdated(edgeID valueobjects.EdgeID, weight float64, bidirectional bool, at time.Time) EdgeUpdated {
	return EdgeUpdated{
		BaseEvent:     newBase(edgeID.String(), "edge.updated", at),
		EdgeID:        edgeID,
		Weight:        weight,
		Bidirectional: bidirectional,
	}
}

// EdgeDeleted is raised when an edge is removed
type EdgeDeleted struct {
	BaseEvent
	EdgeID valueobjects.EdgeID `json:"edge_id"`
}

// NewEdgeDeleted creates an EdgeDeleted event
func NewEdgeDeleted(edgeID valueobjects.EdgeID, at time.Time) EdgeDeleted {
	return EdgeDeleted{BaseEvent: newBase(edgeID.String(), "edge.deleted", at), EdgeID: edgeID}
}

// AliasCreated is raised when a name is bound to a node
type AliasCreated struct {
	BaseEvent
	AliasID valueobjects.AliasID `json:"alias_id"`
	NodeID  valueobjects.NodeID  `json:"node_id"`
	Name    string               `json:"name"`
}

// NewAliasCreated creates an AliasCreated event
func NewAliasCreated(aliasID valueobjects.AliasID, nodeID valueobjects.NodeID, name string, at time.Time) AliasCreated {
	return AliasCreated{
		BaseEvent: newBase(aliasID.String(), "alias.created", at),
		AliasID:   aliasID,
		NodeID:    nodeID,
		Name:      name,
	}
}

// AliasDeleted is raised when an alias is removed
type AliasDeleted struct {
	BaseEvent
	AliasID valueobjects.AliasID `json:"alias_id"`
}

// NewAliasDeleted creates an AliasDeleted event
func NewAliasDeleted(aliasID valueobjects.AliasID, at time.Time) AliasDeleted {
	return AliasDeleted{BaseEvent: newBase(aliasID.String(), "alias.deleted", at), AliasID: aliasID}
}

// MapCleared is raised by the admin clear operation
type MapCleared struct {
	BaseEvent
	MapID      valueobjects.MapID `json:"map_id"`
	Nodes      int                `json:"nodes"`
	Edges      int                `json:"edges"`
	Aliases    int                `json:"aliases"`
	MapDeleted bool               `json:"map_deleted"`
}

// NewMapCleared creates a MapCleared event
func NewMapCleared(mapID valueobjects.MapID, nodes, edges, aliases int, mapDeleted bool, at time.Time) MapCleared {
	return MapCleared{
		BaseEvent:  newBase(mapID.String(), "map.cleared", at),
		MapID:      mapID,
		Nodes:      nodes,
		Edges:      edges,
		Aliases:    aliases,
		MapDeleted: mapDeleted,
	}
}
