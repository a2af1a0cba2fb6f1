package ports

import (
	"wayfinder/domain/core/valueobjects"
)

// CreateMapRequest describes a new floor-plan map
type CreateMapRequest struct {
	Name           string  `json:"name" validate:"required,max=200"`
	Width          int     `json:"width" validate:"required,gt=0"`
	Height         int     `json:"height" validate:"required,gt=0"`
	PixelsPerMeter float64 `json:"pixels_per_meter" validate:"gte=0"`
	ImageURL       string  `json:"image_url,omitempty" validate:"omitempty,max=2048"`
}

// CreateNodeRequest places a node on a map floor
type CreateNodeRequest struct {
	MapID      valueobjects.MapID `json:"map_id" validate:"required"`
	X          float64            `json:"x"`
	Y          float64            `json:"y"`
	Floor      valueobjects.Floor `json:"floor,omitempty" validate:"gte=0"`
	IsLandmark bool               `json:"is_landmark"`
}

// CreateEdgeRequest connects two nodes with a polyline.
// A zero floor lets the server use the floor the nodes share.
type CreateEdgeRequest struct {
	MapID         valueobjects.MapID    `json:"map_id" validate:"required"`
	StartNodeID   valueobjects.NodeID   `json:"start_node_id" validate:"required"`
	EndNodeID     valueobjects.NodeID   `json:"end_node_id" validate:"required,nefield=StartNodeID"`
	Floor         valueobjects.Floor    `json:"floor,omitempty" validate:"gte=0"`
	Polyline      valueobjects.Polyline `json:"polyline"`
	Bidirectional bool                  `json:"bidirectional"`
}

// UpdateEdgeRequest changes the shape or direction of an edge.
// Nil fields are left untouched.
type UpdateEdgeRequest struct {
	Polyline      valueobjects.Polyline `json:"polyline,omitempty"`
	Bidirectional *bool                 `json:"bidirectional,omitempty"`
}

// CreateAliasRequest binds a name to a node
type CreateAliasRequest struct {
	NodeID valueobjects.NodeID `json:"node_id" validate:"required"`
	Name   string              `json:"name" validate:"required"`
	Lang   string              `json:"lang,omitempty" validate:"omitempty,max=16"`
	Weight float64             `json:"weight,omitempty" validate:"gte=0"`
}

// AliasMatch is one alias search hit
type AliasMatch struct {
	NodeID  valueobjects.NodeID  `json:"node_id"`
	AliasID valueobjects.AliasID `json:"alias_id"`
	Name    string               `json:"name"`
	Score   float64              `json:"score"`
}

// ClearMapRequest removes a map's graph and optionally the map itself
type ClearMapRequest struct {
	MapID     valueobjects.MapID `json:"map_id" validate:"required"`
	DeleteMap bool               `json:"delete_map"`
}

// ClearMapResult reports what a clear removed
type ClearMapResult struct {
	OK      bool         `json:"ok"`
	Deleted ClearedCount `json:"deleted"`
}

// ClearedCount holds per-kind deletion counts
type ClearedCount struct {
	Aliases int  `json:"aliases"`
	Edges   int  `json:"edges"`
	Nodes   int  `json:"nodes"`
	Map     bool `json:"map"`
}

// RouteRequest asks for a route. The origin is a node or a point,
// the destination a node or a free-text query.
type RouteRequest struct {
	MapID   valueobjects.MapID   `json:"map_id" validate:"required"`
	StartID *valueobjects.NodeID `json:"start_id,omitempty"`
	EndID   *valueobjects.NodeID `json:"end_id,omitempty"`
	Query   string               `json:"q,omitempty"`
	CX      *float64             `json:"cx,omitempty"`
	CY      *float64             `json:"cy,omitempty"`
}

// Instruction kinds
const (
	InstructionStraight = "straight"
	InstructionLeft     = "left"
	InstructionRight    = "right"
)

// Instruction is one turn-by-turn step
type Instruction struct {
	Kind       string  `json:"kind"`
	Text       string  `json:"text"`
	AtIndex    int     `json:"at_index"`
	DistancePx float64 `json:"distance_px"`
}

// RouteResult is the routing service's answer
type RouteResult struct {
	PathNodeIDs  []valueobjects.NodeID `json:"path_node_ids"`
	Polyline     valueobjects.Polyline `json:"polyline"`
	LengthPx     float64               `json:"length_px"`
	Instructions []Instruction         `json:"instructions"`
}
