// Package editor turns pointer clicks into node and edge records.
package editor

import (
	"wayfinder/domain/core/aggregates"
	"wayfinder/domain/core/valueobjects"
)

// Mode is the interaction mode of the editor
type Mode int

const (
	ModeIdle Mode = iota
	ModePlacingNode
	ModeDrawingEdge
)

func (m Mode) String() string {
	switch m {
	case ModePlacingNode:
		return "placing_node"
	case ModeDrawingEdge:
		return "drawing_edge"
	default:
		return "idle"
	}
}

// State is the editor's complete interaction state.
// Start and Points are only meaningful in ModeDrawingEdge.
type State struct {
	Mode   Mode
	Start  valueobjects.NodeID
	Points []valueobjects.Point
}

// HasStart reports whether an edge start node has been picked
func (s State) HasStart() bool {
	return s.Mode == ModeDrawingEdge && !s.Start.IsZero()
}

// CanFinish reports whether AutoFinish may be attempted
func (s State) CanFinish() bool {
	return s.HasStart() && len(s.Points) >= 2
}

func (s State) clone() State {
	s.Points = append([]valueobjects.Point(nil), s.Points...)
	return s
}

// Workspace is the active map floor the editor operates on
type Workspace struct {
	MapID    valueobjects.MapID
	Floor    valueobjects.Floor
	Snapshot *aggregates.Snapshot
}

// NodeSpec carries the choices made when placing a node
type NodeSpec struct {
	Landmark bool
	Alias    string
}

// View is a render-ready projection of the editor state
type View struct {
	Mode         string               `json:"mode"`
	StartNode    valueobjects.NodeID  `json:"start_node,omitempty"`
	TempPolyline []valueobjects.Point `json:"temp_polyline,omitempty"`
	CanFinish    bool                 `json:"can_finish"`
}

// Project renders a state without touching the editor
func Project(s State) View {
	return View{
		Mode:         s.Mode.String(),
		StartNode:    s.Start,
		TempPolyline: append([]valueobjects.Point(nil), s.Points...),
		CanFinish:    s.CanFinish(),
	}
}
