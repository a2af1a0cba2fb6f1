package session

import (
	"wayfinder/application/editor"
	"wayfinder/domain/core/valueobjects"
)

// View is everything a renderer needs to draw the session
type View struct {
	MapID   valueobjects.MapID   `json:"map_id,omitempty"`
	MapName string               `json:"map_name,omitempty"`
	Floor   valueobjects.Floor   `json:"floor,omitempty"`
	Floors  []valueobjects.Floor `json:"floors"`
	Nodes   int                  `json:"nodes"`
	Edges   int                  `json:"edges"`
	Editor  editor.View          `json:"editor"`
}

// View projects the session state for rendering
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Floor:  s.floor,
		Floors: append([]valueobjects.Floor(nil), s.floors...),
		Editor: s.editor.View(),
	}
	if s.active != nil {
		v.MapID = s.active.ID()
		v.MapName = s.active.Name()
	}
	if s.snapshot != nil {
		v.Nodes = s.snapshot.NodeCount()
		v.Edges = s.snapshot.EdgeCount()
	}
	return v
}
