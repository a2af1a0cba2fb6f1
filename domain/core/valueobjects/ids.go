package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// MapID identifies a floor-plan map
type MapID string

// NodeID identifies a graph node
type NodeID string

// EdgeID identifies a graph edge
type EdgeID string

// AliasID identifies a node alias
type AliasID string

// NewMapID creates a new random MapID
func NewMapID() MapID { return MapID(uuid.New().String()) }

// NewNodeID creates a new random NodeID
func NewNodeID() NodeID { return NodeID(uuid.New().String()) }

// NewEdgeID creates a new random EdgeID
func NewEdgeID() EdgeID { return EdgeID(uuid.New().String()) }

// NewAliasID creates a new random AliasID
func NewAliasID() AliasID { return AliasID(uuid.New().String()) }

func (id MapID) String() string   { return string(id) }
func (id NodeID) String() string  { return string(id) }
func (id EdgeID) String() string  { return string(id) }
func (id AliasID) String() string { return string(id) }

// IsZero reports whether the id is unset
func (id MapID) IsZero() bool { return id == "" }

// IsZero reports whether the id is unset
func (id NodeID) IsZero() bool { return id == "" }

// ParseMapID validates a map id coming from outside
func ParseMapID(s string) (MapID, error) {
	if s == "" {
		return "", errors.New("map ID cannot be empty")
	}
	return MapID(s), nil
}

// ParseNodeID validates a node id coming from outside
func ParseNodeID(s string) (NodeID, error) {
	if s == "" {
		return "", errors.New("node ID cannot be empty")
	}
	return NodeID(s), nil
}
