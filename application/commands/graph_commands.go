// Package commands holds the state-changing operations of the graph API.
package commands

import (
	"wayfinder/application/ports"
	"wayfinder/domain/core/valueobjects"
	pkgerrors "wayfinder/pkg/errors"
	"wayfinder/pkg/utils"
)

// CreateMap creates a floor-plan map
type CreateMap struct {
	ports.CreateMapRequest
}

func (c CreateMap) Validate() error { return utils.ValidateStruct(c.CreateMapRequest) }

// CreateNode places a node
type CreateNode struct {
	ports.CreateNodeRequest
}

func (c CreateNode) Validate() error { return utils.ValidateStruct(c.CreateNodeRequest) }

// DeleteNode removes a node with its edges and aliases
type DeleteNode struct {
	NodeID valueobjects.NodeID `json:"node_id" validate:"required"`
}

func (c DeleteNode) Validate() error { return utils.ValidateStruct(c) }

// CreateEdge connects two nodes
type CreateEdge struct {
	ports.CreateEdgeRequest
}

func (c CreateEdge) Validate() error { return utils.ValidateStruct(c.CreateEdgeRequest) }

// UpdateEdge changes an edge's shape or direction
type UpdateEdge struct {
	EdgeID valueobjects.EdgeID `json:"edge_id" validate:"required"`
	ports.UpdateEdgeRequest
}

func (c UpdateEdge) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}
	if c.Polyline == nil && c.Bidirectional == nil {
		return pkgerrors.NewValidationError("nothing to update")
	}
	return nil
}

// DeleteEdge removes an edge
type DeleteEdge struct {
	EdgeID valueobjects.EdgeID `json:"edge_id" validate:"required"`
}

func (c DeleteEdge) Validate() error { return utils.ValidateStruct(c) }

// CreateAlias binds a name to a node
type CreateAlias struct {
	ports.CreateAliasRequest
}

func (c CreateAlias) Validate() error { return utils.ValidateStruct(c.CreateAliasRequest) }

// DeleteAlias removes an alias
type DeleteAlias struct {
	AliasID valueobjects.AliasID `json:"alias_id" validate:"required"`
}

func (c DeleteAlias) Validate() error { return utils.ValidateStruct(c) }

// ClearMap wipes a map's graph
type ClearMap struct {
	ports.ClearMapRequest
}

func (c ClearMap) Validate() error { return utils.ValidateStruct(c.ClearMapRequest) }
