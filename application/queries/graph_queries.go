// Package queries holds the read-only operations of the graph API.
package queries

import (
	"context"
	"fmt"
	"strings"

	"wayfinder/application/ports"
	"wayfinder/application/queries/bus"
	"wayfinder/application/services"
	"wayfinder/domain/core/entities"
	"wayfinder/domain/core/valueobjects"
	pkgerrors "wayfinder/pkg/errors"
	"wayfinder/pkg/utils"
)

// ListMaps returns every map
type ListMaps struct{}

func (ListMaps) Validate() error { return nil }

// GetMap returns one map
type GetMap struct {
	MapID valueobjects.MapID `json:"map_id" validate:"required"`
}

func (q GetMap) Validate() error { return utils.ValidateStruct(q) }

// ListNodes returns a map's nodes, optionally on one floor
type ListNodes struct {
	MapID valueobjects.MapID `json:"map_id" validate:"required"`
	Floor valueobjects.Floor `json:"floor" validate:"gte=0"`
}

func (q ListNodes) Validate() error { return utils.ValidateStruct(q) }

// GetNode returns one node
type GetNode struct {
	NodeID valueobjects.NodeID `json:"node_id" validate:"required"`
}

func (q GetNode) Validate() error { return utils.ValidateStruct(q) }

// ListEdges returns a map's edges, optionally on one floor
type ListEdges struct {
	MapID valueobjects.MapID `json:"map_id" validate:"required"`
	Floor valueobjects.Floor `json:"floor" validate:"gte=0"`
}

func (q ListEdges) Validate() error { return utils.ValidateStruct(q) }

// ListAliases returns a node's aliases
type ListAliases struct {
	NodeID valueobjects.NodeID `json:"node_id" validate:"required"`
}

func (q ListAliases) Validate() error { return utils.ValidateStruct(q) }

// SearchAliases ranks aliases against free text. A zero limit uses the
// configured default; larger limits are capped.
type SearchAliases struct {
	Query string `json:"q"`
	Limit int    `json:"limit" validate:"gte=0,lte=100"`
}

func (q SearchAliases) Validate() error { return utils.ValidateStruct(q) }

// Route asks for a path between two points of a map
type Route struct {
	ports.RouteRequest
}

func (q Route) Validate() error {
	if err := utils.ValidateStruct(q.RouteRequest); err != nil {
		return err
	}
	if q.StartID == nil && (q.CX == nil || q.CY == nil) {
		return pkgerrors.NewValidationError("start_id or cx and cy are required")
	}
	if q.EndID == nil && strings.TrimSpace(q.Query) == "" {
		return pkgerrors.NewValidationError("end_id or q is required")
	}
	return nil
}

type mapList struct {
	Items []*entities.Map `json:"items"`
}

// Register wires every graph query to the service
func Register(b *bus.QueryBus, svc *services.GraphService) error {
	handlers := []struct {
		query bus.Query
		fn    bus.QueryHandlerFunc
	}{
		{ListMaps{}, func(ctx context.Context, _ bus.Query) (interface{}, error) {
			maps, err := svc.ListMaps(ctx)
			if err != nil {
				return nil, err
			}
			if maps == nil {
				maps = []*entities.Map{}
			}
			return mapList{Items: maps}, nil
		}},
		{GetMap{}, func(ctx context.Context, q bus.Query) (interface{}, error) {
			return svc.GetMap(ctx, q.(GetMap).MapID)
		}},
		{ListNodes{}, func(ctx context.Context, q bus.Query) (interface{}, error) {
			query := q.(ListNodes)
			return svc.ListNodes(ctx, query.MapID, query.Floor)
		}},
		{GetNode{}, func(ctx context.Context, q bus.Query) (interface{}, error) {
			return svc.GetNode(ctx, q.(GetNode).NodeID)
		}},
		{ListEdges{}, func(ctx context.Context, q bus.Query) (interface{}, error) {
			query := q.(ListEdges)
			return svc.ListEdges(ctx, query.MapID, query.Floor)
		}},
		{ListAliases{}, func(ctx context.Context, q bus.Query) (interface{}, error) {
			return svc.ListAliases(ctx, q.(ListAliases).NodeID)
		}},
		{SearchAliases{}, func(ctx context.Context, q bus.Query) (interface{}, error) {
			query := q.(SearchAliases)
			return svc.SearchAliases(ctx, query.Query, query.Limit)
		}},
		{Route{}, func(ctx context.Context, q bus.Query) (interface{}, error) {
			return svc.Route(ctx, q.(Route).RouteRequest)
		}},
	}

	for _, h := range handlers {
		if err := b.Register(h.query, h.fn); err != nil {
			return fmt.Errorf("register %T: %w", h.query, err)
		}
	}
	return nil
}
