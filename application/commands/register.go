package commands

import (
	"context"
	"fmt"

	"wayfinder/application/commands/bus"
	"wayfinder/application/services"
)

type okResult struct {
	OK bool `json:"ok"`
}

// Register wires every graph command to the service
func Register(b *bus.CommandBus, svc *services.GraphService) error {
	handlers := []struct {
		cmd bus.Command
		fn  bus.CommandHandlerFunc
	}{
		{CreateMap{}, func(ctx context.Context, c bus.Command) (interface{}, error) {
			return svc.CreateMap(ctx, c.(CreateMap).CreateMapRequest)
		}},
		{CreateNode{}, func(ctx context.Context, c bus.Command) (interface{}, error) {
			return svc.CreateNode(ctx, c.(CreateNode).CreateNodeRequest)
		}},
		{DeleteNode{}, func(ctx context.Context, c bus.Command) (interface{}, error) {
			return ok(svc.DeleteNode(ctx, c.(DeleteNode).NodeID))
		}},
		{CreateEdge{}, func(ctx context.Context, c bus.Command) (interface{}, error) {
			return svc.CreateEdge(ctx, c.(CreateEdge).CreateEdgeRequest)
		}},
		{UpdateEdge{}, func(ctx context.Context, c bus.Command) (interface{}, error) {
			cmd := c.(UpdateEdge)
			return svc.UpdateEdge(ctx, cmd.EdgeID, cmd.UpdateEdgeRequest)
		}},
		{DeleteEdge{}, func(ctx context.Context, c bus.Command) (interface{}, error) {
			return ok(svc.DeleteEdge(ctx, c.(DeleteEdge).EdgeID))
		}},
		{CreateAlias{}, func(ctx context.Context, c bus.Command) (interface{}, error) {
			return svc.CreateAlias(ctx, c.(CreateAlias).CreateAliasRequest)
		}},
		{DeleteAlias{}, func(ctx context.Context, c bus.Command) (interface{}, error) {
			return ok(svc.DeleteAlias(ctx, c.(DeleteAlias).AliasID))
		}},
		{ClearMap{}, func(ctx context.Context, c bus.Command) (interface{}, error) {
			return svc.ClearMap(ctx, c.(ClearMap).ClearMapRequest)
		}},
	}

	for _, h := range handlers {
		if err := b.Register(h.cmd, h.fn); err != nil {
			return fmt.Errorf("register %T: %w", h.cmd, err)
		}
	}
	return nil
}

func ok(err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}
