//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"wayfinder/infrastructure/config"
)

// CoreSet provides the graph service and everything below it
var CoreSet = wire.NewSet(
	ProvideLogger,
	ProvideTracer,
	ProvideMetrics,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideGraphStore,
	ProvideEventPublisher,
	ProvideGraphService,
)

// ServerSet adds the CQRS buses and the HTTP surface
var ServerSet = wire.NewSet(
	CoreSet,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideHTTPHandler,
	wire.Struct(new(Server), "*"),
)

// EditorSet adds the editing session
var EditorSet = wire.NewSet(
	CoreSet,
	ProvideBackend,
	ProvideLocker,
	ProvideSession,
	wire.Struct(new(Editor), "*"),
)

// InitializeServer creates a fully wired API server
func InitializeServer(ctx context.Context, cfg *config.Config) (*Server, func(), error) {
	wire.Build(ServerSet)
	return nil, nil, nil
}

// InitializeEditor creates a fully wired editing session
func InitializeEditor(ctx context.Context, cfg *config.Config) (*Editor, func(), error) {
	wire.Build(EditorSet)
	return nil, nil, nil
}
