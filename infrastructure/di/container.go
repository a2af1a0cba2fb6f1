package di

import (
	"net/http"

	"go.uber.org/zap"

	"wayfinder/application/session"
	"wayfinder/infrastructure/config"
	"wayfinder/pkg/observability"
)

// Server holds what the API binaries need
type Server struct {
	Config  *config.Config
	Logger  *zap.Logger
	Handler http.Handler
	Tracer  *observability.Tracer
}

// Editor holds what the editor console needs
type Editor struct {
	Config  *config.Config
	Logger  *zap.Logger
	Session *session.Session
}
