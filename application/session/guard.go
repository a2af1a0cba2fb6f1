package session

import (
	"context"
	"sync"

	pkgerrors "wayfinder/pkg/errors"
)

// Guard is an in-process ports.Locker. A key is held until its release
// func is called; a second acquire on a held key fails immediately.
type Guard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewGuard creates an empty guard
func NewGuard() *Guard {
	return &Guard{held: make(map[string]struct{})}
}

// TryAcquire takes the key or returns a ConflictError
func (g *Guard) TryAcquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.held[key]; busy {
		return nil, pkgerrors.NewConflictError("operation in progress").
			WithDetails(map[string]interface{}{"key": key})
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}

// Held reports whether a key is currently taken
func (g *Guard) Held(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.held[key]
	return ok
}
