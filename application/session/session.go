// Package session coordinates the active map, floor and graph snapshot
// of one editing session and routes editor commands through them.
package session

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"wayfinder/application/editor"
	"wayfinder/application/ports"
	"wayfinder/domain/config"
	"wayfinder/domain/core/aggregates"
	"wayfinder/domain/core/entities"
	"wayfinder/domain/core/valueobjects"
	pkgerrors "wayfinder/pkg/errors"
)

// Session holds the active map, floor and snapshot. All methods are safe
// for concurrent use; calls are serialized in arrival order.
type Session struct {
	mu sync.Mutex

	backend ports.Backend
	locker  ports.Locker
	editor  *editor.Editor
	cfg     *config.DomainConfig
	logger  *zap.Logger

	active   *entities.Map
	floor    valueobjects.Floor
	floors   []valueobjects.Floor
	snapshot *aggregates.Snapshot
	closed   bool
}

// New creates a session with no map selected. locker may be nil, in which
// case the session guards itself with a private Guard.
func New(backend ports.Backend, locker ports.Locker, cfg *config.DomainConfig, logger *zap.Logger) *Session {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = NewGuard()
	}
	return &Session{
		backend: backend,
		locker:  locker,
		editor:  editor.New(backend, locker, cfg, logger),
		cfg:     cfg,
		logger:  logger,
	}
}

// Maps lists the maps available to select
func (s *Session) Maps(ctx context.Context) ([]*entities.Map, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	maps, err := s.backend.ListMaps(ctx)
	if err != nil {
		return nil, pkgerrors.NewLoadError("maps", err)
	}
	return maps, nil
}

// SelectMap makes a map active on its preferred floor. Nothing changes
// unless the map, its floors and the floor's graph all load.
func (s *Session) SelectMap(ctx context.Context, id valueobjects.MapID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if id.IsZero() {
		return pkgerrors.NewValidationError("map ID cannot be empty")
	}

	m, err := s.backend.GetMap(ctx, id)
	if err != nil {
		return pkgerrors.NewLoadError("map "+id.String(), err)
	}
	floors, err := aggregates.FloorsForMap(ctx, s.backend, id)
	if err != nil {
		return err
	}
	floor := valueobjects.PreferredFloor(floors)
	snap, err := aggregates.LoadSnapshot(ctx, s.backend, id, floor)
	if err != nil {
		return err
	}

	s.active = m
	s.floors = floors
	s.commit(floor, snap)
	s.logger.Info("map selected",
		zap.String("mapID", id.String()),
		zap.Int("floor", floor.Int()),
		zap.Int("floors", len(floors)),
	)
	return nil
}

// SelectFloor switches to a known floor of the active map
func (s *Session) SelectFloor(ctx context.Context, floor valueobjects.Floor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMap(); err != nil {
		return err
	}
	if !valueobjects.ContainsFloor(s.floors, floor) {
		return pkgerrors.NewValidationError("unknown floor; add it first").
			WithDetails(map[string]interface{}{"floor": floor.Int()})
	}

	snap, err := aggregates.LoadSnapshot(ctx, s.backend, s.active.ID(), floor)
	if err != nil {
		return err
	}
	s.commit(floor, snap)
	return nil
}

// AddFloor registers a floor label and selects it
func (s *Session) AddFloor(ctx context.Context, floor valueobjects.Floor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMap(); err != nil {
		return err
	}
	if floor <= 0 {
		return pkgerrors.NewValidationError("floor must be a positive integer")
	}

	snap, err := aggregates.LoadSnapshot(ctx, s.backend, s.active.ID(), floor)
	if err != nil {
		return err
	}
	s.floors = valueobjects.InsertFloor(s.floors, floor)
	s.commit(floor, snap)
	s.logger.Info("floor added", zap.String("mapID", s.active.ID().String()), zap.Int("floor", floor.Int()))
	return nil
}

// Reload refreshes the active floor from the backend
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMap(); err != nil {
		return err
	}
	return s.reloadLocked(ctx)
}

// Dispose ends the session. Later calls fail.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor.Reset()
	s.active = nil
	s.floors = nil
	s.snapshot = nil
	s.closed = true
}

// EnterAddNode switches the editor to node placement
func (s *Session) EnterAddNode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor.EnterAddNode()
}

// EnterDrawEdge starts drawing a new edge
func (s *Session) EnterDrawEdge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor.EnterDrawEdge()
}

// Cancel discards the editor's in-progress work
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor.Cancel()
}

// Undo removes the last drawn point
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Undo()
}

// Click forwards a pointer click in image coordinates to the editor
func (s *Session) Click(ctx context.Context, p valueobjects.Point, spec editor.NodeSpec) (editor.Outcome, error) {
	return s.run(ctx, func(ws editor.Workspace) (editor.Outcome, error) {
		return s.editor.Click(ctx, ws, p, spec)
	})
}

// ClickCanvas forwards a click on empty space
func (s *Session) ClickCanvas(ctx context.Context, p valueobjects.Point, spec editor.NodeSpec) (editor.Outcome, error) {
	return s.run(ctx, func(ws editor.Workspace) (editor.Outcome, error) {
		return s.editor.ClickCanvas(ctx, ws, p, spec)
	})
}

// ClickNode forwards a click on a node
func (s *Session) ClickNode(ctx context.Context, id valueobjects.NodeID) (editor.Outcome, error) {
	return s.run(ctx, func(ws editor.Workspace) (editor.Outcome, error) {
		return s.editor.ClickNode(ctx, ws, id)
	})
}

// AutoFinish ends the edge at the nearest node
func (s *Session) AutoFinish(ctx context.Context) (editor.Outcome, error) {
	return s.run(ctx, func(ws editor.Workspace) (editor.Outcome, error) {
		return s.editor.AutoFinish(ctx, ws)
	})
}

// AddAlias names a node on the active floor
func (s *Session) AddAlias(ctx context.Context, nodeID valueobjects.NodeID, name string) (*entities.Alias, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMap(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.NewValidationError("alias name cannot be empty")
	}
	if _, ok := s.snapshot.Node(nodeID); !ok {
		return nil, pkgerrors.NewValidationError("node " + nodeID.String() + " is not on the active floor")
	}

	release, err := s.locker.TryAcquire(ctx, ports.GraphLockKey(s.active.ID(), s.floor))
	if err != nil {
		return nil, err
	}
	alias, err := s.backend.CreateAlias(ctx, ports.CreateAliasRequest{NodeID: nodeID, Name: name})
	release()
	if err != nil {
		return nil, pkgerrors.NewPersistenceError("create alias", err)
	}
	return alias, s.reloadLocked(ctx)
}

// DeleteAlias removes an alias and reloads the floor
func (s *Session) DeleteAlias(ctx context.Context, id valueobjects.AliasID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMap(); err != nil {
		return err
	}

	release, err := s.locker.TryAcquire(ctx, ports.GraphLockKey(s.active.ID(), s.floor))
	if err != nil {
		return err
	}
	err = s.backend.DeleteAlias(ctx, id)
	release()
	if err != nil {
		return pkgerrors.NewPersistenceError("delete alias", err)
	}
	return s.reloadLocked(ctx)
}

// SearchAliases looks nodes up by name. A non-positive limit uses the default.
func (s *Session) SearchAliases(ctx context.Context, query string, limit int) ([]ports.AliasMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = s.cfg.DefaultSearchLimit
	}
	if limit > s.cfg.MaxSearchLimit {
		limit = s.cfg.MaxSearchLimit
	}
	return s.backend.SearchAliases(ctx, query, limit)
}

// Route asks the routing service for a path on the active map
func (s *Session) Route(ctx context.Context, req ports.RouteRequest) (*ports.RouteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if req.MapID.IsZero() {
		if s.active == nil {
			return nil, pkgerrors.NewValidationError("no map selected")
		}
		req.MapID = s.active.ID()
	}
	if req.EndID == nil && strings.TrimSpace(req.Query) == "" {
		return nil, pkgerrors.NewValidationError("a destination node or query is required")
	}
	return s.backend.Route(ctx, req)
}

// Snapshot returns the active snapshot, or nil before a map is selected
func (s *Session) Snapshot() *aggregates.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// ActiveMap returns the selected map, or nil
func (s *Session) ActiveMap() *entities.Map {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Floor returns the active floor, zero before a map is selected
func (s *Session) Floor() valueobjects.Floor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.floor
}

// Floors returns the known floors of the active map in ascending order
func (s *Session) Floors() []valueobjects.Floor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]valueobjects.Floor(nil), s.floors...)
}

// EditorState returns a copy of the editor state
func (s *Session) EditorState() editor.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.State()
}

func (s *Session) run(ctx context.Context, cmd func(editor.Workspace) (editor.Outcome, error)) (editor.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return editor.Outcome{}, err
	}

	out, err := cmd(s.workspace())
	if err != nil || !out.Reload {
		return out, err
	}
	if err := s.reloadLocked(ctx); err != nil {
		return out, err
	}
	return out, nil
}

func (s *Session) workspace() editor.Workspace {
	ws := editor.Workspace{Floor: s.floor, Snapshot: s.snapshot}
	if s.active != nil {
		ws.MapID = s.active.ID()
	}
	return ws
}

func (s *Session) reloadLocked(ctx context.Context) error {
	snap, err := aggregates.LoadSnapshot(ctx, s.backend, s.active.ID(), s.floor)
	if err != nil {
		s.logger.Warn("floor reload failed",
			zap.String("mapID", s.active.ID().String()),
			zap.Int("floor", s.floor.Int()),
			zap.Error(err),
		)
		return err
	}
	s.snapshot = snap
	return nil
}

// commit installs a newly loaded floor and drops any edit in progress
func (s *Session) commit(floor valueobjects.Floor, snap *aggregates.Snapshot) {
	s.floor = floor
	s.snapshot = snap
	s.editor.Reset()
}

func (s *Session) checkOpen() error {
	if s.closed {
		return pkgerrors.NewValidationError("session is closed")
	}
	return nil
}

func (s *Session) checkMap() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.active == nil {
		return pkgerrors.NewValidationError("no map selected")
	}
	return nil
}
