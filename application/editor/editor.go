package editor

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"wayfinder/application/ports"
	"wayfinder/domain/config"
	"wayfinder/domain/core/entities"
	"wayfinder/domain/core/valueobjects"
	"wayfinder/domain/geometry"
	pkgerrors "wayfinder/pkg/errors"
)

// Outcome describes what a command changed on the backend
type Outcome struct {
	// Reload is set when the active floor must be reloaded
	Reload bool
	Node   *entities.Node
	Alias  *entities.Alias
	Edge   *entities.Edge
	// AliasErr holds an alias failure after a successful node placement
	AliasErr error
}

// Editor is the edge-drawing state machine. It is not safe for
// concurrent use; the session serializes access.
type Editor struct {
	writer ports.GraphWriter
	locker ports.Locker
	cfg    *config.DomainConfig
	logger *zap.Logger
	state  State
}

// New creates an idle editor. locker may be nil.
func New(writer ports.GraphWriter, locker ports.Locker, cfg *config.DomainConfig, logger *zap.Logger) *Editor {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Editor{
		writer: writer,
		locker: locker,
		cfg:    cfg,
		logger: logger,
	}
}

// State returns a copy of the current state
func (e *Editor) State() State {
	return e.state.clone()
}

// View projects the current state for rendering
func (e *Editor) View() View {
	return Project(e.state)
}

// EnterAddNode switches to node placement, dropping any edge in progress
func (e *Editor) EnterAddNode() {
	e.state = State{Mode: ModePlacingNode}
}

// EnterDrawEdge starts a new edge with nothing selected
func (e *Editor) EnterDrawEdge() {
	e.state = State{Mode: ModeDrawingEdge}
}

// Cancel discards everything in progress
func (e *Editor) Cancel() {
	e.state = State{Mode: ModeIdle}
}

// Reset is called when the active map or floor changes
func (e *Editor) Reset() {
	e.Cancel()
}

// Undo removes the last drawn point. The seed point stays.
func (e *Editor) Undo() bool {
	if e.state.Mode != ModeDrawingEdge || len(e.state.Points) <= 1 {
		return false
	}
	e.state.Points = e.state.Points[:len(e.state.Points)-1]
	return true
}

// Click hit-tests the snapshot and dispatches to ClickNode or ClickCanvas
func (e *Editor) Click(ctx context.Context, ws Workspace, p valueobjects.Point, spec NodeSpec) (Outcome, error) {
	if ws.Snapshot != nil && e.state.Mode == ModeDrawingEdge {
		if id, ok := ws.Snapshot.NearestNode(p, e.cfg.NodeHitRadius); ok {
			return e.ClickNode(ctx, ws, id)
		}
	}
	return e.ClickCanvas(ctx, ws, p, spec)
}

// ClickCanvas handles a click on empty image space
func (e *Editor) ClickCanvas(ctx context.Context, ws Workspace, p valueobjects.Point, spec NodeSpec) (Outcome, error) {
	switch e.state.Mode {
	case ModePlacingNode:
		return e.placeNode(ctx, ws, p, spec)
	case ModeDrawingEdge:
		if e.state.HasStart() {
			e.state.Points = append(e.state.Points, p)
		}
	}
	return Outcome{}, nil
}

// ClickNode handles a click on an existing node
func (e *Editor) ClickNode(ctx context.Context, ws Workspace, id valueobjects.NodeID) (Outcome, error) {
	if e.state.Mode != ModeDrawingEdge {
		return Outcome{}, nil
	}
	if ws.Snapshot == nil {
		return Outcome{}, pkgerrors.NewValidationError("no floor loaded")
	}
	node, ok := ws.Snapshot.Node(id)
	if !ok {
		return Outcome{}, pkgerrors.NewValidationError("node " + id.String() + " is not on the active floor")
	}

	if !e.state.HasStart() {
		e.state.Start = id
		e.state.Points = []valueobjects.Point{node.Position()}
		return Outcome{}, nil
	}
	if id == e.state.Start {
		return Outcome{}, pkgerrors.NewValidationError("an edge cannot end at its start node").WithCode("SELF_LOOP")
	}
	return e.finalize(ctx, ws, id)
}

// AutoFinish ends the edge at the node nearest to the last drawn point
func (e *Editor) AutoFinish(ctx context.Context, ws Workspace) (Outcome, error) {
	if !e.state.CanFinish() {
		return Outcome{}, pkgerrors.NewValidationError("finishing needs a start node and at least two points")
	}
	if ws.Snapshot == nil {
		return Outcome{}, pkgerrors.NewValidationError("no floor loaded")
	}

	last := e.state.Points[len(e.state.Points)-1]
	target, ok := ws.Snapshot.NearestNode(last, e.cfg.AutoFinishTolerance)
	if !ok || target == e.state.Start {
		return Outcome{}, pkgerrors.NewNotFoundError("destination").WithMessage("no destination nearby")
	}
	return e.finalize(ctx, ws, target)
}

func (e *Editor) finalize(ctx context.Context, ws Workspace, target valueobjects.NodeID) (Outcome, error) {
	start, ok := ws.Snapshot.Node(e.state.Start)
	if !ok {
		return Outcome{}, pkgerrors.NewValidationError("start node is not on the active floor")
	}
	end, ok := ws.Snapshot.Node(target)
	if !ok {
		return Outcome{}, pkgerrors.NewValidationError("target node is not on the active floor")
	}
	if start.ID() == end.ID() {
		return Outcome{}, pkgerrors.NewValidationError("an edge cannot end at its start node").WithCode("SELF_LOOP")
	}

	points := append([]valueobjects.Point(nil), e.state.Points...)
	if n := len(points); n == 0 || !points[n-1].Equals(end.Position()) {
		points = append(points, end.Position())
	}
	if len(points) < 2 {
		points = geometry.Segment(start.Position(), end.Position())
	}

	floor := ws.Floor
	if !floor.IsSet() {
		floor = start.Floor()
	}

	req := ports.CreateEdgeRequest{
		MapID:         ws.MapID,
		StartNodeID:   start.ID(),
		EndNodeID:     end.ID(),
		Floor:         floor.OrDefault(),
		Polyline:      geometry.Simplify(points, e.cfg.AngleEpsilonDegrees, e.cfg.DistanceEpsilon),
		Bidirectional: true,
	}

	release, err := e.acquire(ctx, ws)
	if err != nil {
		return Outcome{}, err
	}
	defer release()

	edge, err := e.writer.CreateEdge(ctx, req)
	if err != nil {
		e.logger.Warn("edge creation failed",
			zap.String("mapID", ws.MapID.String()),
			zap.String("startNodeID", start.ID().String()),
			zap.String("endNodeID", end.ID().String()),
			zap.Error(err),
		)
		return Outcome{}, pkgerrors.NewPersistenceError("create edge", err)
	}

	e.logger.Info("edge created",
		zap.String("edgeID", edge.ID().String()),
		zap.Int("points", len(req.Polyline)),
	)
	e.state = State{Mode: ModeIdle}
	return Outcome{Reload: true, Edge: edge}, nil
}

func (e *Editor) placeNode(ctx context.Context, ws Workspace, p valueobjects.Point, spec NodeSpec) (Outcome, error) {
	if ws.MapID.IsZero() {
		return Outcome{}, pkgerrors.NewValidationError("no map selected")
	}

	release, err := e.acquire(ctx, ws)
	if err != nil {
		return Outcome{}, err
	}
	defer release()

	node, err := e.writer.CreateNode(ctx, ports.CreateNodeRequest{
		MapID:      ws.MapID,
		X:          p.X,
		Y:          p.Y,
		Floor:      ws.Floor.OrDefault(),
		IsLandmark: spec.Landmark,
	})
	if err != nil {
		return Outcome{}, pkgerrors.NewPersistenceError("create node", err)
	}
	out := Outcome{Reload: true, Node: node}

	name := strings.TrimSpace(spec.Alias)
	if name == "" {
		return out, nil
	}
	alias, err := e.writer.CreateAlias(ctx, ports.CreateAliasRequest{NodeID: node.ID(), Name: name})
	if err != nil {
		// The node stays even when its alias is rejected.
		e.logger.Warn("alias creation failed after node placement",
			zap.String("nodeID", node.ID().String()),
			zap.String("alias", name),
			zap.Error(err),
		)
		out.AliasErr = pkgerrors.NewPersistenceError("create alias", err)
		return out, nil
	}
	out.Alias = alias
	return out, nil
}

func (e *Editor) acquire(ctx context.Context, ws Workspace) (func(), error) {
	if e.locker == nil {
		return func() {}, nil
	}
	return e.locker.TryAcquire(ctx, ports.GraphLockKey(ws.MapID, ws.Floor))
}
