package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"wayfinder/application/ports"
	"wayfinder/application/services"
	"wayfinder/application/session"
	"wayfinder/domain/core/entities"
	"wayfinder/infrastructure/persistence/memory"
	pkgerrors "wayfinder/pkg/errors"
)

func init() {
	color.NoColor = true
}

type consoleHarness struct {
	console *Console
	sess    *session.Session
	svc     *services.GraphService
	out     *bytes.Buffer
	m       *entities.Map
}

func newConsoleHarness(t *testing.T) *consoleHarness {
	t.Helper()
	logger := zaptest.NewLogger(t)
	svc := services.NewGraphService(memory.NewStore(), nil, nil, nil, logger)
	m, err := svc.CreateMap(context.Background(), ports.CreateMapRequest{Name: "Library", Width: 800, Height: 600})
	require.NoError(t, err)

	sess := session.New(svc, nil, nil, logger)
	t.Cleanup(sess.Dispose)
	out := &bytes.Buffer{}
	return &consoleHarness{console: NewConsole(sess, out, logger), sess: sess, svc: svc, out: out, m: m}
}

func (h *consoleHarness) exec(t *testing.T, line string) string {
	t.Helper()
	words, err := splitLine(line)
	require.NoError(t, err)
	h.out.Reset()
	require.NoError(t, h.console.Execute(context.Background(), words), line)
	return h.out.String()
}

func TestConsoleMapsAndSelect(t *testing.T) {
	h := newConsoleHarness(t)

	out := h.exec(t, "maps")
	assert.Contains(t, out, "Library")
	assert.Contains(t, out, "800x600")

	out = h.exec(t, "select "+h.m.ID().String())
	assert.Contains(t, out, "Library floor 1 of [1]: 0 nodes, 0 edges")

	out = h.exec(t, "add-floor 3")
	assert.Contains(t, out, "floor 3 of [1,3]")

	out = h.exec(t, "floor 1")
	assert.Contains(t, out, "floor 1 of [1,3]")

	err := h.console.Execute(context.Background(), []string{"floor", "7"})
	assert.True(t, pkgerrors.IsValidation(err))
	err = h.console.Execute(context.Background(), []string{"floor", "two"})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestConsoleDrawsGraph(t *testing.T) {
	h := newConsoleHarness(t)
	h.exec(t, "select "+h.m.ID().String())

	h.exec(t, "node")
	out := h.exec(t, `click 100 100 --alias "Main Hall" --landmark`)
	assert.Contains(t, out, "✓ node")
	assert.Contains(t, out, `alias "Main Hall"`)

	h.exec(t, "node")
	h.exec(t, "click 300 100")

	nodes := h.sess.Snapshot().Nodes()
	require.Len(t, nodes, 2)
	var hall, other *entities.Node
	for _, n := range nodes {
		if n.IsLandmark() {
			hall = n
		} else {
			other = n
		}
	}
	require.NotNil(t, hall)
	require.NotNil(t, other)

	out = h.exec(t, "nodes")
	assert.Contains(t, out, "Main Hall")
	assert.Contains(t, out, "★")

	h.exec(t, "edge")
	h.exec(t, "pick "+hall.ID().String())
	out = h.exec(t, "click 200 150")
	assert.Contains(t, out, "drawing: 2 points")
	out = h.exec(t, "undo")
	assert.Contains(t, out, "point removed")
	h.exec(t, "click 200 150")

	out = h.exec(t, "pick "+other.ID().String())
	assert.Contains(t, out, "✓ edge")
	assert.Equal(t, 1, h.sess.View().Edges)
	assert.Equal(t, "idle", h.sess.View().Editor.Mode)

	out = h.exec(t, "edges")
	assert.Contains(t, out, hall.ID().String())
	assert.Contains(t, out, other.ID().String())

	out = h.exec(t, "view")
	assert.Contains(t, out, "graph  2 nodes, 1 edges")
	assert.Contains(t, out, "mode   idle")

	out = h.exec(t, "view --json")
	assert.Contains(t, out, `"map_name": "Library"`)
}

func TestConsoleAliases(t *testing.T) {
	h := newConsoleHarness(t)
	ctx := context.Background()
	h.exec(t, "select "+h.m.ID().String())
	h.exec(t, "node")
	h.exec(t, "click 50 50")
	node := h.sess.Snapshot().Nodes()[0]

	out := h.exec(t, `alias add `+node.ID().String()+` Reading Room`)
	assert.Contains(t, out, `"Reading Room"`)

	out = h.exec(t, "alias ls "+node.ID().String())
	assert.Contains(t, out, "Reading Room")

	out = h.exec(t, "search reading --limit 3")
	assert.Contains(t, out, node.ID().String())

	aliases := h.sess.Snapshot().Aliases(node.ID())
	require.Len(t, aliases, 1)
	out = h.exec(t, "alias rm "+aliases[0].ID().String())
	assert.Contains(t, out, "alias deleted")

	out = h.exec(t, "search reading")
	assert.Contains(t, out, "(none)")

	err := h.console.Execute(ctx, []string{"alias", "add", "missing-node", "Nowhere"})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestConsoleRouteUnavailable(t *testing.T) {
	h := newConsoleHarness(t)
	h.exec(t, "select "+h.m.ID().String())

	err := h.console.Execute(context.Background(), []string{"route", "--at", "10,10", "-q", "hall"})
	require.Error(t, err)
	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.ErrorTypeUnavailable, appErr.Type)

	err = h.console.Execute(context.Background(), []string{"route", "--at", "10,10"})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestConsoleRun(t *testing.T) {
	h := newConsoleHarness(t)
	in := strings.NewReader(strings.Join([]string{
		"maps",
		"floor 2",
		`search "unterminated`,
		"",
		"quit",
		"maps",
	}, "\n"))

	require.NoError(t, h.console.Run(context.Background(), in))
	out := h.out.String()
	assert.Equal(t, 1, strings.Count(out, "Library"), "commands after quit must not run")
	assert.Contains(t, out, "✗ validation no map selected")
	assert.Contains(t, out, "✗ unterminated quote")
	assert.Contains(t, out, "wayfinder [no map · idle] ›")
}
