// Package cli is the interactive console for editing navigation graphs.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wayfinder/application/editor"
	"wayfinder/application/ports"
	"wayfinder/application/session"
	"wayfinder/domain/core/valueobjects"
	pkgerrors "wayfinder/pkg/errors"
)

// Console drives a session from text commands
type Console struct {
	sess   *session.Session
	out    io.Writer
	logger *zap.Logger
}

// NewConsole creates a console writing to out
func NewConsole(sess *session.Session, out io.Writer, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{sess: sess, out: out, logger: logger}
}

// Execute runs one command line given as words
func (c *Console) Execute(ctx context.Context, args []string) error {
	root := c.commands()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// Run reads commands from in until EOF, "quit" or ctx is done. Command
// errors are printed and do not stop the loop.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	c.prompt()
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		words, err := splitLine(strings.TrimSpace(scanner.Text()))
		switch {
		case err != nil:
			c.printErr(err)
		case len(words) == 0:
		case words[0] == "quit" || words[0] == "exit":
			return nil
		default:
			if err := c.Execute(ctx, words); err != nil {
				c.logger.Debug("console command failed", zap.String("command", words[0]), zap.Error(err))
				c.printErr(err)
			}
		}
		c.prompt()
	}
	return scanner.Err()
}

func (c *Console) prompt() {
	v := c.sess.View()
	label := "no map"
	if v.MapName != "" {
		label = fmt.Sprintf("%s · floor %d", v.MapName, v.Floor)
	}
	fmt.Fprintf(c.out, "%s %s %s ", Brand.Sprint("wayfinder"), Subtle.Sprintf("[%s · %s]", label, v.Editor.Mode), Brand.Sprint("›"))
}

func (c *Console) printErr(err error) {
	appErr := pkgerrors.GetAppError(err)
	if appErr == nil {
		fmt.Fprintf(c.out, "%s %v\n", statusIcon(false), err)
		return
	}
	msg := appErr.Message
	if appErr.Cause != nil {
		if inner := pkgerrors.GetAppError(appErr.Cause); inner != nil {
			msg += ": " + inner.Message
		} else {
			msg += ": " + appErr.Cause.Error()
		}
	}
	fmt.Fprintf(c.out, "%s %s %s\n", statusIcon(false), Bad.Sprint(strings.ToLower(string(appErr.Type))), msg)
}

func (c *Console) commands() *cobra.Command {
	root := &cobra.Command{
		Use:           "wayfinder-editor",
		Short:         "Edit indoor navigation graphs",
		Long:          Brand.Sprint("wayfinder") + " draws nodes and corridors on floor-plan maps",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(c.out)
	root.SetErr(c.out)

	root.AddCommand(
		c.mapsCmd(),
		c.selectCmd(),
		c.floorCmd(),
		c.addFloorCmd(),
		c.nodeCmd(),
		c.edgeCmd(),
		c.clickCmd(),
		c.pickCmd(),
		c.finishCmd(),
		c.undoCmd(),
		c.cancelCmd(),
		c.aliasCmd(),
		c.searchCmd(),
		c.routeCmd(),
		c.viewCmd(),
		c.nodesCmd(),
		c.edgesCmd(),
		c.reloadCmd(),
	)
	return root
}

func (c *Console) mapsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "maps",
		Short: "List maps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			maps, err := c.sess.Maps(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(maps))
			for _, m := range maps {
				rows = append(rows, []string{m.ID().String(), m.Name(), fmt.Sprintf("%dx%d", m.Width(), m.Height())})
			}
			table(c.out, []string{"ID", "NAME", "SIZE"}, rows)
			return nil
		},
	}
}

func (c *Console) selectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <map-id>",
		Short: "Open a map on its preferred floor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.sess.SelectMap(cmd.Context(), valueobjects.MapID(args[0])); err != nil {
				return err
			}
			c.printFloor()
			return nil
		},
	}
}

func (c *Console) floorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "floor <n>",
		Short: "Switch to a known floor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			floor, err := parseFloor(args[0])
			if err != nil {
				return err
			}
			if err := c.sess.SelectFloor(cmd.Context(), floor); err != nil {
				return err
			}
			c.printFloor()
			return nil
		},
	}
}

func (c *Console) addFloorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-floor <n>",
		Short: "Register a floor and switch to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			floor, err := parseFloor(args[0])
			if err != nil {
				return err
			}
			if err := c.sess.AddFloor(cmd.Context(), floor); err != nil {
				return err
			}
			c.printFloor()
			return nil
		},
	}
}

func (c *Console) nodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "node",
		Short: "Enter node placement mode",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			c.sess.EnterAddNode()
			Info.Fprintln(c.out, "click to place a node")
		},
	}
}

func (c *Console) edgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edge",
		Short: "Start drawing an edge",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			c.sess.EnterDrawEdge()
			Info.Fprintln(c.out, "click the start node, then the corridor")
		},
	}
}

func (c *Console) clickCmd() *cobra.Command {
	var spec editor.NodeSpec
	cmd := &cobra.Command{
		Use:   "click <x> <y>",
		Short: "Click the image at a point",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePoint(args[0], args[1])
			if err != nil {
				return err
			}
			out, err := c.sess.Click(cmd.Context(), p, spec)
			c.printOutcome(out)
			return err
		},
	}
	cmd.Flags().BoolVar(&spec.Landmark, "landmark", false, "Mark a placed node as a landmark")
	cmd.Flags().StringVar(&spec.Alias, "alias", "", "Name a placed node")
	return cmd
}

func (c *Console) pickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pick <node-id>",
		Short: "Click a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.sess.ClickNode(cmd.Context(), valueobjects.NodeID(args[0]))
			c.printOutcome(out)
			return err
		},
	}
}

func (c *Console) finishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "finish",
		Short: "End the edge at the nearest node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.sess.AutoFinish(cmd.Context())
			c.printOutcome(out)
			return err
		},
	}
}

func (c *Console) undoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Remove the last drawn point",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			if c.sess.Undo() {
				Good.Fprintln(c.out, "point removed")
				return
			}
			Subtle.Fprintln(c.out, "nothing to undo")
		},
	}
}

func (c *Console) cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Discard the edge in progress",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			c.sess.Cancel()
			Subtle.Fprintln(c.out, "cancelled")
		},
	}
}

func (c *Console) aliasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alias",
		Short: "Manage node names",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <node-id> <name...>",
			Short: "Name a node on the active floor",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				alias, err := c.sess.AddAlias(cmd.Context(), valueobjects.NodeID(args[0]), strings.Join(args[1:], " "))
				if alias != nil {
					fmt.Fprintf(c.out, "%s alias %s %q\n", statusIcon(true), alias.ID(), alias.Name())
				}
				return err
			},
		},
		&cobra.Command{
			Use:   "rm <alias-id>",
			Short: "Delete an alias",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.sess.DeleteAlias(cmd.Context(), valueobjects.AliasID(args[0])); err != nil {
					return err
				}
				fmt.Fprintf(c.out, "%s alias deleted\n", statusIcon(true))
				return nil
			},
		},
		&cobra.Command{
			Use:   "ls <node-id>",
			Short: "List a node's aliases",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				snap := c.sess.Snapshot()
				if snap == nil {
					return pkgerrors.NewValidationError("no map selected")
				}
				var rows [][]string
				for _, a := range snap.Aliases(valueobjects.NodeID(args[0])) {
					rows = append(rows, []string{a.ID().String(), a.Name(), a.NormName()})
				}
				table(c.out, []string{"ID", "NAME", "SEARCH FORM"}, rows)
				return nil
			},
		},
	)
	return cmd
}

func (c *Console) searchCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Find nodes by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hits, err := c.sess.SearchAliases(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(hits))
			for _, h := range hits {
				rows = append(rows, []string{h.NodeID.String(), h.Name, strconv.FormatFloat(h.Score, 'f', 1, 64)})
			}
			table(c.out, []string{"NODE", "NAME", "SCORE"}, rows)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum results")
	return cmd
}

func (c *Console) routeCmd() *cobra.Command {
	var from, to, query string
	var at []float64
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Ask for a route on the active map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var req ports.RouteRequest
			if from != "" {
				id := valueobjects.NodeID(from)
				req.StartID = &id
			}
			if len(at) == 2 {
				req.CX, req.CY = &at[0], &at[1]
			}
			if to != "" {
				id := valueobjects.NodeID(to)
				req.EndID = &id
			}
			req.Query = query

			res, err := c.sess.Route(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%s %.1f px through %d nodes\n", statusIcon(true), res.LengthPx, len(res.PathNodeIDs))
			for _, in := range res.Instructions {
				fmt.Fprintf(c.out, "  %s %s\n", Info.Sprint(in.Kind), in.Text)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Start node ID")
	cmd.Flags().Float64SliceVar(&at, "at", nil, "Start point x,y")
	cmd.Flags().StringVar(&to, "to", "", "Destination node ID")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Destination name")
	return cmd
}

func (c *Console) viewCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show the session state",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			v := c.sess.View()
			if asJSON {
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				return enc.Encode(v)
			}
			c.printView(v)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func (c *Console) nodesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nodes",
		Short: "List nodes on the active floor",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			snap := c.sess.Snapshot()
			if snap == nil {
				return pkgerrors.NewValidationError("no map selected")
			}
			var rows [][]string
			for _, n := range snap.Nodes() {
				names := make([]string, 0)
				for _, a := range snap.Aliases(n.ID()) {
					names = append(names, a.Name())
				}
				landmark := ""
				if n.IsLandmark() {
					landmark = "★"
				}
				rows = append(rows, []string{n.ID().String(), n.Position().String(), landmark, strings.Join(names, ", ")})
			}
			table(c.out, []string{"ID", "POSITION", "LANDMARK", "ALIASES"}, rows)
			return nil
		},
	}
}

func (c *Console) edgesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edges",
		Short: "List edges on the active floor",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			snap := c.sess.Snapshot()
			if snap == nil {
				return pkgerrors.NewValidationError("no map selected")
			}
			var rows [][]string
			for _, e := range snap.Edges() {
				rows = append(rows, []string{
					e.ID().String(),
					e.StartNodeID().String(),
					e.EndNodeID().String(),
					strconv.Itoa(len(e.Polyline())),
					strconv.FormatFloat(e.Weight(), 'f', 1, 64),
				})
			}
			table(c.out, []string{"ID", "FROM", "TO", "POINTS", "LENGTH"}, rows)
			return nil
		},
	}
}

func (c *Console) reloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Reload the active floor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.sess.Reload(cmd.Context()); err != nil {
				return err
			}
			c.printFloor()
			return nil
		},
	}
}

func (c *Console) printFloor() {
	v := c.sess.View()
	fmt.Fprintf(c.out, "%s %s floor %d of %v: %d nodes, %d edges\n",
		statusIcon(true), Brand.Sprint(v.MapName), v.Floor, floorsLabel(v.Floors), v.Nodes, v.Edges)
}

func (c *Console) printView(v session.View) {
	if v.MapID.IsZero() {
		Subtle.Fprintln(c.out, "no map selected")
		return
	}
	fmt.Fprintf(c.out, "map    %s (%s)\n", Brand.Sprint(v.MapName), v.MapID)
	fmt.Fprintf(c.out, "floor  %d of %v\n", v.Floor, floorsLabel(v.Floors))
	fmt.Fprintf(c.out, "graph  %d nodes, %d edges\n", v.Nodes, v.Edges)
	fmt.Fprintf(c.out, "mode   %s\n", Info.Sprint(v.Editor.Mode))
	if !v.Editor.StartNode.IsZero() {
		fmt.Fprintf(c.out, "start  %s\n", v.Editor.StartNode)
	}
	if len(v.Editor.TempPolyline) > 0 {
		parts := make([]string, 0, len(v.Editor.TempPolyline))
		for _, p := range v.Editor.TempPolyline {
			parts = append(parts, p.String())
		}
		fmt.Fprintf(c.out, "path   %s\n", strings.Join(parts, " → "))
	}
	fmt.Fprintf(c.out, "finish %s\n", statusIcon(v.Editor.CanFinish))
}

func (c *Console) printOutcome(out editor.Outcome) {
	if out.Node != nil {
		p := out.Node.Position()
		fmt.Fprintf(c.out, "%s node %s at %s\n", statusIcon(true), out.Node.ID(), p.String())
	}
	if out.Alias != nil {
		fmt.Fprintf(c.out, "%s alias %q\n", statusIcon(true), out.Alias.Name())
	}
	if out.AliasErr != nil {
		Warn.Fprintf(c.out, "node saved but alias failed: %v\n", out.AliasErr)
	}
	if out.Edge != nil {
		fmt.Fprintf(c.out, "%s edge %s %s → %s (%.1f px)\n", statusIcon(true),
			out.Edge.ID(), out.Edge.StartNodeID(), out.Edge.EndNodeID(), out.Edge.Weight())
	}
	if out.Node == nil && out.Edge == nil {
		v := c.sess.View().Editor
		if v.Mode == editor.ModeDrawingEdge.String() {
			Subtle.Fprintf(c.out, "drawing: %d points, finish %s\n", len(v.TempPolyline), statusIcon(v.CanFinish))
		}
	}
}

func floorsLabel(floors []valueobjects.Floor) string {
	parts := make([]string, 0, len(floors))
	for _, f := range floors {
		parts = append(parts, strconv.Itoa(f.Int()))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func parseFloor(s string) (valueobjects.Floor, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, pkgerrors.NewValidationError("floor must be an integer")
	}
	return valueobjects.Floor(n), nil
}

func parsePoint(xs, ys string) (valueobjects.Point, error) {
	x, errX := strconv.ParseFloat(xs, 64)
	y, errY := strconv.ParseFloat(ys, 64)
	if errX != nil || errY != nil {
		return valueobjects.Point{}, pkgerrors.NewValidationError("coordinates must be numbers")
	}
	return valueobjects.Point{X: x, Y: y}, nil
}
