// SPDX-License-Identifier: MIT

// Package console implements the interactive operator console for netctl.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/chzyer/readline"

	"github.com/katalvlaran/netmanager/snapshot"
	"github.com/katalvlaran/netmanager/topology"
)

// Console runs operator commands against a topology.
type Console struct {
	topo *topology.Topology
	path string // snapshot written by "save" with no argument
	rl   *readline.Instance
}

// New returns a console over topo. savePath is the default target of "save".
func New(topo *topology.Topology, savePath string) *Console {
	return &Console{topo: topo, path: savePath}
}

// lineReader is the part of *readline.Instance the command loop uses.
type lineReader interface {
	Readline() (string, error)
	Close() error
}

// Run starts the readline loop and returns when the operator quits, input
// ends or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "netctl> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(),
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	c.rl = rl

	c.Exec("help", rl.Stdout())

	return c.loop(ctx, rl, rl.Stdout())
}

// loop reads and executes lines until quit, end of input or cancellation.
// Cancelling ctx closes lr so a pending Readline returns at once. lr is
// closed exactly once before loop returns.
func (c *Console) loop(ctx context.Context, lr lineReader, w io.Writer) error {
	closeReader := sync.OnceValue(lr.Close)
	defer closeReader()
	stop := context.AfterFunc(ctx, func() { _ = closeReader() })
	defer stop()

	for {
		line, err := lr.Readline()
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(w, "Exiting...")
			return nil
		}
		if quit := c.Exec(line, w); quit {
			return nil
		}
	}
}

// Stdout returns a writer that does not corrupt the prompt, once Run has started.
func (c *Console) Stdout() io.Writer {
	if c.rl == nil {
		return io.Discard
	}

	return c.rl.Stdout()
}

// Exec runs one command line, writing its output to w. It reports whether the
// operator asked to quit.
func (c *Console) Exec(line string, w io.Writer) (quit bool) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd, args := strings.ToLower(parts[0]), parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		printHelp(w)
	case "stats", "s":
		c.cmdStats(w)
	case "show":
		err = c.cmdShow(w, args)
	case "neighbors", "n":
		err = c.cmdNeighbors(w, args)
	case "test-open":
		err = c.cmdSwitch(w, args, "would de-energize", c.topo.TestOpeningDevices)
	case "test-close":
		err = c.cmdSwitch(w, args, "would energize", c.topo.TestClosingDevices)
	case "open":
		err = c.cmdSwitch(w, args, "de-energized", c.topo.OpenDevices)
	case "close":
		err = c.cmdSwitch(w, args, "energized", c.topo.CloseDevices)
	case "energize":
		c.topo.EnergizeNetwork()
		c.cmdStats(w)
	case "check":
		c.cmdCheck(w)
	case "trace", "t":
		err = c.cmdTrace(w, args)
	case "save":
		err = c.cmdSave(w, args)
	case "quit", "exit", "q":
		return true
	default:
		err = fmt.Errorf("unknown command %q (try help)", cmd)
	}
	if err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
	}

	return false
}

func printHelp(w io.Writer) {
	fmt.Fprint(w, `Commands:
  stats                  device, edge and energized counts
  show <id>              device details
  neighbors <id>         adjacent devices
  test-open <id>...      devices that would lose power
  test-close <id>...     devices that would gain power
  open <id>...           open devices
  close <id>...          close devices
  energize               recompute energization from scratch
  check                  run the consistency checker
  trace <id>             conducting path to the feeding generator
  save [path]            write a snapshot
  quit                   exit
`)
}

func completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("stats"),
		readline.PcItem("show"),
		readline.PcItem("neighbors"),
		readline.PcItem("test-open"),
		readline.PcItem("test-close"),
		readline.PcItem("open"),
		readline.PcItem("close"),
		readline.PcItem("energize"),
		readline.PcItem("check"),
		readline.PcItem("trace"),
		readline.PcItem("save"),
		readline.PcItem("quit"),
	)
}

func (c *Console) cmdStats(w io.Writer) {
	s := c.topo.Stats()
	fmt.Fprintf(w, "devices=%d types=%d edges=%d generators=%d conducting=%d energized=%d\n",
		s.Devices, s.DeviceTypes, s.Edges, s.Generators, s.Conducting, s.Energized)
}

func (c *Console) cmdShow(w io.Writer, args []string) error {
	id, err := oneID(args)
	if err != nil {
		return err
	}
	d, err := c.topo.Device(id)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "id\t%d\n", d.ID)
	fmt.Fprintf(tw, "type\t%s (%d)\n", d.Type.Name, d.Type.ID)
	fmt.Fprintf(tw, "conducting\t%t\n", d.CanConduct)
	fmt.Fprintf(tw, "energized\t%t\n", d.IsEnergized)
	fmt.Fprintf(tw, "position\t%.6f, %.6f\n", d.Position.Latitude, d.Position.Longitude)

	return tw.Flush()
}

func (c *Console) cmdNeighbors(w io.Writer, args []string) error {
	id, err := oneID(args)
	if err != nil {
		return err
	}
	ids, err := c.topo.Neighbors(id)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, joinIDs(ids))

	return nil
}

func (c *Console) cmdSwitch(w io.Writer, args []string, verb string, op func(ids ...uint64) ([]topology.Device, error)) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return errors.New("at least one device id is required")
	}
	out, err := op(ids...)
	if err != nil {
		return err
	}
	affected := make([]uint64, len(out))
	for i, d := range out {
		affected[i] = d.ID
	}
	fmt.Fprintf(w, "%d device(s) %s: %s\n", len(out), verb, joinIDs(affected))

	return nil
}

func (c *Console) cmdCheck(w io.Writer) {
	err := c.topo.Validate()
	var ie *topology.InvariantError
	if !errors.As(err, &ie) {
		fmt.Fprintln(w, "consistent")
		return
	}
	fmt.Fprintf(w, "%d violation(s)\n", len(ie.Violations))
	for _, v := range ie.Violations {
		fmt.Fprintf(w, "  %s\n", v)
	}
}

func (c *Console) cmdTrace(w io.Writer, args []string) error {
	id, err := oneID(args)
	if err != nil {
		return err
	}
	path, err := c.topo.TraceToSource(id)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, strings.ReplaceAll(joinIDs(path), " ", " -> "))

	return nil
}

func (c *Console) cmdSave(w io.Writer, args []string) error {
	path := c.path
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return errors.New("no snapshot path")
	}
	if err := snapshot.Save(path, c.topo); err != nil {
		return err
	}
	fmt.Fprintf(w, "saved %s\n", path)

	return nil
}

func oneID(args []string) (uint64, error) {
	if len(args) != 1 {
		return 0, errors.New("exactly one device id is required")
	}
	ids, err := parseIDs(args)
	if err != nil {
		return 0, err
	}

	return ids[0], nil
}

func parseIDs(args []string) ([]uint64, error) {
	out := make([]uint64, 0, len(args))
	for _, a := range args {
		for _, part := range strings.Split(a, ",") {
			if part == "" {
				continue
			}
			id, err := strconv.ParseUint(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid device id %q", part)
			}
			out = append(out, id)
		}
	}

	return out, nil
}

func joinIDs(ids []uint64) string {
	if len(ids) == 0 {
		return "(none)"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(id, 10)
	}

	return strings.Join(parts, " ")
}
