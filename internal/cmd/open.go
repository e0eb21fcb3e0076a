package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/memorymap/internal/guard"
	"github.com/felixgeelhaar/memorymap/internal/sessionctx"
)

// routeCommands names the command that serves each route.
var routeCommands = map[string]string{
	guard.RouteLogin:     "memorymap auth login",
	guard.RouteRegister:  "memorymap auth register",
	guard.RouteDashboard: "memorymap dashboard",
	guard.RouteProfile:   "memorymap auth profile",
}

// navigation is the outcome of resolving a route.
type navigation struct {
	Requested  string `json:"requested" yaml:"requested"`
	Path       string `json:"path" yaml:"path"`
	Redirected bool   `json:"redirected" yaml:"redirected"`
	Command    string `json:"command,omitempty" yaml:"command,omitempty"`
}

// RenderText implements ux.TextRenderer.
func (n navigation) RenderText(w io.Writer) error {
	if n.Redirected {
		fmt.Fprintf(w, "%s -> %s\n", n.Requested, n.Path)
	} else {
		fmt.Fprintln(w, n.Path)
	}
	if n.Command != "" {
		fmt.Fprintf(w, "\nRun: %s\n", n.Command)
	}
	return nil
}

// routeList prints one route per line in text output.
type routeList []string

// RenderText implements ux.TextRenderer.
func (l routeList) RenderText(w io.Writer) error {
	for _, p := range l {
		if _, err := fmt.Fprintln(w, p); err != nil {
			return err
		}
	}
	return nil
}

func newOpenCmd(cc *CommandContext) *cobra.Command {
	var list bool

	openCmd := &cobra.Command{
		Use:   "open [route]",
		Short: "Resolve a route for the current session",
		Long: `Resolve a client route the way navigation does. Protected routes send
you to /login unless you are logged in, and / leads to the dashboard.

Examples:
  memorymap open /dashboard
  memorymap open --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				return cc.Output(routeList(cc.Router.Paths()))
			}

			path := guard.RouteRoot
			if len(args) == 1 {
				path = args[0]
			}

			state := sessionctx.FromContext(cmd.Context()).State()
			res, err := cc.Router.Resolve(path, state)
			if err != nil {
				return err
			}

			return cc.Output(navigation{
				Requested:  res.Requested,
				Path:       res.Path,
				Redirected: res.Redirected,
				Command:    routeCommands[res.Path],
			})
		},
	}

	openCmd.Flags().BoolVar(&list, "list", false, "list known routes")
	return openCmd
}
