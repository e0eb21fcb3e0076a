package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/memorymap/internal/exitcode"
)

// annotationNoServices marks commands that run without loading configuration
// or the session.
const annotationNoServices = "memorymap/no-services"

// NewRootCmd builds the command tree. Services are wired into cc before any
// command that needs them runs.
func NewRootCmd(cc *CommandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "memorymap",
		Short: "Memory Map client",
		Long: `memorymap is a command-line client for the Memory Map service.

It keeps a persistent session in ~/.memorymap/session.json, so you log in once
and every later command reuses the stored tokens. When the backend rejects the
stored session, it is cleared and you are asked to log in again.

` + exitCodeHelp(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationNoServices] == "true" {
				return nil
			}
			return cc.Init(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.memorymap/config.yaml)")
	flags.String("api-url", "", "backend base URL")
	flags.String("session-file", "", "session file path")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (text, json)")
	flags.StringP("format", "o", "text", "output format (text, json, yaml)")

	rootCmd.AddCommand(
		newAuthCmd(cc),
		newMapsCmd(cc),
		newDashboardCmd(cc),
		newAPICmd(cc),
		newOpenCmd(cc),
		newConfigCmd(cc),
		newDoctorCmd(cc),
		newVersionCmd(),
	)

	return rootCmd
}

// exitCodeHelp lists the exit statuses for the root help text.
func exitCodeHelp() string {
	var b strings.Builder
	b.WriteString("Exit codes:\n")
	for _, code := range exitcode.Codes {
		fmt.Fprintf(&b, "  %-4d %s\n", code, exitcode.Describe(code))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Execute runs the CLI against the process streams.
func Execute(ctx context.Context) error {
	return Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

// Run executes args and waits for background session work before returning.
func Run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	cc := NewCommandContext(in, out, errOut)
	defer cc.Close()

	rootCmd := NewRootCmd(cc)
	rootCmd.SetArgs(args)
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	return rootCmd.ExecuteContext(ctx)
}
