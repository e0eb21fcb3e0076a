package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/memorymap/internal/errors"
	"github.com/felixgeelhaar/memorymap/internal/health"
)

var statusMarks = map[health.Status]string{
	health.StatusHealthy:   "✓",
	health.StatusDegraded:  "!",
	health.StatusUnhealthy: "✗",
}

type doctorReport struct {
	Status health.Status   `json:"status" yaml:"status"`
	Checks []health.Report `json:"checks" yaml:"checks"`
}

// RenderText implements ux.TextRenderer.
func (r doctorReport) RenderText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range r.Checks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", statusMarks[c.Status], c.Name, c.Message, c.Latency.Round(time.Millisecond))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, c := range r.Checks {
		if c.Suggestion != "" && c.Status != health.StatusHealthy {
			fmt.Fprintf(w, "\n%s: %s", c.Name, c.Suggestion)
		}
	}
	_, err := fmt.Fprintf(w, "\nOverall: %s\n", r.Status)
	return err
}

func newDoctorCmd(cc *CommandContext) *cobra.Command {
	var timeout time.Duration

	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose configuration, session storage and backend access",
		Long: `Run diagnostics in parallel: the configuration in effect, the session
file and its permissions, the stored access token, and whether the backend
answers. Exits non-zero when a check is unhealthy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := health.NewManager(timeout,
				health.ConfigChecker{File: cc.ConfigFile, Config: cc.Config},
				health.SessionFileChecker{Path: cc.Config.Session.Path},
				health.TokenChecker{Store: cc.Store},
				health.BackendChecker{Transport: cc.Transport},
			)

			reports := manager.Check(cmd.Context())
			report := doctorReport{Status: health.Overall(reports), Checks: reports}
			if err := cc.Output(report); err != nil {
				return err
			}

			if report.Status == health.StatusUnhealthy {
				var failed []string
				for _, r := range reports {
					if r.Status == health.StatusUnhealthy {
						failed = append(failed, r.Name)
					}
				}
				return errors.New(errors.ErrCodeHealthCheckFailed, fmt.Sprintf("unhealthy: %v", failed))
			}
			return nil
		},
	}

	doctorCmd.Flags().DurationVar(&timeout, "timeout", health.DefaultTimeout, "time limit for each check")
	return doctorCmd
}
