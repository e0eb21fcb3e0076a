package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/memorymap/internal/config"
	"github.com/felixgeelhaar/memorymap/internal/tui"
	"github.com/felixgeelhaar/memorymap/internal/ux"
)

func newConfigCmd(cc *CommandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "View or create memorymap configuration",
		Long: `Manage memorymap configuration stored at ~/.memorymap/config.yaml

Values are read from defaults, a .env file, the config file and MEMORYMAP_*
environment variables, in increasing precedence. Global flags override all
of them.

Keys:
  api.url        backend base URL (MEMORYMAP_API_URL)
  api.timeout    request timeout (MEMORYMAP_API_TIMEOUT)
  session.path   session file (MEMORYMAP_SESSION_PATH)
  log.level      debug, info, warn or error (MEMORYMAP_LOG_LEVEL)
  log.format     text or json (MEMORYMAP_LOG_FORMAT)

Examples:
  # View the effective configuration
  memorymap config view

  # Write a config file pointing at a remote backend
  memorymap config init --api-url https://maps.example.com

  # Show configuration file path
  memorymap config path
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	configCmd.AddCommand(
		newConfigViewCmd(cc),
		newConfigPathCmd(),
		newConfigInitCmd(cc),
	)
	return configCmd
}

// configView renders as YAML in text output.
type configView struct {
	File   string         `json:"file,omitempty" yaml:"file,omitempty"`
	Config *config.Config `json:"config" yaml:"config"`
}

// RenderText implements ux.TextRenderer.
func (v configView) RenderText(w io.Writer) error {
	data, err := config.Marshal(v.Config)
	if err != nil {
		return err
	}
	if v.File != "" {
		fmt.Fprintf(w, "# %s\n", v.File)
	} else {
		fmt.Fprintln(w, "# defaults (no config file)")
	}
	_, err = w.Write(data)
	return err
}

func newConfigViewCmd(cc *CommandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Display the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cc.Output(configView{File: cc.ConfigFile, Config: cc.Config})
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "path",
		Short:       "Show configuration file path",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoServices: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), configPath(cmd))
			return nil
		},
	}
}

func newConfigInitCmd(cc *CommandContext) *cobra.Command {
	var force bool

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file",
		Long: `Write a configuration file with default values. Global flags such as
--api-url and --session-file are written instead of the defaults.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoServices: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath(cmd)
			out := cmd.OutOrStdout()

			if _, err := os.Stat(path); err == nil && !force {
				if !tui.ShouldPrompt(cc.in) {
					return ux.NewErrorWithSuggestion(
						fmt.Errorf("config file already exists: %s", path),
						"Pass --force to overwrite it")
				}
				if !cc.confirm(fmt.Sprintf("Overwrite %s?", path), false) {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}

			cfg := config.Default()
			overrides := map[string]*string{
				"api-url":      &cfg.API.URL,
				"session-file": &cfg.Session.Path,
				"log-level":    &cfg.Log.Level,
				"log-format":   &cfg.Log.Format,
			}
			for flag, target := range overrides {
				if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
					*target = f.Value.String()
				}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := config.Save(cfg, path); err != nil {
				return err
			}
			fmt.Fprintf(out, "Wrote %s\n", path)
			return nil
		},
	}

	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return initCmd
}

// configPath is the --config flag or the default location.
func configPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p
	}
	return config.DefaultPath()
}
