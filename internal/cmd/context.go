package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/felixgeelhaar/memorymap/internal/api"
	"github.com/felixgeelhaar/memorymap/internal/auth"
	"github.com/felixgeelhaar/memorymap/internal/config"
	"github.com/felixgeelhaar/memorymap/internal/guard"
	"github.com/felixgeelhaar/memorymap/internal/kv"
	"github.com/felixgeelhaar/memorymap/internal/log"
	"github.com/felixgeelhaar/memorymap/internal/memorymap"
	"github.com/felixgeelhaar/memorymap/internal/platform"
	"github.com/felixgeelhaar/memorymap/internal/session"
	"github.com/felixgeelhaar/memorymap/internal/sessionctx"
	"github.com/felixgeelhaar/memorymap/internal/ux"
	"github.com/felixgeelhaar/memorymap/internal/version"
)

// msgSessionExpired is printed when the backend rejects the stored session.
const msgSessionExpired = "Your session has expired. Please log in again."

// flagKeys maps global flags to the configuration keys they override.
var flagKeys = map[string]string{
	"api-url":      "api.url",
	"session-file": "session.path",
	"log-level":    "log.level",
	"log-format":   "log.format",
}

// CommandContext holds the global flags and the services wired from them.
// One is created per process and shared by every command, so commands have
// explicit dependencies instead of package globals.
type CommandContext struct {
	Format     string
	ConfigFile string

	Config    *config.Config
	Logger    *log.Logger
	Store     *session.Store
	Transport *platform.Client
	Auth      *auth.Client
	Session   *sessionctx.Manager
	API       *api.Client
	Maps      *memorymap.Service
	Router    *guard.Router

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// NewCommandContext creates an empty context bound to the given streams.
func NewCommandContext(in io.Reader, out, errOut io.Writer) *CommandContext {
	return &CommandContext{in: in, out: out, errOut: errOut}
}

// Init reads the global flags, loads configuration and wires the session
// services. The session is initialized from the store before it returns.
func (cc *CommandContext) Init(cmd *cobra.Command) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	if !slices.Contains(ux.Formats, format) {
		return ValidationError("--format", format, "text, json, yaml")
	}
	cc.Format = format

	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	loader := config.NewLoader(configFile)
	if err := bindFlags(loader.Viper(), cmd); err != nil {
		return err
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	cc.Config = cfg
	cc.ConfigFile = loader.File()

	cc.Logger = log.New(log.Config{
		Level:          log.ParseLevel(cfg.Log.Level),
		Format:         log.ParseFormat(cfg.Log.Format),
		Output:         log.NewOutput(cc.errOut),
		ServiceName:    "memorymap",
		ServiceVersion: version.GetInfo().Short(),
	})
	log.SetDefaultLogger(cc.Logger)

	fileStore, err := kv.NewFileStore(cfg.Session.Path, kv.WithFileLogger(cc.Logger))
	if err != nil {
		return err
	}
	cc.Store = session.NewStore(fileStore, cc.Logger)

	cc.Transport = platform.NewClient(cfg.API.URL,
		platform.WithTimeout(cfg.API.Timeout),
		platform.WithLogger(cc.Logger),
	)
	cc.Auth = auth.NewClient(cc.Transport, cc.Store, cc.Logger)
	cc.Session = sessionctx.NewManager(cc.Auth, cc.Logger)
	cc.API = api.NewClient(cc.Transport, cc.Auth, api.ReloaderFunc(cc.sessionExpired), cc.Logger)
	cc.Maps = memorymap.NewService(cc.API)
	cc.Router = guard.NewRouter(guard.DefaultRoutes()...)

	ctx := cmd.Context()
	cc.Session.Init(ctx)
	cmd.SetContext(sessionctx.WithManager(ctx, cc.Session))

	cc.Logger.Debug("command context ready",
		"api_url", cfg.API.URL,
		"session_file", fileStore.Path(),
		"config_file", cc.ConfigFile)
	return nil
}

// Close waits for background session work such as logout.
func (cc *CommandContext) Close() {
	if cc.Auth != nil {
		cc.Auth.Wait()
	}
}

// Output writes data in the selected --format.
func (cc *CommandContext) Output(data any) error {
	formatter, err := ux.NewFormatter(cc.Format, &ux.FormatterOptions{Writer: cc.out})
	if err != nil {
		return err
	}
	return formatter.Format(data)
}

// Report writes message for text output and data for json or yaml.
func (cc *CommandContext) Report(message string, data any) error {
	if cc.Format == "" || cc.Format == "text" {
		_, err := fmt.Fprintln(cc.out, message)
		return err
	}
	return cc.Output(data)
}

// RequireLogin applies the route guard to the current session.
func (cc *CommandContext) RequireLogin() error {
	if !guard.Decide(cc.Session.State()).Allow {
		return NotLoggedInError()
	}
	return nil
}

// sessionExpired runs after the API client tore down a rejected session.
func (cc *CommandContext) sessionExpired(ctx context.Context) {
	fmt.Fprintln(cc.errOut, msgSessionExpired)
	cc.Session.Reload(ctx)
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for flag, key := range flagKeys {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", flag, err)
		}
	}
	return nil
}
