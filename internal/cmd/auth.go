package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/memorymap/internal/api"
	"github.com/felixgeelhaar/memorymap/internal/auth"
	"github.com/felixgeelhaar/memorymap/internal/errors"
	"github.com/felixgeelhaar/memorymap/internal/session"
	"github.com/felixgeelhaar/memorymap/internal/tui"
	"github.com/felixgeelhaar/memorymap/internal/validation"
)

// MePath returns the profile of the token's owner.
const MePath = "/users/me/"

func newAuthCmd(cc *CommandContext) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage your Memory Map account and session",
		Long: `Manage your Memory Map account and the locally stored session.

The session (user profile and token pair) is stored in the session file,
~/.memorymap/session.json by default. Commands that talk to the backend
attach the stored access token automatically.

Subcommands:
  register  Create an account and log in
  login     Log in with username and password
  logout    End the session
  status    Show the current session
  profile   Update your profile
  password  Change your password

Examples:
  memorymap auth register --username ada --email ada@example.com
  memorymap auth login --username ada
  memorymap auth status --remote
  memorymap auth logout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	authCmd.AddCommand(
		newAuthRegisterCmd(cc),
		newAuthLoginCmd(cc),
		newAuthLogoutCmd(cc),
		newAuthStatusCmd(cc),
		newAuthProfileCmd(cc),
		newAuthPasswordCmd(cc),
	)
	return authCmd
}

func newAuthRegisterCmd(cc *CommandContext) *cobra.Command {
	var form validation.RegisterForm

	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: `Create a Memory Map account. On success you are logged in.

Missing values are prompted for in an interactive terminal.

Examples:
  memorymap auth register --username ada --email ada@example.com --password 'Secret123'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			missing := emptyFlags(cmd, "username", "email", "password")
			if err := cc.fillInteractively(func() *huh.Form { return tui.NewRegisterForm(&form) }, missing); err != nil {
				return err
			}
			if form.Password2 == "" {
				form.Password2 = form.Password
			}
			if err := validation.Check(form); err != nil {
				return err
			}

			out := cc.Session.Register(cmd.Context(), auth.RegisterRequest(form))
			if !out.Success {
				return outcomeError(out, errors.ErrCodeAuthRegistrationFailed)
			}

			user := cc.Session.User()
			return cc.Report(fmt.Sprintf("Welcome, %s! Your account is ready and you are logged in.", user.DisplayName()), user)
		},
	}

	flags := registerCmd.Flags()
	flags.StringVarP(&form.Username, "username", "u", "", "username (3-20 letters, digits, _ or -)")
	flags.StringVar(&form.Email, "email", "", "email address")
	flags.StringVarP(&form.Password, "password", "p", "", "password")
	flags.StringVar(&form.Password2, "password-confirm", "", "password confirmation (defaults to --password)")
	flags.StringVar(&form.FirstName, "first-name", "", "first name")
	flags.StringVar(&form.LastName, "last-name", "", "last name")

	return registerCmd
}

func newAuthLoginCmd(cc *CommandContext) *cobra.Command {
	var form validation.LoginForm

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to Memory Map",
		Long: `Log in with your username and password. The returned token pair is
stored in the session file and reused by later commands.

Examples:
  memorymap auth login --username ada --password 'Secret123'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			missing := emptyFlags(cmd, "username", "password")
			if err := cc.fillInteractively(func() *huh.Form { return tui.NewLoginForm(&form) }, missing); err != nil {
				return err
			}
			if err := validation.Check(form); err != nil {
				return err
			}

			out := cc.Session.Login(cmd.Context(), form.Username, form.Password)
			if !out.Success {
				return outcomeError(out, errors.ErrCodeAuthInvalidCredentials)
			}

			user := cc.Session.User()
			return cc.Report(fmt.Sprintf("Logged in as %s.", user.DisplayName()), user)
		},
	}

	loginCmd.Flags().StringVarP(&form.Username, "username", "u", "", "username")
	loginCmd.Flags().StringVarP(&form.Password, "password", "p", "", "password")

	return loginCmd
}

func newAuthLogoutCmd(cc *CommandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Long: `End the session. The stored session is removed immediately and the
backend is asked to invalidate the refresh token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			before := cc.Store.Read(ctx)
			cc.Session.Logout(ctx)

			switch {
			case before.HasUser():
				return cc.Report(fmt.Sprintf("Logged out %s.", before.User.DisplayName()), map[string]any{"logged_out": true})
			case before.Tokens != nil:
				return cc.Report("Logged out.", map[string]any{"logged_out": true})
			default:
				return cc.Report("Not logged in.", map[string]any{"logged_out": false})
			}
		},
	}
}

// meResponse is the body of GET /users/me/.
type meResponse struct {
	User session.UserProfile `json:"user"`
}

// statusReport describes the current session.
type statusReport struct {
	Authenticated  bool       `json:"authenticated" yaml:"authenticated"`
	Username       string     `json:"username,omitempty" yaml:"username,omitempty"`
	Name           string     `json:"name,omitempty" yaml:"name,omitempty"`
	Email          string     `json:"email,omitempty" yaml:"email,omitempty"`
	Source         string     `json:"source,omitempty" yaml:"source,omitempty"`
	Backend        string     `json:"backend" yaml:"backend"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty" yaml:"token_expires_at,omitempty"`
	TokenExpired   bool       `json:"token_expired,omitempty" yaml:"token_expired,omitempty"`
}

// RenderText implements ux.TextRenderer.
func (r statusReport) RenderText(w io.Writer) error {
	var b strings.Builder
	if !r.Authenticated {
		b.WriteString("Not logged in.\n\n")
		b.WriteString("Run 'memorymap auth login' to authenticate.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	fmt.Fprintf(&b, "Logged in as %s (%s)\n", r.Name, r.Username)
	if r.Email != "" {
		fmt.Fprintf(&b, "  Email:    %s\n", r.Email)
	}
	fmt.Fprintf(&b, "  Backend:  %s\n", r.Backend)
	fmt.Fprintf(&b, "  Profile:  %s\n", r.Source)
	switch {
	case r.TokenExpiresAt == nil:
		b.WriteString("  Token:    no expiry information\n")
	case r.TokenExpired:
		fmt.Fprintf(&b, "  Token:    expired %s\n", r.TokenExpiresAt.Local().Format(time.RFC1123))
	default:
		fmt.Fprintf(&b, "  Token:    expires %s\n", r.TokenExpiresAt.Local().Format(time.RFC1123))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func newAuthStatusCmd(cc *CommandContext) *cobra.Command {
	var remote bool

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		Long: `Show who is logged in. The profile comes from the session file; with
--remote it is fetched from the backend, which also verifies the token.

The token expiry is read from the access token without verifying it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			report := statusReport{Backend: cc.Config.API.URL}

			user := cc.Session.User()
			if user == nil {
				return cc.Output(report)
			}

			report.Source = "local"
			if remote {
				me, err := api.Decode[meResponse](cc.API.Get(ctx, MePath)).Unwrap()
				if err != nil {
					return err
				}
				if me.User == nil {
					return errors.New(errors.ErrCodeAPIDecode, "unexpected response shape")
				}
				user = me.User
				report.Source = "remote"
			}

			report.Authenticated = true
			report.Username = user.Username()
			report.Name = user.DisplayName()
			report.Email = user.Email()

			claims, err := auth.ParseAccessToken(cc.Store.Read(ctx).AccessToken())
			if err != nil {
				cc.Logger.WithError(err).Debug("access token not inspectable")
			} else if exp := claims.Expiry(); !exp.IsZero() {
				report.TokenExpiresAt = &exp
				report.TokenExpired = claims.Expired(time.Now())
			}

			return cc.Output(report)
		},
	}

	statusCmd.Flags().BoolVar(&remote, "remote", false, "fetch the profile from the backend")

	return statusCmd
}

func newAuthProfileCmd(cc *CommandContext) *cobra.Command {
	var form validation.ProfileForm

	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Update your profile",
		Long: `Update your email address or name. Only the given fields change.

Without flags the current profile is shown in an editable form.

Examples:
  memorymap auth profile --first-name Augusta`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cc.RequireLogin(); err != nil {
				return err
			}

			missing := emptyFlags(cmd, "email", "first-name", "last-name")
			if len(missing) == 3 {
				user := cc.Session.User()
				if err := cc.fillInteractively(func() *huh.Form { return tui.NewProfileForm(&form, user) }, missing); err != nil {
					return err
				}
			}
			if err := validation.Check(form); err != nil {
				return err
			}

			fields := form.Fields()
			if len(fields) == 0 {
				return errors.NewValidationError("nothing to update")
			}

			out := cc.Session.UpdateProfile(cmd.Context(), fields)
			if !out.Success {
				return outcomeError(out, errors.ErrCodeAuthProfileFailed)
			}

			return cc.Report("Profile updated.", cc.Session.User())
		},
	}

	flags := profileCmd.Flags()
	flags.StringVar(&form.Email, "email", "", "new email address")
	flags.StringVar(&form.FirstName, "first-name", "", "new first name")
	flags.StringVar(&form.LastName, "last-name", "", "new last name")

	return profileCmd
}

func newAuthPasswordCmd(cc *CommandContext) *cobra.Command {
	var form validation.PasswordChangeForm

	passwordCmd := &cobra.Command{
		Use:   "password",
		Short: "Change your password",
		Long: `Change your password. The session stays valid.

Examples:
  memorymap auth password --current 'Secret123' --new 'Better456'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cc.RequireLogin(); err != nil {
				return err
			}

			missing := emptyFlags(cmd, "current", "new")
			if err := cc.fillInteractively(func() *huh.Form { return tui.NewPasswordForm(&form) }, missing); err != nil {
				return err
			}
			if form.NewPassword2 == "" {
				form.NewPassword2 = form.NewPassword
			}
			if err := validation.Check(form); err != nil {
				return err
			}

			body, err := cc.Auth.ChangePassword(cmd.Context(), form.CurrentPassword, form.NewPassword, form.NewPassword2).Unwrap()
			if err != nil {
				return err
			}

			message, _ := body["message"].(string)
			if message == "" {
				message = "Password changed."
			}
			return cc.Report(message, map[string]any{"message": message})
		},
	}

	flags := passwordCmd.Flags()
	flags.StringVar(&form.CurrentPassword, "current", "", "current password")
	flags.StringVar(&form.NewPassword, "new", "", "new password")
	flags.StringVar(&form.NewPassword2, "confirm", "", "new password confirmation (defaults to --new)")

	return passwordCmd
}
