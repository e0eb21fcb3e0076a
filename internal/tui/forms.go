package tui

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/memorymap/internal/memorymap"
	"github.com/felixgeelhaar/memorymap/internal/session"
	"github.com/felixgeelhaar/memorymap/internal/validation"
)

// NewLoginForm prompts for credentials into f.
func NewLoginForm(f *validation.LoginForm) *huh.Form {
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Username").
			Value(&f.Username).
			Validate(required("username")),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&f.Password).
			Validate(required("password")),
	)).WithShowHelp(true)
}

// NewRegisterForm prompts for a new account into f.
func NewRegisterForm(f *validation.RegisterForm) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Description("3-20 letters, numbers, underscores or hyphens").
				Value(&f.Username).
				Validate(validation.Username),
			huh.NewInput().
				Title("Email").
				Value(&f.Email).
				Validate(validation.Email),
			huh.NewInput().
				Title("First name").
				Value(&f.FirstName),
			huh.NewInput().
				Title("Last name").
				Value(&f.LastName),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Password").
				Description("At least 8 characters with upper and lower case letters and a number").
				EchoMode(huh.EchoModePassword).
				Value(&f.Password).
				Validate(validation.Password),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&f.Password2).
				Validate(matches(&f.Password)),
		),
	)
}

// NewProfileForm prompts for profile changes into f, prefilled from user.
func NewProfileForm(f *validation.ProfileForm, user session.UserProfile) *huh.Form {
	f.Email = user.Email()
	f.FirstName = user.FirstName()
	f.LastName = user.LastName()

	return huh.NewForm(huh.NewGroup(
		huh.NewNote().
			Title(fmt.Sprintf("Profile of %s", user.Username())),
		huh.NewInput().
			Title("Email").
			Value(&f.Email).
			Validate(optional(validation.Email)),
		huh.NewInput().
			Title("First name").
			Value(&f.FirstName),
		huh.NewInput().
			Title("Last name").
			Value(&f.LastName),
	))
}

// NewPasswordForm prompts for a password change into f.
func NewPasswordForm(f *validation.PasswordChangeForm) *huh.Form {
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Current password").
			EchoMode(huh.EchoModePassword).
			Value(&f.CurrentPassword).
			Validate(required("current password")),
		huh.NewInput().
			Title("New password").
			EchoMode(huh.EchoModePassword).
			Value(&f.NewPassword).
			Validate(validation.Password),
		huh.NewInput().
			Title("Confirm new password").
			EchoMode(huh.EchoModePassword).
			Value(&f.NewPassword2).
			Validate(matches(&f.NewPassword)),
	))
}

// NewMapForm prompts for a memory map into in.
func NewMapForm(in *memorymap.Input) *huh.Form {
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Title").
			Value(&in.Title).
			Validate(required("title")),
		huh.NewText().
			Title("Description").
			Value(&in.Description),
		huh.NewInput().
			Title("Location").
			Value(&in.LocationName),
		huh.NewInput().
			Title("Tags").
			Description("Comma separated").
			Value(&in.Tags),
	))
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func optional(check func(string) error) func(string) error {
	return func(s string) error {
		if s == "" {
			return nil
		}
		return check(s)
	}
}

// matches compares against *other at validation time, after it was typed.
func matches(other *string) func(string) error {
	return func(s string) error {
		if s != *other {
			return stderrors.New("passwords do not match")
		}
		return nil
	}
}
