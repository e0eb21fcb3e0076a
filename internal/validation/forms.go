package validation

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

// LoginForm is the login input.
type LoginForm struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (f LoginForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Username, validation.Required),
		validation.Field(&f.Password, validation.Required),
	)
}

// RegisterForm is the registration input.
type RegisterForm struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Validate will run validation rules
func (f RegisterForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Username, UsernameRules()...),
		validation.Field(&f.Email, EmailRules()...),
		validation.Field(&f.Password, PasswordRules()...),
		validation.Field(&f.Password2, validation.Required, Equals(f.Password)),
		validation.Field(&f.FirstName, validation.Length(0, 150)),
		validation.Field(&f.LastName, validation.Length(0, 150)),
	)
}

// PasswordChangeForm is the change-password input.
type PasswordChangeForm struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	NewPassword2    string `json:"new_password2"`
}

// Validate will run validation rules
func (f PasswordChangeForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.CurrentPassword, validation.Required),
		validation.Field(&f.NewPassword, PasswordRules()...),
		validation.Field(&f.NewPassword2, validation.Required, Equals(f.NewPassword)),
	)
}

// ProfileForm holds editable profile fields. Empty fields are left unchanged.
type ProfileForm struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Validate will run validation rules
func (f ProfileForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Email, validation.Match(emailPattern).Error(msgEmail)),
		validation.Field(&f.FirstName, validation.Length(0, 150)),
		validation.Field(&f.LastName, validation.Length(0, 150)),
	)
}

// Fields returns the non-empty fields as a patch body.
func (f ProfileForm) Fields() map[string]any {
	fields := map[string]any{}
	if f.Email != "" {
		fields["email"] = f.Email
	}
	if f.FirstName != "" {
		fields["first_name"] = f.FirstName
	}
	if f.LastName != "" {
		fields["last_name"] = f.LastName
	}
	return fields
}
