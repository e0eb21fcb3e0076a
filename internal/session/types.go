package session

import (
	"encoding/json"
	"fmt"
)

// UserProfile is the user record returned by the backend.
//
// The client does not own the schema: the record is kept as decoded JSON and
// written back unchanged. Accessors cover the fields the CLI displays.
type UserProfile map[string]any

// Username returns the "username" field.
func (u UserProfile) Username() string { return u.str("username") }

// Email returns the "email" field.
func (u UserProfile) Email() string { return u.str("email") }

// FirstName returns the "first_name" field.
func (u UserProfile) FirstName() string { return u.str("first_name") }

// LastName returns the "last_name" field.
func (u UserProfile) LastName() string { return u.str("last_name") }

// ID returns the "id" field rendered as a string. JSON numbers decode as
// float64, so integral ids are printed without a fraction.
func (u UserProfile) ID() string {
	switch v := u["id"].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprint(v)
	}
}

// DisplayName returns "First Last" when available, otherwise the username.
func (u UserProfile) DisplayName() string {
	name := u.FirstName()
	if last := u.LastName(); last != "" {
		if name != "" {
			name += " "
		}
		name += last
	}
	if name == "" {
		return u.Username()
	}
	return name
}

func (u UserProfile) str(key string) string {
	s, _ := u[key].(string)
	return s
}

// TokenPair is the access/refresh token pair issued at login or registration.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Snapshot is the persisted session as read from the store. Either field may be
// nil independently of the other.
type Snapshot struct {
	User   UserProfile
	Tokens *TokenPair
}

// HasUser reports whether a cached user profile is present.
func (s Snapshot) HasUser() bool {
	return s.User != nil
}

// AccessToken returns the stored access token or "".
func (s Snapshot) AccessToken() string {
	if s.Tokens == nil {
		return ""
	}
	return s.Tokens.Access
}

// RefreshToken returns the stored refresh token or "".
func (s Snapshot) RefreshToken() string {
	if s.Tokens == nil {
		return ""
	}
	return s.Tokens.Refresh
}

func encode(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
