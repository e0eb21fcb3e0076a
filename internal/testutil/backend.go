// Package testutil provides an in-process fake of the Memory Map backend for
// tests. It implements the user and memory-map endpoints with the same
// response shapes as the real service.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var signingKey = []byte("backend-test-key")

// Request is a request observed by the fake backend.
type Request struct {
	Method        string
	Path          string
	Authorization string
	Body          map[string]any
}

type account struct {
	password string
	profile  map[string]any
}

// Backend is a fake Memory Map backend.
type Backend struct {
	Server *httptest.Server

	mu         sync.Mutex
	accounts   map[string]*account
	access     map[string]string
	refresh    map[string]string
	revoked    []string
	requests   []Request
	maps       []map[string]any
	nextID     int
	forced     map[string]int
	logoutHold chan struct{}
	logoutFail bool
	tokenTTL   time.Duration
}

// NewBackend starts a fake backend. Close it with Close.
func NewBackend() *Backend {
	b := &Backend{
		accounts: map[string]*account{},
		access:   map[string]string{},
		refresh:  map[string]string{},
		forced:   map[string]int{},
		nextID:   1,
		tokenTTL: 5 * time.Minute,
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	return b
}

// URL is the backend base URL.
func (b *Backend) URL() string { return b.Server.URL }

// Close shuts the server down.
func (b *Backend) Close() {
	b.mu.Lock()
	hold := b.logoutHold
	b.logoutHold = nil
	b.mu.Unlock()
	if hold != nil {
		close(hold)
	}
	b.Server.Close()
}

// AddUser registers an account directly.
func (b *Backend) AddUser(username, password string, profile map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addUserLocked(username, password, profile)
}

func (b *Backend) addUserLocked(username, password string, profile map[string]any) map[string]any {
	p := map[string]any{"id": float64(len(b.accounts) + 1), "username": username}
	for k, v := range profile {
		p[k] = v
	}
	b.accounts[username] = &account{password: password, profile: p}
	return p
}

// AddMemoryMap adds a record owned by username.
func (b *Backend) AddMemoryMap(owner, title, description string) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addMapLocked(owner, map[string]any{"title": title, "description": description})
}

func (b *Backend) addMapLocked(owner string, fields map[string]any) map[string]any {
	m := map[string]any{
		"id":          float64(b.nextID),
		"owner":       owner,
		"title":       fields["title"],
		"description": fields["description"],
		"created_at":  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(b.nextID) * time.Hour).Format(time.RFC3339),
	}
	b.nextID++
	b.maps = append(b.maps, m)
	return m
}

// Force makes every request to path answer with status and an error body.
// Status 0 removes the override.
func (b *Backend) Force(path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == 0 {
		delete(b.forced, path)
		return
	}
	b.forced[path] = status
}

// FailLogout makes the logout endpoint answer 500.
func (b *Backend) FailLogout() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logoutFail = true
}

// HoldLogout blocks logout requests until the returned function is called.
func (b *Backend) HoldLogout() (release func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	hold := make(chan struct{})
	b.logoutHold = hold
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			current := b.logoutHold == hold
			if current {
				b.logoutHold = nil
			}
			b.mu.Unlock()
			if current {
				close(hold)
			}
		})
	}
}

// ExpireAll invalidates every issued access token.
func (b *Backend) ExpireAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.access = map[string]string{}
}

// Revoked returns refresh tokens invalidated through the logout endpoint.
func (b *Backend) Revoked() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.revoked...)
}

// Requests returns the requests seen so far.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// RequestsTo returns the requests seen for a path.
func (b *Backend) RequestsTo(path string) []Request {
	var out []Request
	for _, r := range b.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// IssueTokens returns a valid token pair for an existing user.
func (b *Backend) IssueTokens(username string) (access, refresh string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issueLocked(username)
}

func (b *Backend) issueLocked(username string) (string, string) {
	acc := b.accounts[username]
	userID := acc.profile["id"]
	now := time.Now()
	sign := func(kind string, ttl time.Duration) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"token_type": kind,
			"user_id":    userID,
			"jti":        uuid.NewString(),
			"iat":        now.Unix(),
			"exp":        now.Add(ttl).Unix(),
		}).SignedString(signingKey)
		if err != nil {
			panic(err)
		}
		return token
	}
	access := sign("access", b.tokenTTL)
	refresh := sign("refresh", 24*time.Hour)
	b.access[access] = username
	b.refresh[refresh] = username
	return access, refresh
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	b.mu.Lock()
	b.requests = append(b.requests, Request{
		Method:        r.Method,
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
		Body:          body,
	})
	status, forced := b.forced[r.URL.Path]
	hold := b.logoutHold
	b.mu.Unlock()

	if forced {
		writeJSON(w, status, map[string]any{"error": fmt.Sprintf("forced status %d", status)})
		return
	}

	path := r.URL.Path
	switch {
	case path == "/api/users/register/" && r.Method == http.MethodPost:
		b.register(w, body)
	case path == "/api/users/token/" && r.Method == http.MethodPost:
		b.token(w, body)
	case path == "/api/users/logout/" && r.Method == http.MethodPost:
		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		b.logout(w, body)
	case path == "/api/users/profile/" && r.Method == http.MethodPatch:
		b.withUser(w, r, func(username string) { b.profile(w, username, body) })
	case path == "/api/users/change-password/" && r.Method == http.MethodPost:
		b.withUser(w, r, func(username string) { b.changePassword(w, username, body) })
	case path == "/api/users/me/" && r.Method == http.MethodGet:
		b.withUser(w, r, func(username string) { b.me(w, username) })
	case path == "/api/memory-maps/":
		b.withUser(w, r, func(username string) { b.mapsCollection(w, r, username, body) })
	case strings.HasPrefix(path, "/api/memory-maps/"):
		b.withUser(w, r, func(username string) { b.mapsItem(w, r, username, body) })
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
	}
}

func (b *Backend) register(w http.ResponseWriter, body map[string]any) {
	username, _ := body["username"].(string)
	password, _ := body["password"].(string)
	password2, _ := body["password2"].(string)

	b.mu.Lock()
	defer b.mu.Unlock()

	if username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"username": []string{"This field is required."}})
		return
	}
	if _, exists := b.accounts[username]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]any{"username": []string{"A user with that username already exists."}})
		return
	}
	if password != password2 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"password": []string{"Password fields didn't match."}})
		return
	}

	profile := b.addUserLocked(username, password, map[string]any{
		"email":      body["email"],
		"first_name": body["first_name"],
		"last_name":  body["last_name"],
	})
	access, refresh := b.issueLocked(username)
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":    profile,
		"profile": map[string]any{"bio": ""},
		"tokens":  map[string]any{"access": access, "refresh": refresh},
	})
}

func (b *Backend) token(w http.ResponseWriter, body map[string]any) {
	username, _ := body["username"].(string)
	password, _ := body["password"].(string)

	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.accounts[username]
	if !ok || acc.password != password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "No active account found with the given credentials"})
		return
	}
	access, refresh := b.issueLocked(username)
	writeJSON(w, http.StatusOK, map[string]any{"user": acc.profile, "access": access, "refresh": refresh})
}

func (b *Backend) logout(w http.ResponseWriter, body map[string]any) {
	refresh, _ := body["refresh_token"].(string)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.logoutFail {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Logout unavailable"})
		return
	}
	if refresh == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Refresh token is required"})
		return
	}
	if _, ok := b.refresh[refresh]; !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid token."})
		return
	}
	delete(b.refresh, refresh)
	b.revoked = append(b.revoked, refresh)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Successfully logged out."})
}

func (b *Backend) withUser(w http.ResponseWriter, r *http.Request, next func(username string)) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	b.mu.Lock()
	username, ok := b.access[token]
	b.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"detail": "Given token not valid for any token type",
			"code":   "token_not_valid",
		})
		return
	}
	next(username)
}

func (b *Backend) profile(w http.ResponseWriter, username string, body map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acc := b.accounts[username]
	if email, ok := body["email"].(string); ok && !strings.Contains(email, "@") {
		writeJSON(w, http.StatusBadRequest, map[string]any{"email": []string{"Enter a valid email address."}})
		return
	}
	for k, v := range body {
		if k == "id" || k == "username" {
			continue
		}
		acc.profile[k] = v
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": acc.profile})
}

func (b *Backend) changePassword(w http.ResponseWriter, username string, body map[string]any) {
	current, _ := body["current_password"].(string)
	next, _ := body["new_password"].(string)
	next2, _ := body["new_password2"].(string)

	b.mu.Lock()
	defer b.mu.Unlock()

	acc := b.accounts[username]
	if acc.password != current {
		writeJSON(w, http.StatusBadRequest, map[string]any{"current_password": []string{"Wrong password."}})
		return
	}
	if next != next2 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"new_password": []string{"Password fields didn't match."}})
		return
	}
	acc.password = next
	access, refresh := b.issueLocked(username)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Password updated successfully",
		"tokens":  map[string]any{"access": access, "refresh": refresh},
	})
}

func (b *Backend) me(w http.ResponseWriter, username string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"user": b.accounts[username].profile, "profile": map[string]any{"bio": ""}})
}

func (b *Backend) mapsCollection(w http.ResponseWriter, r *http.Request, username string, body map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		out := []map[string]any{}
		for _, m := range b.maps {
			if m["owner"] == username {
				out = append(out, m)
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			return out[i]["id"].(float64) < out[j]["id"].(float64)
		})
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		if title, _ := body["title"].(string); title == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"title": []string{"This field is required."}})
			return
		}
		writeJSON(w, http.StatusCreated, b.addMapLocked(username, body))
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"detail": fmt.Sprintf("Method \"%s\" not allowed.", r.Method)})
	}
}

func (b *Backend) mapsItem(w http.ResponseWriter, r *http.Request, username string, body map[string]any) {
	idText := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/memory-maps/"), "/")
	id, err := strconv.Atoi(idText)

	b.mu.Lock()
	defer b.mu.Unlock()

	idx := -1
	if err == nil {
		for i, m := range b.maps {
			if m["id"].(float64) == float64(id) && m["owner"] == username {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, b.maps[idx])
	case http.MethodPut:
		for _, k := range []string{"title", "description"} {
			if v, ok := body[k]; ok {
				b.maps[idx][k] = v
			}
		}
		writeJSON(w, http.StatusOK, b.maps[idx])
	case http.MethodDelete:
		b.maps = append(b.maps[:idx], b.maps[idx+1:]...)
		writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"detail": fmt.Sprintf("Method \"%s\" not allowed.", r.Method)})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
