package server

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	errInvalidLogin = errors.New("invalid login credentials")
	errUserExists   = errors.New("user already registered")
)

// User is an account of the stand-in app.
type User struct {
	ID       string
	Email    string
	Password string
}

// accounts holds users and issued tokens. Tokens serve both as the browser
// session cookie and as the bearer token of the REST API.
type accounts struct {
	mu     sync.Mutex
	users  map[string]User   // by lower-cased email
	tokens map[string]string // token -> user id
}

func newAccounts(users []User) *accounts {
	a := &accounts{
		users:  make(map[string]User, len(users)),
		tokens: make(map[string]string),
	}
	for _, u := range users {
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		a.users[strings.ToLower(u.Email)] = u
	}
	return a
}

func (a *accounts) signUp(email, password string) (User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(email))
	if _, ok := a.users[key]; ok {
		return User{}, errUserExists
	}
	u := User{ID: uuid.NewString(), Email: strings.TrimSpace(email), Password: password}
	a.users[key] = u
	return u, nil
}

// signIn checks the password and issues a new token.
func (a *accounts) signIn(email, password string) (User, string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	u, ok := a.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok || u.Password != password {
		return User{}, "", errInvalidLogin
	}
	token := uuid.NewString()
	a.tokens[token] = u.ID
	return u, token, nil
}

// userFor resolves a token to its user id.
func (a *accounts) userFor(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	id, ok := a.tokens[token]
	return id, ok
}

func (a *accounts) revoke(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.tokens, token)
}
