// Package session tracks named agent sessions. Each session carries its own
// model selection and a running score; the registry is the single shared map
// behind the gateway and the admin surface.
package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Registry errors.
var (
	// ErrDuplicateSession is returned when creating a session whose name is
	// already taken.
	ErrDuplicateSession = errors.New("session already exists")

	// ErrSessionNotFound is returned when looking up an unknown session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrEmptyName is returned for empty or whitespace-only session names.
	ErrEmptyName = errors.New("session name must not be empty")
)

// Session is one named conversation with its own model and score counter.
type Session struct {
	Name      string    `json:"name"`
	Model     string    `json:"model"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// Registry is a concurrency-safe map of sessions by name.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create adds a new session with the given model.
func (r *Registry) Create(name, model string) (Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Session{}, ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[name]; ok {
		return Session{}, fmt.Errorf("%w: %s", ErrDuplicateSession, name)
	}

	s := &Session{Name: name, Model: model, CreatedAt: r.now()}
	r.sessions[name] = s
	return *s, nil
}

// Get returns a snapshot of the named session.
func (r *Registry) Get(name string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[name]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, name)
	}
	return *s, nil
}

// Remove deletes the named session.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[name]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, name)
	}
	delete(r.sessions, name)
	return nil
}

// SetModel changes the model of the named session.
func (r *Registry) SetModel(name, model string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, name)
	}
	s.Model = model
	return nil
}

// AddScore increments the named session's score counter and returns the new
// total.
func (r *Registry) AddScore(name string, delta int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrSessionNotFound, name)
	}
	s.Score += delta
	return s.Score, nil
}

// Names returns the session names sorted case-insensitively.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sessions))
	for name := range r.sessions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names
}

// Len returns the number of sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
