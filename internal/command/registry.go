package command

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Registry holds the closed set of registered commands. Only names that were
// explicitly registered here ever dispatch; anything else is ignored, so an
// attacker-chosen command name can never reach state it should not.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: map[string]Handler{}}
}

// Register adds a handler under the given name (lowercased).
func (r *Registry) Register(name string, h Handler) error {
	if h == nil {
		return errors.New("handler is nil")
	}
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return errors.New("command name is required")
	}
	if _, exists := r.handlers[key]; exists {
		return fmt.Errorf("command already registered: %s", key)
	}
	r.handlers[key] = h
	return nil
}

// MustRegister calls Register and panics on error.
func (r *Registry) MustRegister(name string, h Handler) {
	if err := r.Register(name, h); err != nil {
		panic(err)
	}
}

// Get returns the handler for the given (case-insensitive) name.
func (r *Registry) Get(name string) (Handler, bool) {
	h, ok := r.handlers[strings.ToLower(name)]
	return h, ok
}

// Names returns all registered command names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
