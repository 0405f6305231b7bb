package messages

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"msgbridge/internal/idl"
)

// Registry resolves qualified names to generated message types. It starts
// empty, generates types on first use and keeps them for its lifetime.
// It is safe for concurrent use; concurrent first resolutions of the same
// name yield the same *MessageType.
type Registry struct {
	src   idl.Source
	mu    sync.RWMutex
	types map[string]*MessageType
}

// NewRegistry returns an empty registry that reads schemas from src.
func NewRegistry(src idl.Source) *Registry {
	return &Registry{src: src, types: map[string]*MessageType{}}
}

// Resolve returns the MessageType for name, generating it and every type it
// nests on a cache miss.
func (r *Registry) Resolve(name string) (*MessageType, error) {
	r.mu.RLock()
	t, ok := r.types[name]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked(name, nil)
}

// resolveLocked resolves nested types before registering name itself. stack
// holds the names whose resolution is in progress.
func (r *Registry) resolveLocked(name string, stack []string) (*MessageType, error) {
	if t, ok := r.types[name]; ok {
		return t, nil
	}
	for i, n := range stack {
		if n == name {
			chain := append(append([]string{}, stack[i:]...), name)
			return nil, fmt.Errorf("%w: %s", ErrCyclicSchema, strings.Join(chain, " -> "))
		}
	}

	schema, ok := r.src.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}

	stack = append(stack, name)
	nested := map[string]*MessageType{}
	for _, ref := range schema.References() {
		nt, err := r.resolveLocked(ref, stack)
		switch {
		case errors.Is(err, ErrCyclicSchema), errors.Is(err, ErrInvalidSchema):
			return nil, err
		case err != nil:
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidSchema, name, err)
		}
		nested[ref] = nt
	}

	t, err := Generate(schema, nested)
	if err != nil {
		return nil, err
	}
	r.types[name] = t
	slog.Debug("registered message type", "type", name, "fields", len(schema.Fields))
	return t, nil
}

// Registered returns the names of every generated type in sorted order.
func (r *Registry) Registered() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.types))
	for n := range r.types {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
