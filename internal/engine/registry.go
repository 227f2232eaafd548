package engine

import "github.com/graphd/graphd/internal/apierr"

// Registry is an immutable name-to-engine map built once at start-up.
// Reads need no lock: nothing mutates a Registry after New returns.
type Registry struct {
	engines     map[string]Engine
	defaultName string
}

// NewRegistry builds a Registry from the engines that initialized
// successfully. defaultName is the engine selected when a request does not
// specify ?engine=.
func NewRegistry(engines map[string]Engine, defaultName string) *Registry {
	cp := make(map[string]Engine, len(engines))
	for name, e := range engines {
		cp[name] = e
	}
	return &Registry{engines: cp, defaultName: defaultName}
}

// Resolve returns the named engine; an empty name selects the default. It
// returns apierr.EngineNotAvailable if the resulting name is unknown or was
// configured but never successfully initialized. Resolve never retries a
// failed engine.
func (r *Registry) Resolve(name string) (Engine, error) {
	if name == "" {
		name = r.defaultName
	}
	e, ok := r.engines[name]
	if !ok {
		return nil, apierr.Newf(apierr.EngineNotAvailable, "engine %q is not configured or not reachable", name)
	}
	return e, nil
}

// Default returns the configured fallback engine name.
func (r *Registry) Default() string { return r.defaultName }

// Names returns every successfully initialized engine's name.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	return names
}

// HasDefault reports whether the configured default engine is actually
// present in the registry. serve refuses to start when this is false.
func (r *Registry) HasDefault() bool {
	_, ok := r.engines[r.defaultName]
	return ok
}

// Close shuts down every registered engine, returning the first error
// encountered (after attempting to close all of them).
func (r *Registry) Close() error {
	var firstErr error
	for _, e := range r.engines {
		if err := e.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
