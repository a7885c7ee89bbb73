package ndfilter

import (
	"fmt"
	"slices"
	"sync"
)

// Names of the built-in backends.
const (
	BackendWGPU = "wgpu"
	BackendCPU  = "cpu"
)

// BackendFactory creates a new, uninitialized backend instance.
type BackendFactory func() Backend

var (
	registryMu sync.RWMutex
	factories  = make(map[string]BackendFactory)
	opened     = make(map[string]Backend)
	failed     = make(map[string]error)

	// Priority order for backend selection (first available wins).
	backendPriority = []string{BackendWGPU, BackendCPU}
)

// RegisterBackend registers a backend factory under name. It is typically
// called from init() in backend packages. A factory registered under an
// existing name replaces it; an instance already opened under that name is
// closed.
func RegisterBackend(name string, factory BackendFactory) {
	registryMu.Lock()
	factories[name] = factory
	old := opened[name]
	delete(opened, name)
	delete(failed, name)
	registryMu.Unlock()
	if old != nil {
		old.Close()
	}
}

// UnregisterBackend removes a backend and closes its open instance.
// This is useful for testing.
func UnregisterBackend(name string) {
	registryMu.Lock()
	delete(factories, name)
	old := opened[name]
	delete(opened, name)
	delete(failed, name)
	registryMu.Unlock()
	if old != nil {
		old.Close()
	}
}

// RetryBackend forgets a remembered Init failure of name, so the next
// OpenBackend initializes it again. Use it after the cause of the failure
// has been fixed, e.g. once a device provider is set.
func RetryBackend(name string) {
	registryMu.Lock()
	delete(failed, name)
	registryMu.Unlock()
}

// AvailableBackends returns the registered backend names, highest priority
// first; backends outside the priority list follow in lexical order.
func AvailableBackends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for _, name := range backendPriority {
		if _, ok := factories[name]; ok {
			names = append(names, name)
		}
	}
	var rest []string
	for name := range factories {
		if !slices.Contains(backendPriority, name) {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(names, rest...)
}

// OpenBackend returns the initialized backend registered under name.
// The instance is created and initialized on first use and shared by later
// calls until CloseBackends. A failed Init is remembered: later calls return
// the same error without retrying until the backend is registered again.
func OpenBackend(name string) (Backend, error) {
	registryMu.RLock()
	b, ok := opened[name]
	registryMu.RUnlock()
	if ok {
		return b, nil
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if b, ok := opened[name]; ok {
		return b, nil
	}
	if err, ok := failed[name]; ok {
		return nil, err
	}
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not registered", ErrNoBackend, name)
	}
	b = factory()
	if b == nil {
		return nil, fmt.Errorf("%w: factory for %q returned nil", ErrNoBackend, name)
	}
	if err := b.Init(); err != nil {
		err = fmt.Errorf("init backend %q: %w", name, err)
		failed[name] = err
		return nil, err
	}
	propagateLogger(b, Logger())
	opened[name] = b
	Logger().Info("ndfilter: backend opened", "backend", name)
	return b, nil
}

// DefaultBackend opens the highest-priority backend that initializes
// successfully.
func DefaultBackend() (Backend, error) {
	var firstErr error
	for _, name := range AvailableBackends() {
		b, err := OpenBackend(name)
		if err == nil {
			return b, nil
		}
		Logger().Warn("ndfilter: backend unavailable", "backend", name, "err", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, ErrNoBackend
}

// CloseBackends closes every opened backend instance. Registered factories
// stay available.
func CloseBackends() {
	registryMu.Lock()
	toClose := make([]Backend, 0, len(opened))
	for name, b := range opened {
		toClose = append(toClose, b)
		delete(opened, name)
	}
	registryMu.Unlock()
	for _, b := range toClose {
		b.Close()
	}
}

// openedBackends returns a snapshot of the opened instances.
func openedBackends() []Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Backend, 0, len(opened))
	for _, b := range opened {
		out = append(out, b)
	}
	return out
}
