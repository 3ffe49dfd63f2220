package toolloop

import (
	"sort"
	"sync"

	"github.com/martinemde/agentkit/unifiedllm"
)

// Registry manages the active tool set for a run. Registration is
// latest-wins: registering a tool under an existing name replaces it.
type Registry struct {
	tools map[string]Tool
	mu    sync.RWMutex
}

// NewRegistry creates an empty Registry, registering any provided tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range tools {
		r.tools[t.Definition().Name] = t
	}
	return r
}

// Register adds or replaces a tool in the registry.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Definition().Name] = t
}

// Unregister removes a tool from the registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Get returns a registered tool by name, or nil if not found.
func (r *Registry) Get(name string) Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Definitions returns the wire definitions of all registered tools,
// sorted by name.
func (r *Registry) Definitions() []unifiedllm.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]unifiedllm.ToolDefinition, 0, len(r.tools))
	for _, name := range r.sortedNamesLocked() {
		defs = append(defs, r.tools[name].Definition().ToolDefinition())
	}
	return defs
}

// Names returns the names of all registered tools, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNamesLocked()
}

func (r *Registry) sortedNamesLocked() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Clone returns a copy of the registry. Tool values are shared; only the
// name-to-tool mapping is duplicated.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &Registry{tools: make(map[string]Tool, len(r.tools))}
	for name, t := range r.tools {
		clone.tools[name] = t
	}
	return clone
}

// MergeFrom copies all tools from other into this registry. Existing tools
// with the same name are overwritten (latest-wins).
func (r *Registry) MergeFrom(other *Registry) {
	other.mu.RLock()
	defer other.mu.RUnlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, t := range other.tools {
		r.tools[name] = t
	}
}
