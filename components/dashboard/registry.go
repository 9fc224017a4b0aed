package dashboard

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ettle/strcase"
)

// SectionHook lets packages register sections or loaders during init().
type SectionHook func(reg *Registry) error

var (
	globalHookMu sync.Mutex
	globalHooks  []SectionHook
)

// RegisterSectionHook registers a hook executed against new registries.
func RegisterSectionHook(h SectionHook) {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	globalHooks = append(globalHooks, h)
}

// Registry is the Section Registry: section descriptors in registration order
// plus the loader capabilities they reference.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	sections map[string]SectionDescriptor
	loaders  map[string]Loader
}

// NewRegistry builds an empty registry. Global hooks are not applied.
func NewRegistry() *Registry {
	return &Registry{
		sections: map[string]SectionDescriptor{},
		loaders:  map[string]Loader{},
	}
}

// NewRoleRegistry builds a registry holding the default sections for role,
// bound to the supplied loader capabilities, then applies global hooks so
// their sections follow the defaults.
func NewRoleRegistry(role Role, loaders map[string]Loader) (*Registry, error) {
	reg := NewRegistry()
	for name, loader := range loaders {
		if err := reg.RegisterLoader(name, loader); err != nil {
			return nil, err
		}
	}
	for _, def := range DefaultSections(role) {
		if err := reg.RegisterSection(def); err != nil {
			return nil, err
		}
	}
	if err := reg.ApplyHooks(); err != nil {
		return nil, fmt.Errorf("dashboard: section hook: %w", err)
	}
	return reg, nil
}

// ApplyHooks executes registered section hooks.
func (r *Registry) ApplyHooks() error {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	for _, hook := range globalHooks {
		if err := hook(r); err != nil {
			return err
		}
	}
	return nil
}

// RegisterSection stores a descriptor. Re-registering an id replaces the
// descriptor but keeps its original position.
func (r *Registry) RegisterSection(def SectionDescriptor) error {
	def.ID = NormalizeSectionID(def.ID)
	if def.ID == "" {
		return fmt.Errorf("dashboard: section id is required")
	}
	if def.RequiredRole != "" && !def.RequiredRole.Valid() {
		return fmt.Errorf("dashboard: section %s has unknown required role %q", def.ID, def.RequiredRole)
	}
	if def.Title == "" {
		def.Title = strcase.ToCase(def.ID, strcase.TitleCase, ' ')
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sections[def.ID]; !exists {
		r.order = append(r.order, def.ID)
	}
	r.sections[def.ID] = def
	return nil
}

// RegisterLoader associates a loader capability with a name sections reference.
func (r *Registry) RegisterLoader(name string, loader Loader) error {
	if name == "" {
		return fmt.Errorf("dashboard: loader name is required")
	}
	if loader == nil {
		return fmt.Errorf("dashboard: loader %s cannot be nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[name] = loader
	return nil
}

// Section fetches a descriptor by id. Anchor forms ("#id") are accepted.
func (r *Registry) Section(id string) (SectionDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.sections[NormalizeSectionID(id)]
	return def, ok
}

// LoaderFor resolves the loader capability referenced by a section.
// Sections without a loader report false with a nil error.
func (r *Registry) LoaderFor(def SectionDescriptor) (Loader, bool, error) {
	if def.Loader == "" {
		return nil, false, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	loader, ok := r.loaders[def.Loader]
	if !ok {
		return nil, false, fmt.Errorf("dashboard: section %s references unknown loader %s", def.ID, def.Loader)
	}
	return loader, true, nil
}

// Sections returns all descriptors in registration order.
func (r *Registry) Sections() []SectionDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]SectionDescriptor, 0, len(r.order))
	for _, id := range r.order {
		defs = append(defs, r.sections[id])
	}
	return defs
}

// SectionsByResource returns ids of sections listing resource.
func (r *Registry) SectionsByResource(resource string) []string {
	if resource == "" {
		return nil
	}
	var ids []string
	for _, def := range r.Sections() {
		if def.Resource == resource {
			ids = append(ids, def.ID)
		}
	}
	return ids
}

// VisibleFor returns the ids reachable by role in registration order.
func (r *Registry) VisibleFor(role Role) []string {
	return SectionsVisibleFor(r.Sections(), role)
}

// SectionsVisibleFor is the pure role-to-sections mapping. Logout sentinels
// are visible to every known role.
func SectionsVisibleFor(sections []SectionDescriptor, role Role) []string {
	if !role.Valid() {
		return nil
	}
	var ids []string
	for _, def := range sections {
		if def.Logout || role.Satisfies(def.RequiredRole) {
			ids = append(ids, def.ID)
		}
	}
	return ids
}

// NormalizeSectionID strips whitespace and a leading anchor marker.
func NormalizeSectionID(id string) string {
	return strings.TrimPrefix(strings.TrimSpace(id), "#")
}
