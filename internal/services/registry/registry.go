// Package registry holds the parsed API descriptors keyed by data-field
// name (spec.md §3 "Data descriptor", "Configuration Registry" in §2).
package registry

import (
	"strings"
	"sync"

	"github.com/okuma-coupler/bridge/internal/config"
	"github.com/okuma-coupler/bridge/internal/domain"
	"github.com/okuma-coupler/bridge/internal/middleware/logging"
)

type Registry struct {
	mu          sync.RWMutex
	descriptors []domain.Descriptor
}

// Load parses api_config.json at path. On any failure it substitutes the
// one-item default descriptor and logs a warning, per spec.md §7
// "Configuration absent/invalid" — the system continues regardless.
func Load(path string, logger *logging.Logger) *Registry {
	log := logger.WithPrefix("REGISTRY")

	descriptors, err := config.LoadAPIConfig(path)
	if err != nil || len(descriptors) == 0 {
		log.Warn("api_config.json missing or empty, using default descriptor", "path", path, "error", err)
		descriptors = []domain.Descriptor{domain.DefaultDescriptor()}
	}

	return &Registry{descriptors: descriptors}
}

// Resolve finds the first enabled-or-not descriptor matching field against
// either DataFieldName or ApiName, in load order (spec.md §4.4 step 2):
// within a series General items are tried before Custom items; the order
// across machine kinds and series is not defined (see
// config.LoadAPIConfig). The boolean is false when no descriptor matches
// at all.
func (r *Registry) Resolve(field string) (domain.Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.descriptors {
		if strings.EqualFold(d.DataFieldName, field) || strings.EqualFold(d.APIName, field) {
			return d, true
		}
	}
	return domain.Descriptor{}, false
}

// All returns a snapshot of every loaded descriptor.
func (r *Registry) All() []domain.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}
