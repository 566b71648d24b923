package application

import (
	"sync"

	"tradepost/contexts/settlement-core/sale-settlement-service/ports"
)

// RegistryRef is the swappable binding to the role/configuration registry.
// The replace-registry admin operation swaps it in place; every use case
// reads the binding current at call start.
type RegistryRef struct {
	mu       sync.RWMutex
	registry ports.Registry
}

func NewRegistryRef(registry ports.Registry) *RegistryRef {
	return &RegistryRef{registry: registry}
}

func (r *RegistryRef) Current() ports.Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.registry
}

func (r *RegistryRef) Swap(next ports.Registry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registry = next
}
