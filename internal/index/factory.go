// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

package index

import (
	"sync"

	alcoveerr "github.com/alcove-dev/alcove/pkg/errors"
)

// BackendConfig carries what a store backend needs to open.
type BackendConfig struct {
	Path       string // file path for disk-backed stores, ignored by memory
	Dimensions int
}

// StoreFactory creates a Store for a named backend.
type StoreFactory func(cfg BackendConfig) (Store, error)

var (
	factories   = map[string]StoreFactory{}
	factoriesMu sync.RWMutex
)

// RegisterBackend registers a factory for a named store backend. Backend
// packages call this from init(). This function is goroutine-safe.
func RegisterBackend(name string, factory StoreFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = factory
}

// OpenStore creates a Store using the registered backend, defaulting to
// "memory" when name is empty.
func OpenStore(name string, cfg BackendConfig) (Store, error) {
	if name == "" {
		name = "memory"
	}

	factoriesMu.RLock()
	factory, ok := factories[name]
	factoriesMu.RUnlock()
	if !ok {
		return nil, alcoveerr.Errorf(alcoveerr.CodeIndexBackendUnsupported,
			"unsupported index backend: %q", name)
	}

	return factory(cfg)
}
