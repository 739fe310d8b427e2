// Copyright 2025 Patrick J. Scruggs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package slogrotate

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrDuplicateName is returned by Registry.Add under PolicyThrow when a
// configuration with the same name already exists.
var ErrDuplicateName = errors.New("slogrotate: duplicate configuration name")

// OverwritePolicy selects how Registry.Add resolves a name collision.
type OverwritePolicy int

const (
	// PolicyNone keeps the existing configuration and ignores the new one.
	PolicyNone OverwritePolicy = iota
	// PolicyOverwrite replaces the existing configuration entirely.
	PolicyOverwrite
	// PolicyUpdate copies every field of the new configuration that differs
	// from DefaultConfiguration onto the existing one.
	PolicyUpdate
	// PolicyThrow fails with ErrDuplicateName.
	PolicyThrow
)

// String returns the policy name.
func (p OverwritePolicy) String() string {
	switch p {
	case PolicyNone:
		return "none"
	case PolicyOverwrite:
		return "overwrite"
	case PolicyUpdate:
		return "update"
	case PolicyThrow:
		return "throw"
	default:
		return fmt.Sprintf("OverwritePolicy(%d)", int(p))
	}
}

// ConfigSource supplies sink configuration by name and notifies subscribers
// when the configured file path of a name changes. Registry is the standard
// implementation.
type ConfigSource interface {
	// Configuration returns the current configuration for name. The boolean
	// reports whether name was explicitly configured; when false the
	// returned value holds defaults.
	Configuration(name string) (SinkConfiguration, bool)

	// Watch subscribes to file path changes for name. The channel receives a
	// value after every change and coalesces bursts. The returned function
	// cancels the subscription.
	Watch(name string) (<-chan struct{}, func())
}

// Registry holds named sink configurations. It is safe for concurrent use.
// Structural changes are serialized; conflicting updates to the same name
// from different goroutines are applied in lock order.
type Registry struct {
	mu       sync.Mutex
	entries  map[string]*SinkConfiguration
	watchers map[string]map[uint64]chan struct{}
	nextID   uint64
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:  make(map[string]*SinkConfiguration),
		watchers: make(map[string]map[uint64]chan struct{}),
	}
}

// Add inserts cfg, resolving an existing entry with the same name according
// to policy.
func (r *Registry) Add(cfg SinkConfiguration, policy OverwritePolicy) error {
	key, display := normalizeName(cfg.Name)
	cfg.Name = display

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.entries[key]
	if !ok {
		r.insertLocked(key, cfg)
		return nil
	}

	switch policy {
	case PolicyNone:
		return nil
	case PolicyOverwrite:
		cfg.Name = existing.Name
		r.replaceLocked(key, cfg)
	case PolicyUpdate:
		defaults := DefaultConfiguration()
		next := *existing
		mergeFields(&next, &cfg, true, changedFields(&cfg, &defaults))
		r.replaceLocked(key, next)
	case PolicyThrow:
		return fmt.Errorf("%w: %q", ErrDuplicateName, display)
	default:
		return fmt.Errorf("slogrotate: unknown overwrite policy %d", int(policy))
	}
	return nil
}

// Merge copies only the listed fields of cfg onto the existing entry with the
// same name. When no entry exists, cfg is inserted whole.
func (r *Registry) Merge(cfg SinkConfiguration, fields ...Field) {
	r.merge(cfg, true, fields)
}

// MergeDefaults behaves like Merge, but unless enforce is set a field is only
// overwritten while the existing entry still holds the default value for it.
// Callers use it to supply fallbacks that never clobber explicit settings.
func (r *Registry) MergeDefaults(cfg SinkConfiguration, enforce bool, fields ...Field) {
	r.merge(cfg, enforce, fields)
}

func (r *Registry) merge(cfg SinkConfiguration, enforce bool, fields []Field) {
	key, display := normalizeName(cfg.Name)
	cfg.Name = display

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.entries[key]
	if !ok {
		r.insertLocked(key, cfg)
		return
	}
	next := *existing
	mergeFields(&next, &cfg, enforce, fields)
	r.replaceLocked(key, next)
}

// Override applies mutate to the entry for name, creating it with
// DefaultConfiguration first when absent. The entry keeps its name whatever
// mutate does to the Name field.
//
// mutate runs without the registry lock held, so it may read the Registry.
// It works on a snapshot; when another update to name lands first, the
// snapshot is taken again and mutate runs again.
func (r *Registry) Override(name string, mutate func(*SinkConfiguration)) {
	key, display := normalizeName(name)

	for {
		r.mu.Lock()
		base := r.entries[key]
		r.mu.Unlock()

		var next SinkConfiguration
		if base != nil {
			next = *base
		} else {
			next = DefaultConfiguration()
			next.Name = display
		}
		if mutate != nil {
			mutate(&next)
		}

		r.mu.Lock()
		if r.entries[key] != base {
			r.mu.Unlock()
			continue
		}
		if base != nil {
			next.Name = base.Name
		} else {
			next.Name = display
		}
		r.replaceLocked(key, next)
		r.mu.Unlock()
		return
	}
}

// Remove deletes the entry for name. Watchers are notified because the
// effective file path falls back to the default.
func (r *Registry) Remove(name string) {
	key, _ := normalizeName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.entries[key]
	if !ok {
		return
	}
	delete(r.entries, key)
	if existing.Filename != "" {
		r.notifyLocked(key)
	}
}

// Configuration returns a snapshot of the entry for name.
func (r *Registry) Configuration(name string) (SinkConfiguration, bool) {
	key, display := normalizeName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[key]; ok {
		return *existing, true
	}
	cfg := DefaultConfiguration()
	cfg.Name = display
	return cfg, false
}

// Has reports whether name has been configured.
func (r *Registry) Has(name string) bool {
	key, _ := normalizeName(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[key]
	return ok
}

// Names returns the display names of all entries, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.entries))
	for _, cfg := range r.entries {
		names = append(names, cfg.Name)
	}
	sort.Strings(names)
	return names
}

// Watch subscribes to file path changes for name.
func (r *Registry) Watch(name string) (<-chan struct{}, func()) {
	key, _ := normalizeName(name)
	ch := make(chan struct{}, 1)

	r.mu.Lock()
	r.nextID++
	id := r.nextID
	subs, ok := r.watchers[key]
	if !ok {
		subs = make(map[uint64]chan struct{})
		r.watchers[key] = subs
	}
	subs[id] = ch
	r.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if subs, ok := r.watchers[key]; ok {
				delete(subs, id)
				if len(subs) == 0 {
					delete(r.watchers, key)
				}
			}
		})
	}
	return ch, cancel
}

func (r *Registry) insertLocked(key string, cfg SinkConfiguration) {
	stored := cfg
	r.entries[key] = &stored
	r.notifyLocked(key)
}

func (r *Registry) replaceLocked(key string, cfg SinkConfiguration) {
	previous := r.entries[key]
	stored := cfg
	r.entries[key] = &stored
	if previous == nil || previous.Filename != stored.Filename {
		r.notifyLocked(key)
	}
}

// notifyLocked signals every watcher of key without blocking. A watcher that
// has not consumed the previous signal already has one pending.
func (r *Registry) notifyLocked(key string) {
	for _, ch := range r.watchers[key] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

var _ ConfigSource = (*Registry)(nil)
