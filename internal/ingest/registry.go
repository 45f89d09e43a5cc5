package ingest

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]EntitySchema)
	registryMu sync.RWMutex
)

// Register adds an entity schema to the registry.
// Panics if a schema with the same kind is already registered.
func Register(schema EntitySchema) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if schema.Kind == "" {
		panic("entity schema has no kind")
	}
	if _, exists := registry[schema.Kind]; exists {
		panic(fmt.Sprintf("entity kind already registered: %s", schema.Kind))
	}

	registry[schema.Kind] = schema
}

// Lookup returns the schema for kind.
// Returns false if not found.
func Lookup(kind string) (EntitySchema, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	schema, ok := registry[kind]
	return schema, ok
}

// Kinds returns all registered kinds, sorted for consistent ordering.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// All returns all registered schemas, sorted by kind.
func All() []EntitySchema {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]EntitySchema, 0, len(registry))
	for _, s := range registry {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Kind < result[j].Kind })
	return result
}

// Clear removes all registered schemas.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]EntitySchema)
}
