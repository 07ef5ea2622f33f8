// Package ident provides case-insensitive identifier normalization shared by
// the class registry, the dynamic field map, and lexical environments.
package ident

import "strings"

// Normalize lowercases name so that class, method, field, and variable
// lookups are case-insensitive throughout the compiler and runtime.
func Normalize(name string) string {
	return strings.ToLower(name)
}

// Map is a case-insensitive string-keyed map that preserves the original
// casing of keys for error messages while normalizing lookups through
// Normalize.
type Map[V any] struct {
	values map[string]V
	cased  map[string]string
}

// NewMap creates an empty case-insensitive map.
func NewMap[V any]() *Map[V] {
	return &Map[V]{
		values: make(map[string]V),
		cased:  make(map[string]string),
	}
}

// Get looks up a value by name (case-insensitive).
func (m *Map[V]) Get(name string) (V, bool) {
	v, ok := m.values[Normalize(name)]
	return v, ok
}

// Has reports whether name exists in the map.
func (m *Map[V]) Has(name string) bool {
	_, ok := m.values[Normalize(name)]
	return ok
}

// Set stores value under name, preserving the first-seen casing.
func (m *Map[V]) Set(name string, value V) {
	key := Normalize(name)
	if _, exists := m.cased[key]; !exists {
		m.cased[key] = name
	}
	m.values[key] = value
}

// Delete removes name from the map.
func (m *Map[V]) Delete(name string) {
	key := Normalize(name)
	delete(m.values, key)
	delete(m.cased, key)
}

// OriginalCase returns the casing name was first stored under.
func (m *Map[V]) OriginalCase(name string) string {
	if orig, ok := m.cased[Normalize(name)]; ok {
		return orig
	}
	return name
}

// Len returns the number of entries.
func (m *Map[V]) Len() int {
	return len(m.values)
}

// Keys returns the original-case keys in unspecified order.
func (m *Map[V]) Keys() []string {
	keys := make([]string, 0, len(m.cased))
	for _, orig := range m.cased {
		keys = append(keys, orig)
	}
	return keys
}
