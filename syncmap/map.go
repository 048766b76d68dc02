// Package syncmap is a type-safe wrapper over sync.Map.
package syncmap

import "sync"

// Map is a sync.Map with typed keys and values. The zero Map is empty and
// ready for use.
type Map[K comparable, V any] struct {
	v sync.Map
}

func (m *Map[K, V]) Delete(key K) {
	m.v.Delete(key)
}

func (m *Map[K, V]) Load(key K) (value V, ok bool) {
	v, ok := m.v.Load(key)
	if !ok {
		return value, ok
	}
	return v.(V), ok
}

func (m *Map[K, V]) Store(key K, value V) {
	m.v.Store(key, value)
}

func (m *Map[K, V]) LoadAndDelete(key K) (value V, loaded bool) {
	v, loaded := m.v.LoadAndDelete(key)
	if !loaded {
		return value, loaded
	}
	return v.(V), loaded
}

func (m *Map[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool) {
	a, loaded := m.v.LoadOrStore(key, value)
	return a.(V), loaded
}

func (m *Map[K, V]) CompareAndDelete(key K, old V) (deleted bool) {
	return m.v.CompareAndDelete(key, old)
}

func (m *Map[K, V]) CompareAndSwap(key K, old, new V) bool {
	return m.v.CompareAndSwap(key, old, new)
}

// Range calls f for each key and value until f returns false. It can be used
// as a range-over-func iterator.
func (m *Map[K, V]) Range(f func(key K, value V) bool) {
	m.v.Range(func(key, value any) bool {
		return f(key.(K), value.(V))
	})
}

// Len returns the number of items. It is not a snapshot when the map is
// modified concurrently.
func (m *Map[K, V]) Len() int {
	n := 0
	m.v.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (m *Map[K, V]) Clear() {
	m.v.Clear()
}
