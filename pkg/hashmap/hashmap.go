// Package hashmap implements an expandable hash map with chained buckets.
//
// Each bucket is a small slice of entries. When the number of entries divided
// by the number of buckets exceeds the maximum load factor, the bucket array
// is doubled and every entry is rehashed into the new array once.
//
// A Map is not safe for concurrent mutation.
package hashmap

import "fmt"

const (
	// DefaultMaxLoadFactor is the load factor above which the map grows.
	DefaultMaxLoadFactor = 0.5
	// DefaultBuckets is the bucket count of a new or reset map.
	DefaultBuckets = 8
)

// Hasher maps a key to a hash. It must be pure and deterministic, and keys
// that compare equal must hash equal.
type Hasher[K comparable] func(K) uint64

type entry[K comparable, V any] struct {
	key   K
	value V
}

// noCopy makes `go vet` report accidental copies of a Map value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Map is a hash map from K to V that owns its bucket storage.
// Always use it through a pointer.
type Map[K comparable, V any] struct {
	_ noCopy

	hash        Hasher[K]
	maxLoad     float64
	initBuckets int

	buckets [][]entry[K, V]
	count   int
}

// Option configures a Map.
type Option func(*options)

type options struct {
	maxLoad float64
	buckets int
}

// WithMaxLoadFactor sets the load factor above which the map doubles.
// It panics if f is not positive.
func WithMaxLoadFactor(f float64) Option {
	if !(f > 0) {
		panic(fmt.Sprintf("hashmap: max load factor must be > 0, got %v", f))
	}
	return func(o *options) { o.maxLoad = f }
}

// WithInitialBuckets sets the bucket count used at construction and by Reset.
// It panics if n < 1.
func WithInitialBuckets(n int) Option {
	if n < 1 {
		panic(fmt.Sprintf("hashmap: initial buckets must be >= 1, got %d", n))
	}
	return func(o *options) { o.buckets = n }
}

// New creates an empty map using hash to pick buckets.
func New[K comparable, V any](hash Hasher[K], opts ...Option) *Map[K, V] {
	if hash == nil {
		panic("hashmap: nil hasher")
	}
	o := options{maxLoad: DefaultMaxLoadFactor, buckets: DefaultBuckets}
	for _, opt := range opts {
		opt(&o)
	}
	return &Map[K, V]{
		hash:        hash,
		maxLoad:     o.maxLoad,
		initBuckets: o.buckets,
		buckets:     make([][]entry[K, V], o.buckets),
	}
}

// Associate sets the value for key. An existing value is replaced in place;
// otherwise a new entry is added and the map grows if the load factor is
// now above the maximum.
func (m *Map[K, V]) Associate(key K, value V) {
	b := m.bucketFor(key, len(m.buckets))
	bucket := m.buckets[b]
	for i := range bucket {
		if bucket[i].key == key {
			bucket[i].value = value
			return
		}
	}

	m.buckets[b] = append(bucket, entry[K, V]{key: key, value: value})
	m.count++

	for m.LoadFactor() > m.maxLoad {
		m.grow()
	}
}

// Find returns a pointer to the value stored for key.
// The pointer is valid until the next Associate or Reset.
func (m *Map[K, V]) Find(key K) (*V, bool) {
	bucket := m.buckets[m.bucketFor(key, len(m.buckets))]
	for i := range bucket {
		if bucket[i].key == key {
			return &bucket[i].value, true
		}
	}
	return nil, false
}

// Size returns the number of distinct keys.
func (m *Map[K, V]) Size() int { return m.count }

// BucketCount returns the current number of buckets.
func (m *Map[K, V]) BucketCount() int { return len(m.buckets) }

// LoadFactor returns entries per bucket.
func (m *Map[K, V]) LoadFactor() float64 {
	return float64(m.count) / float64(len(m.buckets))
}

// Reset drops every entry and goes back to the initial bucket count.
func (m *Map[K, V]) Reset() {
	m.buckets = make([][]entry[K, V], m.initBuckets)
	m.count = 0
}

// Range calls fn for every entry until fn returns false.
// The map must not be mutated during Range.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for _, bucket := range m.buckets {
		for i := range bucket {
			if !fn(bucket[i].key, bucket[i].value) {
				return
			}
		}
	}
}

// grow moves every entry into a bucket array twice the current size.
func (m *Map[K, V]) grow() {
	n := len(m.buckets) * 2
	next := make([][]entry[K, V], n)
	for _, bucket := range m.buckets {
		for _, e := range bucket {
			b := m.bucketFor(e.key, n)
			next[b] = append(next[b], e)
		}
	}
	m.buckets = next
}

func (m *Map[K, V]) bucketFor(key K, n int) int {
	return int(m.hash(key) % uint64(n))
}
