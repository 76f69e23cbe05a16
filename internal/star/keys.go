//-------------------------------------------------------------------------
//
// pgEdge Sales ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package star builds the sales star schema: the customer, product and
// date dimensions, the sales fact table, and optional derived metrics.
package star

// KeyRegistry assigns integer surrogate keys to natural keys. Keys start
// at 1 and increase by one per distinct natural key in the order keys are
// first assigned, so the same input sequence always yields the same keys.
//
// A registry lives for one build; it is not safe for concurrent use.
type KeyRegistry[K comparable] struct {
	keys map[K]int
	next int
}

// NewKeyRegistry returns an empty registry whose first key is 1.
func NewKeyRegistry[K comparable]() *KeyRegistry[K] {
	return &KeyRegistry[K]{
		keys: make(map[K]int),
		next: 1,
	}
}

// Assign returns the surrogate key for k, allocating the next key when k
// has not been seen. created reports whether a key was allocated.
func (r *KeyRegistry[K]) Assign(k K) (key int, created bool) {
	if key, ok := r.keys[k]; ok {
		return key, false
	}
	key = r.next
	r.keys[k] = key
	r.next++
	return key, true
}

// Lookup returns the surrogate key for k without allocating one.
func (r *KeyRegistry[K]) Lookup(k K) (int, bool) {
	key, ok := r.keys[k]
	return key, ok
}

// Len returns the number of natural keys registered.
func (r *KeyRegistry[K]) Len() int {
	return len(r.keys)
}
