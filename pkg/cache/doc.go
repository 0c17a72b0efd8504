// Package cache provides a small thread-safe LRU map.
//
// It keeps hot lookups of immutable records, such as remote browser context ids,
// in process memory:
//
//	ids := cache.NewLRU[mailbox.Combination, string](32)
//	ids.Put(combo, id)
//	id, ok := ids.Get(combo)
package cache
