// Package pagecontent serves per-page content overrides straight from the
// content store, without waiting for a bundle rebuild.
//
// A Manager loads every section of a page in one language as a Sections map
// and caches it under "page:language". Misses for the same language share a
// single store query. When the store cannot be reached Load returns an empty
// map together with store.ErrStoreUnavailable, so callers can render
// defaults.
//
// Get resolves a value in this order: the page override, the translation
// lookup, the caller's fallback, the path itself.
//
// Two caches are provided: an in-process LRU with TTL and a Redis cache that
// can be shared between instances.
package pagecontent
