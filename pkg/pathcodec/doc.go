// Package pathcodec converts between dotted paths ("home.faq.items.0.q") and
// locations inside a nested JSON-like document.
//
// A Document is a map[string]any whose values are either nested documents or
// leaves. Leaves are the JSON tagged union produced by encoding/json: string,
// float64 (or json.Number), bool, []any and map[string]any. A leaf that is an
// object can still be traversed by GetPath, but SetPath never decomposes arrays.
//
// # Numeric segments
//
// Numeric-looking segments are ordinary object keys, never array indices:
//
//	doc := pathcodec.Document{}
//	pathcodec.SetPath(doc, "faq.items.0.q", "Why?")
//	// doc == {"faq": {"items": {"0": {"q": "Why?"}}}}
//
// Arrays only appear as atomic leaf values written in one piece. This keeps
// aggregation independent of the order rows are fetched in.
//
// # Conflicts
//
// When an intermediate segment already holds a non-object value (a string,
// number, bool or array) and a deeper path must be created below it, the value
// is replaced by a new object. This is a silent last-write-wins resolution.
//
// # Flatten
//
// Flatten is the inverse of SetPath: it walks objects and reports every leaf
// with its page (first segment) and section (remaining segments). Applying
// SetPath for every entry of Flatten(doc) rebuilds doc exactly, except for
// empty objects, which have no leaves and are dropped.
package pathcodec
