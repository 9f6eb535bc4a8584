package pathcodec

import (
	"cmp"
	"slices"
	"strings"
)

// Separator joins path segments.
const Separator = "."

// Document is a nested, JSON-compatible translation document.
type Document = map[string]any

// Entry is a single leaf of a document addressed by page and section.
type Entry struct {
	Value   any
	Page    string
	Section string
}

// Path returns the full dotted path of the entry.
func (e Entry) Path() string {
	return Join(e.Page, e.Section)
}

// Split splits a dotted path into its segments.
func Split(path string) ([]string, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	segments := strings.Split(path, Separator)
	if slices.Contains(segments, "") {
		return nil, ErrEmptySegment
	}
	return segments, nil
}

// Join builds a full path from a page and a section within that page.
// An empty section yields the page alone.
func Join(page, section string) string {
	if section == "" {
		return page
	}
	if page == "" {
		return section
	}
	return page + Separator + section
}

// SplitPage splits a full path into the page (first segment) and the section
// (everything after it).
func SplitPage(path string) (page, section string) {
	page, section, _ = strings.Cut(path, Separator)
	return page, section
}

// SetPath stores value at path, creating intermediate objects as needed.
// Non-object intermediates are overwritten with a new object.
// The document is mutated in place and returned for convenience.
func SetPath(doc Document, path string, value any) (Document, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	if value == nil {
		return doc, ErrNilValue
	}
	segments, err := Split(path)
	if err != nil {
		return doc, err
	}

	current := doc
	for _, key := range segments[:len(segments)-1] {
		next, ok := current[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[key] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value

	return doc, nil
}

// GetPath returns the value stored at path.
// It reports false when any segment is missing or an intermediate value is not
// an object.
func GetPath(doc Document, path string) (any, bool) {
	segments, err := Split(path)
	if err != nil || doc == nil {
		return nil, false
	}

	var current any = doc
	for _, key := range segments {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Flatten decomposes a document into leaf entries sorted by path.
// Objects are walked recursively; arrays and scalars are leaves.
// Top-level leaves are reported with an empty section.
func Flatten(doc Document) []Entry {
	var entries []Entry
	for page, value := range doc {
		if obj, ok := value.(map[string]any); ok {
			entries = flattenInto(entries, page, "", obj)
			continue
		}
		entries = append(entries, Entry{Page: page, Value: value})
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		return cmp.Compare(a.Path(), b.Path())
	})
	return entries
}

func flattenInto(entries []Entry, page, prefix string, obj map[string]any) []Entry {
	for key, value := range obj {
		section := Join(prefix, key)
		if nested, ok := value.(map[string]any); ok {
			entries = flattenInto(entries, page, section, nested)
			continue
		}
		entries = append(entries, Entry{Page: page, Section: section, Value: value})
	}
	return entries
}

// Clone returns a deep copy of doc. Objects and arrays are copied; scalars are
// shared since they are immutable.
func Clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies objects and arrays inside v.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Clone(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = CloneValue(item)
		}
		return out
	default:
		return v
	}
}
