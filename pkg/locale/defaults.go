package locale

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/localesync/pkg/pathcodec"
)

// Defaults are the compiled-in documents per language. They are the last
// resort when the bundle store is empty or unreachable.
type Defaults map[string]pathcodec.Document

// Languages returns the languages with a default document, sorted.
func (d Defaults) Languages() []string {
	return slices.Sorted(maps.Keys(d))
}

// Clone deep-copies every document.
func (d Defaults) Clone() Defaults {
	out := make(Defaults, len(d))
	for lang, doc := range d {
		out[lang] = pathcodec.Clone(doc)
	}
	return out
}

// LoadJSONDefaults reads {lang}.json files from the root of fsys.
func LoadJSONDefaults(fsys fs.FS) (Defaults, error) {
	return loadDefaults(fsys, []string{".json"}, json.Unmarshal)
}

// LoadYAMLDefaults reads {lang}.yaml and {lang}.yml files from the root of fsys.
func LoadYAMLDefaults(fsys fs.FS) (Defaults, error) {
	return loadDefaults(fsys, []string{".yaml", ".yml"}, yaml.Unmarshal)
}

func loadDefaults(fsys fs.FS, exts []string, unmarshal func([]byte, any) error) (Defaults, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefaults, err)
	}

	out := make(Defaults)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(path.Ext(name))
		if !slices.Contains(exts, ext) {
			continue
		}

		lang := strings.TrimSuffix(name, path.Ext(name))
		if err := ValidateLanguage(lang); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidDefaults, name, err)
		}
		if _, dup := out[lang]; dup {
			return nil, fmt.Errorf("%w: %q defined twice", ErrInvalidDefaults, lang)
		}

		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", name, err)
		}
		var raw map[string]any
		if err := unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: parsing %q: %v", ErrInvalidDefaults, name, err)
		}
		doc, ok := normalize(raw).(map[string]any)
		if !ok {
			doc = pathcodec.Document{}
		}
		out[lang] = doc
	}
	return out, nil
}

// normalize converts decoded YAML into the JSON value shapes used by
// documents: string-keyed objects and float64 numbers.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}
