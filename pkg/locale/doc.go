// Package locale holds the in-memory translation resource consulted at
// render time, loads it from the bundle store and resolves lookups.
//
// The resource is an immutable Snapshot behind an atomic pointer. Loading,
// refreshing and switching the active language build a complete new
// snapshot and swap it in one step, so concurrent readers never see a
// document that mixes old and new bundles. Every swap is delivered to
// subscribers; a refresh always swaps, even when nothing changed, which is
// the signal for views to re-render.
//
// Lookup resolves a path in this order:
//
//  1. the in-memory document of the language
//  2. the compiled default document of the language
//  3. the compiled default document of the fallback language
//  4. the path itself
//
// Compiled defaults ship with the binary (usually through embed.FS) and are
// loaded with LoadJSONDefaults or LoadYAMLDefaults from {lang}.json or
// {lang}.yaml files.
package locale
