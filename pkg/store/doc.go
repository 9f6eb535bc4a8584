// Package store provides access to the two tables behind the localization
// engine: the content store, holding one editable leaf value per
// (page, section, language), and the bundle store, holding one aggregated
// document per language.
//
// Two backends implement both interfaces: Memory, for tests and offline use,
// and Postgres, built on pgx. Every transport failure is reported as
// ErrStoreUnavailable so callers can fall back to the last known document:
//
//	rows, err := contents.Rows(ctx, "en")
//	if errors.Is(err, store.ErrStoreUnavailable) {
//		// keep serving what is already in memory
//	}
package store
