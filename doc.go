// Package localesync keeps multi-language website text in a database and
// serves it to running processes without a restart.
//
// Editors write individual values as content rows addressed by page,
// section and language. A rebuild aggregates all rows of a language into one
// nested document, the locale bundle. The Engine loads bundles over compiled
// default documents, answers lookups from an atomically swapped snapshot and
// refreshes itself whenever the store reports a change.
//
// # Quick Start
//
//	hub := notify.NewHub()
//	st := store.NewMemory(store.WithPublisher(hub))
//
//	engine, err := localesync.New(
//	    localesync.WithLanguages("en", "sl"),
//	    localesync.WithDefaults(defaults),
//	    localesync.WithStore(st),
//	    localesync.WithSubscriber(hub),
//	    localesync.WithAutoRebuild(true),
//	)
//	if err != nil {
//	    return err
//	}
//	defer engine.Close()
//
//	if err := engine.Start(ctx); err != nil {
//	    return err
//	}
//
//	title := engine.LookupString("home.hero.title", "sl")
//
// # Fallback
//
// Lookup resolves a path from the loaded bundle of the language, then the
// compiled defaults of the language, then the compiled defaults of the
// fallback language. When every layer misses, the path itself is returned so
// the gap is visible on the page.
//
// # Live updates
//
// With a subscriber configured, Start runs a listener that re-fetches
// bundles after every change event. Bursts of events are collapsed into at
// most one follow-up refresh. WithAutoRebuild adds a second listener that
// rebuilds bundles when content rows change, so edits reach readers without
// an explicit rebuild call.
package localesync
