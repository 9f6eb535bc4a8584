// Package rebuild aggregates content rows into per-language locale bundles.
//
// A rebuild fetches every row of one language, applies each row at its full
// path (page.section) in sorted path order and stores the resulting document
// as the language bundle in a single upsert. Rebuilding is idempotent: with
// no intervening row changes two rebuilds store byte-identical documents.
//
// If fetching rows fails the rebuild is aborted with ErrRebuildAborted and
// the previous bundle is left untouched. Rows whose content cannot be decoded
// are skipped and counted.
//
// RebuildAll runs every supported language independently; a failure in one
// language never prevents the others from completing.
//
// Queue runs rebuilds as River background jobs, optionally on a cron schedule.
package rebuild
