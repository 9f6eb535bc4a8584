// Package notify delivers change notifications for the content and bundle
// tables.
//
// Events are trigger signals only. Consumers must treat the payload as
// untrusted and re-fetch authoritative state from the store instead of
// applying Event.Row directly.
//
// Three transports are provided:
//
//   - Hub: in-process fan-out, used with the in-memory store and in tests.
//   - PGListener: PostgreSQL LISTEN/NOTIFY fed by the triggers installed by
//     pkg/db migrations.
//   - Redis: Redis pub/sub for deployments where writers publish explicitly.
//
// Example:
//
//	hub := notify.NewHub()
//	events, err := hub.Subscribe(ctx)
//	if err != nil {
//		return err
//	}
//	for ev := range events {
//		log.Info("change", "table", ev.Table, "op", ev.Operation)
//	}
package notify
