// Package health serves the liveness and readiness probes of the localesync
// HTTP API.
//
// Liveness always answers OK while the process runs. Readiness runs every
// named check concurrently under a shared timeout; the service is ready when
// all of them pass:
//
//	r.Get("/readyz", health.ReadinessHandler(health.Checks{
//		"postgres": db.Healthcheck(pool),
//		"redis":    redis.Healthcheck(client),
//		"locales":  engine.Healthcheck,
//	}))
//
// Responses are plain text unless the client asks for JSON with an Accept
// header or ?format=json.
package health
