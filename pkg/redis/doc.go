// Package redis opens go-redis clients for the localesync Redis backends:
// the change notification channel, the page content cache and the language
// preference store.
//
// Open accepts redis:// and rediss:// URLs and pings the server with linear
// backoff before returning. Connect does the same from an env-parsed Config.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// Healthcheck plugs into the readiness probe; Shutdown returns a close hook.
package redis
