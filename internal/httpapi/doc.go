// Package httpapi exposes the localesync engine over HTTP for editors and
// operators: reading bundles and content rows, editing rows, triggering
// rebuilds and resolving lookups. Liveness and readiness endpoints are
// mounted at /livez and /readyz.
package httpapi
