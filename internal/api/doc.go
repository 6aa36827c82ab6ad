// Package api hosts the HTTP server, middleware, and REST handlers for
// lead intake. Notable routes:
//   - POST /register for webhook lead submission (202 on acceptance).
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
package api
