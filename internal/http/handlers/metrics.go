package handlers

import "net/http"

// MetricsHandler serves the Prometheus registry, or 404 when metrics are off.
func (a *App) MetricsHandler() http.Handler {
	return a.Metrics.Handler()
}
