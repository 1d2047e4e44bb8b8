/*
Package monitoring provides Prometheus metrics for the bridge and the remote
window.

# Overview

Collectors are registered on an injected prometheus.Registerer, so tests and
embedders can use a private registry. A nil *Metrics is accepted everywhere
and records nothing.

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Time a bridge request
	timer := monitoring.NewTimer(metrics)
	// ... dispatch ...
	timer.Stop("INVOKE", err)

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
*/
package monitoring
