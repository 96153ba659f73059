// Package observability provides structured logging, Prometheus metrics, health
// checks and OpenTelemetry tracing.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("port", 8000).Info("Server started")
//
// Request-scoped logging:
//
//	observability.FromContext(r.Context()).WithError(err).Error("Render failed")
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	handler = observability.HTTPMetricsMiddleware(metrics, routes.RouteName)(handler)
//
// Database pool gauges are refreshed by a PoolSampler on a cron schedule:
//
//	sampler, _ := observability.NewPoolSampler(observability.DefaultPoolSampleSchedule, metrics, db, logger)
//	sampler.Start()
//	defer sampler.Stop()
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(version)
//	checker.AddCheck("database", true, db.HealthCheck)
//	checker.AddCheck("sessions", false, observability.RedisCheck(redisClient))
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, cfg.Observability.OTel, logger)
//	defer providers.Shutdown(ctx)
package observability
