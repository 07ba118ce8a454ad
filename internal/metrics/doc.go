// Package metrics provides observability hooks for assetpipe builds.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	drv := pipeline.NewDriver(cfg, registry)           // NoopRecorder
//	drv = drv.WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// The watch command serves the registry it builds through HTTPHandler on
// /metrics.
package metrics
