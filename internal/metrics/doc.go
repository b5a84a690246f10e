// Package metrics records build, entry and pipeline stage metrics for folio.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs a nil check:
//
//	rec := metrics.OrNoop(opts.Recorder)
//	rec.ObserveStageDuration("heading-ids", d)
//
// PrometheusRecorder forwards to client_golang collectors and exposes its
// registry over HTTP through Handler, which the watch command mounts on the
// configured metrics path.
package metrics
