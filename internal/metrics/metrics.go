// Package metrics collects Prometheus metrics for generation calls and batch runs.
//
// A Recorder owns its own registry so that several campaigns (and tests) never
// collide on the default registerer. Every method is safe to call on a nil
// *Recorder, which disables collection.
//
// Usage:
//
//	rec := metrics.NewRecorder()
//	rec.AttemptFinished("cerebras", "transient")
//	rec.GenerationFinished("cerebras", "llama-3.3-70b", "success", time.Since(start))
//	_ = rec.WriteTextfile("metrics.prom")
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder bundles the ggpbench metric families.
type Recorder struct {
	registry *prometheus.Registry

	// Attempts counts vendor attempts.
	// Labels: provider, outcome (success|transient|quota)
	Attempts *prometheus.CounterVec

	// Rotations counts credential rotations triggered by quota errors.
	// Labels: provider
	Rotations *prometheus.CounterVec

	// Generations counts completed Generate calls.
	// Labels: provider, model, status (success|format_error|exhausted|credentials_exhausted|error)
	Generations *prometheus.CounterVec

	// GenerationDuration measures Generate latency in seconds, retries included.
	// Labels: provider, model
	GenerationDuration *prometheus.HistogramVec

	// Samples counts processed samples.
	// Labels: experiment, outcome (success|shape_mismatch|missing_ground_truth|generation_failed|error)
	Samples *prometheus.CounterVec

	// Batches counts batch runs.
	// Labels: experiment, status (saved|discarded)
	Batches *prometheus.CounterVec
}

// NewRecorder creates a Recorder with a private registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		Attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ggpbench",
			Name:      "provider_attempts_total",
			Help:      "Vendor call attempts by outcome.",
		}, []string{"provider", "outcome"}),
		Rotations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ggpbench",
			Name:      "credential_rotations_total",
			Help:      "Credential rotations triggered by quota errors.",
		}, []string{"provider"}),
		Generations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ggpbench",
			Name:      "generations_total",
			Help:      "Structured generation calls by terminal status.",
		}, []string{"provider", "model", "status"}),
		GenerationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ggpbench",
			Name:      "generation_duration_seconds",
			Help:      "Structured generation latency including retries.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"provider", "model"}),
		Samples: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ggpbench",
			Name:      "samples_total",
			Help:      "Processed input samples by outcome.",
		}, []string{"experiment", "outcome"}),
		Batches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ggpbench",
			Name:      "batches_total",
			Help:      "Batch runs by save status.",
		}, []string{"experiment", "status"}),
	}
}

// Registry exposes the underlying registry, e.g. for testutil assertions.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// AttemptFinished records one vendor attempt.
func (r *Recorder) AttemptFinished(provider, outcome string) {
	if r == nil {
		return
	}
	r.Attempts.WithLabelValues(provider, outcome).Inc()
}

// CredentialRotated records a credential rotation.
func (r *Recorder) CredentialRotated(provider string) {
	if r == nil {
		return
	}
	r.Rotations.WithLabelValues(provider).Inc()
}

// GenerationFinished records the terminal status and latency of one Generate call.
func (r *Recorder) GenerationFinished(provider, model, status string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.Generations.WithLabelValues(provider, model, status).Inc()
	r.GenerationDuration.WithLabelValues(provider, model).Observe(elapsed.Seconds())
}

// SampleFinished records the outcome of one input sample.
func (r *Recorder) SampleFinished(experiment, outcome string) {
	if r == nil {
		return
	}
	r.Samples.WithLabelValues(experiment, outcome).Inc()
}

// BatchFinished records whether a batch result was saved or discarded.
func (r *Recorder) BatchFinished(experiment string, saved bool) {
	if r == nil {
		return
	}
	status := "discarded"
	if saved {
		status = "saved"
	}
	r.Batches.WithLabelValues(experiment, status).Inc()
}

// WriteTextfile writes all metrics in the Prometheus text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
