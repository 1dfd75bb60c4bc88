package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the inspection wizard core.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Store mutations by operation
	StoreMutations *prometheus.CounterVec

	// Durable snapshot writes/loads by result ("ok", "failed", "corrupt", "absent")
	SnapshotOps *prometheus.CounterVec

	// Capture classification by slot and outcome
	ClassifyOutcome *prometheus.CounterVec

	// Field extraction by kind (identity, plate, vin) and outcome
	ExtractOutcome *prometheus.CounterVec
	ExtractLatency *prometheus.HistogramVec

	// Submission writes by record kind and result
	SubmissionWrites *prometheus.CounterVec
	SubmissionScore  *prometheus.HistogramVec

	// Background capture jobs
	CaptureJobs       *prometheus.CounterVec
	CaptureQueueDepth prometheus.Gauge

	// Wizard continue attempts by step and result ("advanced", "blocked")
	StepGates *prometheus.CounterVec

	// Current step of the draft and the requirements its gate still misses
	CurrentStep prometheus.Gauge
	UnmetOnStep prometheus.Gauge
}

// New creates a Metrics instance registered on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		StoreMutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "inspection_store_mutations_total",
			Help: "Document store mutations by operation",
		}, []string{"op"}),

		SnapshotOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "inspection_snapshot_operations_total",
			Help: "Durable snapshot loads and writes by operation and result",
		}, []string{"op", "result"}),

		ClassifyOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "inspection_classify_total",
			Help: "Capture classifications by expected slot and outcome",
		}, []string{"slot", "outcome"}),

		ExtractOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "inspection_extract_total",
			Help: "Field extractions by kind and outcome",
		}, []string{"kind", "outcome"}),

		ExtractLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inspection_extract_duration_seconds",
			Help:    "Duration of field extraction by kind",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),

		SubmissionWrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "inspection_submission_writes_total",
			Help: "Persistence writes at submission by record kind and result",
		}, []string{"record", "result"}),

		SubmissionScore: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inspection_submission_score",
			Help:    "Risk and quality scores of submitted inspections",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}, []string{"score"}),

		CaptureJobs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "inspection_capture_jobs_total",
			Help: "Background capture jobs by result",
		}, []string{"result"}),

		CaptureQueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "inspection_capture_queue_depth",
			Help: "Capture jobs waiting for a worker",
		}),

		StepGates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "inspection_wizard_gate_total",
			Help: "Wizard continue attempts by step and result",
		}, []string{"step", "result"}),

		CurrentStep: f.NewGauge(prometheus.GaugeOpts{
			Name: "inspection_wizard_current_step",
			Help: "Wizard step the draft is on",
		}),

		UnmetOnStep: f.NewGauge(prometheus.GaugeOpts{
			Name: "inspection_wizard_unmet_requirements",
			Help: "Requirements the current step's gate still misses",
		}),
	}
}

// IncMutation records a store mutation.
func (m *Metrics) IncMutation(op string) {
	if m != nil {
		m.StoreMutations.WithLabelValues(op).Inc()
	}
}

// IncSnapshot records a snapshot load or write result.
func (m *Metrics) IncSnapshot(op, result string) {
	if m != nil {
		m.SnapshotOps.WithLabelValues(op, result).Inc()
	}
}

// IncClassify records a classification outcome.
func (m *Metrics) IncClassify(slot, outcome string) {
	if m != nil {
		m.ClassifyOutcome.WithLabelValues(slot, outcome).Inc()
	}
}

// ObserveExtract records an extraction outcome and its duration.
func (m *Metrics) ObserveExtract(kind, outcome string, d time.Duration) {
	if m != nil {
		m.ExtractOutcome.WithLabelValues(kind, outcome).Inc()
		m.ExtractLatency.WithLabelValues(kind).Observe(d.Seconds())
	}
}

// IncSubmissionWrite records one persistence write at submission.
func (m *Metrics) IncSubmissionWrite(record, result string) {
	if m != nil {
		m.SubmissionWrites.WithLabelValues(record, result).Inc()
	}
}

// ObserveScores records the derived scores of an assembled submission.
func (m *Metrics) ObserveScores(risk, quality int) {
	if m != nil {
		m.SubmissionScore.WithLabelValues("risk").Observe(float64(risk))
		m.SubmissionScore.WithLabelValues("quality").Observe(float64(quality))
	}
}

// IncCaptureJob records a finished capture job.
func (m *Metrics) IncCaptureJob(result string) {
	if m != nil {
		m.CaptureJobs.WithLabelValues(result).Inc()
	}
}

// SetQueueDepth reports the number of queued capture jobs.
func (m *Metrics) SetQueueDepth(n int) {
	if m != nil {
		m.CaptureQueueDepth.Set(float64(n))
	}
}

// IncGate records a continue attempt on a wizard step.
func (m *Metrics) IncGate(step, result string) {
	if m != nil {
		m.StepGates.WithLabelValues(step, result).Inc()
	}
}

// SetProgress reports the draft's current step and how many of its requirements are unmet.
func (m *Metrics) SetProgress(step, unmet int) {
	if m != nil {
		m.CurrentStep.Set(float64(step))
		m.UnmetOnStep.Set(float64(unmet))
	}
}
