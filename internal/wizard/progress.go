package wizard

import (
	"log/slog"

	"github.com/joseph-ayodele/inspection-wizard/constants"
	"github.com/joseph-ayodele/inspection-wizard/internal/inspection"
	"github.com/joseph-ayodele/inspection-wizard/internal/metrics"
)

// TrackProgress keeps the progress gauges in line with store after every change.
// The returned func stops tracking.
func TrackProgress(store *inspection.Store, m *metrics.Metrics, logger *slog.Logger) func() {
	if logger == nil {
		logger = slog.Default()
	}
	report := func(snap inspection.Snapshot) {
		step := constants.Step(snap.CurrentStep)
		unmet := Gate(step, snap.Inspection)
		m.SetProgress(snap.CurrentStep, len(unmet))
		logger.Debug("wizard.progress", "inspection_id", snap.Inspection.ID, "step", step, "unmet", len(unmet))
	}
	report(store.Snapshot())
	return store.Subscribe(report)
}
