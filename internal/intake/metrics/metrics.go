package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the intake module.
type Metrics struct {
	ApplicationsCreated prometheus.Counter
	IncidentsGenerated  prometheus.Counter
	IncidentsRemoved    prometheus.Counter
	FilesUploaded       prometheus.Counter
	SlotsWaived         prometheus.Counter
	SnapshotsSaved      prometheus.Counter
	SnapshotSaveErrors  prometheus.Counter
	PhasesCompleted     *prometheus.CounterVec
	ExternalEvents      *prometheus.CounterVec
}

// New creates and registers all intake metrics.
func New() *Metrics {
	return &Metrics{
		ApplicationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "intake_applications_created_total",
			Help: "Applications opened",
		}),
		IncidentsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "intake_incidents_generated_total",
			Help: "Incidents materialized from screening answers",
		}),
		IncidentsRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "intake_incidents_removed_total",
			Help: "Incidents explicitly removed by applicants",
		}),
		FilesUploaded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "intake_files_uploaded_total",
			Help: "Evidence file versions recorded",
		}),
		SlotsWaived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "intake_slots_waived_total",
			Help: "Document slots waived with an accepted reason",
		}),
		SnapshotsSaved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "intake_snapshots_saved_total",
			Help: "Snapshots flushed to the snapshot store",
		}),
		SnapshotSaveErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "intake_snapshot_save_errors_total",
			Help: "Snapshot flushes that failed and were retried later",
		}),
		PhasesCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_phases_completed_total",
			Help: "Wizard phases completed, by phase",
		}, []string{"phase"}),
		ExternalEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_external_events_total",
			Help: "External events reconciled into live state, by kind",
		}, []string{"kind"}),
	}
}
