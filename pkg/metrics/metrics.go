package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordingsActive tracks number of registered jobs which are still recording
	RecordingsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "livearchiver_recordings_active",
		Help: "Number of recordings in progress",
	})

	// RecordingsStarted counts launched recordings by reason (online, recovery)
	RecordingsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livearchiver_recordings_started_total",
		Help: "Total recordings started",
	}, []string{"reason"})

	// RecordingsFinished counts jobs removed from the registry after their process exited
	RecordingsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livearchiver_recordings_finished_total",
		Help: "Total recordings finished",
	}, []string{"phase"})

	// LaunchFailures counts recordings which could not be started
	LaunchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livearchiver_launch_failures_total",
		Help: "Total failed recording launches",
	}, []string{"kind"})

	// DrainKills counts downloaders killed after exceeding the drain timeout
	DrainKills = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livearchiver_drain_kills_total",
		Help: "Total downloaders killed during shutdown",
	})

	// StreamEvents counts stream state notifications by type
	StreamEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livearchiver_stream_events_total",
		Help: "Total stream state notifications",
	}, []string{"type"})

	// SourceErrors counts failed stream state checks
	SourceErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livearchiver_source_errors_total",
		Help: "Total failed stream state checks",
	})

	// SupervisorState exposes current supervisor state (0 starting, 1 running, 2 stopping, 3 stopped)
	SupervisorState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "livearchiver_supervisor_state",
		Help: "Current state of the supervisor loop",
	})
)
