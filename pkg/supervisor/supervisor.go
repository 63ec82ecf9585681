package supervisor

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tevino/abool"
	"gitlab.com/adam.stanek/livearchiver/pkg/channel"
	"gitlab.com/adam.stanek/livearchiver/pkg/metrics"
	"gitlab.com/adam.stanek/livearchiver/pkg/monitor"
	"gitlab.com/adam.stanek/livearchiver/pkg/recorder"
	"gitlab.com/adam.stanek/livearchiver/pkg/utils"
)

const (
	// ReconcileInterval - how often finished jobs are pruned from the registry
	ReconcileInterval = 5 * time.Minute
	// DrainPollInterval - how often a stopping job is checked during shutdown
	DrainPollInterval = 50 * time.Millisecond
)

// Source - stream state notifications
type Source interface {
	Events() <-chan monitor.Event
	RefreshNow()
}

// Launcher - starts recordings
type Launcher interface {
	Launch(channel string) (*recorder.Job, error)
}

// Opts - supervisor options
type Opts struct {
	Source       Source
	Launcher     Launcher
	Registry     *recorder.Registry
	StateManager *channel.StateManager

	ReconcileInterval time.Duration
	DrainPollInterval time.Duration
	// DrainTimeout - how long a job may take to honor the stop request before it is killed, 0 waits forever
	DrainTimeout time.Duration
}

func (opts Opts) applyDefaults() Opts {
	result := opts

	if result.Registry == nil {
		result.Registry = recorder.NewRegistry()
	}

	if result.StateManager == nil {
		result.StateManager = channel.NewStateManager()
	}

	if result.ReconcileInterval <= 0 {
		result.ReconcileInterval = ReconcileInterval
	}

	if result.DrainPollInterval <= 0 {
		result.DrainPollInterval = DrainPollInterval
	}

	return result
}

// Supervisor - reconciles stream state with running recordings
type Supervisor struct {
	opts      Opts
	state     atomic.Int32
	accepting *abool.AtomicBool
	startTime time.Time
}

// New - constructor
func New(opts Opts) *Supervisor {
	s := &Supervisor{
		opts:      opts.applyDefaults(),
		accepting: abool.NewBool(true),
	}

	s.setState(StateStarting)
	return s
}

// Registry - registry of the supervised jobs
func (s *Supervisor) Registry() *recorder.Registry {
	return s.opts.Registry
}

// State - current state of the loop
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

func (s *Supervisor) setState(state State) {
	s.state.Store(int32(state))
	metrics.SupervisorState.Set(float64(state))
}

// Run - main loop, returns once canceled and all the recordings are stopped
func (s *Supervisor) Run(ctx utils.GracefulContext) {
	s.startTime = time.Now()
	log.Info().Msg("-------------------- Starting Service --------------------")

	events := s.opts.Source.Events()
	s.opts.Source.RefreshNow()
	s.setState(StateRunning)

	ticker := time.NewTicker(s.opts.ReconcileInterval)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case event := <-events:
			s.HandleEvent(event)
		case <-ticker.C:
			log.Debug().Msgf("Running for: %v", time.Since(s.startTime).Truncate(time.Second))
			s.Reconcile()
		}
	}

	ticker.Stop()

	log.Info().Msg("-------------------- Stopping Service --------------------")
	s.setState(StateStopping)
	s.accepting.UnSet()
	s.drain()
	s.setState(StateStopped)

	log.Info().Msg("All recordings stopped")
}

// HandleEvent - reacts on stream state notification
func (s *Supervisor) HandleEvent(event monitor.Event) {
	update := channel.NewState()
	if event.Stream != nil {
		update.SetViewers(event.Stream.ViewerCount).SetTitle(event.Stream.Title).SetGame(event.Stream.GameName)
	}

	switch event.Type {
	case monitor.EventOnline:
		log.Info().Str("channel", event.Channel).Msgf("%v is now online", event.Channel)
		s.opts.StateManager.Update(event.Channel, *update.SetIsLive(true))

		s.launch(event.Channel, "online")

	case monitor.EventUpdate:
		sublog := log.Debug().Str("channel", event.Channel)
		if event.Stream != nil {
			sublog = sublog.
				Dur("uptime", event.Stream.Uptime(event.Time)).
				Int32("viewers", event.Stream.ViewerCount)
		}
		sublog.Msg("Stream update")
		s.opts.StateManager.Update(event.Channel, *update.SetIsLive(true))

		if !s.opts.Registry.HasActive(event.Channel) {
			log.Warn().Str("channel", event.Channel).Msgf("No active downloads for %v! Starting one now...", event.Channel)
			s.launch(event.Channel, "recovery")
		}

	case monitor.EventOffline:
		log.Info().Str("channel", event.Channel).Msgf("%v is now offline", event.Channel)
		s.opts.StateManager.Update(event.Channel, *update.SetIsLive(false))
	}
}

// launch - starts and registers recording, failures are isolated to the channel
func (s *Supervisor) launch(channelName string, reason string) *recorder.Job {
	if !s.accepting.IsSet() {
		log.Debug().Str("channel", channelName).Msg("Not accepting new downloads, ignoring")
		return nil
	}

	job, err := s.opts.Launcher.Launch(channelName)
	if err != nil {
		kind := "other"
		if errors.Is(err, recorder.ErrFilesystem) {
			kind = "filesystem"
		} else if errors.Is(err, recorder.ErrSpawn) {
			kind = "spawn"
		}

		metrics.LaunchFailures.WithLabelValues(kind).Inc()
		log.Error().Err(err).Str("channel", channelName).Str("kind", kind).Msg("Unable to start download")
		return nil
	}

	s.opts.Registry.Add(job)
	metrics.RecordingsStarted.WithLabelValues(reason).Inc()
	metrics.RecordingsActive.Set(float64(s.opts.Registry.ActiveCount()))
	s.opts.StateManager.Update(channelName, *channel.NewState().SetIsRecording(true))

	log.Debug().Str("channel", channelName).Str("output", job.OutputPath).Msgf("Download started for %v", channelName)
	return job
}

// Reconcile - removes finished jobs from the registry, returns removed jobs
func (s *Supervisor) Reconcile() []*recorder.Job {
	removed := s.opts.Registry.Prune()
	metrics.RecordingsActive.Set(float64(s.opts.Registry.ActiveCount()))

	if len(removed) == 0 {
		return removed
	}

	channels := make([]string, 0, len(removed))
	for _, job := range removed {
		channels = append(channels, job.Channel)
		metrics.RecordingsFinished.WithLabelValues("reconcile").Inc()

		if !s.opts.Registry.HasActive(job.Channel) {
			s.opts.StateManager.Update(job.Channel, *channel.NewState().SetIsRecording(false))
		}
	}

	log.Info().Msgf("Removing: %v from the list", strings.Join(channels, ","))
	return removed
}

// drain - stops all the jobs and waits until each of them exits
func (s *Supervisor) drain() {
	jobs := s.opts.Registry.Jobs()
	if len(jobs) == 0 {
		return
	}

	log.Info().Int("count", len(jobs)).Msg("Stopping recordings")

	for _, job := range jobs {
		if err := job.Stop(); err != nil {
			log.Error().Err(err).Str("channel", job.Channel).Str("job", job.ID).Msg("Unable to request downloader stop")
		}
	}

	for _, job := range jobs {
		s.awaitJob(job)
		s.opts.Registry.Remove(job)
		metrics.RecordingsFinished.WithLabelValues("drain").Inc()
		s.opts.StateManager.Update(job.Channel, *channel.NewState().SetIsRecording(false))
	}

	metrics.RecordingsActive.Set(0)
}

// awaitJob - polls job until it stops recording, kills it once DrainTimeout elapses
func (s *Supervisor) awaitJob(job *recorder.Job) {
	ticker := time.NewTicker(s.opts.DrainPollInterval)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if s.opts.DrainTimeout > 0 {
		timer := time.NewTimer(s.opts.DrainTimeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for job.IsRecording() {
		select {
		case <-ticker.C:
		case <-deadline:
			log.Warn().
				Str("channel", job.Channel).
				Str("job", job.ID).
				Dur("timeout", s.opts.DrainTimeout).
				Msg("Downloader did not stop in time")

			metrics.DrainKills.Inc()
			if err := job.Kill(); err != nil {
				log.Error().Err(err).Str("channel", job.Channel).Str("job", job.ID).Msg("Unable to kill downloader")
			}
			deadline = nil
		}
	}

	log.Debug().Str("channel", job.Channel).Str("job", job.ID).Msg("Recording stopped")
}
