package monitor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gitlab.com/adam.stanek/livearchiver/pkg/client"
	"gitlab.com/adam.stanek/livearchiver/pkg/metrics"
	"gitlab.com/adam.stanek/livearchiver/pkg/utils"
)

// DefaultInterval - how often the stream state is checked
const DefaultInterval = time.Minute

// StreamFetcher - source of live stream info
type StreamFetcher interface {
	FetchStreams(ctx context.Context, logins []string) ([]client.Stream, error)
}

// Opts - monitor options
type Opts struct {
	Channels []string
	Fetcher  StreamFetcher
	Interval time.Duration
	// EventBuffer - capacity of the events channel
	EventBuffer int
	// Cooldown - waiting periods after failed checks
	Cooldown []time.Duration
	Now      func() time.Time
}

func (opts Opts) applyDefaults() Opts {
	result := opts

	if result.Interval <= 0 {
		result.Interval = DefaultInterval
	}

	if result.EventBuffer <= 0 {
		result.EventBuffer = 64
	}

	if result.Cooldown == nil {
		result.Cooldown = []time.Duration{
			5 * time.Second,
			30 * time.Second,
			2 * time.Minute,
			5 * time.Minute,
		}
	}

	if result.Now == nil {
		result.Now = time.Now
	}

	return result
}

// Monitor - polls stream state of the channels and emits transitions as events
type Monitor struct {
	opts     Opts
	eventsC  chan Event
	refreshC chan struct{}

	// live - channels observed live by the previous check
	live      map[string]bool
	liveMutex sync.Mutex
}

// New - constructor
func New(opts Opts) *Monitor {
	effectiveOpts := opts.applyDefaults()

	return &Monitor{
		opts:     effectiveOpts,
		eventsC:  make(chan Event, effectiveOpts.EventBuffer),
		refreshC: make(chan struct{}, 1),
		live:     make(map[string]bool),
	}
}

// Events - stream of notifications
func (m *Monitor) Events() <-chan Event {
	return m.eventsC
}

// RefreshNow - requests check without waiting for the next interval
func (m *Monitor) RefreshNow() {
	select {
	case m.refreshC <- struct{}{}:
	default:
		// Check is already pending
	}
}

// Run - checks the state periodically until canceled, failed checks are retried with cooldown
func (m *Monitor) Run(ctx utils.GracefulContext) {
	log.Info().Strs("channels", m.opts.Channels).Dur("interval", m.opts.Interval).Msg("Starting stream monitor")

	utils.RunWithPerseverance(func(attempt utils.AttemptContext) {
		if err := m.runChecks(attempt); err != nil {
			attempt.Fail(err)
		}
	}, ctx, utils.PerseverenceOpts{
		RunnerID:       "stream-monitor",
		Cooldown:       m.opts.Cooldown,
		ResetThreshold: 2 * m.opts.Interval,
	})

	log.Debug().Msg("Stream monitor terminated")
}

func (m *Monitor) runChecks(attempt utils.AttemptContext) error {
	ctx, cancel := utils.ContextFromGraceful(attempt)
	defer cancel()

	// Retried attempt checks right away
	if attempt.GetTry() > 1 {
		if err := m.Check(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-attempt.Done():
			return nil
		case <-m.refreshC:
		case <-ticker.C:
		}

		if err := m.Check(ctx); err != nil {
			return err
		}
	}
}

// Check - fetches current state and emits events for all channels
func (m *Monitor) Check(ctx context.Context) error {
	streams, err := m.opts.Fetcher.FetchStreams(ctx, m.opts.Channels)
	if err != nil {
		metrics.SourceErrors.Inc()
		if ctx.Err() != nil {
			return nil
		}

		log.Warn().Err(err).Msg("Unable to fetch stream state")
		return err
	}

	now := m.opts.Now()
	byChannel := make(map[string]client.Stream, len(streams))
	for _, stream := range streams {
		if stream.IsLive() {
			byChannel[strings.ToLower(stream.UserLogin)] = stream
		}
	}

	m.liveMutex.Lock()
	events := make([]Event, 0, len(m.opts.Channels))
	for _, channel := range m.opts.Channels {
		stream, isLive := byChannel[channel]
		wasLive := m.live[channel]

		switch {
		case isLive && !wasLive:
			events = append(events, Event{Type: EventOnline, Channel: channel, Stream: &stream, Time: now})
		case isLive && wasLive:
			events = append(events, Event{Type: EventUpdate, Channel: channel, Stream: &stream, Time: now})
		case !isLive && wasLive:
			events = append(events, Event{Type: EventOffline, Channel: channel, Time: now})
		}

		m.live[channel] = isLive
	}
	m.liveMutex.Unlock()

	for _, event := range events {
		select {
		case m.eventsC <- event:
			metrics.StreamEvents.WithLabelValues(event.Type.String()).Inc()
		case <-ctx.Done():
			return nil
		}
	}

	return nil
}
