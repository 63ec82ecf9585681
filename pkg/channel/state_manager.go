package channel

import (
	"sync"
)

type notification struct {
	channel string
	state   State
}

// subscriber - delivers notifications to its callback one by one in the order of updates
type subscriber struct {
	callback func(channel string, state State)
	queue    []notification
	mutex    sync.Mutex
	wakeC    chan struct{}
	doneC    chan struct{}
}

func newSubscriber(callback func(channel string, state State)) *subscriber {
	return &subscriber{
		callback: callback,
		wakeC:    make(chan struct{}, 1),
		doneC:    make(chan struct{}),
	}
}

func (s *subscriber) push(channel string, state State) {
	s.mutex.Lock()
	s.queue = append(s.queue, notification{channel, state})
	s.mutex.Unlock()

	select {
	case s.wakeC <- struct{}{}:
	default:
	}
}

func (s *subscriber) run() {
	for {
		select {
		case <-s.doneC:
			return
		case <-s.wakeC:
		}

		for {
			s.mutex.Lock()
			if len(s.queue) == 0 {
				s.mutex.Unlock()
				break
			}

			n := s.queue[0]
			s.queue = s.queue[1:]
			s.mutex.Unlock()

			s.callback(n.channel, n.state)
		}
	}
}

// StateManager - state manager context
type StateManager struct {
	channels         map[string]State
	subscribers      map[*subscriber]bool
	stateMutex       sync.RWMutex
	subscribersMutex sync.RWMutex
}

// NewStateManager - state manager constructor
func NewStateManager() *StateManager {
	return &StateManager{
		channels:    make(map[string]State),
		subscribers: make(map[*subscriber]bool),
	}
}

// Update - updates channel info in thread safe manner
func (manager *StateManager) Update(channel string, stateUpdate State) {
	var newState *State

	manager.stateMutex.Lock()
	defer manager.stateMutex.Unlock()

	if channelState, ok := manager.channels[channel]; ok {
		newState = channelState.Merge(&stateUpdate)
		if newState == &channelState {
			return
		}
	} else {
		newState = (&State{}).Merge(&stateUpdate)
	}

	manager.channels[channel] = *newState

	// Queued while holding the state lock so that subscribers see updates in order
	manager.notifySubscribers(channel, *newState)
}

// GetChannelState - returns current state of the channel (empty state if unknown)
func (manager *StateManager) GetChannelState(channel string) *State {
	manager.stateMutex.RLock()
	defer manager.stateMutex.RUnlock()

	state, ok := manager.channels[channel]
	if !ok {
		return NewState()
	}

	return &state
}

// Snapshot - returns copy of all channel states
func (manager *StateManager) Snapshot() map[string]State {
	manager.stateMutex.RLock()
	defer manager.stateMutex.RUnlock()

	result := make(map[string]State, len(manager.channels))
	for channel, channelState := range manager.channels {
		result[channel] = channelState
	}

	return result
}

// Subscribe - registers function to be called on every update.
// Callback is invoked from a single go routine, never concurrently with itself.
// Returns unsubscribe function
func (manager *StateManager) Subscribe(callback func(channel string, state State)) func() {
	sub := newSubscriber(callback)

	manager.stateMutex.RLock()
	manager.subscribersMutex.Lock()

	manager.subscribers[sub] = true
	for channel, channelState := range manager.channels {
		sub.push(channel, channelState)
	}

	manager.subscribersMutex.Unlock()
	manager.stateMutex.RUnlock()

	go sub.run()

	var once sync.Once
	return func() {
		once.Do(func() {
			manager.subscribersMutex.Lock()
			delete(manager.subscribers, sub)
			manager.subscribersMutex.Unlock()

			close(sub.doneC)
		})
	}
}

func (manager *StateManager) notifySubscribers(channel string, state State) {
	manager.subscribersMutex.RLock()
	defer manager.subscribersMutex.RUnlock()

	for sub := range manager.subscribers {
		sub.push(channel, state)
	}
}
