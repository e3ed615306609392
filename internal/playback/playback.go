package playback

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrInvalidTransition = errors.New("invalid playback transition")

// State is the player's current state
type State string

const (
	StateStopped State = "stopped"
	StateLoading State = "loading"
	StatePlaying State = "playing"
)

// Event drives a transition between states.
type Event string

const (
	// EventStart is the user asking for playback.
	EventStart Event = "start"
	// EventStarted is the audio engine reporting that sound is coming out.
	EventStarted Event = "started"
	EventStop    Event = "stop"
	EventFail    Event = "fail"
)

// Transition describes an accepted state change
type Transition struct {
	From      State
	To        State
	Event     Event
	Err       error
	Timestamp time.Time
}

var transitions = map[State]map[Event]State{
	StateStopped: {
		EventStart: StateLoading,
	},
	StateLoading: {
		EventStarted: StatePlaying,
		EventStop:    StateStopped,
		EventFail:    StateStopped,
	},
	StatePlaying: {
		EventStop: StateStopped,
		EventFail: StateStopped,
	},
}

// Machine tracks playback state. A second Start while loading or playing
// is rejected, so one user gesture produces at most one stream.
type Machine struct {
	mu        sync.RWMutex
	state     State
	lastErr   error
	listeners []func(Transition)
}

// NewMachine creates a machine in the Stopped state
func NewMachine() *Machine {
	return &Machine{state: StateStopped}
}

// AddListener registers a callback invoked after every accepted transition.
func (m *Machine) AddListener(listener func(Transition)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, listener)
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Err returns the error carried by the last Fail, cleared on the next Start.
func (m *Machine) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

func (m *Machine) Start() error   { return m.fire(EventStart, nil) }
func (m *Machine) Started() error { return m.fire(EventStarted, nil) }
func (m *Machine) Stop() error    { return m.fire(EventStop, nil) }

// Fail returns to Stopped and records err.
func (m *Machine) Fail(err error) error { return m.fire(EventFail, err) }

func (m *Machine) fire(event Event, cause error) error {
	m.mu.Lock()
	from := m.state
	to, ok := transitions[from][event]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, event, from)
	}
	m.state = to
	switch event {
	case EventStart:
		m.lastErr = nil
	case EventFail:
		m.lastErr = cause
	}
	listeners := make([]func(Transition), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	t := Transition{From: from, To: to, Event: event, Err: cause, Timestamp: time.Now()}
	for _, listener := range listeners {
		listener(t)
	}
	return nil
}
