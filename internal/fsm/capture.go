// Package fsm defines the pure transition tables for both session lifecycles.
package fsm

import "fmt"

// State is a hotkey capture-session lifecycle state.
type State string

// Event drives hotkey capture-session transitions.
type Event string

const (
	StateIdle         State = "idle"
	StateRecording    State = "recording"
	StateTranscribing State = "transcribing"
	StateInserting    State = "inserting"
	StateCompleted    State = "completed"
	StateCancelled    State = "cancelled"
)

const (
	EventStart       Event = "start"
	EventStop        Event = "stop"
	EventTranscribed Event = "transcribed"
	EventInserted    Event = "inserted"
	EventCancel      Event = "cancel"
	EventReset       Event = "reset"
)

// Transition applies one event to the hotkey capture lifecycle.
//
// Cancel is accepted from every active state; the machine records any
// failure message on the session itself, so there is no dedicated error
// state on this path.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StateRecording, nil
		default:
			return current, invalidTransition(string(current), string(event))
		}
	case StateRecording:
		switch event {
		case EventStop:
			return StateTranscribing, nil
		case EventCancel:
			return StateCancelled, nil
		default:
			return current, invalidTransition(string(current), string(event))
		}
	case StateTranscribing:
		switch event {
		case EventTranscribed:
			return StateInserting, nil
		case EventCancel:
			return StateCancelled, nil
		default:
			return current, invalidTransition(string(current), string(event))
		}
	case StateInserting:
		switch event {
		case EventInserted:
			return StateCompleted, nil
		case EventCancel:
			return StateCancelled, nil
		default:
			return current, invalidTransition(string(current), string(event))
		}
	case StateCompleted:
		switch event {
		case EventReset:
			return StateIdle, nil
		default:
			return current, invalidTransition(string(current), string(event))
		}
	case StateCancelled:
		switch event {
		case EventReset:
			return StateIdle, nil
		default:
			return current, invalidTransition(string(current), string(event))
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state string, event string) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
