package fsm

import "fmt"

// WakeState is a wake-word listening lifecycle state.
type WakeState string

// WakeEvent drives wake-word lifecycle transitions.
type WakeEvent string

const (
	WakeIdle         WakeState = "idle"
	WakeMonitoring   WakeState = "monitoring"
	WakeTriggered    WakeState = "triggered"
	WakeCapturing    WakeState = "capturing"
	WakeTranscribing WakeState = "transcribing"
	WakeInserting    WakeState = "inserting"
	WakeError        WakeState = "error"
)

const (
	WakeEventEnable      WakeEvent = "enable"
	WakeEventDetect      WakeEvent = "detect"
	WakeEventCapture     WakeEvent = "capture"
	WakeEventStop        WakeEvent = "stop"
	WakeEventTranscribed WakeEvent = "transcribed"
	WakeEventInserted    WakeEvent = "inserted"
	WakeEventFail        WakeEvent = "fail"
	WakeEventReset       WakeEvent = "reset"
	WakeEventDisable     WakeEvent = "disable"
)

// WakeTransition applies one event to the wake-word lifecycle.
//
// Unlike the hotkey path, this is a long-lived background loop: a completed
// insertion returns the machine to monitoring, not idle, and a failure parks
// it in the error state until an explicit reset or disable.
func WakeTransition(current WakeState, event WakeEvent) (WakeState, error) {
	if event == WakeEventFail {
		return WakeError, nil
	}
	if event == WakeEventDisable {
		return WakeIdle, nil
	}

	switch current {
	case WakeIdle:
		switch event {
		case WakeEventEnable:
			return WakeMonitoring, nil
		default:
			return current, invalidTransition(string(current), string(event))
		}
	case WakeMonitoring:
		switch event {
		case WakeEventDetect:
			return WakeTriggered, nil
		default:
			return current, invalidTransition(string(current), string(event))
		}
	case WakeTriggered:
		switch event {
		case WakeEventCapture:
			return WakeCapturing, nil
		default:
			return current, invalidTransition(string(current), string(event))
		}
	case WakeCapturing:
		switch event {
		case WakeEventStop:
			return WakeTranscribing, nil
		default:
			return current, invalidTransition(string(current), string(event))
		}
	case WakeTranscribing:
		switch event {
		case WakeEventTranscribed:
			return WakeInserting, nil
		default:
			return current, invalidTransition(string(current), string(event))
		}
	case WakeInserting:
		switch event {
		case WakeEventInserted:
			return WakeMonitoring, nil
		default:
			return current, invalidTransition(string(current), string(event))
		}
	case WakeError:
		switch event {
		case WakeEventReset:
			return WakeIdle, nil
		default:
			return current, invalidTransition(string(current), string(event))
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}
