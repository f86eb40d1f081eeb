// Package ipc implements the unix-socket JSON-line control protocol between
// the voxcmd CLI and the daemon.
package ipc

// Request is one CLI command forwarded to the daemon.
type Request struct {
	Command string `json:"command"`
}

// Response reports the outcome plus the current state of both machines.
type Response struct {
	OK        bool   `json:"ok"`
	State     string `json:"state,omitempty"`
	WakeState string `json:"wake_state,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Commands accepted by the daemon.
const (
	CommandToggle      = "toggle"
	CommandStop        = "stop"
	CommandCancel      = "cancel"
	CommandStatus      = "status"
	CommandReload      = "reload"
	CommandWakeEnable  = "wake-enable"
	CommandWakeDisable = "wake-disable"
)
