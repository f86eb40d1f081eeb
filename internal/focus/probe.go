// Package focus answers which application currently receives keyboard input.
package focus

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// Probe reports the window class of the focused application.
type Probe interface {
	ActiveAppClass(ctx context.Context) (string, error)
}

// Func adapts a function to the Probe interface.
type Func func(context.Context) (string, error)

func (f Func) ActiveAppClass(ctx context.Context) (string, error) {
	return f(ctx)
}

// activeWindow contains the hyprctl fields needed for terminal detection.
type activeWindow struct {
	Address      string `json:"address"`
	Class        string `json:"class"`
	InitialClass string `json:"initialClass"`
}

// Hypr queries the focused window from the Hyprland compositor.
type Hypr struct{}

// ActiveAppClass fetches the focused window class via hyprctl.
func (Hypr) ActiveAppClass(ctx context.Context) (string, error) {
	output, err := runHyprctl(ctx, "-j", "activewindow")
	if err != nil {
		return "", err
	}

	var window activeWindow
	if err := json.Unmarshal(output, &window); err != nil {
		return "", fmt.Errorf("decode hyprctl activewindow json: %w", err)
	}
	window.Class = strings.TrimSpace(window.Class)
	window.InitialClass = strings.TrimSpace(window.InitialClass)
	if window.Class != "" {
		return window.Class, nil
	}
	return window.InitialClass, nil
}

// IsTerminal reports whether class matches one of the configured terminal
// application identifiers. The whole application is treated as a terminal;
// there is no pane-level distinction for IDEs with embedded terminals.
func IsTerminal(class string, terminalApps []string) bool {
	class = strings.ToLower(strings.TrimSpace(class))
	if class == "" {
		return false
	}
	for _, app := range terminalApps {
		if class == strings.ToLower(strings.TrimSpace(app)) {
			return true
		}
	}
	return false
}

// runHyprctl executes one hyprctl subcommand and returns its output.
func runHyprctl(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "hyprctl", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed == "" {
			return nil, fmt.Errorf("hyprctl %v failed: %w", args, err)
		}
		return nil, fmt.Errorf("hyprctl %v failed: %w (%s)", args, err, trimmed)
	}
	return out, nil
}
