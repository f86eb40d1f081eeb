// Package doctor runs readiness diagnostics for config, audio, the command
// file, and the ASR endpoint.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/voxcmd/voxcmd/internal/audio"
	"github.com/voxcmd/voxcmd/internal/command"
	"github.com/voxcmd/voxcmd/internal/config"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, loaded config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", loaded.Path),
	})

	checks = append(checks, checkRuntimeDir())
	checks = append(checks, checkAudioSelection(ctx, loaded.Config))
	checks = append(checks, checkCommandFile(loaded.Config))
	checks = append(checks, checkASRReady(ctx, loaded.Config.ASREndpoint))

	return Report{Checks: checks}
}

func checkRuntimeDir() Check {
	if strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR")) == "" {
		return Check{Name: "runtime_dir", Pass: false, Message: "XDG_RUNTIME_DIR is not set; the control socket cannot be created"}
	}
	return Check{Name: "runtime_dir", Pass: true, Message: "XDG_RUNTIME_DIR is set"}
}

// checkAudioSelection runs live device selection to surface fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message += " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkCommandFile parses the voice-command file without installing it.
func checkCommandFile(cfg config.Config) Check {
	path, err := config.ResolveCommandPath(cfg.Commands.File)
	if err != nil {
		return Check{Name: "commands", Pass: false, Message: err.Error()}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Check{Name: "commands", Pass: true, Message: fmt.Sprintf("%q not found; voice commands disabled", path)}
		}
		return Check{Name: "commands", Pass: false, Message: err.Error()}
	}

	parsed, err := command.Parse(data)
	if err != nil {
		return Check{Name: "commands", Pass: false, Message: err.Error()}
	}
	return Check{Name: "commands", Pass: true, Message: fmt.Sprintf("%d commands configured", len(parsed.Commands))}
}

// checkASRReady dials the transcription endpoint and waits for the gRPC
// channel to report Ready.
func checkASRReady(ctx context.Context, endpoint string) Check {
	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return Check{Name: "asr.endpoint", Pass: false, Message: fmt.Sprintf("dial %s: %v", endpoint, err)}
	}
	defer conn.Close()

	waitCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	conn.Connect()
	if err := waitForReady(waitCtx, conn); err != nil {
		return Check{Name: "asr.endpoint", Pass: false, Message: fmt.Sprintf("%s not ready: %v", endpoint, err)}
	}
	return Check{Name: "asr.endpoint", Pass: true, Message: fmt.Sprintf("%s is ready", endpoint)}
}

// waitForReady blocks until the gRPC connection enters Ready or fails.
func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Shutdown:
			return errors.New("grpc connection entered shutdown state")
		}

		if !conn.WaitForStateChange(ctx, state) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("grpc readiness wait timed out in state %s", state.String())
		}
	}
}
