package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, socketPath string, handler Handler) (context.CancelFunc, chan error) {
	t.Helper()
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() { serveDone <- Serve(ctx, listener, handler) }()
	return cancel, serveDone
}

func TestSendRoundTrip(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "voxcmd.sock")

	cancel, serveDone := startServer(t, socketPath, HandlerFunc(func(_ context.Context, req Request) Response {
		require.Equal(t, CommandStatus, req.Command)
		return Response{OK: true, State: "recording", WakeState: "monitoring", Message: "ok"}
	}))

	resp, err := Send(context.Background(), socketPath, Request{Command: CommandStatus}, 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, resp.OK)
	require.Equal(t, "recording", resp.State)
	require.Equal(t, "monitoring", resp.WakeState)

	cancel()
	require.NoError(t, <-serveDone)
}

func TestServeHandlesSeveralRequestsPerConnection(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "voxcmd.sock")

	cancel, serveDone := startServer(t, socketPath, HandlerFunc(func(_ context.Context, req Request) Response {
		return Response{OK: true, Message: req.Command}
	}))

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	enc := json.NewEncoder(conn)
	reader := bufio.NewReader(conn)
	for _, command := range []string{CommandStatus, CommandToggle, CommandCancel} {
		require.NoError(t, enc.Encode(Request{Command: command}))

		line, err := reader.ReadBytes('\n')
		require.NoError(t, err)

		var resp Response
		require.NoError(t, json.Unmarshal(line, &resp))
		require.True(t, resp.OK)
		require.Equal(t, command, resp.Message)
	}

	require.NoError(t, conn.Close())
	cancel()
	require.NoError(t, <-serveDone)
}

func TestServeRejectsMalformedRequest(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "voxcmd.sock")

	cancel, serveDone := startServer(t, socketPath, HandlerFunc(func(_ context.Context, _ Request) Response {
		return Response{OK: true}
	}))

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("not-json\n"))
	require.NoError(t, err)

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(line, &resp))
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "decode request")

	cancel()
	require.NoError(t, <-serveDone)
}

func TestProbeLifecycle(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "voxcmd.sock")

	alive, err := Probe(context.Background(), socketPath, 100*time.Millisecond)
	require.NoError(t, err)
	require.False(t, alive)

	cancel, serveDone := startServer(t, socketPath, HandlerFunc(func(_ context.Context, _ Request) Response {
		return Response{OK: true, State: "idle"}
	}))

	alive, err = Probe(context.Background(), socketPath, 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, alive)

	cancel()
	require.NoError(t, <-serveDone)

	alive, err = Probe(context.Background(), socketPath, 100*time.Millisecond)
	require.NoError(t, err)
	require.False(t, alive)
}

func TestAcquireRemovesStaleSocket(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "voxcmd.sock")

	// Leave a dead socket file behind, as a crashed daemon would.
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	listener.(*net.UnixListener).SetUnlinkOnClose(false)
	require.NoError(t, listener.Close())

	acquired, err := Acquire(context.Background(), socketPath, 100*time.Millisecond, 2)
	require.NoError(t, err)
	require.NoError(t, acquired.Close())
}

func TestAcquireRefusesLiveDaemon(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "voxcmd.sock")

	cancel, serveDone := startServer(t, socketPath, HandlerFunc(func(_ context.Context, _ Request) Response {
		return Response{OK: true, State: "idle"}
	}))
	defer func() {
		cancel()
		require.NoError(t, <-serveDone)
	}()

	_, err := Acquire(context.Background(), socketPath, 200*time.Millisecond, 1)
	require.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestRuntimeSocketPath(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	path, err := RuntimeSocketPath()
	require.NoError(t, err)
	require.Equal(t, "/run/user/1000/voxcmd.sock", path)

	t.Setenv("XDG_RUNTIME_DIR", "")
	_, err = RuntimeSocketPath()
	require.Error(t, err)
}
