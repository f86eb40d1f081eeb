package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToHelp(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.True(t, parsed.ShowHelp)
	require.Equal(t, CommandHelp, parsed.Command)
}

func TestParseCommandWithConfig(t *testing.T) {
	parsed, err := Parse([]string{"--config", "/tmp/voxcmd.yaml", "doctor"})
	require.NoError(t, err)
	require.Equal(t, CommandDoctor, parsed.Command)
	require.Equal(t, "/tmp/voxcmd.yaml", parsed.ConfigPath)
	require.False(t, parsed.ShowHelp)
}

func TestParseArgMatrix(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantErr    string
		wantCmd    Command
		wantAction string
		wantHelp   bool
	}{
		{name: "help short flag", args: []string{"-h"}, wantCmd: CommandHelp, wantHelp: true},
		{name: "help long flag", args: []string{"--help"}, wantCmd: CommandHelp, wantHelp: true},
		{name: "version flag", args: []string{"--version"}, wantCmd: CommandVersion},
		{name: "run", args: []string{"run"}, wantCmd: CommandRun},
		{name: "toggle", args: []string{"toggle"}, wantCmd: CommandToggle},
		{name: "reload", args: []string{"reload"}, wantCmd: CommandReload},
		{name: "wake enable", args: []string{"wake", "enable"}, wantCmd: CommandWake, wantAction: "enable"},
		{name: "wake disable", args: []string{"wake", "disable"}, wantCmd: CommandWake, wantAction: "disable"},
		{name: "wake without action", args: []string{"wake"}, wantErr: "wake requires an action"},
		{name: "wake bad action", args: []string{"wake", "louder"}, wantErr: "unknown wake action"},
		{name: "config without path", args: []string{"--config"}, wantErr: "--config requires a path"},
		{name: "unknown flag", args: []string{"--verbose"}, wantErr: "unknown flag"},
		{name: "unknown command", args: []string{"transcode"}, wantErr: "unknown command"},
		{name: "trailing args", args: []string{"status", "extra"}, wantErr: "unexpected arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := Parse(tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantCmd, parsed.Command)
			require.Equal(t, tt.wantAction, parsed.WakeAction)
			require.Equal(t, tt.wantHelp, parsed.ShowHelp)
		})
	}
}

func TestHelpTextNamesEveryCommand(t *testing.T) {
	text := HelpText("voxcmd")
	for cmd := range validCommands {
		require.Contains(t, text, string(cmd))
	}
}
