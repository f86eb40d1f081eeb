package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ResolvePath applies CLI/XDG/home fallback rules for the daemon config.
func ResolvePath(explicit string) (string, error) {
	return resolve(explicit, "config.yaml")
}

// ResolveCommandPath locates the voice-command file when the daemon config
// does not name one.
func ResolveCommandPath(explicit string) (string, error) {
	return resolve(explicit, "commands.yaml")
}

func resolve(explicit, name string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}

	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "voxcmd", name), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config fallback")
	}

	return filepath.Join(home, ".config", "voxcmd", name), nil
}
