package command

import (
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
)

// Store holds the atomically replaceable compiled configuration. Matching
// readers always observe one complete snapshot; a reload either installs a
// full new snapshot or leaves the last-known-good one untouched.
type Store struct {
	logger  *slog.Logger
	current atomic.Pointer[Snapshot]
}

// NewStore seeds an empty, disabled snapshot for the time before first load.
func NewStore(logger *slog.Logger) *Store {
	s := &Store{logger: logger}
	s.current.Store(Compile(Default()))
	return s
}

// Snapshot returns the active compiled configuration.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Install replaces the active snapshot with a compiled config.
func (s *Store) Install(cfg Config) {
	s.current.Store(Compile(cfg))
}

// LoadFile reads, parses, and installs the command file. On any failure the
// previous snapshot stays in effect and the error is returned as recoverable.
func (s *Store) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read command config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return fmt.Errorf("load command config %s: %w", path, err)
	}

	s.Install(cfg)
	if s.logger != nil {
		s.logger.Info("command config loaded",
			"path", path,
			"enabled", cfg.Enabled,
			"commands", len(cfg.Commands),
		)
	}
	return nil
}
