package audio

import "sync"

// SourceGuard serializes access to the shared microphone across the hotkey
// and wake-word machines. The later starter fails to acquire and surfaces
// its own already-recording error.
type SourceGuard struct {
	mu   sync.Mutex
	held bool
}

// TryAcquire claims the source if free.
func (g *SourceGuard) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held {
		return false
	}
	g.held = true
	return true
}

// Release frees the source. Releasing an unheld guard is a no-op.
func (g *SourceGuard) Release() {
	g.mu.Lock()
	g.held = false
	g.mu.Unlock()
}
