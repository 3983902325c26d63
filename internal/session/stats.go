package session

import "github.com/skillforge/timeline/internal/cache"

// Stats counts editing activity over the lifetime of one session. Counters
// are incremented by the operation layers and exported when the session
// closes.
type Stats struct {
	ClipsCreated       cache.SafeCounter
	ClipsDeleted       cache.SafeCounter
	ClipsMoved         cache.SafeCounter
	ClipsResized       cache.SafeCounter
	ResolveMisses      cache.SafeCounter
	ResolveAmbiguities cache.SafeCounter
	DragsCompleted     cache.SafeCounter
	DragsCancelled     cache.SafeCounter
}

// Snapshot returns the current counter values keyed for export.
func (s *Stats) Snapshot() map[string]int {
	return map[string]int{
		"clipsCreated":       s.ClipsCreated.Value(),
		"clipsDeleted":       s.ClipsDeleted.Value(),
		"clipsMoved":         s.ClipsMoved.Value(),
		"clipsResized":       s.ClipsResized.Value(),
		"resolveMisses":      s.ResolveMisses.Value(),
		"resolveAmbiguities": s.ResolveAmbiguities.Value(),
		"dragsCompleted":     s.DragsCompleted.Value(),
		"dragsCancelled":     s.DragsCancelled.Value(),
	}
}
