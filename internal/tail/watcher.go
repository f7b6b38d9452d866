package tail

import (
	"context"
	"time"

	"github.com/wiimctl/wiimctl/internal/core"
)

// EventType represents the type of playback event.
type EventType int

const (
	EventTrackChange EventType = iota
	EventTrackComplete
	EventTrackSkip
	EventPause
	EventResume
	EventVolumeChange
	EventSourceChange
)

// Event represents a playback state change.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Previous  *core.NowPlaying
	Current   *core.NowPlaying
}

// StateSource yields the current merged playback view on demand.
type StateSource interface {
	Refresh(ctx context.Context) error
	State() core.NowPlaying
}

// Watcher polls a state source for changes and emits events.
type Watcher struct {
	source   StateSource
	interval time.Duration
	events   chan Event
	done     chan struct{}
}

// NewWatcher creates a new state watcher.
func NewWatcher(source StateSource, interval time.Duration) *Watcher {
	if interval == 0 {
		interval = time.Second
	}
	return &Watcher{
		source:   source,
		interval: interval,
		events:   make(chan Event, 16),
		done:     make(chan struct{}),
	}
}

// Events returns the channel of playback events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins polling for state changes. It blocks until ctx is cancelled
// or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.events)

	var prev *core.NowPlaying
	if err := w.source.Refresh(ctx); err == nil {
		s := w.source.State()
		prev = &s
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case <-ticker.C:
			if err := w.source.Refresh(ctx); err != nil {
				continue
			}
			s := w.source.State()
			curr := &s

			for _, e := range diffStates(prev, curr) {
				select {
				case w.events <- e:
				default:
					// Drop event if channel is full
				}
			}

			prev = curr
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.done)
}

// diffStates compares two states and returns detected events.
func diffStates(prev, curr *core.NowPlaying) []Event {
	if curr == nil {
		return nil
	}

	now := time.Now()
	var events []Event

	// First poll - no previous state
	if prev == nil {
		if curr.HasTrack {
			events = append(events, Event{
				Type:      EventTrackChange,
				Timestamp: now,
				Current:   curr,
			})
		}
		return events
	}

	if trackChanged(prev, curr) {
		eventType := EventTrackChange
		if prev.HasTrack && wasCompleted(prev) {
			eventType = EventTrackComplete
		} else if prev.HasTrack {
			eventType = EventTrackSkip
		}

		events = append(events, Event{
			Type:      eventType,
			Timestamp: now,
			Previous:  prev,
			Current:   curr,
		})
	}

	if prev.IsPlaying() && !curr.IsPlaying() {
		events = append(events, Event{
			Type:      EventPause,
			Timestamp: now,
			Previous:  prev,
			Current:   curr,
		})
	} else if !prev.IsPlaying() && curr.IsPlaying() {
		events = append(events, Event{
			Type:      EventResume,
			Timestamp: now,
			Previous:  prev,
			Current:   curr,
		})
	}

	if prev.HasVolume && curr.HasVolume && (prev.Volume != curr.Volume || prev.Muted != curr.Muted) {
		events = append(events, Event{
			Type:      EventVolumeChange,
			Timestamp: now,
			Previous:  prev,
			Current:   curr,
		})
	}

	if prev.Source != curr.Source && curr.Source != "" {
		events = append(events, Event{
			Type:      EventSourceChange,
			Timestamp: now,
			Previous:  prev,
			Current:   curr,
		})
	}

	return events
}

// trackChanged returns true if the track changed.
func trackChanged(prev, curr *core.NowPlaying) bool {
	if !prev.HasTrack && !curr.HasTrack {
		return false
	}
	if prev.HasTrack != curr.HasTrack {
		return true
	}
	return prev.Title != curr.Title || prev.Artist != curr.Artist
}

// wasCompleted returns true if the track likely completed naturally.
// Considered complete when progress reached 95% of the duration.
func wasCompleted(state *core.NowPlaying) bool {
	if state.Duration == 0 {
		return false
	}
	return float64(state.Position) >= float64(state.Duration)*0.95
}
