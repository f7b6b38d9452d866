package tail

import (
	"testing"
	"time"

	"github.com/wiimctl/wiimctl/internal/core"
)

func playing(title, artist string, pos, dur time.Duration) *core.NowPlaying {
	return &core.NowPlaying{
		Title:     title,
		Artist:    artist,
		PlayState: "play",
		Position:  pos,
		Duration:  dur,
		HasTrack:  true,
	}
}

func TestDiffFirstPoll(t *testing.T) {
	curr := playing("Hey Jude", "The Beatles", 0, 7*time.Minute)

	events := diffStates(nil, curr)
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].Type != EventTrackChange {
		t.Errorf("events[0].Type = %v, want EventTrackChange", events[0].Type)
	}
}

func TestDiffTrackCompleteVsSkip(t *testing.T) {
	tests := []struct {
		name string
		pos  time.Duration
		want EventType
	}{
		{"near end counts as complete", 6*time.Minute + 50*time.Second, EventTrackComplete},
		{"mid-track counts as skip", 2 * time.Minute, EventTrackSkip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := playing("Hey Jude", "The Beatles", tt.pos, 7*time.Minute)
			curr := playing("Let It Be", "The Beatles", 0, 4*time.Minute)

			events := diffStates(prev, curr)
			if len(events) != 1 {
				t.Fatalf("len(events) = %d, want 1", len(events))
			}
			if events[0].Type != tt.want {
				t.Errorf("events[0].Type = %v, want %v", events[0].Type, tt.want)
			}
		})
	}
}

func TestDiffPauseResume(t *testing.T) {
	prev := playing("Hey Jude", "The Beatles", time.Minute, 7*time.Minute)
	curr := playing("Hey Jude", "The Beatles", time.Minute, 7*time.Minute)
	curr.PlayState = "pause"

	events := diffStates(prev, curr)
	if len(events) != 1 || events[0].Type != EventPause {
		t.Fatalf("events = %v, want single EventPause", events)
	}

	events = diffStates(curr, prev)
	if len(events) != 1 || events[0].Type != EventResume {
		t.Fatalf("events = %v, want single EventResume", events)
	}
}

func TestDiffVolumeChange(t *testing.T) {
	prev := playing("Hey Jude", "The Beatles", time.Minute, 7*time.Minute)
	prev.HasVolume = true
	prev.Volume = 30
	curr := playing("Hey Jude", "The Beatles", time.Minute+time.Second, 7*time.Minute)
	curr.HasVolume = true
	curr.Volume = 45

	events := diffStates(prev, curr)
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].Type != EventVolumeChange {
		t.Errorf("events[0].Type = %v, want EventVolumeChange", events[0].Type)
	}
}

func TestDiffNoChanges(t *testing.T) {
	prev := playing("Hey Jude", "The Beatles", time.Minute, 7*time.Minute)
	curr := playing("Hey Jude", "The Beatles", time.Minute+time.Second, 7*time.Minute)

	if events := diffStates(prev, curr); len(events) != 0 {
		t.Errorf("len(events) = %d, want 0", len(events))
	}
}

func TestFormatterLine(t *testing.T) {
	f := NewFormatter(WithEmoji(false))
	e := Event{
		Type:    EventTrackChange,
		Current: playing("Hey Jude", "The Beatles", 0, 7*time.Minute),
	}

	got := f.Format(e)
	want := "Now playing: The Beatles - Hey Jude"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestFormatterTemplate(t *testing.T) {
	f := NewFormatter(WithTemplate("{{.Type}}: {{.Title}}"))
	e := Event{
		Type:    EventTrackChange,
		Current: playing("Hey Jude", "The Beatles", 0, 7*time.Minute),
	}

	got := f.Format(e)
	want := "track_change: Hey Jude"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}
