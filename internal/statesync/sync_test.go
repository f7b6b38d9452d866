package statesync

import (
	"reflect"
	"testing"
	"time"
)

// fixedClock returns a clock function pinned to t, advanced via the pointer.
func fixedClock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

type testProfile struct {
	sources map[Field]Source
}

func (p *testProfile) PreferredSource(f Field) (Source, bool) {
	src, ok := p.sources[f]
	return src, ok
}

func TestPartialUpdateDoesNotEraseFields(t *testing.T) {
	now := time.Now()
	s := New(WithClock(fixedClock(&now)))

	s.UpdateFromHTTP(map[Field]any{
		FieldPlayState: "play",
		FieldVolume:    50,
		FieldTitle:     "Song A",
	}, now)

	// A later poll carrying only volume must leave play_state and title
	// untouched.
	s.UpdateFromHTTP(map[Field]any{FieldVolume: 60}, now.Add(time.Second))

	merged := s.MergedState()
	if merged["play_state"] != "play" {
		t.Errorf("play_state = %v, want %q", merged["play_state"], "play")
	}
	if merged["title"] != "Song A" {
		t.Errorf("title = %v, want %q", merged["title"], "Song A")
	}
	if merged["volume"] != 60 {
		t.Errorf("volume = %v, want 60", merged["volume"])
	}
}

func TestPropagatedPrecedence(t *testing.T) {
	now := time.Now()
	s := New(WithClock(fixedClock(&now)))

	s.UpdateFromPropagated(map[Field]any{FieldTitle: "Master Song"}, now)
	s.UpdateFromUPnP(map[Field]any{FieldTitle: "Stale Local Song"}, now.Add(time.Second))

	if got := s.MergedState()["title"]; got != "Master Song" {
		t.Errorf("title = %v, want %q", got, "Master Song")
	}
}

func TestFreshnessOverridesProfilePriority(t *testing.T) {
	now := time.Now()
	s := New(
		WithClock(fixedClock(&now)),
		WithProfile(&testProfile{sources: map[Field]Source{FieldVolume: SourceHTTP}}),
	)

	// HTTP volume observed a minute ago, UPnP volume just now: the fresh
	// side wins despite the profile preferring HTTP.
	s.UpdateFromHTTP(map[Field]any{FieldVolume: 30}, now.Add(-time.Minute))
	s.UpdateFromUPnP(map[Field]any{FieldVolume: 70}, now)

	if got := s.MergedState()["volume"]; got != 70 {
		t.Errorf("volume = %v, want 70", got)
	}
}

func TestMergedStateIdempotent(t *testing.T) {
	now := time.Now()
	s := New(WithClock(fixedClock(&now)))

	s.UpdateFromHTTP(map[Field]any{FieldPlayState: "play", FieldVolume: 40}, now)
	s.UpdateFromUPnP(map[Field]any{FieldTitle: "Song"}, now)

	first := s.MergedState()
	second := s.MergedState()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("consecutive MergedState calls differ:\n%v\n%v", first, second)
	}
}

func TestExplicitNilVolumeAndMutePreserved(t *testing.T) {
	now := time.Now()
	s := New(WithClock(fixedClock(&now)))

	s.UpdateFromHTTP(map[Field]any{FieldVolume: 45, FieldMuted: true}, now)

	// Grouped slaves omit volume/mute from their polls; an explicit nil
	// must not clear the previous observation.
	s.UpdateFromHTTP(map[Field]any{FieldVolume: nil, FieldMuted: nil}, now.Add(time.Second))

	merged := s.MergedState()
	if merged["volume"] != 45 {
		t.Errorf("volume = %v, want 45", merged["volume"])
	}
	if merged["muted"] != true {
		t.Errorf("muted = %v, want true", merged["muted"])
	}
}

func TestExplicitNilClearsOtherFields(t *testing.T) {
	now := time.Now()
	s := New(WithClock(fixedClock(&now)))

	s.UpdateFromHTTP(map[Field]any{FieldSource: "spotify"}, now)
	s.UpdateFromHTTP(map[Field]any{FieldSource: nil}, now.Add(time.Second))

	if got := s.MergedState()["source"]; got != nil {
		t.Errorf("source = %v, want nil", got)
	}
}

func TestProfilePrefersHTTPVolume(t *testing.T) {
	// Scenario A: WiiM-style profile preferring HTTP for volume, both
	// sides fresh.
	now := time.Now()
	s := New(
		WithClock(fixedClock(&now)),
		WithProfile(&testProfile{sources: map[Field]Source{FieldVolume: SourceHTTP}}),
	)

	s.UpdateFromHTTP(map[Field]any{FieldPlayState: "play", FieldVolume: 50}, now)
	s.UpdateFromUPnP(map[Field]any{FieldPlayState: "play", FieldVolume: 0.75}, now)

	if got := s.MergedState()["volume"]; got != 50 {
		t.Errorf("volume = %v, want 50", got)
	}
}

func TestProfilePrefersUPnPPlayState(t *testing.T) {
	// Scenario B: Audio Pro MkII-style profile preferring UPnP, equal
	// freshness, conflicting play states.
	now := time.Now()
	s := New(
		WithClock(fixedClock(&now)),
		WithProfile(&testProfile{sources: map[Field]Source{FieldPlayState: SourceUPnP}}),
	)

	s.UpdateFromHTTP(map[Field]any{FieldPlayState: "pause"}, now)
	s.UpdateFromUPnP(map[Field]any{FieldPlayState: "PLAYING"}, now)

	if got := s.MergedState()["play_state"]; got != "play" {
		t.Errorf("play_state = %v, want %q", got, "play")
	}
}

func TestMetadataPrefersFreshUPnP(t *testing.T) {
	now := time.Now()
	s := New(WithClock(fixedClock(&now)))

	s.UpdateFromHTTP(map[Field]any{FieldTitle: "Old HTTP Title"}, now)
	s.UpdateFromUPnP(map[Field]any{FieldTitle: "Event Title"}, now)

	if got := s.MergedState()["title"]; got != "Event Title" {
		t.Errorf("title = %v, want %q", got, "Event Title")
	}
}

func TestMetadataSentinelFallsBackToHTTP(t *testing.T) {
	now := time.Now()
	s := New(WithClock(fixedClock(&now)))

	s.UpdateFromHTTP(map[Field]any{FieldTitle: "Real Title"}, now)
	s.UpdateFromUPnP(map[Field]any{FieldTitle: "un_known"}, now)

	if got := s.MergedState()["title"]; got != "Real Title" {
		t.Errorf("title = %v, want %q", got, "Real Title")
	}
}

func TestMetadataBothSentinelCleared(t *testing.T) {
	now := time.Now()
	s := New(WithClock(fixedClock(&now)))

	s.UpdateFromHTTP(map[Field]any{FieldArtist: ""}, now)
	s.UpdateFromUPnP(map[Field]any{FieldArtist: "unknown"}, now)

	if got := s.MergedState()["artist"]; got != nil {
		t.Errorf("artist = %v, want nil", got)
	}
}

func TestImageURLRequiresHTTPScheme(t *testing.T) {
	now := time.Now()
	s := New(WithClock(fixedClock(&now)))

	s.UpdateFromHTTP(map[Field]any{FieldImageURL: "https://example.com/art.jpg"}, now)
	s.UpdateFromUPnP(map[Field]any{FieldImageURL: "file:///tmp/art.jpg"}, now)

	if got := s.MergedState()["image_url"]; got != "https://example.com/art.jpg" {
		t.Errorf("image_url = %v, want https URL", got)
	}
}

func TestStaleDataUsableWhenOnlySource(t *testing.T) {
	now := time.Now()
	s := New(WithClock(fixedClock(&now)))

	s.UpdateFromHTTP(map[Field]any{FieldVolume: 25}, now.Add(-time.Hour))

	if got := s.MergedState()["volume"]; got != 25 {
		t.Errorf("volume = %v, want 25", got)
	}
}

func TestSourceHealthReporting(t *testing.T) {
	now := time.Now()
	s := New(WithClock(fixedClock(&now)))

	health := s.MergedState()["_source_health"].(map[string]bool)
	if health["http_available"] || health["upnp_available"] {
		t.Errorf("health = %v, want both false before any update", health)
	}

	s.UpdateFromHTTP(map[Field]any{FieldVolume: 10}, now)
	health = s.MergedState()["_source_health"].(map[string]bool)
	if !health["http_available"] {
		t.Error("http_available = false after HTTP update, want true")
	}
	if health["upnp_available"] {
		t.Error("upnp_available = true without UPnP data, want false")
	}
}

func TestMergedStateAlwaysComplete(t *testing.T) {
	s := New()
	merged := s.MergedState()

	for _, f := range trackedFields {
		v, ok := merged[string(f)]
		if !ok {
			t.Errorf("field %q missing from merged state", f)
		}
		if v != nil {
			t.Errorf("field %q = %v, want nil before any observation", f, v)
		}
	}
}

func TestMalformedPositionSkipped(t *testing.T) {
	now := time.Now()
	s := New(WithClock(fixedClock(&now)))

	s.UpdateFromHTTP(map[Field]any{FieldPosition: 10}, now)
	s.UpdateFromHTTP(map[Field]any{FieldPosition: "garbage"}, now.Add(time.Second))

	if got := s.MergedState()["position"]; got != 10 {
		t.Errorf("position = %v, want previous value 10", got)
	}
}

func TestPositionEstimationWhilePlaying(t *testing.T) {
	// Scenario D: position 10s, duration 20s, ticking once per second
	// returns 11, 12, ... capping at 20.
	now := time.Unix(1000, 0)
	s := New(WithClock(fixedClock(&now)))

	s.UpdateFromHTTP(map[Field]any{
		FieldPlayState: "play",
		FieldPosition:  10,
		FieldDuration:  20,
	}, now)

	want := []int{11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 20, 20}
	for i, w := range want {
		now = now.Add(time.Second)
		got, ok := s.TickPositionEstimation()
		if !ok {
			t.Fatalf("tick %d: no position", i+1)
		}
		if got != w {
			t.Errorf("tick %d: position = %d, want %d", i+1, got, w)
		}
	}
}

func TestPositionEstimationPausedReturnsLastKnown(t *testing.T) {
	now := time.Unix(1000, 0)
	s := New(WithClock(fixedClock(&now)))

	s.UpdateFromHTTP(map[Field]any{FieldPlayState: "pause", FieldPosition: 42}, now)

	now = now.Add(10 * time.Second)
	got, ok := s.TickPositionEstimation()
	if !ok {
		t.Fatal("expected a position")
	}
	if got != 42 {
		t.Errorf("position = %d, want 42 while paused", got)
	}
}

func TestPositionEstimationNoObservation(t *testing.T) {
	s := New()
	if _, ok := s.TickPositionEstimation(); ok {
		t.Error("expected no position before any observation")
	}
}

func TestSetProfileRecomputes(t *testing.T) {
	now := time.Now()
	s := New(WithClock(fixedClock(&now)))

	s.UpdateFromHTTP(map[Field]any{FieldVolume: 50}, now)
	s.UpdateFromUPnP(map[Field]any{FieldVolume: 80}, now)

	// Default priority prefers UPnP.
	if got := s.MergedState()["volume"]; got != 80 {
		t.Errorf("volume = %v, want 80 under default priority", got)
	}

	s.SetProfile(&testProfile{sources: map[Field]Source{FieldVolume: SourceHTTP}})
	if got := s.MergedState()["volume"]; got != 50 {
		t.Errorf("volume = %v, want 50 after profile swap", got)
	}
}

func TestStateObjectTypes(t *testing.T) {
	now := time.Now()
	s := New(WithClock(fixedClock(&now)))

	s.UpdateFromHTTP(map[Field]any{
		FieldPlayState: "play",
		FieldVolume:    65,
		FieldMuted:     false,
		FieldTitle:     "Song",
		FieldDuration:  180,
	}, now)

	snap := s.StateObject()
	if snap.PlayState == nil || *snap.PlayState != "play" {
		t.Errorf("PlayState = %v, want play", snap.PlayState)
	}
	if snap.Volume == nil || *snap.Volume != 65 {
		t.Errorf("Volume = %v, want 65", snap.Volume)
	}
	if snap.Muted == nil || *snap.Muted {
		t.Errorf("Muted = %v, want false", snap.Muted)
	}
	if snap.Artist != nil {
		t.Errorf("Artist = %v, want nil (never observed)", snap.Artist)
	}
	if !snap.Health.HTTPAvailable || snap.Health.UPnPAvailable {
		t.Errorf("Health = %+v, want HTTP only", snap.Health)
	}
}
