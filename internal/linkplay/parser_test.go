package linkplay

import (
	"testing"

	"github.com/wiimctl/wiimctl/internal/statesync"
)

func TestParsePlayerStatus(t *testing.T) {
	status := &PlayerStatus{
		Status: "play",
		Vol:    "50",
		Mute:   "0",
		Mode:   "31",
		// "Hey Jude" / "The Beatles" hex-encoded
		Title:  "486579204a756465",
		Artist: "54686520426561746c6573",
		Album:  "",
		CurPos: "125000",
		TotLen: "431000",
	}

	fields := ParsePlayerStatus(status)

	if fields[statesync.FieldPlayState] != "play" {
		t.Errorf("play_state = %v, want play", fields[statesync.FieldPlayState])
	}
	if fields[statesync.FieldVolume] != 50 {
		t.Errorf("volume = %v, want 50", fields[statesync.FieldVolume])
	}
	if fields[statesync.FieldMuted] != false {
		t.Errorf("muted = %v, want false", fields[statesync.FieldMuted])
	}
	if fields[statesync.FieldTitle] != "Hey Jude" {
		t.Errorf("title = %v, want Hey Jude", fields[statesync.FieldTitle])
	}
	if fields[statesync.FieldArtist] != "The Beatles" {
		t.Errorf("artist = %v, want The Beatles", fields[statesync.FieldArtist])
	}
	if fields[statesync.FieldAlbum] != nil {
		t.Errorf("album = %v, want explicit nil", fields[statesync.FieldAlbum])
	}
	if fields[statesync.FieldPosition] != 125 {
		t.Errorf("position = %v, want 125", fields[statesync.FieldPosition])
	}
	if fields[statesync.FieldDuration] != 431 {
		t.Errorf("duration = %v, want 431", fields[statesync.FieldDuration])
	}
	if fields[statesync.FieldSource] != "spotify" {
		t.Errorf("source = %v, want spotify", fields[statesync.FieldSource])
	}
}

func TestParsePlayerStatusStopNormalized(t *testing.T) {
	fields := ParsePlayerStatus(&PlayerStatus{Status: "stop"})
	if fields[statesync.FieldPlayState] != "pause" {
		t.Errorf("play_state = %v, want pause", fields[statesync.FieldPlayState])
	}
}

func TestParsePlayerStatusGroupedSlaveOmitsVolume(t *testing.T) {
	// Slaves in a group report no vol/mute; the keys must be absent so the
	// synchronizer leaves the previous observation alone.
	fields := ParsePlayerStatus(&PlayerStatus{Status: "play", Vol: "", Mute: ""})

	if _, ok := fields[statesync.FieldVolume]; ok {
		t.Error("volume key present for empty vol, want absent")
	}
	if _, ok := fields[statesync.FieldMuted]; ok {
		t.Error("muted key present for empty mute, want absent")
	}
}

func TestParsePositionMicrosecondFirmware(t *testing.T) {
	// 431 seconds reported in microseconds trips the ten-hour threshold.
	fields := ParsePlayerStatus(&PlayerStatus{CurPos: "431000000", TotLen: "500000000"})

	if fields[statesync.FieldPosition] != 431 {
		t.Errorf("position = %v, want 431", fields[statesync.FieldPosition])
	}
	if fields[statesync.FieldDuration] != 500 {
		t.Errorf("duration = %v, want 500", fields[statesync.FieldDuration])
	}
}

func TestParsePositionGarbageSkipped(t *testing.T) {
	fields := ParsePlayerStatus(&PlayerStatus{CurPos: "not-a-number"})
	if _, ok := fields[statesync.FieldPosition]; ok {
		t.Error("position key present for garbage input, want absent")
	}
}

func TestDecodeTextPlainPassthrough(t *testing.T) {
	got := decodeText("Plain Title")
	if got != "Plain Title" {
		t.Errorf("decodeText = %v, want passthrough", got)
	}
}

func TestParseUnknownMode(t *testing.T) {
	fields := ParsePlayerStatus(&PlayerStatus{Mode: "77"})
	if fields[statesync.FieldSource] != "mode_77" {
		t.Errorf("source = %v, want mode_77", fields[statesync.FieldSource])
	}
}

func TestProfileFor(t *testing.T) {
	tests := []struct {
		model string
		field statesync.Field
		want  statesync.Source
	}{
		{"WiiM Mini", statesync.FieldVolume, statesync.SourceHTTP},
		{"WiiM Pro Plus", statesync.FieldPlayState, statesync.SourceHTTP},
		{"Audio Pro A10 MkII", statesync.FieldPlayState, statesync.SourceUPnP},
		{"SomeOtherBox", statesync.FieldVolume, statesync.SourceHTTP},
		{"SomeOtherBox", statesync.FieldTitle, statesync.SourceUPnP},
	}

	for _, tt := range tests {
		p := ProfileFor(tt.model)
		got, ok := p.PreferredSource(tt.field)
		if !ok {
			t.Errorf("ProfileFor(%q): no source for %q", tt.model, tt.field)
			continue
		}
		if got != tt.want {
			t.Errorf("ProfileFor(%q).%q = %q, want %q", tt.model, tt.field, got, tt.want)
		}
	}
}
