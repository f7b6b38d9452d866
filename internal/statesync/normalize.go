package statesync

import "strings"

// playStateTable maps the vendor and UPnP play-state vocabulary onto the
// canonical states "play", "pause" and "idle". Stopped is surfaced as pause
// so the UI keeps showing the current track instead of a terminal state.
var playStateTable = map[string]string{
	"play":             "play",
	"playing":          "play",
	"pause":            "pause",
	"paused":           "pause",
	"paused_playback":  "pause",
	"stop":             "pause",
	"stopped":          "pause",
	"idle":             "idle",
	"no_media_present": "idle",
}

// NormalizePlayState maps a raw play-state string onto the canonical state
// machine. Unrecognized values pass through lowercased so newer firmware
// states are not lost. Nil stays nil; absence is never coerced into a state.
func NormalizePlayState(raw any) any {
	if raw == nil {
		return nil
	}
	s, ok := raw.(string)
	if !ok {
		return raw
	}
	lower := strings.ToLower(s)
	if canonical, ok := playStateTable[lower]; ok {
		return canonical
	}
	return lower
}
