package core

import (
	"time"

	"github.com/wiimctl/wiimctl/internal/statesync"
)

// NowPlaying is the consumer-facing view of a device's playback state,
// built from a merged snapshot.
type NowPlaying struct {
	Title     string        `json:"title"`
	Artist    string        `json:"artist"`
	Album     string        `json:"album"`
	ImageURL  string        `json:"image_url"`
	PlayState string        `json:"play_state"`
	Source    string        `json:"source"`
	Volume    int           `json:"volume"`
	Muted     bool          `json:"muted"`
	Position  time.Duration `json:"position"`
	Duration  time.Duration `json:"duration"`

	HasTrack  bool `json:"has_track"`
	HasVolume bool `json:"has_volume"`
}

// FromSnapshot converts a merged snapshot into a NowPlaying view, mapping
// unobserved fields to zero values.
func FromSnapshot(snap statesync.Snapshot) NowPlaying {
	np := NowPlaying{}

	if snap.Title != nil {
		np.Title = *snap.Title
		np.HasTrack = true
	}
	if snap.Artist != nil {
		np.Artist = *snap.Artist
	}
	if snap.Album != nil {
		np.Album = *snap.Album
	}
	if snap.ImageURL != nil {
		np.ImageURL = *snap.ImageURL
	}
	if snap.PlayState != nil {
		np.PlayState = *snap.PlayState
	}
	if snap.Source != nil {
		np.Source = *snap.Source
	}
	if snap.Volume != nil {
		np.Volume = *snap.Volume
		np.HasVolume = true
	}
	if snap.Muted != nil {
		np.Muted = *snap.Muted
	}
	if snap.Position != nil {
		np.Position = time.Duration(*snap.Position) * time.Second
	}
	if snap.Duration != nil {
		np.Duration = time.Duration(*snap.Duration) * time.Second
	}
	return np
}

// IsPlaying returns true if the device is actively playing.
func (n NowPlaying) IsPlaying() bool {
	return n.PlayState == "play"
}

// ProgressPercent returns playback progress as a percentage (0-100).
func (n NowPlaying) ProgressPercent() float64 {
	if n.Duration == 0 {
		return 0
	}
	return float64(n.Position) / float64(n.Duration) * 100
}
