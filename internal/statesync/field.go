package statesync

import (
	"strings"
	"time"
)

// Source identifies which feed produced an observed value.
type Source string

const (
	SourceHTTP       Source = "http"
	SourceUPnP       Source = "upnp"
	SourcePropagated Source = "propagated"
)

// Field names a tracked device attribute.
type Field string

const (
	FieldPlayState Field = "play_state"
	FieldVolume    Field = "volume"
	FieldMuted     Field = "muted"
	FieldTitle     Field = "title"
	FieldArtist    Field = "artist"
	FieldAlbum     Field = "album"
	FieldPosition  Field = "position"
	FieldDuration  Field = "duration"
	FieldSource    Field = "source"
	FieldImageURL  Field = "image_url"
)

// trackedFields is the full set of attributes the synchronizer reconciles,
// in the order they appear in merged output.
var trackedFields = []Field{
	FieldPlayState,
	FieldVolume,
	FieldMuted,
	FieldTitle,
	FieldArtist,
	FieldAlbum,
	FieldPosition,
	FieldDuration,
	FieldSource,
	FieldImageURL,
}

// metadataFields are resolved with the sentinel-aware, UPnP-preferred rule.
var metadataFields = map[Field]bool{
	FieldTitle:    true,
	FieldArtist:   true,
	FieldAlbum:    true,
	FieldImageURL: true,
}

const (
	transportFreshness = 5 * time.Second
	metadataFreshness  = 30 * time.Second
)

// freshnessWindow returns how long an observation of the given field is
// considered fresh for conflict-resolution purposes.
func freshnessWindow(f Field) time.Duration {
	if metadataFields[f] {
		return metadataFreshness
	}
	return transportFreshness
}

// TimestampedField is a single observed value plus its provenance.
type TimestampedField struct {
	Value      any
	Source     Source
	Timestamp  time.Time
	Confidence float64
}

// IsFresh reports whether the observation is within the freshness window
// for the given field at time now.
func (t TimestampedField) IsFresh(f Field, now time.Time) bool {
	return now.Sub(t.Timestamp) <= freshnessWindow(f)
}

// metadataSentinels are placeholder strings some firmwares report instead
// of leaving a field empty.
var metadataSentinels = map[string]bool{
	"unknown":  true,
	"un_known": true,
	"none":     true,
}

// isValidMetadataValue reports whether a metadata value carries real data.
// Empty strings and known placeholder sentinels do not; image URLs must be
// absolute http(s) URLs.
func isValidMetadataValue(f Field, v any) bool {
	if v == nil {
		return false
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if metadataSentinels[strings.ToLower(s)] {
		return false
	}
	if f == FieldImageURL {
		return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
	}
	return true
}

// toInt coerces numeric wire values to int. The feeds deliver positions and
// volumes as int, int64 or float64 depending on the decoder.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case float32:
		return int(n), true
	}
	return 0, false
}

// toBool coerces wire values to bool.
func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case int:
		return b != 0, true
	}
	return false, false
}

// toString coerces wire values to string.
func toString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
