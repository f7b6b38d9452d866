package linkplay

import (
	"encoding/hex"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/wiimctl/wiimctl/internal/statesync"
)

// tenHoursMillis disambiguates millisecond from microsecond position
// values: some firmwares report curpos/totlen in microseconds, and no real
// track position exceeds ten hours in milliseconds.
const tenHoursMillis = 10 * 60 * 60 * 1000

// modeNames maps the vendor's numeric playback mode onto a source name.
var modeNames = map[int]string{
	0:  "idle",
	1:  "airplay",
	2:  "dlna",
	10: "network",
	11: "usb",
	16: "tf_card",
	31: "spotify",
	32: "tidal",
	36: "qobuz",
	40: "line_in",
	41: "bluetooth",
	43: "optical",
	45: "coaxial",
	47: "line_in_2",
	51: "usb_dac",
	99: "follower",
}

// ParsePlayerStatus decodes a raw getPlayerStatus response into the flat
// field map the state synchronizer consumes. Values are normalized to
// canonical units here so the synchronizer only ever sees decoded data:
// hex-encoded text, millisecond (or microsecond) positions, string-typed
// numerics and the numeric mode enum. Fields the poll omitted are absent
// from the map; fields present but empty map to explicit nils.
func ParsePlayerStatus(status *PlayerStatus) map[statesync.Field]any {
	fields := make(map[statesync.Field]any)

	if status.Status != "" {
		fields[statesync.FieldPlayState] = statesync.NormalizePlayState(status.Status)
	}

	// Grouped slaves omit vol/mute from their polls; explicit nils let the
	// synchronizer apply its preservation rule.
	if v, ok := parseIntField(status.Vol); ok {
		fields[statesync.FieldVolume] = v
	} else if status.Vol != "" {
		fields[statesync.FieldVolume] = nil
	}
	switch status.Mute {
	case "1":
		fields[statesync.FieldMuted] = true
	case "0":
		fields[statesync.FieldMuted] = false
	}

	fields[statesync.FieldTitle] = decodeText(status.Title)
	fields[statesync.FieldArtist] = decodeText(status.Artist)
	fields[statesync.FieldAlbum] = decodeText(status.Album)

	if pos, ok := parsePositionMillis(status.CurPos); ok {
		fields[statesync.FieldPosition] = pos
	}
	if dur, ok := parsePositionMillis(status.TotLen); ok && dur > 0 {
		fields[statesync.FieldDuration] = dur
	}

	if mode, ok := parseIntField(status.Mode); ok {
		if name, known := modeNames[mode]; known {
			fields[statesync.FieldSource] = name
		} else {
			fields[statesync.FieldSource] = "mode_" + strconv.Itoa(mode)
		}
	}

	return fields
}

// ParseMetaInfo decodes a getMetaInfo response into synchronizer fields.
func ParseMetaInfo(info *MetaInfo) map[statesync.Field]any {
	fields := make(map[statesync.Field]any)
	md := info.Metadata

	if md.Title != "" {
		fields[statesync.FieldTitle] = md.Title
	}
	if md.Artist != "" {
		fields[statesync.FieldArtist] = md.Artist
	}
	if md.Album != "" {
		fields[statesync.FieldAlbum] = md.Album
	}
	if md.AlbumArtURI != "" {
		fields[statesync.FieldImageURL] = md.AlbumArtURI
	}
	return fields
}

// parseIntField parses the API's string-typed integers.
func parseIntField(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parsePositionMillis converts a curpos/totlen value to whole seconds,
// applying the ten-hour threshold to catch microsecond-reporting firmware.
func parsePositionMillis(s string) (int, bool) {
	ms, ok := parseIntField(s)
	if !ok || ms < 0 {
		return 0, false
	}
	if ms > tenHoursMillis {
		ms /= 1000
	}
	return ms / 1000, true
}

// decodeText decodes the hex-encoded UTF-8 the API uses for track text.
// Plain strings pass through unchanged; empty input maps to nil so the
// synchronizer records an explicit null observation.
func decodeText(s string) any {
	if s == "" {
		return nil
	}
	decoded, err := hex.DecodeString(s)
	if err != nil || !utf8.Valid(decoded) {
		return s
	}
	return string(decoded)
}
