package linkplay

import (
	"strings"

	"github.com/wiimctl/wiimctl/internal/statesync"
)

// DeviceProfile declares, per field, which feed is authoritative for a
// vendor/model when both feeds have fresh data. Profiles are passive lookup
// tables; the synchronizer consumes them read-only.
type DeviceProfile struct {
	Vendor       string
	Model        string
	StateSources map[statesync.Field]statesync.Source
}

// PreferredSource implements statesync.Profile.
func (p *DeviceProfile) PreferredSource(f statesync.Field) (statesync.Source, bool) {
	src, ok := p.StateSources[f]
	return src, ok
}

// wiimProfile: WiiM devices report reliable transport state over the HTTP
// poll; their UPnP volume events lag behind the app's own changes.
var wiimProfile = &DeviceProfile{
	Vendor: "WiiM",
	StateSources: map[statesync.Field]statesync.Source{
		statesync.FieldPlayState: statesync.SourceHTTP,
		statesync.FieldVolume:    statesync.SourceHTTP,
		statesync.FieldMuted:     statesync.SourceHTTP,
		statesync.FieldTitle:     statesync.SourceUPnP,
		statesync.FieldArtist:    statesync.SourceUPnP,
		statesync.FieldAlbum:     statesync.SourceUPnP,
	},
}

// audioProProfile: Audio Pro MkII firmware reports stale play state over
// HTTP while its UPnP events are accurate.
var audioProProfile = &DeviceProfile{
	Vendor: "Audio Pro",
	StateSources: map[statesync.Field]statesync.Source{
		statesync.FieldPlayState: statesync.SourceUPnP,
		statesync.FieldVolume:    statesync.SourceUPnP,
		statesync.FieldMuted:     statesync.SourceUPnP,
		statesync.FieldTitle:     statesync.SourceUPnP,
		statesync.FieldArtist:    statesync.SourceUPnP,
		statesync.FieldAlbum:     statesync.SourceUPnP,
	},
}

// genericProfile covers unrecognized LinkPlay modules: trust the HTTP poll
// for transport, UPnP for metadata.
var genericProfile = &DeviceProfile{
	Vendor: "LinkPlay",
	StateSources: map[statesync.Field]statesync.Source{
		statesync.FieldPlayState: statesync.SourceHTTP,
		statesync.FieldVolume:    statesync.SourceHTTP,
		statesync.FieldMuted:     statesync.SourceHTTP,
		statesync.FieldTitle:     statesync.SourceUPnP,
		statesync.FieldArtist:    statesync.SourceUPnP,
		statesync.FieldAlbum:     statesync.SourceUPnP,
	},
}

// ProfileFor returns the device profile matching a project/model name from
// getStatusEx. Matching is prefix-based and case-insensitive.
func ProfileFor(model string) *DeviceProfile {
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "wiim"), strings.HasPrefix(m, "muzo"):
		p := *wiimProfile
		p.Model = model
		return &p
	case strings.Contains(m, "audio pro"), strings.HasPrefix(m, "a10"), strings.HasPrefix(m, "a26"), strings.HasPrefix(m, "c10"):
		p := *audioProProfile
		p.Model = model
		return &p
	default:
		p := *genericProfile
		p.Model = model
		return &p
	}
}

var _ statesync.Profile = (*DeviceProfile)(nil)
