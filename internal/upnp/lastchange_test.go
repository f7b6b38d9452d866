package upnp

import (
	"testing"

	"github.com/wiimctl/wiimctl/internal/statesync"
)

const sampleNotify = `<?xml version="1.0"?>
<e:propertyset xmlns:e="urn:schemas-upnp-org:event-1-0">
  <e:property>
    <LastChange>&lt;Event xmlns="urn:schemas-upnp-org:metadata-1-0/AVT/"&gt;&lt;InstanceID val="0"&gt;&lt;TransportState val="PLAYING"/&gt;&lt;CurrentTrackDuration val="0:03:45"/&gt;&lt;RelativeTimePosition val="0:01:30"/&gt;&lt;CurrentTrackMetaData val="&amp;lt;DIDL-Lite xmlns=&amp;quot;urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/&amp;quot; xmlns:dc=&amp;quot;http://purl.org/dc/elements/1.1/&amp;quot; xmlns:upnp=&amp;quot;urn:schemas-upnp-org:metadata-1-0/upnp/&amp;quot;&amp;gt;&amp;lt;item id=&amp;quot;0&amp;quot;&amp;gt;&amp;lt;dc:title&amp;gt;Hey Jude&amp;lt;/dc:title&amp;gt;&amp;lt;dc:creator&amp;gt;The Beatles&amp;lt;/dc:creator&amp;gt;&amp;lt;upnp:album&amp;gt;Past Masters&amp;lt;/upnp:album&amp;gt;&amp;lt;upnp:albumArtURI&amp;gt;https://art.example.com/a.jpg&amp;lt;/upnp:albumArtURI&amp;gt;&amp;lt;/item&amp;gt;&amp;lt;/DIDL-Lite&amp;gt;"/&gt;&lt;/InstanceID&gt;&lt;/Event&gt;</LastChange>
  </e:property>
</e:propertyset>`

const sampleVolumeNotify = `<?xml version="1.0"?>
<e:propertyset xmlns:e="urn:schemas-upnp-org:event-1-0">
  <e:property>
    <LastChange>&lt;Event xmlns="urn:schemas-upnp-org:metadata-1-0/RCS/"&gt;&lt;InstanceID val="0"&gt;&lt;Volume channel="Master" val="42"/&gt;&lt;Mute channel="Master" val="1"/&gt;&lt;/InstanceID&gt;&lt;/Event&gt;</LastChange>
  </e:property>
</e:propertyset>`

func TestParseNotifyTransportEvent(t *testing.T) {
	fields, err := ParseNotify([]byte(sampleNotify))
	if err != nil {
		t.Fatalf("ParseNotify: %v", err)
	}

	// Transport state passes through raw; normalization happens in the
	// synchronizer's UPnP path.
	if fields[statesync.FieldPlayState] != "PLAYING" {
		t.Errorf("play_state = %v, want PLAYING", fields[statesync.FieldPlayState])
	}
	if fields[statesync.FieldTitle] != "Hey Jude" {
		t.Errorf("title = %v, want Hey Jude", fields[statesync.FieldTitle])
	}
	if fields[statesync.FieldArtist] != "The Beatles" {
		t.Errorf("artist = %v, want The Beatles", fields[statesync.FieldArtist])
	}
	if fields[statesync.FieldAlbum] != "Past Masters" {
		t.Errorf("album = %v, want Past Masters", fields[statesync.FieldAlbum])
	}
	if fields[statesync.FieldImageURL] != "https://art.example.com/a.jpg" {
		t.Errorf("image_url = %v, want art URL", fields[statesync.FieldImageURL])
	}
	if fields[statesync.FieldDuration] != 225 {
		t.Errorf("duration = %v, want 225", fields[statesync.FieldDuration])
	}
	if fields[statesync.FieldPosition] != 90 {
		t.Errorf("position = %v, want 90", fields[statesync.FieldPosition])
	}
}

func TestParseNotifyRenderingControlEvent(t *testing.T) {
	fields, err := ParseNotify([]byte(sampleVolumeNotify))
	if err != nil {
		t.Fatalf("ParseNotify: %v", err)
	}

	if fields[statesync.FieldVolume] != 42 {
		t.Errorf("volume = %v, want 42", fields[statesync.FieldVolume])
	}
	if fields[statesync.FieldMuted] != true {
		t.Errorf("muted = %v, want true", fields[statesync.FieldMuted])
	}
}

func TestParseNotifyMalformedLastChangeDropped(t *testing.T) {
	body := `<?xml version="1.0"?>
<e:propertyset xmlns:e="urn:schemas-upnp-org:event-1-0">
  <e:property><LastChange>not xml at all</LastChange></e:property>
</e:propertyset>`

	fields, err := ParseNotify([]byte(body))
	if err != nil {
		t.Fatalf("ParseNotify: %v", err)
	}
	if len(fields) != 0 {
		t.Errorf("fields = %v, want empty for malformed LastChange", fields)
	}
}

func TestParseClockValue(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"0:03:45", 225, true},
		{"1:00:00", 3600, true},
		{"0:00:07.123", 7, true},
		{"NOT_IMPLEMENTED", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseClockValue(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseClockValue(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
