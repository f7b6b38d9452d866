package upnp

import (
	"encoding/xml"
	"testing"
)

const samplePositionInfoResponse = `<?xml version="1.0" encoding="utf-8"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">
  <s:Body>
    <u:GetPositionInfoResponse xmlns:u="urn:schemas-upnp-org:service:AVTransport:1">
      <Track>1</Track>
      <TrackDuration>0:04:33</TrackDuration>
      <TrackMetaData>&lt;DIDL-Lite xmlns=&quot;urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/&quot; xmlns:dc=&quot;http://purl.org/dc/elements/1.1/&quot; xmlns:upnp=&quot;urn:schemas-upnp-org:metadata-1-0/upnp/&quot;&gt;&lt;item&gt;&lt;dc:title&gt;Hey Jude&lt;/dc:title&gt;&lt;dc:creator&gt;The Beatles&lt;/dc:creator&gt;&lt;/item&gt;&lt;/DIDL-Lite&gt;</TrackMetaData>
      <RelTime>0:01:12</RelTime>
    </u:GetPositionInfoResponse>
  </s:Body>
</s:Envelope>`

const sampleTransportInfoResponse = `<?xml version="1.0" encoding="utf-8"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">
  <s:Body>
    <u:GetTransportInfoResponse xmlns:u="urn:schemas-upnp-org:service:AVTransport:1">
      <CurrentTransportState>PLAYING</CurrentTransportState>
      <CurrentTransportStatus>OK</CurrentTransportStatus>
    </u:GetTransportInfoResponse>
  </s:Body>
</s:Envelope>`

func TestDecodePositionInfoResponse(t *testing.T) {
	var pi positionInfoResponse
	if err := xml.Unmarshal([]byte(samplePositionInfoResponse), &pi); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if pi.RelTime != "0:01:12" {
		t.Errorf("RelTime = %q, want %q", pi.RelTime, "0:01:12")
	}
	if pi.TrackDuration != "0:04:33" {
		t.Errorf("TrackDuration = %q, want %q", pi.TrackDuration, "0:04:33")
	}
	if pi.TrackMetaData == "" {
		t.Error("TrackMetaData is empty")
	}
}

func TestDecodeTransportInfoResponse(t *testing.T) {
	var ti transportInfoResponse
	if err := xml.Unmarshal([]byte(sampleTransportInfoResponse), &ti); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if ti.State != "PLAYING" {
		t.Errorf("State = %q, want %q", ti.State, "PLAYING")
	}
}
