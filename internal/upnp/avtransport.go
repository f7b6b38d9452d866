package upnp

import (
	"context"
	"encoding/xml"
	"fmt"

	"github.com/wiimctl/wiimctl/internal/statesync"
)

// AVTransport queries a renderer's transport and position state over SOAP.
// Used as a poll-style fallback for devices whose httpapi is unavailable or
// whose profile prefers UPnP data.
type AVTransport struct {
	soap *SOAPClient
	port int
}

// NewAVTransport creates an AVTransport querier for devices listening on
// port (0 means the LinkPlay default).
func NewAVTransport(port int) *AVTransport {
	if port == 0 {
		port = DefaultPort
	}
	return &AVTransport{
		soap: NewSOAPClient(),
		port: port,
	}
}

type transportInfoResponse struct {
	State  string `xml:"Body>GetTransportInfoResponse>CurrentTransportState"`
	Status string `xml:"Body>GetTransportInfoResponse>CurrentTransportStatus"`
}

type positionInfoResponse struct {
	TrackDuration string `xml:"Body>GetPositionInfoResponse>TrackDuration"`
	TrackMetaData string `xml:"Body>GetPositionInfoResponse>TrackMetaData"`
	RelTime       string `xml:"Body>GetPositionInfoResponse>RelTime"`
}

// Snapshot queries GetTransportInfo and GetPositionInfo and returns the
// result as a flat field map ready for the synchronizer's UPnP path.
func (t *AVTransport) Snapshot(ctx context.Context, host string) (map[statesync.Field]any, error) {
	fields := make(map[statesync.Field]any)

	args := map[string]string{"InstanceID": "0"}

	body, err := t.soap.Call(ctx, host, t.port, AVTransportEndpoint, AVTransportService, "GetTransportInfo", args)
	if err != nil {
		return nil, fmt.Errorf("get transport info: %w", err)
	}
	var ti transportInfoResponse
	if err := xml.Unmarshal(body, &ti); err != nil {
		return nil, fmt.Errorf("parse transport info: %w", err)
	}
	if ti.State != "" {
		fields[statesync.FieldPlayState] = ti.State
	}

	body, err = t.soap.Call(ctx, host, t.port, AVTransportEndpoint, AVTransportService, "GetPositionInfo", args)
	if err != nil {
		return nil, fmt.Errorf("get position info: %w", err)
	}
	var pi positionInfoResponse
	if err := xml.Unmarshal(body, &pi); err != nil {
		return nil, fmt.Errorf("parse position info: %w", err)
	}

	if v, ok := parseClockValue(pi.RelTime); ok {
		fields[statesync.FieldPosition] = v
	}
	if v, ok := parseClockValue(pi.TrackDuration); ok {
		fields[statesync.FieldDuration] = v
	}
	if pi.TrackMetaData != "" {
		parseTrackMetadata(pi.TrackMetaData, fields)
	}

	return fields, nil
}
