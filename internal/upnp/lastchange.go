package upnp

import (
	"encoding/xml"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/wiimctl/wiimctl/internal/statesync"
)

// propertySet is the outer GENA NOTIFY body. The LastChange payload inside
// is itself escaped XML.
type propertySet struct {
	XMLName    xml.Name `xml:"propertyset"`
	Properties []struct {
		LastChange string `xml:"LastChange"`
	} `xml:"property"`
}

// lastChangeEvent is the unescaped LastChange document shared by
// AVTransport and RenderingControl.
type lastChangeEvent struct {
	XMLName   xml.Name `xml:"Event"`
	Instances []struct {
		TransportState struct {
			Val string `xml:"val,attr"`
		} `xml:"TransportState"`
		CurrentTrackMetaData struct {
			Val string `xml:"val,attr"`
		} `xml:"CurrentTrackMetaData"`
		CurrentTrackDuration struct {
			Val string `xml:"val,attr"`
		} `xml:"CurrentTrackDuration"`
		RelativeTimePosition struct {
			Val string `xml:"val,attr"`
		} `xml:"RelativeTimePosition"`
		Volumes []struct {
			Channel string `xml:"channel,attr"`
			Val     string `xml:"val,attr"`
		} `xml:"Volume"`
		Mutes []struct {
			Channel string `xml:"channel,attr"`
			Val     string `xml:"val,attr"`
		} `xml:"Mute"`
	} `xml:"InstanceID"`
}

// didlLite is the DIDL-Lite track metadata document.
type didlLite struct {
	XMLName xml.Name `xml:"urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/ DIDL-Lite"`
	Items   []struct {
		Title       string `xml:"http://purl.org/dc/elements/1.1/ title"`
		Creator     string `xml:"http://purl.org/dc/elements/1.1/ creator"`
		Album       string `xml:"urn:schemas-upnp-org:metadata-1-0/upnp/ album"`
		AlbumArtURI string `xml:"urn:schemas-upnp-org:metadata-1-0/upnp/ albumArtURI"`
	} `xml:"urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/ item"`
}

// ParseNotify parses a GENA NOTIFY body into the flat field map the state
// synchronizer consumes. Only fields the event actually carried appear in
// the map. Play-state normalization happens inside the synchronizer's UPnP
// update path, so TransportState values pass through raw.
func ParseNotify(body []byte) (map[statesync.Field]any, error) {
	var ps propertySet
	if err := xml.Unmarshal(body, &ps); err != nil {
		return nil, fmt.Errorf("parse propertyset: %w", err)
	}

	// The outer unmarshal has already unescaped the LastChange payload
	// once; it is now plain XML with its own escaped attributes.
	fields := make(map[statesync.Field]any)
	for _, prop := range ps.Properties {
		if prop.LastChange == "" {
			continue
		}
		parseLastChange(prop.LastChange, fields)
	}
	return fields, nil
}

// parseLastChange merges one LastChange document into fields. Individual
// malformed values are skipped; a bad event must never lose the rest.
func parseLastChange(doc string, fields map[statesync.Field]any) {
	var ev lastChangeEvent
	if err := xml.Unmarshal([]byte(doc), &ev); err != nil {
		return
	}

	for _, inst := range ev.Instances {
		if v := inst.TransportState.Val; v != "" {
			fields[statesync.FieldPlayState] = v
		}
		if v := inst.CurrentTrackMetaData.Val; v != "" {
			parseTrackMetadata(v, fields)
		}
		if v := inst.CurrentTrackDuration.Val; v != "" {
			if secs, ok := parseClockValue(v); ok {
				fields[statesync.FieldDuration] = secs
			}
		}
		if v := inst.RelativeTimePosition.Val; v != "" {
			if secs, ok := parseClockValue(v); ok {
				fields[statesync.FieldPosition] = secs
			}
		}
		for _, vol := range inst.Volumes {
			if vol.Channel != "" && vol.Channel != "Master" {
				continue
			}
			if n, err := strconv.Atoi(vol.Val); err == nil {
				fields[statesync.FieldVolume] = n
			}
		}
		for _, mute := range inst.Mutes {
			if mute.Channel != "" && mute.Channel != "Master" {
				continue
			}
			fields[statesync.FieldMuted] = mute.Val == "1" || strings.EqualFold(mute.Val, "true")
		}
	}
}

// parseTrackMetadata extracts title/artist/album/art from a DIDL-Lite
// document into fields.
func parseTrackMetadata(metadata string, fields map[statesync.Field]any) {
	metadata = html.UnescapeString(metadata)

	var didl didlLite
	if err := xml.Unmarshal([]byte(metadata), &didl); err == nil && len(didl.Items) > 0 {
		item := didl.Items[0]
		if item.Title != "" {
			fields[statesync.FieldTitle] = item.Title
		}
		if item.Creator != "" {
			fields[statesync.FieldArtist] = item.Creator
		}
		if item.Album != "" {
			fields[statesync.FieldAlbum] = item.Album
		}
		if item.AlbumArtURI != "" {
			fields[statesync.FieldImageURL] = item.AlbumArtURI
		}
		return
	}

	// Fallback: extract elements by local name, ignoring namespace
	// prefixes some firmwares get wrong.
	if title := extractXMLElement(metadata, "title"); title != "" {
		fields[statesync.FieldTitle] = title
	}
	if creator := extractXMLElement(metadata, "creator"); creator != "" {
		fields[statesync.FieldArtist] = creator
	}
	if album := extractXMLElement(metadata, "album"); album != "" {
		fields[statesync.FieldAlbum] = album
	}
	if art := extractXMLElement(metadata, "albumArtURI"); art != "" {
		fields[statesync.FieldImageURL] = art
	}
}

// extractXMLElement extracts content from an XML element, ignoring
// namespace prefixes.
func extractXMLElement(xmlData, localName string) string {
	re := regexp.MustCompile(`<(?:\w+:)?` + localName + `[^>]*>([^<]*)</(?:\w+:)?` + localName + `>`)
	matches := re.FindStringSubmatch(xmlData)
	if len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	return ""
}

// parseClockValue parses an H:MM:SS duration into whole seconds.
// "NOT_IMPLEMENTED" and malformed values report false.
func parseClockValue(s string) (int, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	// Ignore fractional seconds some renderers append.
	secPart := strings.SplitN(parts[2], ".", 2)[0]
	sec, err3 := strconv.Atoi(secPart)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, false
	}
	return h*3600 + m*60 + sec, true
}
