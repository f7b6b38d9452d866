package linkplay

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client provides high-level access to a single WiiM / LinkPlay device via
// its httpapi.asp endpoint.
type Client struct {
	host       string
	scheme     string
	httpClient *http.Client
}

// NewClient creates a client for the device at host. WiiM firmware serves
// the API over HTTPS with a self-signed certificate; older LinkPlay modules
// use plain HTTP.
func NewClient(host string) *Client {
	return &Client{
		host:   host,
		scheme: "http",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				// LinkPlay devices present self-signed certificates.
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
}

// UseHTTPS switches the client to HTTPS (required by recent WiiM firmware).
func (c *Client) UseHTTPS() {
	c.scheme = "https"
}

// Host returns the device host this client talks to.
func (c *Client) Host() string {
	return c.host
}

// command issues a raw httpapi command and returns the response body.
func (c *Client) command(ctx context.Context, cmd string) ([]byte, error) {
	u := fmt.Sprintf("%s://%s/httpapi.asp?command=%s", c.scheme, c.host, url.QueryEscape(cmd))

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpapi request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpapi error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// commandOK issues a command that is expected to answer with "OK".
func (c *Client) commandOK(ctx context.Context, cmd string) error {
	body, err := c.command(ctx, cmd)
	if err != nil {
		return err
	}
	if !strings.EqualFold(strings.TrimSpace(string(body)), "OK") {
		return fmt.Errorf("command %q: unexpected response %q", cmd, string(body))
	}
	return nil
}

// PlayerStatus is the raw getPlayerStatus response. String-typed numerics
// and hex-encoded text are decoded by ParsePlayerStatus.
type PlayerStatus struct {
	Type     string `json:"type"`
	Channel  string `json:"ch"`
	Mode     string `json:"mode"`
	Loop     string `json:"loop"`
	EQ       string `json:"eq"`
	Status   string `json:"status"`
	CurPos   string `json:"curpos"`
	TotLen   string `json:"totlen"`
	Title    string `json:"Title"`
	Artist   string `json:"Artist"`
	Album    string `json:"Album"`
	PliCount string `json:"plicount"`
	PliCurr  string `json:"plicurr"`
	Vol      string `json:"vol"`
	Mute     string `json:"mute"`
}

// GetPlayerStatus retrieves the current playback status.
func (c *Client) GetPlayerStatus(ctx context.Context) (*PlayerStatus, error) {
	body, err := c.command(ctx, "getPlayerStatus")
	if err != nil {
		return nil, err
	}

	var status PlayerStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("parse player status: %w", err)
	}
	return &status, nil
}

// DeviceStatus is the raw getStatusEx response, reduced to the fields the
// client consumes.
type DeviceStatus struct {
	UUID           string `json:"uuid"`
	DeviceName     string `json:"DeviceName"`
	Project        string `json:"project"`
	Firmware       string `json:"firmware"`
	Hardware       string `json:"hardware"`
	MAC            string `json:"MAC"`
	GroupMode      string `json:"group"`
	MasterUUID     string `json:"master_uuid"`
	Internet       string `json:"internet"`
	NetstatDisplay string `json:"netstat"`
	ApcliIP        string `json:"apcli0"`
	EthIP          string `json:"eth2"`
}

// GetDeviceStatus retrieves extended device information.
func (c *Client) GetDeviceStatus(ctx context.Context) (*DeviceStatus, error) {
	body, err := c.command(ctx, "getStatusEx")
	if err != nil {
		return nil, err
	}

	var status DeviceStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("parse device status: %w", err)
	}
	return &status, nil
}

// MetaInfo carries now-playing metadata from getMetaInfo, which newer WiiM
// firmware exposes alongside getPlayerStatus.
type MetaInfo struct {
	Metadata struct {
		Title       string `json:"title"`
		Artist      string `json:"artist"`
		Album       string `json:"album"`
		AlbumArtURI string `json:"albumArtURI"`
	} `json:"metaData"`
}

// GetMetaInfo retrieves now-playing metadata. Not all firmware supports it;
// callers should treat errors as a missing feature, not a failure.
func (c *Client) GetMetaInfo(ctx context.Context) (*MetaInfo, error) {
	body, err := c.command(ctx, "getMetaInfo")
	if err != nil {
		return nil, err
	}

	var info MetaInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("parse meta info: %w", err)
	}
	return &info, nil
}

// Play starts or resumes playback.
func (c *Client) Play(ctx context.Context) error {
	return c.commandOK(ctx, "setPlayerCmd:play")
}

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context) error {
	return c.commandOK(ctx, "setPlayerCmd:pause")
}

// Toggle toggles between play and pause.
func (c *Client) Toggle(ctx context.Context) error {
	return c.commandOK(ctx, "setPlayerCmd:onepause")
}

// Next skips to the next track.
func (c *Client) Next(ctx context.Context) error {
	return c.commandOK(ctx, "setPlayerCmd:next")
}

// Previous skips to the previous track.
func (c *Client) Previous(ctx context.Context) error {
	return c.commandOK(ctx, "setPlayerCmd:prev")
}

// Seek seeks to the given position in seconds.
func (c *Client) Seek(ctx context.Context, seconds int) error {
	if seconds < 0 {
		seconds = 0
	}
	return c.commandOK(ctx, "setPlayerCmd:seek:"+strconv.Itoa(seconds))
}

// SetVolume sets the volume level (0-100).
func (c *Client) SetVolume(ctx context.Context, volume int) error {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	return c.commandOK(ctx, "setPlayerCmd:vol:"+strconv.Itoa(volume))
}

// SetMute mutes or unmutes the device.
func (c *Client) SetMute(ctx context.Context, muted bool) error {
	v := "0"
	if muted {
		v = "1"
	}
	return c.commandOK(ctx, "setPlayerCmd:mute:"+v)
}

// PlayURL plays a stream URL directly.
func (c *Client) PlayURL(ctx context.Context, streamURL string) error {
	return c.commandOK(ctx, "setPlayerCmd:play:"+streamURL)
}
