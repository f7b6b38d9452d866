package upnp

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wiimctl/wiimctl/internal/statesync"
)

const (
	subscribeTimeout = 300 * time.Second
	renewInterval    = 240 * time.Second
)

// EventHandler receives parsed event fields for a device host.
type EventHandler func(host string, fields map[statesync.Field]any)

// subscription tracks one GENA subscription to a device service.
type subscription struct {
	host     string
	port     int
	endpoint string
	sid      string
	token    string
}

// Subscriber manages GENA event subscriptions and runs the NOTIFY callback
// listener. Parsed events are handed to the registered EventHandler; the
// subscriber itself holds no device state.
type Subscriber struct {
	callbackPort int
	handler      EventHandler
	httpClient   *http.Client

	mu      sync.Mutex
	subs    map[string]*subscription // keyed by callback token
	localIP string
}

// NewSubscriber creates a Subscriber that listens for NOTIFY callbacks on
// callbackPort and routes parsed events to handler.
func NewSubscriber(callbackPort int, handler EventHandler) *Subscriber {
	return &Subscriber{
		callbackPort: callbackPort,
		handler:      handler,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		subs:         make(map[string]*subscription),
	}
}

// Start runs the NOTIFY listener and the renewal loop until ctx is
// cancelled. Blocks.
func (s *Subscriber) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/notify/", s.handleNotify)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.callbackPort),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	renewTicker := time.NewTicker(renewInterval)
	defer renewTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
			s.unsubscribeAll()
			return ctx.Err()
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("notify listener: %w", err)
			}
			return nil
		case <-renewTicker.C:
			s.renewAll(ctx)
		}
	}
}

// Subscribe opens GENA subscriptions to a device's AVTransport and
// RenderingControl event endpoints.
func (s *Subscriber) Subscribe(ctx context.Context, host string, port int) error {
	if port == 0 {
		port = DefaultPort
	}
	for _, endpoint := range []string{AVTransportEventEndpoint, RenderingControlEventEndpoint} {
		if err := s.subscribe(ctx, host, port, endpoint); err != nil {
			return fmt.Errorf("subscribe %s%s: %w", host, endpoint, err)
		}
	}
	return nil
}

func (s *Subscriber) subscribe(ctx context.Context, host string, port int, endpoint string) error {
	localIP, err := s.localAddrFor(host, port)
	if err != nil {
		return err
	}

	token := uuid.NewString()
	callback := fmt.Sprintf("<http://%s:%d/notify/%s>", localIP, s.callbackPort, token)

	url := fmt.Sprintf("http://%s:%d%s", host, port, endpoint)
	req, err := http.NewRequestWithContext(ctx, "SUBSCRIBE", url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("CALLBACK", callback)
	req.Header.Set("NT", "upnp:event")
	req.Header.Set("TIMEOUT", fmt.Sprintf("Second-%d", int(subscribeTimeout.Seconds())))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("subscribe failed (status %d)", resp.StatusCode)
	}

	sub := &subscription{
		host:     host,
		port:     port,
		endpoint: endpoint,
		sid:      resp.Header.Get("SID"),
		token:    token,
	}

	s.mu.Lock()
	s.subs[token] = sub
	s.mu.Unlock()

	log.Debug().Str("host", host).Str("endpoint", endpoint).Str("sid", sub.sid).Msg("subscribed to upnp events")
	return nil
}

// Unsubscribe drops all subscriptions for a device host.
func (s *Subscriber) Unsubscribe(host string) {
	s.mu.Lock()
	var dropped []*subscription
	for token, sub := range s.subs {
		if sub.host == host {
			dropped = append(dropped, sub)
			delete(s.subs, token)
		}
	}
	s.mu.Unlock()

	for _, sub := range dropped {
		s.sendUnsubscribe(sub)
	}
}

func (s *Subscriber) unsubscribeAll() {
	s.mu.Lock()
	subs := make([]*subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.subs = make(map[string]*subscription)
	s.mu.Unlock()

	for _, sub := range subs {
		s.sendUnsubscribe(sub)
	}
}

func (s *Subscriber) sendUnsubscribe(sub *subscription) {
	url := fmt.Sprintf("http://%s:%d%s", sub.host, sub.port, sub.endpoint)
	req, err := http.NewRequest("UNSUBSCRIBE", url, nil)
	if err != nil {
		return
	}
	req.Header.Set("SID", sub.sid)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("host", sub.host).Msg("unsubscribe failed")
		return
	}
	resp.Body.Close()
}

// renewAll re-issues SUBSCRIBE with the existing SID for every active
// subscription. A failed renewal is logged and kept; the device may simply
// be asleep.
func (s *Subscriber) renewAll(ctx context.Context) {
	s.mu.Lock()
	subs := make([]*subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		url := fmt.Sprintf("http://%s:%d%s", sub.host, sub.port, sub.endpoint)
		req, err := http.NewRequestWithContext(ctx, "SUBSCRIBE", url, nil)
		if err != nil {
			continue
		}
		req.Header.Set("SID", sub.sid)
		req.Header.Set("TIMEOUT", fmt.Sprintf("Second-%d", int(subscribeTimeout.Seconds())))

		resp, err := s.httpClient.Do(req)
		if err != nil {
			log.Warn().Err(err).Str("host", sub.host).Msg("event subscription renewal failed")
			continue
		}
		resp.Body.Close()
	}
}

// handleNotify parses incoming NOTIFY callbacks and routes the fields to
// the handler. Malformed bodies are acknowledged and dropped; the device
// retries on its next state change anyway.
func (s *Subscriber) handleNotify(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.URL.Path, "/notify/")

	s.mu.Lock()
	sub, ok := s.subs[token]
	s.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	fields, err := ParseNotify(body)
	if err != nil {
		log.Debug().Err(err).Str("host", sub.host).Msg("dropping malformed notify")
		w.WriteHeader(http.StatusOK)
		return
	}

	if len(fields) > 0 && s.handler != nil {
		s.handler(sub.host, fields)
	}
	w.WriteHeader(http.StatusOK)
}

// localAddrFor finds the local IP a device would use to reach us, by
// opening a throwaway UDP "connection" toward it.
func (s *Subscriber) localAddrFor(host string, port int) (string, error) {
	s.mu.Lock()
	if s.localIP != "" {
		ip := s.localIP
		s.mu.Unlock()
		return ip, nil
	}
	s.mu.Unlock()

	conn, err := net.Dial("udp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return "", fmt.Errorf("determine local address: %w", err)
	}
	defer conn.Close()

	ip := conn.LocalAddr().(*net.UDPAddr).IP.String()
	s.mu.Lock()
	s.localIP = ip
	s.mu.Unlock()
	return ip, nil
}
