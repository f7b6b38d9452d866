package player

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wiimctl/wiimctl/internal/linkplay"
	"github.com/wiimctl/wiimctl/internal/statesync"
)

// statusClient is the slice of the linkplay client the player needs for
// refreshing state. Narrowed for testability.
type statusClient interface {
	GetPlayerStatus(ctx context.Context) (*linkplay.PlayerStatus, error)
	GetMetaInfo(ctx context.Context) (*linkplay.MetaInfo, error)
}

// Player drives one device: it polls the HTTP API, feeds UPnP events into
// the synchronizer, ticks the position estimator, and propagates metadata
// to group slaves when acting as master.
type Player struct {
	Host string
	Name string

	client statusClient
	sync   *statesync.Synchronizer

	registry  *Registry
	groupSync *statesync.GroupSynchronizer

	mu         sync.Mutex
	masterHost string   // set when this device is a group slave
	slaveHosts []string // set when this device is a group master

	lastPropagatedHash uint64
	supportsMetaInfo   bool
}

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithProfile sets the device's conflict-resolution profile.
func WithProfile(p statesync.Profile) PlayerOption {
	return func(pl *Player) { pl.sync.SetProfile(p) }
}

// WithClient overrides the status client. Used by tests.
func WithClient(c statusClient) PlayerOption {
	return func(pl *Player) { pl.client = c }
}

// NewPlayer creates a player for the device at host.
func NewPlayer(host, name string, opts ...PlayerOption) *Player {
	p := &Player{
		Host:             host,
		Name:             name,
		client:           linkplay.NewClient(host),
		sync:             statesync.New(),
		groupSync:        statesync.NewGroupSynchronizer(),
		supportsMetaInfo: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Synchronizer exposes the player's state synchronizer.
func (p *Player) Synchronizer() *statesync.Synchronizer {
	return p.sync
}

// Refresh polls the device once, merges the result, and, when this device
// is a group master, propagates the merged metadata to its slaves.
func (p *Player) Refresh(ctx context.Context) error {
	status, err := p.client.GetPlayerStatus(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	fields := linkplay.ParsePlayerStatus(status)

	if p.supportsMetaInfo {
		if info, err := p.client.GetMetaInfo(ctx); err == nil {
			for f, v := range linkplay.ParseMetaInfo(info) {
				fields[f] = v
			}
		} else {
			// Older firmware has no getMetaInfo; stop asking.
			p.supportsMetaInfo = false
			log.Debug().Str("host", p.Host).Err(err).Msg("getMetaInfo unsupported, disabling")
		}
	}

	p.sync.UpdateFromHTTP(fields, now)
	p.groupSync.UpdateMasterState(p.sync.StateObject())

	// Propagation runs after the master's own merge so slaves receive
	// merged, not raw, values.
	if p.IsMaster() {
		p.propagateToSlaves(now)
	}
	return nil
}

// HandleUPnPEvent merges a parsed UPnP event into the synchronizer.
func (p *Player) HandleUPnPEvent(fields map[statesync.Field]any) {
	p.sync.UpdateFromUPnP(fields, time.Now())
	p.groupSync.UpdateMasterState(p.sync.StateObject())
	if p.IsMaster() {
		p.propagateToSlaves(time.Now())
	}
}

// State returns the merged typed snapshot.
func (p *Player) State() statesync.Snapshot {
	return p.sync.StateObject()
}

// MergedState returns the merged view as a flat map.
func (p *Player) MergedState() map[string]any {
	return p.sync.MergedState()
}

// Position returns the estimated playback position in seconds.
func (p *Player) Position() (int, bool) {
	return p.sync.TickPositionEstimation()
}

// Run polls the device every interval and ticks the position estimator
// once per second until ctx is cancelled.
func (p *Player) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Second
	}

	if err := p.Refresh(ctx); err != nil {
		log.Warn().Err(err).Str("host", p.Host).Msg("initial refresh failed")
	}

	poll := time.NewTicker(interval)
	defer poll.Stop()
	tick := time.NewTicker(time.Second)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-poll.C:
			if err := p.Refresh(ctx); err != nil {
				log.Warn().Err(err).Str("host", p.Host).Msg("refresh failed")
			}
		case <-tick.C:
			p.sync.TickPositionEstimation()
		}
	}
}

// IsMaster reports whether this device currently leads a group.
func (p *Player) IsMaster() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.slaveHosts) > 0
}

// IsSlave reports whether this device currently follows a master.
func (p *Player) IsSlave() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.masterHost != ""
}

// MasterHost returns the master's host when this device is a slave.
func (p *Player) MasterHost() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.masterHost
}

// SlaveHosts returns the hosts of this master's slaves.
func (p *Player) SlaveHosts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	hosts := make([]string, len(p.slaveHosts))
	copy(hosts, p.slaveHosts)
	return hosts
}
