package player

import (
	"context"
	"fmt"
	"time"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/rs/zerolog/log"

	"github.com/wiimctl/wiimctl/internal/errors"
	"github.com/wiimctl/wiimctl/internal/linkplay"
	"github.com/wiimctl/wiimctl/internal/statesync"
)

// propagatedFields is the metadata set a master pushes into its slaves.
var propagatedFields = []statesync.Field{
	statesync.FieldTitle,
	statesync.FieldArtist,
	statesync.FieldAlbum,
	statesync.FieldImageURL,
	statesync.FieldPlayState,
	statesync.FieldPosition,
	statesync.FieldDuration,
}

// propagateToSlaves pushes the master's merged metadata into each slave's
// synchronizer tagged as propagated, where it outranks the slave's own
// observations until the next propagation overwrites it. Each slave update
// is independent and best-effort; a stale slave reference never fails the
// master's refresh.
func (p *Player) propagateToSlaves(now time.Time) {
	slaves := p.SlaveHosts()
	if len(slaves) == 0 || p.registry == nil {
		return
	}

	merged := p.sync.MergedState()
	fields := make(map[statesync.Field]any, len(propagatedFields))
	for _, f := range propagatedFields {
		fields[f] = merged[string(f)]
	}

	hash, err := hashstructure.Hash(fields, hashstructure.FormatV2, nil)
	p.mu.Lock()
	changed := err != nil || hash != p.lastPropagatedHash
	if err == nil {
		p.lastPropagatedHash = hash
	}
	p.mu.Unlock()

	var result errors.PartialResult[int]
	for _, host := range slaves {
		slave := p.registry.Get(host)
		if slave == nil {
			result.AddError(fmt.Errorf("slave %s: %w", host, errors.ErrDeviceNotFound))
			log.Warn().Str("master", p.Host).Str("slave", host).Msg("slave missing from registry, skipping propagation")
			continue
		}
		slave.sync.UpdateFromPropagated(fields, now)
		p.groupSync.UpdateSlaveState(host, slave.State())
		result.Data++
	}

	if changed {
		log.Debug().
			Str("master", p.Host).
			Int("slaves", result.Data).
			Msg("propagated metadata to group")
	}
	if result.HasErrors() {
		log.Debug().Str("master", p.Host).Msg(result.ErrorSummary())
	}
}

// GroupState aggregates this master's group into one logical view.
func (p *Player) GroupState() (statesync.GroupState, error) {
	if !p.IsMaster() {
		return statesync.GroupState{}, errors.ErrNotGrouped
	}
	return p.groupSync.BuildGroupState(p.Host, p.SlaveHosts())
}

// GroupOperations performs group membership changes against the registry
// and the devices' multiroom API.
type GroupOperations struct {
	registry *Registry
}

// NewGroupOperations creates GroupOperations over a registry.
func NewGroupOperations(registry *Registry) *GroupOperations {
	return &GroupOperations{registry: registry}
}

// groupClient is the slice of the linkplay client used for membership
// changes. Narrowed for testability.
type groupClient interface {
	JoinGroup(ctx context.Context, masterIP string) error
	KickSlave(ctx context.Context, slaveIP string) error
	Ungroup(ctx context.Context) error
}

// clientFor returns the multiroom client for a host. Swapped in tests.
var clientFor = func(host string) groupClient {
	return linkplay.NewClient(host)
}

// Join makes the device at slaveHost follow the master at masterHost and
// records the topology in the registry.
func (g *GroupOperations) Join(ctx context.Context, masterHost, slaveHost string) error {
	master := g.registry.Get(masterHost)
	slave := g.registry.Get(slaveHost)
	if master == nil || slave == nil {
		return errors.ErrDeviceNotFound
	}
	if slave.IsSlave() {
		return errors.ErrAlreadyGrouped
	}

	if err := clientFor(slaveHost).JoinGroup(ctx, masterHost); err != nil {
		return fmt.Errorf("join group: %w", err)
	}

	g.Attach(masterHost, slaveHost)
	log.Info().Str("master", masterHost).Str("slave", slaveHost).Msg("joined group")
	return nil
}

// Attach records an existing master/slave link in the registry without
// issuing any device commands. Used when mirroring a group that was formed
// on-device or by another controller.
func (g *GroupOperations) Attach(masterHost, slaveHost string) {
	master := g.registry.Get(masterHost)
	slave := g.registry.Get(slaveHost)
	if master == nil || slave == nil {
		return
	}

	slave.mu.Lock()
	slave.masterHost = masterHost
	slave.mu.Unlock()

	master.mu.Lock()
	master.slaveHosts = append(master.slaveHosts, slaveHost)
	master.mu.Unlock()
}

// Leave detaches the device at slaveHost from its group.
func (g *GroupOperations) Leave(ctx context.Context, slaveHost string) error {
	slave := g.registry.Get(slaveHost)
	if slave == nil {
		return errors.ErrDeviceNotFound
	}

	slave.mu.Lock()
	masterHost := slave.masterHost
	slave.mu.Unlock()
	if masterHost == "" {
		return errors.ErrNotGrouped
	}

	if err := clientFor(masterHost).KickSlave(ctx, slaveHost); err != nil {
		return fmt.Errorf("leave group: %w", err)
	}

	g.detach(masterHost, slaveHost)
	log.Info().Str("master", masterHost).Str("slave", slaveHost).Msg("left group")
	return nil
}

// Dissolve breaks up the whole group led by masterHost.
func (g *GroupOperations) Dissolve(ctx context.Context, masterHost string) error {
	master := g.registry.Get(masterHost)
	if master == nil {
		return errors.ErrDeviceNotFound
	}
	if !master.IsMaster() {
		return errors.ErrNotGrouped
	}

	if err := clientFor(masterHost).Ungroup(ctx); err != nil {
		return fmt.Errorf("dissolve group: %w", err)
	}

	for _, slaveHost := range master.SlaveHosts() {
		g.detach(masterHost, slaveHost)
	}
	master.groupSync.Clear()

	log.Info().Str("master", masterHost).Msg("dissolved group")
	return nil
}

// detach removes the registry-level master/slave link in both directions.
func (g *GroupOperations) detach(masterHost, slaveHost string) {
	if slave := g.registry.Get(slaveHost); slave != nil {
		slave.mu.Lock()
		slave.masterHost = ""
		slave.mu.Unlock()
	}
	if master := g.registry.Get(masterHost); master != nil {
		master.mu.Lock()
		hosts := master.slaveHosts[:0]
		for _, h := range master.slaveHosts {
			if h != slaveHost {
				hosts = append(hosts, h)
			}
		}
		master.slaveHosts = hosts
		master.mu.Unlock()
		master.groupSync.RemoveSlave(slaveHost)
	}
}
