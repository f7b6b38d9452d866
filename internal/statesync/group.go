package statesync

import (
	"sync"

	"github.com/wiimctl/wiimctl/internal/errors"
)

// GroupState is the aggregated logical view of a speaker group. The master
// is the sole authority for transport state and now-playing metadata; volume
// and mute are aggregated across all members.
type GroupState struct {
	PlayState   *string
	Title       *string
	Artist      *string
	Album       *string
	Source      *string
	VolumeLevel *int
	IsMuted     *bool
}

// GroupSynchronizer aggregates the per-device merged snapshots of a group
// master and its slaves into one logical group view. Each slot is written
// only by the component driving that device's refresh.
type GroupSynchronizer struct {
	mu          sync.Mutex
	masterState *Snapshot
	slaveStates map[string]Snapshot
}

// NewGroupSynchronizer creates an empty GroupSynchronizer.
func NewGroupSynchronizer() *GroupSynchronizer {
	return &GroupSynchronizer{
		slaveStates: make(map[string]Snapshot),
	}
}

// UpdateMasterState stores the master's latest merged snapshot.
func (g *GroupSynchronizer) UpdateMasterState(state Snapshot) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.masterState = &state
}

// UpdateSlaveState stores a slave's latest merged snapshot keyed by host.
func (g *GroupSynchronizer) UpdateSlaveState(host string, state Snapshot) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.slaveStates[host] = state
}

// RemoveSlave drops a slave's stored state.
func (g *GroupSynchronizer) RemoveSlave(host string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.slaveStates, host)
}

// Clear drops all stored state. Called on group dissolution.
func (g *GroupSynchronizer) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.masterState = nil
	g.slaveStates = make(map[string]Snapshot)
}

// BuildGroupState aggregates the stored states into a GroupState:
// transport and metadata copied verbatim from the master, volume is the MAX
// across members (the loudest member determines the perceived group level),
// and the group counts as muted only when every member reports muted.
// Returns ErrNoMasterState when the master's state has not been set; the
// caller should retry after the master's next refresh. Pure; does not
// mutate any stored state.
func (g *GroupSynchronizer) BuildGroupState(masterHost string, slaveHosts []string) (GroupState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.masterState == nil {
		return GroupState{}, errors.ErrNoMasterState
	}

	m := g.masterState
	gs := GroupState{
		PlayState: m.PlayState,
		Title:     m.Title,
		Artist:    m.Artist,
		Album:     m.Album,
		Source:    m.Source,
	}

	members := make([]Snapshot, 0, len(slaveHosts)+1)
	members = append(members, *m)
	for _, host := range slaveHosts {
		if st, ok := g.slaveStates[host]; ok {
			members = append(members, st)
		}
	}

	var maxVolume *int
	allMuted := true
	for _, st := range members {
		if st.Volume != nil && (maxVolume == nil || *st.Volume > *maxVolume) {
			v := *st.Volume
			maxVolume = &v
		}
		if st.Muted == nil || !*st.Muted {
			allMuted = false
		}
	}

	gs.VolumeLevel = maxVolume
	gs.IsMuted = &allMuted
	return gs, nil
}
