package player

import (
	"context"
	"testing"
	"time"

	"github.com/wiimctl/wiimctl/internal/linkplay"
	"github.com/wiimctl/wiimctl/internal/statesync"
)

// fakeClient serves canned status responses without touching the network.
type fakeClient struct {
	status *linkplay.PlayerStatus
	err    error
}

func (f *fakeClient) GetPlayerStatus(ctx context.Context) (*linkplay.PlayerStatus, error) {
	return f.status, f.err
}

func (f *fakeClient) GetMetaInfo(ctx context.Context) (*linkplay.MetaInfo, error) {
	return nil, context.Canceled
}

// fakeGroupClient records multiroom calls.
type fakeGroupClient struct {
	joined    string
	kicked    string
	ungrouped bool
}

func (f *fakeGroupClient) JoinGroup(ctx context.Context, masterIP string) error {
	f.joined = masterIP
	return nil
}

func (f *fakeGroupClient) KickSlave(ctx context.Context, slaveIP string) error {
	f.kicked = slaveIP
	return nil
}

func (f *fakeGroupClient) Ungroup(ctx context.Context) error {
	f.ungrouped = true
	return nil
}

func withFakeGroupClient(t *testing.T) *fakeGroupClient {
	t.Helper()
	fake := &fakeGroupClient{}
	orig := clientFor
	clientFor = func(host string) groupClient { return fake }
	t.Cleanup(func() { clientFor = orig })
	return fake
}

// masterStatus fabricates a vendor status response with a hex-encoded title.
func masterStatus(titleHex string) *linkplay.PlayerStatus {
	return &linkplay.PlayerStatus{
		Status: "play",
		Vol:    "50",
		Mute:   "0",
		Title:  titleHex,
		CurPos: "10000",
		TotLen: "200000",
	}
}

func newTestGroup(t *testing.T) (*Registry, *Player, *Player) {
	t.Helper()
	reg := NewRegistry()

	// "Song A" hex-encoded
	master := NewPlayer("192.168.1.10", "Living Room",
		WithClient(&fakeClient{status: masterStatus("536f6e672041")}))
	slave := NewPlayer("192.168.1.20", "Kitchen",
		WithClient(&fakeClient{status: &linkplay.PlayerStatus{Status: "play"}}))
	reg.Add(master)
	reg.Add(slave)

	fake := withFakeGroupClient(t)
	_ = fake
	ops := NewGroupOperations(reg)
	if err := ops.Join(context.Background(), master.Host, slave.Host); err != nil {
		t.Fatalf("Join: %v", err)
	}
	return reg, master, slave
}

func TestPropagatedMetadataOutlivesSlaveEvent(t *testing.T) {
	// The master propagates "Song A"; the slave's own UPnP event then
	// delivers "Song B" at a later timestamp. The propagated value
	// persists until the next propagation, not until the slave's own
	// event looks fresher.
	_, master, slave := newTestGroup(t)

	if err := master.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	slave.HandleUPnPEvent(map[statesync.Field]any{
		statesync.FieldTitle: "Song B",
	})

	if got := slave.MergedState()["title"]; got != "Song A" {
		t.Errorf("slave title = %v, want propagated Song A", got)
	}
}

func TestPropagationSkipsMissingSlave(t *testing.T) {
	reg, master, slave := newTestGroup(t)

	// A second, stale slave reference that was never registered.
	master.mu.Lock()
	master.slaveHosts = append(master.slaveHosts, "192.168.1.99")
	master.mu.Unlock()

	if err := master.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v, want nil despite stale slave reference", err)
	}

	// The healthy slave still received the push.
	if got := slave.MergedState()["title"]; got != "Song A" {
		t.Errorf("slave title = %v, want Song A", got)
	}
	_ = reg
}

func TestGroupStateAggregation(t *testing.T) {
	_, master, slave := newTestGroup(t)

	if err := master.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	// Slave reports a louder volume over UPnP.
	slave.HandleUPnPEvent(map[statesync.Field]any{
		statesync.FieldVolume: 80,
		statesync.FieldMuted:  false,
	})
	master.groupSync.UpdateSlaveState(slave.Host, slave.State())

	gs, err := master.GroupState()
	if err != nil {
		t.Fatalf("GroupState: %v", err)
	}
	if gs.VolumeLevel == nil || *gs.VolumeLevel != 80 {
		t.Errorf("VolumeLevel = %v, want 80 (loudest member)", gs.VolumeLevel)
	}
	if gs.PlayState == nil || *gs.PlayState != "play" {
		t.Errorf("PlayState = %v, want master's play", gs.PlayState)
	}
	if gs.IsMuted == nil || *gs.IsMuted {
		t.Errorf("IsMuted = %v, want false", gs.IsMuted)
	}
}

func TestGroupStateNotMaster(t *testing.T) {
	reg := NewRegistry()
	p := NewPlayer("192.168.1.30", "Office",
		WithClient(&fakeClient{status: &linkplay.PlayerStatus{Status: "play"}}))
	reg.Add(p)

	if _, err := p.GroupState(); err == nil {
		t.Error("GroupState on a standalone player: expected error")
	}
}

func TestLeaveDetachesBothSides(t *testing.T) {
	reg, master, slave := newTestGroup(t)

	ops := NewGroupOperations(reg)
	if err := ops.Leave(context.Background(), slave.Host); err != nil {
		t.Fatalf("Leave: %v", err)
	}

	if master.IsMaster() {
		t.Error("master still reports slaves after Leave")
	}
	if slave.IsSlave() {
		t.Error("slave still reports a master after Leave")
	}
}

func TestDissolveClearsGroup(t *testing.T) {
	reg, master, slave := newTestGroup(t)

	ops := NewGroupOperations(reg)
	if err := ops.Dissolve(context.Background(), master.Host); err != nil {
		t.Fatalf("Dissolve: %v", err)
	}

	if master.IsMaster() || slave.IsSlave() {
		t.Error("group links survived Dissolve")
	}
	_ = reg
}

func TestRepeatedPropagationIdempotent(t *testing.T) {
	_, master, slave := newTestGroup(t)

	for i := 0; i < 3; i++ {
		if err := master.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh %d: %v", i, err)
		}
		time.Sleep(time.Millisecond)
	}

	if got := slave.MergedState()["title"]; got != "Song A" {
		t.Errorf("slave title = %v, want Song A after repeated propagation", got)
	}
}
