package linkplay

import (
	"context"
	"encoding/json"
	"fmt"
)

// SlaveDevice describes one member of a multiroom group as reported by the
// master's slave list.
type SlaveDevice struct {
	Name    string `json:"name"`
	UUID    string `json:"uuid"`
	IP      string `json:"ip"`
	Version string `json:"version"`
	Type    string `json:"type"`
	Channel string `json:"channel"`
	Volume  string `json:"volume"`
	Mute    string `json:"mute"`
}

type slaveListResponse struct {
	Slaves    int           `json:"slaves"`
	SlaveList []SlaveDevice `json:"slave_list"`
}

// GetSlaveList returns the multiroom slaves attached to this device. An
// empty list means the device is standalone or itself a slave.
func (c *Client) GetSlaveList(ctx context.Context) ([]SlaveDevice, error) {
	body, err := c.command(ctx, "multiroom:getSlaveList")
	if err != nil {
		return nil, err
	}

	var resp slaveListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse slave list: %w", err)
	}
	return resp.SlaveList, nil
}

// JoinGroup attaches this device as a slave of the master at masterIP.
func (c *Client) JoinGroup(ctx context.Context, masterIP string) error {
	cmd := fmt.Sprintf("ConnectMasterAp:JoinGroupMaster:eth%s:wifi0.0.0.0", masterIP)
	return c.commandOK(ctx, cmd)
}

// LeaveGroup detaches this device from its current group.
func (c *Client) LeaveGroup(ctx context.Context) error {
	return c.commandOK(ctx, "multiroom:SlaveKickout:"+c.host)
}

// KickSlave removes the slave at slaveIP from this master's group.
func (c *Client) KickSlave(ctx context.Context, slaveIP string) error {
	return c.commandOK(ctx, "multiroom:SlaveKickout:"+slaveIP)
}

// Ungroup dissolves this master's whole group.
func (c *Client) Ungroup(ctx context.Context) error {
	return c.commandOK(ctx, "multiroom:Ungroup")
}

// SetSlaveVolume sets an individual slave's volume through the master.
func (c *Client) SetSlaveVolume(ctx context.Context, slaveIP string, volume int) error {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	return c.commandOK(ctx, fmt.Sprintf("multiroom:SlaveVolume:%s:%d", slaveIP, volume))
}
