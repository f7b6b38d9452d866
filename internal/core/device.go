package core

import "time"

// GroupRole indicates a device's position in a multiroom group.
type GroupRole string

const (
	RoleStandalone GroupRole = "standalone"
	RoleMaster     GroupRole = "master"
	RoleSlave      GroupRole = "slave"
)

// Device represents a playback device on the network.
type Device struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	IP       string    `json:"ip"`
	Model    string    `json:"model"`
	Firmware string    `json:"firmware"`
	Role     GroupRole `json:"role"`
	LastSeen time.Time `json:"last_seen"`
}
