package domain

import (
	"time"

	"vool2mqtt/pkg/voolapi"
)

// Device sides of the integration. Every sensor id and fetch result is
// scoped to one of these.
const (
	DEVICE_LMC     = "lmc"
	DEVICE_WALLBOX = "wallbox"
)

// Poll cycle outcomes. AuthFailed is never folded into a generic failure:
// it requires user action and is surfaced on its own.
const (
	CYCLE_PENDING       = "pending"
	CYCLE_SUCCESS       = "success"
	CYCLE_AUTH_FAILED   = "auth_failed"
	CYCLE_UPDATE_FAILED = "update_failed"
)

// MergedSnapshot is the coordinator's published state: the last status of
// both devices from a fully successful cycle.
type MergedSnapshot struct {
	LMC     *voolapi.DeviceStatus
	Wallbox *voolapi.DeviceStatus
}

func (s MergedSnapshot) Side(device string) *voolapi.DeviceStatus {
	switch device {
	case DEVICE_LMC:
		return s.LMC
	case DEVICE_WALLBOX:
		return s.Wallbox
	}
	return nil
}

// DeviceFetchResult is the typed outcome of one device's status fetch
// within a cycle.
type DeviceFetchResult struct {
	Device string
	Status *voolapi.DeviceStatus
	Err    error
}

type CycleState struct {
	Outcome     string
	Detail      string
	Snapshot    MergedSnapshot
	LastSuccess time.Time
}
