package events

import (
	"testing"

	"vool2mqtt/internal/core/domain"
	"vool2mqtt/pkg/voolapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(value float64) *float64 {
	return &value
}

func TestSnapshotReadingConvertsActivePowerToWatts(t *testing.T) {

	snapshot := domain.MergedSnapshot{
		LMC: &voolapi.DeviceStatus{
			DeviceStatus: voolapi.DeviceStatusBody{
				Connectors: []voolapi.Connector{
					{ActivePowerKW: f64(5), CurrentL1: f64(10)},
				},
			},
		},
	}

	power, ok := SnapshotReading(snapshot, domain.DEVICE_LMC, READING_ACTIVE_POWER)
	require.True(t, ok)
	assert.InDelta(t, 5000, power, 0.001, "kW converted to W")

	current, ok := SnapshotReading(snapshot, domain.DEVICE_LMC, READING_CURRENT_L1)
	require.True(t, ok)
	assert.InDelta(t, 10, current, 0.001, "current passes through unconverted")

	_, ok = SnapshotReading(snapshot, domain.DEVICE_WALLBOX, READING_ACTIVE_POWER)
	assert.False(t, ok, "absent side is unavailable")
}

func TestSnapshotReadingUnavailablePaths(t *testing.T) {

	// missing field on an otherwise present connector
	snapshot := domain.MergedSnapshot{
		LMC: &voolapi.DeviceStatus{
			DeviceStatus: voolapi.DeviceStatusBody{
				Connectors: []voolapi.Connector{
					{VoltageL1: f64(230)},
				},
			},
		},
		// empty connectors list
		Wallbox: &voolapi.DeviceStatus{},
	}

	_, ok := SnapshotReading(snapshot, domain.DEVICE_LMC, READING_CURRENT_L2)
	assert.False(t, ok)

	_, ok = SnapshotReading(snapshot, domain.DEVICE_WALLBOX, READING_VOLTAGE_L1)
	assert.False(t, ok)

	value, ok := SnapshotReading(snapshot, domain.DEVICE_LMC, READING_VOLTAGE_L1)
	require.True(t, ok)
	assert.InDelta(t, 230, value, 0.001)
}

func TestDisplayDeviceIDFallback(t *testing.T) {

	withId := &voolapi.DeviceStatus{
		DeviceStatus: voolapi.DeviceStatusBody{DeviceID: "reported-id"},
	}
	withoutId := &voolapi.DeviceStatus{}

	assert.Equal(t, "reported-id", DisplayDeviceID(withId, "configured-id"))
	assert.Equal(t, "configured-id", DisplayDeviceID(withoutId, "configured-id"))
	assert.Equal(t, "configured-id", DisplayDeviceID(nil, "configured-id"))
}

func TestDeviceStatusToUpdateEvents(t *testing.T) {

	status := voolapi.TestDeviceStatus("1.4.2")
	events := DeviceStatusToUpdateEvents(domain.DEVICE_WALLBOX, &status)

	// 7 readings + firmware
	require.Len(t, events, 8)

	power, ok := events[0].(domain.FloatSensorUpdateEvent)
	require.True(t, ok)
	assert.Equal(t, "wallbox_active_power", power.Id)
	assert.InDelta(t, 7400, power.Value, 0.001)

	firmware, ok := events[7].(domain.TextSensorUpdateEvent)
	require.True(t, ok)
	assert.Equal(t, "wallbox_firmware", firmware.Id)
	assert.Equal(t, "1.4.2", firmware.Value)
}

func TestDeviceStatusToUpdateEventsSkipsMissingReadings(t *testing.T) {

	status := &voolapi.DeviceStatus{
		DeviceStatus: voolapi.DeviceStatusBody{
			Connectors: []voolapi.Connector{
				{ActivePowerKW: f64(1.2)},
			},
		},
	}
	events := DeviceStatusToUpdateEvents(domain.DEVICE_LMC, status)

	require.Len(t, events, 1)
	power := events[0].(domain.FloatSensorUpdateEvent)
	assert.Equal(t, "lmc_active_power", power.Id)
	assert.InDelta(t, 1200, power.Value, 0.001)
}

func TestCycleOutcomeToUpdateEvents(t *testing.T) {

	events := CycleOutcomeToUpdateEvents(domain.CYCLE_AUTH_FAILED)
	require.Len(t, events, 2)

	auth := events[0].(domain.BinarySensorUpdateEvent)
	assert.Equal(t, SENSOR_ID_AUTH_REQUIRED, auth.Id)
	assert.True(t, auth.Value)

	events = CycleOutcomeToUpdateEvents(domain.CYCLE_SUCCESS)
	auth = events[0].(domain.BinarySensorUpdateEvent)
	assert.False(t, auth.Value)
}
