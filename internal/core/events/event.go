package events

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"vool2mqtt/internal/core/domain"
	"vool2mqtt/pkg/voolapi"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE     = "bridge"
	SENSOR_ID_AUTH_REQUIRED    = "auth_required"
	SENSOR_ID_LAST_POLL_STATUS = "last_poll_status"

	READING_ACTIVE_POWER = "active_power"
	READING_CURRENT_L1   = "current_l1"
	READING_CURRENT_L2   = "current_l2"
	READING_CURRENT_L3   = "current_l3"
	READING_VOLTAGE_L1   = "voltage_l1"
	READING_VOLTAGE_L2   = "voltage_l2"
	READING_VOLTAGE_L3   = "voltage_l3"

	SENSOR_KEY_FIRMWARE = "firmware"

	STATE_CLASS_MEASUREMENT   = "measurement"
	DEVICE_CLASS_CURRENT      = "current"
	DEVICE_CLASS_POWER        = "power"
	DEVICE_CLASS_VOLTAGE      = "voltage"
	DEVICE_CLASS_CONNECTIVITY = "connectivity"
	DEVICE_CLASS_PROBLEM      = "problem"
	ENTITY_CLASS_DIAGNOSTIC   = "diagnostic"
	SENSOR_TYPE_SENSOR        = "sensor"
	SENSOR_TYPE_BINARY        = "binary_sensor"
)

// ReadingKeys lists the per-connector fields exposed as sensors, in
// publish order.
func ReadingKeys() []string {
	return []string{
		READING_ACTIVE_POWER,
		READING_CURRENT_L1,
		READING_CURRENT_L2,
		READING_CURRENT_L3,
		READING_VOLTAGE_L1,
		READING_VOLTAGE_L2,
		READING_VOLTAGE_L3,
	}
}

// ConnectorReading projects one field out of a connector. The second return
// is false when the field is absent. Active power arrives in kW and is
// reported in W; everything else passes through unconverted.
func ConnectorReading(connector *voolapi.Connector, key string) (float64, bool) {
	if connector == nil {
		return 0, false
	}
	var value *float64
	switch key {
	case READING_ACTIVE_POWER:
		if connector.ActivePowerKW == nil {
			return 0, false
		}
		return *connector.ActivePowerKW * 1000, true
	case READING_CURRENT_L1:
		value = connector.CurrentL1
	case READING_CURRENT_L2:
		value = connector.CurrentL2
	case READING_CURRENT_L3:
		value = connector.CurrentL3
	case READING_VOLTAGE_L1:
		value = connector.VoltageL1
	case READING_VOLTAGE_L2:
		value = connector.VoltageL2
	case READING_VOLTAGE_L3:
		value = connector.VoltageL3
	}
	if value == nil {
		return 0, false
	}
	return *value, true
}

// SnapshotReading projects a field for one device side out of the merged
// snapshot. An absent side, empty connectors list or missing field all mean
// "unavailable", not an error.
func SnapshotReading(snapshot domain.MergedSnapshot, device, key string) (float64, bool) {
	return ConnectorReading(snapshot.Side(device).FirstConnector(), key)
}

// DisplayDeviceID prefers the id reported inside the status payload and
// falls back to the configured one.
func DisplayDeviceID(status *voolapi.DeviceStatus, configuredID string) string {
	if status != nil && status.DeviceStatus.DeviceID != "" {
		return status.DeviceStatus.DeviceID
	}
	return configuredID
}

func sensorId(device, key string) string {
	return fmt.Sprintf("%s_%s", device, key)
}

func BridgeDevice(baseTopic string) domain.Device {
	return domain.Device{
		Id:           fmt.Sprintf("vool2mqtt_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "Vool",
		Model:        "vool2mqtt",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("Vool bridge %s", md5HashShort(baseTopic)),
	}
}

// MeterDevice describes one polled device for the HA device registry.
// Firmware version comes from the last status snapshot when available.
func MeterDevice(device string, status *voolapi.DeviceStatus, configuredID string) domain.Device {
	id := DisplayDeviceID(status, configuredID)
	var model, name string
	switch device {
	case domain.DEVICE_LMC:
		model = "LMC"
		name = fmt.Sprintf("Vool LMC %s", md5HashShort(id))
	case domain.DEVICE_WALLBOX:
		model = "Wallbox"
		name = fmt.Sprintf("Vool Wallbox %s", md5HashShort(id))
	}
	var version string
	if status != nil {
		version = status.DeviceStatus.FirmwareVersion
	}
	return domain.Device{
		Id:           fmt.Sprintf("vool_%s_%s", device, md5HashShort(id)),
		Manufacturer: "Vool",
		Model:        model,
		Version:      version,
		Name:         name,
	}
}

func IdDevice(device domain.Device) domain.Device {
	return domain.Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

// MeterSensors builds the sensor set of one device side: active power (W),
// per-phase currents (A) and voltages (V), plus the firmware text sensor.
func MeterSensors(meterDevice domain.Device, device string) []domain.GenericSensor {

	var sensors []domain.GenericSensor

	sensors = append(sensors, domain.GenericSensor{
		Device:            meterDevice,
		Id:                sensorId(device, READING_ACTIVE_POWER),
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Active power",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_POWER,
		UnitOfMeasurement: "W",
		UniqueId:          uniqueId(meterDevice.Id, sensorId(device, READING_ACTIVE_POWER)),
	})

	currents := []struct {
		key  string
		name string
	}{
		{READING_CURRENT_L1, "Current L1"},
		{READING_CURRENT_L2, "Current L2"},
		{READING_CURRENT_L3, "Current L3"},
	}
	for _, c := range currents {
		sensors = append(sensors, domain.GenericSensor{
			Device:            meterDevice,
			Id:                sensorId(device, c.key),
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              c.name,
			StateClass:        STATE_CLASS_MEASUREMENT,
			DeviceClass:       DEVICE_CLASS_CURRENT,
			UnitOfMeasurement: "A",
			UniqueId:          uniqueId(meterDevice.Id, sensorId(device, c.key)),
		})
	}

	voltages := []struct {
		key  string
		name string
	}{
		{READING_VOLTAGE_L1, "Voltage L1"},
		{READING_VOLTAGE_L2, "Voltage L2"},
		{READING_VOLTAGE_L3, "Voltage L3"},
	}
	for _, v := range voltages {
		sensors = append(sensors, domain.GenericSensor{
			Device:            meterDevice,
			Id:                sensorId(device, v.key),
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              v.name,
			StateClass:        STATE_CLASS_MEASUREMENT,
			DeviceClass:       DEVICE_CLASS_VOLTAGE,
			UnitOfMeasurement: "V",
			EnabledByDefault:  optionalBool(false),
			UniqueId:          uniqueId(meterDevice.Id, sensorId(device, v.key)),
		})
	}

	// Firmware version
	sensors = append(sensors, domain.GenericSensor{
		Device:         meterDevice,
		Id:             sensorId(device, SENSOR_KEY_FIRMWARE),
		SensorType:     SENSOR_TYPE_SENSOR,
		Name:           "Firmware version",
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		Icon:           "mdi:chip",
		UniqueId:       uniqueId(meterDevice.Id, sensorId(device, SENSOR_KEY_FIRMWARE)),
	})

	return sensors
}

func BridgeSensors(bridgeDevice domain.Device) []domain.GenericSensor {

	var sensors []domain.GenericSensor

	// Bridge connection state
	sensors = append(sensors, domain.GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	})

	// Re-authentication needed
	sensors = append(sensors, domain.GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_AUTH_REQUIRED,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Re-authentication required",
		DeviceClass:    DEVICE_CLASS_PROBLEM,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_AUTH_REQUIRED),
	})

	// Last poll status
	sensors = append(sensors, domain.GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_LAST_POLL_STATUS,
		SensorType:     SENSOR_TYPE_SENSOR,
		Name:           "Last poll status",
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		Icon:           "mdi:refresh",
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_LAST_POLL_STATUS),
	})

	return sensors
}

// DeviceStatusToUpdateEvents converts one device status into sensor update
// events. Unavailable readings are skipped, not zeroed.
func DeviceStatusToUpdateEvents(device string, status *voolapi.DeviceStatus) []any {
	var events []any
	if status == nil {
		return events
	}

	connector := status.FirstConnector()
	for _, key := range ReadingKeys() {
		value, ok := ConnectorReading(connector, key)
		if !ok {
			continue
		}
		decimals := uint(2)
		if key == READING_ACTIVE_POWER {
			decimals = 0
		}
		events = append(events, domain.FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
				Id: sensorId(device, key),
			},
			Value:    value,
			Decimals: decimals,
		})
	}

	if status.DeviceStatus.FirmwareVersion != "" {
		events = append(events, domain.TextSensorUpdateEvent{
			SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
				Id: sensorId(device, SENSOR_KEY_FIRMWARE),
			},
			Value: status.DeviceStatus.FirmwareVersion,
		})
	}

	return events
}

// CycleOutcomeToUpdateEvents reports the coordinator's cycle classification
// on the bridge diagnostic sensors.
func CycleOutcomeToUpdateEvents(outcome string) []any {
	var events []any
	events = append(events, domain.BinarySensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
			Id: SENSOR_ID_AUTH_REQUIRED,
		},
		Value: outcome == domain.CYCLE_AUTH_FAILED,
	})
	events = append(events, domain.TextSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
			Id: SENSOR_ID_LAST_POLL_STATUS,
		},
		Value: outcome,
	})
	return events
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}

func optionalBool(value bool) *bool {
	return &value
}
