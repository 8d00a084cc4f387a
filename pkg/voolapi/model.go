package voolapi

// DeviceStatus is the payload returned by the cloud status endpoint for one
// device. Readings live on the first connector. Fields that may be missing
// from the payload are pointers so that absence is distinguishable from zero.
type DeviceStatus struct {
	DeviceStatus DeviceStatusBody `json:"deviceStatus"`
}

type DeviceStatusBody struct {
	DeviceID        string      `json:"deviceId,omitempty"`
	FirmwareVersion string      `json:"firmwareVersion,omitempty"`
	Connectors      []Connector `json:"connectors,omitempty"`
}

// Connector holds the live electrical readings of one charging/metering
// port. ActivePowerKW is reported in kilowatts by the API.
type Connector struct {
	ActivePowerKW *float64 `json:"activePower,omitempty"`
	CurrentL1     *float64 `json:"currentL1,omitempty"`
	CurrentL2     *float64 `json:"currentL2,omitempty"`
	CurrentL3     *float64 `json:"currentL3,omitempty"`
	VoltageL1     *float64 `json:"voltageL1,omitempty"`
	VoltageL2     *float64 `json:"voltageL2,omitempty"`
	VoltageL3     *float64 `json:"voltageL3,omitempty"`
}

// FirstConnector returns the connector carrying the readings, or nil if the
// status has no connectors.
func (s *DeviceStatus) FirstConnector() *Connector {
	if s == nil || len(s.DeviceStatus.Connectors) == 0 {
		return nil
	}
	return &s.DeviceStatus.Connectors[0]
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}
