package voolapi

import (
	"context"
	"sync"
)

// TestClient is a scriptable Client for tests. Zero value behaves like a
// healthy device returning TestDeviceStatus.
type TestClient struct {
	ID string

	AuthErr   error
	Status    *DeviceStatus
	StatusErr error

	mu          sync.Mutex
	authCalls   int
	statusCalls int
	closeCalls  int
}

func CreateTestClient(deviceID string) *TestClient {
	return &TestClient{ID: deviceID}
}

func (c *TestClient) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authCalls++
	return c.AuthErr
}

func (c *TestClient) GetDeviceStatus(ctx context.Context) (*DeviceStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statusCalls++
	if c.StatusErr != nil {
		return nil, c.StatusErr
	}
	if c.Status != nil {
		status := *c.Status
		return &status, nil
	}
	status := TestDeviceStatus("1.4.2")
	return &status, nil
}

func (c *TestClient) DeviceID() string {
	return c.ID
}

func (c *TestClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeCalls++
}

func (c *TestClient) AuthCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authCalls
}

func (c *TestClient) StatusCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusCalls
}

func (c *TestClient) CloseCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCalls
}

func TestDeviceStatus(firmware string) DeviceStatus {
	return DeviceStatus{
		DeviceStatus: DeviceStatusBody{
			FirmwareVersion: firmware,
			Connectors: []Connector{
				{
					ActivePowerKW: f64(7.4),
					CurrentL1:     f64(16.1),
					CurrentL2:     f64(15.8),
					CurrentL3:     f64(16.0),
					VoltageL1:     f64(231.2),
					VoltageL2:     f64(229.8),
					VoltageL3:     f64(230.5),
				},
			},
		},
	}
}

func f64(value float64) *float64 {
	return &value
}
