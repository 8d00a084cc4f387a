package server

import (
	"net/http"
	"time"

	"vool2mqtt/internal/core/domain"
	"vool2mqtt/internal/core/events"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.POST("/refresh", s.RefreshHandler)
	e.GET("/snapshot", s.SnapshotHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

// RefreshHandler starts an out-of-schedule refresh cycle. The periodic
// schedule is unaffected and the cycle result is not awaited.
func (s *Server) RefreshHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.RefreshRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "refresh: FAIL")
	}
	if response, ok := res.(domain.RefreshResponse); ok && response.Started {
		return c.JSON(http.StatusAccepted, map[string]any{"started": true})
	}
	return c.String(http.StatusServiceUnavailable, "refresh: FAIL")
}

type snapshotDeviceJSON struct {
	DeviceId string             `json:"device_id,omitempty"`
	Firmware string             `json:"firmware,omitempty"`
	Readings map[string]float64 `json:"readings"`
}

type snapshotJSON struct {
	Outcome     string                        `json:"outcome"`
	Detail      string                        `json:"detail,omitempty"`
	LastSuccess *time.Time                    `json:"last_success,omitempty"`
	Devices     map[string]snapshotDeviceJSON `json:"devices"`
}

func (s *Server) SnapshotHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.GetSnapshotRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "snapshot: FAIL")
	}
	response, ok := res.(domain.GetSnapshotResponse)
	if !ok {
		return c.String(http.StatusServiceUnavailable, "snapshot: FAIL")
	}

	body := snapshotJSON{
		Outcome: response.State.Outcome,
		Detail:  response.State.Detail,
		Devices: map[string]snapshotDeviceJSON{},
	}
	if !response.State.LastSuccess.IsZero() {
		ls := response.State.LastSuccess
		body.LastSuccess = &ls
	}
	for _, device := range []string{domain.DEVICE_LMC, domain.DEVICE_WALLBOX} {
		body.Devices[device] = snapshotDevice(response.State.Snapshot, device)
	}

	return c.JSON(http.StatusOK, body)
}

// snapshotDevice projects one device side into display units. Unavailable
// readings are omitted from the map.
func snapshotDevice(snapshot domain.MergedSnapshot, device string) snapshotDeviceJSON {
	dev := snapshotDeviceJSON{
		Readings: map[string]float64{},
	}
	for _, key := range events.ReadingKeys() {
		if value, ok := events.SnapshotReading(snapshot, device, key); ok {
			dev.Readings[key] = value
		}
	}
	if status := snapshot.Side(device); status != nil {
		dev.DeviceId = status.DeviceStatus.DeviceID
		dev.Firmware = status.DeviceStatus.FirmwareVersion
	}
	return dev
}
