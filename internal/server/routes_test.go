package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vool2mqtt/internal/core/domain"
	"vool2mqtt/internal/util"
	"vool2mqtt/pkg/voolapi"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubMasterActor answers the three requests the HTTP surface issues.
type stubMasterActor struct {
	healthy bool
	state   domain.CycleState
}

func (s *stubMasterActor) Receive(ctx actor.Context) {
	switch ctx.Message().(type) {
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{Id: domain.ACTOR_ID_MASTER, Healthy: s.healthy, State: s.state.Outcome})
	case domain.RefreshRequest:
		ctx.Respond(domain.RefreshResponse{Started: true})
	case domain.GetSnapshotRequest:
		ctx.Respond(domain.GetSnapshotResponse{State: s.state})
	}
}

func newTestServer(t *testing.T, stub *stubMasterActor) (*httptest.Server, func()) {
	t.Helper()

	as := actor.NewActorSystem()
	context := as.Root

	pid := context.Spawn(actor.PropsFromProducer(func() actor.Actor { return stub }))

	cfg := util.LoadTestConfig()
	s := &Server{
		port:        cfg.Port,
		rootContext: context,
		masterActor: pid,
	}
	ts := httptest.NewServer(s.RegisterRoutes())

	return ts, func() {
		ts.Close()
		context.Stop(pid)
		as.Shutdown()
	}
}

func TestHealthCheckRoute(t *testing.T) {

	status := voolapi.TestDeviceStatus("1.4.2")
	stub := &stubMasterActor{
		healthy: true,
		state: domain.CycleState{
			Outcome:     domain.CYCLE_SUCCESS,
			Snapshot:    domain.MergedSnapshot{LMC: &status, Wallbox: &status},
			LastSuccess: time.Now(),
		},
	}
	ts, stop := newTestServer(t, stub)
	defer stop()

	res, err := http.Get(ts.URL + "/healthcheck")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestHealthCheckRouteUnhealthy(t *testing.T) {

	stub := &stubMasterActor{
		healthy: false,
		state:   domain.CycleState{Outcome: domain.CYCLE_AUTH_FAILED},
	}
	ts, stop := newTestServer(t, stub)
	defer stop()

	res, err := http.Get(ts.URL + "/healthcheck")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
}

func TestRefreshRoute(t *testing.T) {

	stub := &stubMasterActor{healthy: true, state: domain.CycleState{Outcome: domain.CYCLE_SUCCESS}}
	ts, stop := newTestServer(t, stub)
	defer stop()

	res, err := http.Post(ts.URL+"/refresh", "application/json", nil)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusAccepted, res.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, true, body["started"])
}

func TestSnapshotRoute(t *testing.T) {

	status := voolapi.TestDeviceStatus("1.4.2")
	status.DeviceStatus.DeviceID = "dev-1"
	stub := &stubMasterActor{
		healthy: true,
		state: domain.CycleState{
			Outcome:     domain.CYCLE_SUCCESS,
			Snapshot:    domain.MergedSnapshot{LMC: &status, Wallbox: &status},
			LastSuccess: time.Now(),
		},
	}
	ts, stop := newTestServer(t, stub)
	defer stop()

	res, err := http.Get(ts.URL + "/snapshot")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body snapshotJSON
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))

	assert.Equal(t, domain.CYCLE_SUCCESS, body.Outcome)
	assert.NotNil(t, body.LastSuccess)

	lmc, ok := body.Devices[domain.DEVICE_LMC]
	require.True(t, ok)
	assert.Equal(t, "dev-1", lmc.DeviceId)
	assert.Equal(t, "1.4.2", lmc.Firmware)
	// active power reported in watts
	assert.InDelta(t, 7400, lmc.Readings["active_power"], 0.001)
	assert.InDelta(t, 16.1, lmc.Readings["current_l1"], 0.001)
}

func TestSnapshotRouteBeforeFirstSuccess(t *testing.T) {

	stub := &stubMasterActor{healthy: true, state: domain.CycleState{Outcome: domain.CYCLE_PENDING}}
	ts, stop := newTestServer(t, stub)
	defer stop()

	res, err := http.Get(ts.URL + "/snapshot")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body snapshotJSON
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))

	assert.Equal(t, domain.CYCLE_PENDING, body.Outcome)
	assert.Nil(t, body.LastSuccess)
	assert.Empty(t, body.Devices[domain.DEVICE_LMC].Readings)
}
