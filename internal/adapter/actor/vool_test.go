package actor

import (
	"fmt"
	"testing"
	"time"

	"vool2mqtt/internal/core/domain"
	"vool2mqtt/internal/util/actorutil"
	"vool2mqtt/pkg/voolapi"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestGetMergedStatusVoolActor(t *testing.T) {

	assert := assert.New(t)

	lmc := voolapi.CreateTestClient("lmc-1")
	wallbox := voolapi.CreateTestClient("wb-1")

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewVoolActor(lmc, wallbox, logger) })
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	msg := domain.GetMergedStatusRequest{}
	result, err := context.RequestFuture(pid, msg, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.GetMergedStatusResponse)

	assert.False(resp.HasResponseError())
	assert.NoError(resp.LMC.Err)
	assert.NoError(resp.Wallbox.Err)
	// payloads are tagged with the client's device id
	assert.Equal("lmc-1", resp.LMC.Status.DeviceStatus.DeviceID)
	assert.Equal("wb-1", resp.Wallbox.Status.DeviceStatus.DeviceID)
	assert.Equal(1, lmc.StatusCalls())
	assert.Equal(1, wallbox.StatusCalls())

	context.Stop(pid)

	as.Shutdown()
}

func TestGetMergedStatusVoolActorPartialFailure(t *testing.T) {

	assert := assert.New(t)

	lmc := voolapi.CreateTestClient("lmc-1")
	wallbox := voolapi.CreateTestClient("wb-1")
	wallbox.StatusErr = fmt.Errorf("token rejected: %w", voolapi.ErrInvalidAuth)

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewVoolActor(lmc, wallbox, logger) })
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	result, err := context.RequestFuture(pid, domain.GetMergedStatusRequest{}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.GetMergedStatusResponse)

	// one device failing must not mask the other
	assert.False(resp.HasResponseError())
	assert.NoError(resp.LMC.Err)
	assert.NotNil(resp.LMC.Status)
	assert.True(voolapi.IsInvalidAuth(resp.Wallbox.Err))
	assert.Nil(resp.Wallbox.Status)

	context.Stop(pid)

	as.Shutdown()
}

func TestVoolActorClosesClientsOnStop(t *testing.T) {

	assert := assert.New(t)

	lmc := voolapi.CreateTestClient("lmc-1")
	wallbox := voolapi.CreateTestClient("wb-1")

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewVoolActor(lmc, wallbox, logger) })
	pid := context.Spawn(props)

	time.Sleep(500 * time.Millisecond)

	context.Stop(pid)
	time.Sleep(500 * time.Millisecond)

	assert.Equal(1, lmc.CloseCalls())
	assert.Equal(1, wallbox.CloseCalls())

	as.Shutdown()
}
