package actor

import (
	"errors"
	"fmt"
	"time"

	"vool2mqtt/internal/config"
	"vool2mqtt/internal/core/domain"
	"vool2mqtt/internal/core/events"
	"vool2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// HADiscoveryActor announces the bridge and both metering devices to Home
// Assistant once at startup, then goes quiet.
type HADiscoveryActor struct {
	config           *config.Config
	behavior         actor.Behavior
	stash            *actorutil.Stash
	voolActor        *actor.PID
	mqttActor        *actor.PID
	voolActorHealthy bool
	mqttActorHealthy bool
	healthyRecv      int

	logger *zap.Logger
}

func NewHADiscoveryActor(config *config.Config, voolActor *actor.PID, mqttActor *actor.PID, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:    config,
		voolActor: voolActor,
		mqttActor: mqttActor,
		behavior:  actor.NewBehavior(),
		stash:     &actorutil.Stash{},
		logger:    actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")

		// Check Vool and MQTT actor healthy
		state.healthyRecv = 0
		state.voolActorHealthy = false
		state.mqttActorHealthy = false
		// Vool Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.voolActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_VOOL,
				Healthy: false,
			}
		})
		// MQTT Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		state.behavior.Become(state.WaitingHealthyReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("hadiscovery@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("hadiscovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.healthyRecv++
		if msg.Healthy {
			switch msg.Id {
			case domain.ACTOR_ID_VOOL:
				state.voolActorHealthy = true
			case domain.ACTOR_ID_MQTT:
				state.mqttActorHealthy = true
			}
		}
		if state.healthyRecv == 2 {

			if state.voolActorHealthy && state.mqttActorHealthy {
				// Ask Vool for a first merged status to name the devices
				actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.voolActor, domain.GetMergedStatusRequest{}, 90*time.Second), func(err error) any {
					return domain.GetMergedStatusResponse{
						ActorResponseMixIn: domain.ActorResponseMixIn{
							ResponseError: err,
						},
					}
				})
				state.behavior.Become(state.WaitingStatusReceive)
				state.stash.UnstashAll(ctx)
			} else {
				panic(errors.New("MQTT Actor or Vool Actor are not healthy"))
			}
		}
	default:
		state.logger.Debug("hadiscovery@healthcheck: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) Done(ctx actor.Context) {

}

func (state *HADiscoveryActor) WaitingStatusReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetMergedStatusResponse:
		if msg.HasResponseError() {
			panic(msg.GetResponseError())
		}
		state.logger.Debug("hadiscovery@status: GetMergedStatusResponse")

		var sensors []domain.GenericSensor

		bridgeDevice := events.BridgeDevice(state.config.MQTT.BaseTopic)
		sensors = append(sensors, events.BridgeSensors(bridgeDevice)...)

		sensors = append(sensors, state.deviceSensors(domain.DEVICE_LMC, msg.LMC, state.config.Vool.LMCDeviceId, bridgeDevice)...)
		sensors = append(sensors, state.deviceSensors(domain.DEVICE_WALLBOX, msg.Wallbox, state.config.Vool.WallboxDeviceId, bridgeDevice)...)

		ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{
			Sensors: sensors,
		})
		state.behavior.Become(state.Done)

	default:
		state.logger.Debug("hadiscovery@status: default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// deviceSensors builds the sensor set for one metering device. A device
// that failed its first fetch is still announced using its configured id.
func (state *HADiscoveryActor) deviceSensors(device string, result domain.DeviceFetchResult, configuredID string, bridgeDevice domain.Device) []domain.GenericSensor {
	meterDevice := events.MeterDevice(device, result.Status, configuredID)
	meterDevice.ViaDevice = bridgeDevice.Id
	meterSensors := events.MeterSensors(meterDevice, device)
	for i := range meterSensors {
		if i > 0 {
			meterSensors[i].Device = events.IdDevice(meterDevice)
		}
	}
	return meterSensors
}
