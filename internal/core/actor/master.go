package actor

import (
	"errors"
	"fmt"
	"log"
	"time"

	adactor "vool2mqtt/internal/adapter/actor"
	"vool2mqtt/internal/config"
	"vool2mqtt/internal/core/domain"
	"vool2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type VoolActorProvider func() *adactor.VoolActor

// MasterActor supervises the whole actor tree: device adapter, MQTT
// publisher, poll coordinator and the optional discovery announcer. It is
// also the single entry point for the HTTP server.
type MasterActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *actorutil.Stash

	currentHealthCheck healthCheckResult
	eventStream        *eventstream.EventStream
	voolActor          *actor.PID
	mqttActor          *actor.PID
	pollActor          *actor.PID
	voolActorProvider  VoolActorProvider
	mqttActorProvider  MQTTActorProvider
	logger             *zap.Logger
}

type healthCheckResult struct {
	voolActorHealthy bool
	mqttActorHealthy bool
	pollActorHealthy bool
	pollState        string
	checksReceived   int
	respondTo        *actor.PID
}

func NewMasterActor(config config.Config, voolActorProvider VoolActorProvider, mqttActorProvider MQTTActorProvider, logger *zap.Logger) *MasterActor {
	act := &MasterActor{
		config:            config,
		behavior:          actor.NewBehavior(),
		stash:             &actorutil.Stash{},
		logger:            actorutil.ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:       &eventstream.EventStream{},
		voolActorProvider: voolActorProvider,
		mqttActorProvider: mqttActorProvider,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck = healthCheckResult{}
		state.currentHealthCheck.reset()

		// start Vool child
		voolActorPID, err := state.startVoolActor(ctx)
		if err != nil {
			panic(err)
		}
		state.voolActor = voolActorPID

		// start MQTT child
		mqttActorPID, err := state.startMQTTActor(ctx)
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID

		// start Poll child
		pollActorPID, err := state.startPollActor(ctx)
		if err != nil {
			panic(err)
		}
		state.pollActor = pollActorPID

		// start HA Discovery
		if state.config.MQTT.HADiscoveryEnable {
			_, err := state.startHADiscoveryActor(ctx)
			if err != nil {
				panic(err)
			}
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset()
		state.currentHealthCheck.respondTo = ctx.Sender()
		// Vool Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.voolActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_VOOL,
				Healthy: false,
			}
		})
		// MQTT Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		// Poll Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.pollActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_POLL,
				Healthy: false,
			}
		})

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case domain.RefreshRequest:
		state.logger.Debug("master@default RefreshRequest")
		ctx.Forward(state.pollActor)
	case domain.GetSnapshotRequest:
		state.logger.Debug("master@default GetSnapshotRequest")
		ctx.Forward(state.pollActor)
	case adactor.ParsedCommand:
		// a refresh command arrived on the MQTT command topic
		state.logger.Debug("master@default parsedCommand", zap.Any("command", msg.Command))
		if msg.Command != nil && msg.Command.Command == "refresh" {
			ctx.Send(state.pollActor, domain.RefreshRequest{})
		}
	case *actor.Terminated:
		// if the device adapter fails on boot, terminate
		if msg.Who.GetId() == fmt.Sprintf("%s/%s", domain.ACTOR_ID_MASTER, domain.ACTOR_ID_VOOL) {
			state.logger.Error("master@default vool adapter terminated")
			panic(errors.New("vool adapter terminated"))
		}
	default:
		state.logger.Debug("master@default stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		if msg.Healthy {
			switch msg.Id {
			case domain.ACTOR_ID_VOOL:
				state.currentHealthCheck.voolActorHealthy = true
			case domain.ACTOR_ID_MQTT:
				state.currentHealthCheck.mqttActorHealthy = true
			case domain.ACTOR_ID_POLL:
				state.currentHealthCheck.pollActorHealthy = true
			}
		}
		if msg.Id == domain.ACTOR_ID_POLL {
			state.currentHealthCheck.pollState = msg.State
		}
		if state.currentHealthCheck.allReceived() {

			state.currentHealthCheck.respond(ctx)

			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterActor) startVoolActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	voolProps := actor.PropsFromProducer(func() actor.Actor {
		return state.voolActorProvider()
	}, actor.WithSupervisor(supervisor))
	voolActorPID, err := ctx.SpawnNamed(voolProps, domain.ACTOR_ID_VOOL)
	if err != nil {
		return nil, err
	}

	return voolActorPID, nil
}

func (state *MasterActor) startPollActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewAllForOneStrategy(1, 10*time.Second, decider)

	pollProps := actor.PropsFromProducer(func() actor.Actor {
		return NewPollActor(&state.config, state.voolActor, state.eventStream, state.logger)
	}, actor.WithSupervisor(supervisor))
	pollActorPID, err := ctx.SpawnNamed(pollProps, domain.ACTOR_ID_POLL)
	if err != nil {
		return nil, err
	}

	return pollActorPID, nil
}

func (state *MasterActor) startHADiscoveryActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	haDiscProps := actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&state.config, state.voolActor, state.mqttActor, state.logger)
	}, actor.WithSupervisor(supervisor))
	haDiscPID, err := ctx.SpawnNamed(haDiscProps, domain.ACTOR_ID_HA_DISCOVERY)
	if err != nil {
		return nil, err
	}

	return haDiscPID, nil
}

func (state *MasterActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func (state *healthCheckResult) reset() {
	state.voolActorHealthy = false
	state.mqttActorHealthy = false
	state.pollActorHealthy = false
	state.pollState = ""
	state.checksReceived = 0
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived == 3
}

func (state *healthCheckResult) allHealthy() bool {
	return state.voolActorHealthy && state.mqttActorHealthy && state.pollActorHealthy
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
		State:   state.pollState,
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
