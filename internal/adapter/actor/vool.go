package actor

import (
	"context"
	"fmt"
	"time"

	"vool2mqtt/internal/core/domain"
	"vool2mqtt/internal/util/actorutil"
	"vool2mqtt/pkg/voolapi"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/reugn/go-quartz/logger"
	"go.uber.org/zap"
)

// VoolActor owns the two cloud API clients and serves merged status
// requests. Fetches run off the actor goroutine; only one fetch is in
// flight at a time.
type VoolActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	lmc      voolapi.Client
	wallbox  voolapi.Client
	logger   *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewVoolActor(lmc, wallbox voolapi.Client, logger *zap.Logger) *VoolActor {
	act := &VoolActor{
		lmc:      lmc,
		wallbox:  wallbox,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_VOOL, logger),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *VoolActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *VoolActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("vool@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_VOOL,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetMergedStatusRequest:
		state.logger.Debug("vool@default: GetMergedStatusRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getMergedStatus),
			mapTaskResult[domain.GetMergedStatusResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetMergedStatusResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(60 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingFetch)
	case *actor.Stopping:
		state.lmc.Close()
		state.wallbox.Close()
	default:
		state.logger.Debug("vool@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *VoolActor) WaitingFetch(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("vool@waitingFetch backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		ctx.Send(msg.replyTo, msg.message)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case *actor.Stopping:
		state.lmc.Close()
		state.wallbox.Close()
	default:
		state.logger.Debug("vool@waitingFetch stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// getMergedStatus fetches both devices sequentially. Per-device failures
// travel inside the results so that one device cannot mask the other.
func (a *VoolActor) getMergedStatus() (*domain.GetMergedStatusResponse, error) {
	return &domain.GetMergedStatusResponse{
		LMC:     a.fetchDevice(domain.DEVICE_LMC, a.lmc),
		Wallbox: a.fetchDevice(domain.DEVICE_WALLBOX, a.wallbox),
	}, nil
}

func (a *VoolActor) fetchDevice(device string, client voolapi.Client) domain.DeviceFetchResult {
	status, err := client.GetDeviceStatus(context.Background())
	if err != nil {
		logger.Error(err)
		return domain.DeviceFetchResult{Device: device, Err: err}
	}
	// tag the payload with its device id for downstream consumers
	status.DeviceStatus.DeviceID = client.DeviceID()
	return domain.DeviceFetchResult{Device: device, Status: status}
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
