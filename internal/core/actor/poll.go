package actor

import (
	"fmt"
	"time"

	"vool2mqtt/internal/config"
	"vool2mqtt/internal/core/domain"
	"vool2mqtt/internal/core/events"
	"vool2mqtt/internal/util/actorutil"
	"vool2mqtt/pkg/voolapi"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// PollActor drives the shared refresh cycle for both devices. One timer,
// one cycle in flight at a time; the last fully successful snapshot stays
// published until the next fully successful cycle replaces it.
type PollActor struct {
	behavior  actor.Behavior
	stash     *actorutil.Stash
	scheduler *scheduler.TimerScheduler

	voolActor   *actor.PID
	config      *config.Config
	eventStream *eventstream.EventStream
	state       domain.CycleState

	logger *zap.Logger
}

type pollTick struct {
}

func NewPollActor(config *config.Config, voolActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *PollActor {
	act := &PollActor{
		config:      config,
		voolActor:   voolActor,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		eventStream: eventStream,
		state: domain.CycleState{
			Outcome: domain.CYCLE_PENDING,
		},
		logger: actorutil.ActorLogger(domain.ACTOR_ID_POLL, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *PollActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *PollActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("poll@starting started")

		state.scheduler = scheduler.NewTimerScheduler(ctx)
		// first cycle right away, next ones on the timer
		ctx.Send(ctx.Self(), pollTick{})

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.logger.Debug("poll@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *PollActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("poll@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_POLL,
			Healthy: state.state.Outcome != domain.CYCLE_AUTH_FAILED,
			State:   state.state.Outcome,
		})
	case pollTick:
		state.logger.Debug("poll@default tick")
		state.startCycle(ctx)
		// schedule next tick
		state.scheduler.RequestOnce(state.pollInterval(), ctx.Self(), pollTick{})
		state.behavior.BecomeStacked(state.WaitingCycleReceive)
	case domain.RefreshRequest:
		// forced cycle; the periodic schedule is left untouched
		state.logger.Debug("poll@default refresh")
		actorutil.ForRequest(msg).Respond(ctx, domain.RefreshResponse{Started: true})
		state.startCycle(ctx)
		state.behavior.BecomeStacked(state.WaitingCycleReceive)
	case domain.GetSnapshotRequest:
		state.logger.Debug("poll@default: GetSnapshotRequest")
		actorutil.ForRequest(msg).Respond(ctx, domain.GetSnapshotResponse{State: state.state})
	default:
		state.logger.Debug("poll@default: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *PollActor) WaitingCycleReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetMergedStatusResponse:
		state.completeCycle(msg)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("poll@waiting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *PollActor) startCycle(ctx actor.Context) {
	actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.voolActor, domain.GetMergedStatusRequest{}, 90*time.Second), func(err error) any {
		return domain.GetMergedStatusResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
		}
	})
}

// completeCycle classifies the merged fetch. Auth rejection on either
// device wins over any transient failure; only a cycle where both devices
// produced a snapshot replaces the published one.
func (state *PollActor) completeCycle(msg domain.GetMergedStatusResponse) {
	switch {
	case msg.HasResponseError():
		state.state.Outcome = domain.CYCLE_UPDATE_FAILED
		state.state.Detail = msg.GetResponseError().Error()
		state.logger.Error("poll@cycle failed", zap.Error(msg.GetResponseError()))
	case voolapi.IsInvalidAuth(msg.LMC.Err) || voolapi.IsInvalidAuth(msg.Wallbox.Err):
		state.state.Outcome = domain.CYCLE_AUTH_FAILED
		state.state.Detail = firstError(msg).Error()
		state.logger.Error("poll@cycle re-authentication required", zap.Error(firstError(msg)))
	case msg.LMC.Err != nil || msg.Wallbox.Err != nil:
		state.state.Outcome = domain.CYCLE_UPDATE_FAILED
		state.state.Detail = firstError(msg).Error()
		state.logger.Warn("poll@cycle transient failure", zap.Error(firstError(msg)))
	default:
		state.state.Outcome = domain.CYCLE_SUCCESS
		state.state.Detail = ""
		state.state.Snapshot = domain.MergedSnapshot{
			LMC:     msg.LMC.Status,
			Wallbox: msg.Wallbox.Status,
		}
		state.state.LastSuccess = time.Now()
		state.logger.Debug("poll@cycle success")

		for _, ev := range events.DeviceStatusToUpdateEvents(domain.DEVICE_LMC, msg.LMC.Status) {
			state.eventStream.Publish(ev)
		}
		for _, ev := range events.DeviceStatusToUpdateEvents(domain.DEVICE_WALLBOX, msg.Wallbox.Status) {
			state.eventStream.Publish(ev)
		}
	}

	for _, ev := range events.CycleOutcomeToUpdateEvents(state.state.Outcome) {
		state.eventStream.Publish(ev)
	}
}

func (state *PollActor) pollInterval() time.Duration {
	return time.Duration(state.config.Vool.PollIntervalSeconds) * time.Second
}

func firstError(msg domain.GetMergedStatusResponse) error {
	if voolapi.IsInvalidAuth(msg.LMC.Err) {
		return msg.LMC.Err
	}
	if voolapi.IsInvalidAuth(msg.Wallbox.Err) {
		return msg.Wallbox.Err
	}
	if msg.LMC.Err != nil {
		return msg.LMC.Err
	}
	return msg.Wallbox.Err
}
