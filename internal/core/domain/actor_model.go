package domain

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_VOOL         = "vool"
	ACTOR_ID_POLL         = "poll"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

// GetMergedStatusRequest asks the device adapter for the status of both
// devices. The response always carries one result per device; per-device
// failures travel inside the results, ResponseError is reserved for the
// request itself failing (timeout, adapter crash).
type GetMergedStatusRequest struct {
	ActorRequestMixIn
}

type GetMergedStatusResponse struct {
	ActorResponseMixIn
	LMC     DeviceFetchResult
	Wallbox DeviceFetchResult
}

// RefreshRequest forces one poll cycle outside the periodic schedule.
type RefreshRequest struct {
	ActorRequestMixIn
}

type RefreshResponse struct {
	ActorResponseMixIn
	Started bool
}

// GetSnapshotRequest reads the coordinator's last published state.
type GetSnapshotRequest struct {
	ActorRequestMixIn
}

type GetSnapshotResponse struct {
	ActorResponseMixIn
	State CycleState
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors []GenericSensor
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
