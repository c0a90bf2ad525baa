package bus

// Event names pushed from the server over the websocket.
const (
	EventPong     = "pong"
	EventRoom     = "room"
	EventTraining = "training"
)

// Connection lifecycle events.
const (
	EventDisconnected = "disconnected"
)

// Derived events published by the session layer for the presentation views.
const (
	EventEntitiesLoaded   = "entitiesLoaded"
	EventRoomChanged      = "roomChanged"
	EventTrainingStarted  = "trainingStarted"
	EventTrainingFinished = "trainingFinished"
	EventGatheringToggled = "gatheringToggled"
	EventTrainingToggled  = "trainingToggled"
)
