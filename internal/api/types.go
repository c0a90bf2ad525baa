package api

import "encoding/json"

// MeasuredValue is one node's signal reading for a device.
type MeasuredValue struct {
	RSSI float64 `json:"rssi"`
}

// Entity is a discoverable record from the server. Only entities carrying
// measured values are selectable devices; the rest (cluster status entries
// and the like) are informational.
type Entity struct {
	ID             string                   `json:"id"`
	Name           string                   `json:"name"`
	MeasuredValues map[string]MeasuredValue `json:"measuredValues,omitempty"`
}

// Selectable reports whether the entity is a device the operator can pick.
// Presence of the measuredValues field decides, even when the map is empty.
func (e Entity) Selectable() bool {
	return e.MeasuredValues != nil
}

// PushMessage is the envelope for every frame on the push channel.
type PushMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// RoomUpdate is the payload of a "room" push.
type RoomUpdate struct {
	DeviceID string `json:"deviceId"`
	Room     string `json:"room"`
	Node     string `json:"node,omitempty"`
}

// Training push states.
const (
	TrainingStarted  = "started"
	TrainingFinished = "finished"
)

// TrainingUpdate is the payload of a "training" push. Stats is present when
// State is "finished"; individual values may be null.
type TrainingUpdate struct {
	State    string              `json:"state"`
	DeviceID string              `json:"deviceId,omitempty"`
	Stats    map[string]*float64 `json:"stats,omitempty"`
}

// Gathering actions accepted by POST /api/gathering.
const (
	GatherAppend = "append"
	GatherNew    = "new"
	GatherStop   = "stop"
)
