package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello      = "HELLO"
	TypeWelcome    = "WELCOME"
	TypeAct        = "ACT"
	TypeOvenInfo   = "OVEN_INFO"
	TypeOvenClosed = "OVEN_CLOSED"
	TypeState      = "STATE"
	TypeResult     = "RESULT"
)

// ACT operations.
const (
	OpMove           = "MOVE"
	OpTake           = "TAKE"
	OpLoot           = "LOOT"
	OpToggle         = "TOGGLE"
	OpSetEnabled     = "SET_ENABLED"
	OpSetTotalStacks = "SET_TOTAL_STACKS"
	OpPlaceOven      = "PLACE_OVEN"
	OpDestroyOven    = "DESTROY_OVEN"
)

// RESULT outcomes.
const (
	ResultHandled    = "HANDLED"
	ResultNotHandled = "NOT_HANDLED"
	ResultBlocked    = "BLOCKED"
	ResultOK         = "OK"
	ResultError      = "ERROR"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
