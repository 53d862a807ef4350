package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Rule/action layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrUnknownActor  = "E_UNKNOWN_ACTOR"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrNoLootSource  = "E_NO_LOOT_SOURCE"
	ErrUnsupported   = "E_UNSUPPORTED_OVEN"
	ErrNoPermission  = "E_NO_PERMISSION"
	ErrBlocked       = "E_BLOCKED"
	ErrConflict      = "E_CONFLICT"
	ErrWorldBusy     = "E_WORLD_BUSY"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrUnknownActor:    {},
	ErrInvalidTarget:   {},
	ErrNoLootSource:    {},
	ErrUnsupported:     {},
	ErrNoPermission:    {},
	ErrBlocked:         {},
	ErrConflict:        {},
	ErrWorldBusy:       {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
