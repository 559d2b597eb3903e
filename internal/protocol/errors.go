package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Session routing/state.
	ErrGameNotFound = "E_GAME_NOT_FOUND"
	ErrGameOver     = "E_GAME_OVER"

	// Action layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrBlocked       = "E_BLOCKED"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrOverweight    = "E_OVERWEIGHT"
	ErrOrderTaken    = "E_ORDER_TAKEN"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrGameNotFound:    {},
	ErrGameOver:        {},
	ErrBadRequest:      {},
	ErrBlocked:         {},
	ErrInvalidTarget:   {},
	ErrOverweight:      {},
	ErrOrderTaken:      {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
