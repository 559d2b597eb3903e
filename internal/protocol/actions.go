package protocol

// Action kinds emitted by an agent, exactly one per tick.
const (
	ActionAcceptOrder = "ACCEPT_ORDER"
	ActionMove        = "MOVE"
	ActionIdle        = "IDLE"
)

// Action is the single discrete decision an agent hands back to the
// game loop each tick.
type Action struct {
	Kind    string `json:"kind"`
	OrderID string `json:"order_id,omitempty"`
	// Dir is a cardinal unit vector {dx,dy}; only set for MOVE.
	Dir [2]int `json:"dir,omitempty"`
}

func Idle() Action { return Action{Kind: ActionIdle} }

func Move(dx, dy int) Action { return Action{Kind: ActionMove, Dir: [2]int{dx, dy}} }

func AcceptOrder(id string) Action { return Action{Kind: ActionAcceptOrder, OrderID: id} }
