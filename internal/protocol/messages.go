package protocol

// HELLO (observer -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ObserverName    string `json:"observer_name,omitempty"`
}

// WELCOME (server -> observer)
type WelcomeMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	SessionID       string     `json:"session_id"`
	GameParams      GameParams `json:"game_params"`
}

type GameParams struct {
	TickRateHz int    `json:"tick_rate_hz"`
	GameTicks  int    `json:"game_ticks"`
	CityName   string `json:"city_name"`
	CityWidth  int    `json:"city_width"`
	CityHeight int    `json:"city_height"`
	Seed       int64  `json:"seed"`
	Tier       string `json:"tier"`
}

// STATE (server -> observer), one per tick.
type StateMsg struct {
	Type string `json:"type"`
	Tick uint64 `json:"tick"`

	Courier CourierObs `json:"courier"`
	Weather WeatherObs `json:"weather"`
	Orders  []OrderObs `json:"orders"`
	Action  Action     `json:"action"`
}

type CourierObs struct {
	Pos        [2]int  `json:"pos"`
	Weight     float64 `json:"weight"`
	Stamina    float64 `json:"stamina"`
	Reputation float64 `json:"reputation"`
	Earnings   float64 `json:"earnings"`
	Escaping   bool    `json:"escaping,omitempty"`
	Target     [2]int  `json:"target"`
	TargetKind string  `json:"target_kind,omitempty"`
}

type WeatherObs struct {
	Condition       string  `json:"condition"`
	Intensity       float64 `json:"intensity"`
	SpeedMultiplier float64 `json:"speed_multiplier"`
}

type OrderObs struct {
	ID       string  `json:"id"`
	State    string  `json:"state"`
	Pickup   [2]int  `json:"pickup"`
	Dropoff  [2]int  `json:"dropoff"`
	Payout   float64 `json:"payout"`
	Weight   float64 `json:"weight"`
	Priority int     `json:"priority"`
}

// RESULT (server -> observer) when the game ends.
type ResultMsg struct {
	Type       string  `json:"type"`
	Tick       uint64  `json:"tick"`
	Earnings   float64 `json:"earnings"`
	Reputation float64 `json:"reputation"`
	Delivered  int     `json:"delivered"`
	Late       int     `json:"late"`
	Lost       int     `json:"lost"`
	FinalScore float64 `json:"final_score"`
	Rank       string  `json:"rank"`
}

// ERROR (server -> observer)
type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}
