package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"couriergrid.ai/internal/protocol"
)

func main() {
	var (
		url   = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name  = flag.String("name", "bot", "observer name")
		every = flag.Uint64("every", 25, "print one state line every N ticks (0 = results only)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ObserverName:    *name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	for {
		select {
		case <-stop:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME session=%s city=%s tier=%s seed=%d ticks=%d",
				w.SessionID, w.GameParams.CityName, w.GameParams.Tier, w.GameParams.Seed, w.GameParams.GameTicks)

		case protocol.TypeState:
			var st protocol.StateMsg
			if err := json.Unmarshal(msg, &st); err != nil {
				continue
			}
			if *every == 0 || st.Tick%*every != 0 {
				continue
			}
			carrying := 0
			for _, o := range st.Orders {
				if o.State == "carrying" {
					carrying++
				}
			}
			logger.Printf("tick=%d pos=%v weather=%s earnings=%.1f rep=%.0f stamina=%.0f carrying=%d escaping=%v",
				st.Tick, st.Courier.Pos, st.Weather.Condition,
				st.Courier.Earnings, st.Courier.Reputation, st.Courier.Stamina,
				carrying, st.Courier.Escaping)

		case protocol.TypeResult:
			var res protocol.ResultMsg
			if err := json.Unmarshal(msg, &res); err != nil {
				continue
			}
			logger.Printf("RESULT delivered=%d late=%d lost=%d earnings=%.1f score=%.0f rank=%s",
				res.Delivered, res.Late, res.Lost, res.Earnings, res.FinalScore, res.Rank)
		}
	}
}
