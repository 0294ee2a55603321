package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"signal-core/internal/events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMessage is the envelope pushed to dashboard clients.
type wsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// pushed topics
var wsTopics = []events.Event{
	events.EventDashboard,
	events.EventStrategySignal,
	events.EventPairSignal,
	events.EventRiskAlert,
	events.EventOrderResult,
	events.EventFeedStatus,
}

func (s *Server) websocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("ws upgrade error")
		return
	}
	defer conn.Close()

	if s.Bus == nil {
		_ = conn.WriteJSON(gin.H{"error": "bus not ready"})
		return
	}

	merged := make(chan wsMessage, 256)
	done := make(chan struct{})
	defer close(done)
	for _, topic := range wsTopics {
		stream, unsub := s.Bus.Subscribe(topic, 100)
		defer unsub()
		go func(topic events.Event, stream <-chan any) {
			for msg := range stream {
				select {
				case merged <- wsMessage{Type: string(topic), Data: msg}:
				case <-done:
					return
				}
			}
		}(topic, stream)
	}

	// Client messages are ignored; reading detects disconnects.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for _, snap := range s.Svc.Snapshots() {
		if err := conn.WriteJSON(wsMessage{Type: string(events.EventDashboard), Data: snap}); err != nil {
			return
		}
	}

	for {
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case msg := <-merged:
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				s.log.Debug().Err(err).Msg("ws write error")
				return
			}
		}
	}
}
