package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Minimal message protocol: the server pushes "status" frames; clients may
// send "ping" and get "pong".

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 20 * time.Second
	wsWriteTimeout = 5 * time.Second
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// StatusWSHandler handles /v1/status/ws
func (s *Server) StatusWSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	// gorilla connections allow one concurrent writer
	var wmu sync.Mutex
	write := func(v any) error {
		wmu.Lock()
		defer wmu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(v)
	}
	ping := func() error {
		wmu.Lock()
		defer wmu.Unlock()
		return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
	}

	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(wsReadTimeout)) })

	ch := s.Broker.Subscribe(TopicStatus)
	defer s.Broker.Unsubscribe(TopicStatus, ch)

	// Current state first so clients need not wait for the next tick
	snap := s.Status.Snapshot()
	if payload, err := json.Marshal(snap); err == nil {
		if err := write(wsMessage{Type: "status", Payload: payload}); err != nil {
			return
		}
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case evt, ok := <-ch:
				if !ok {
					return
				}
				if evt.Status == nil {
					continue
				}
				payload, err := json.Marshal(evt.Status)
				if err != nil {
					continue
				}
				if err := write(wsMessage{Type: "status", Payload: payload}); err != nil {
					return
				}
			case <-ticker.C:
				if err := ping(); err != nil {
					return
				}
			}
		}
	}()
	defer close(done)

	// Read loop
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "ping":
			_ = write(wsMessage{Type: "pong"})
		default:
			// ignore
		}
	}
}
