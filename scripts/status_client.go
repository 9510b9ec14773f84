// Command status_client submits a delivery request to a running simulator
// and prints the status stream for a few seconds.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type robotStatus struct {
	ID        string  `json:"id"`
	State     string  `json:"state"`
	Energy    float64 `json:"energy"`
	Remaining int     `json:"remaining"`
	Position  struct {
		X int `json:"x"`
		Y int `json:"y"`
	} `json:"position"`
}

type statusEvent struct {
	Step   int           `json:"step"`
	Queued int           `json:"queued"`
	Robots []robotStatus `json:"robots"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Queue a request across the field
	body := []byte(`{"start":{"x":120,"y":140},"end":{"x":860,"y":820}}`)
	resp, err := http.Post(base+"/v1/requests", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatal(err)
	}
	var created struct {
		ID     string `json:"id"`
		Detail string `json:"detail"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&created)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		log.Printf("request rejected (%d): %s", resp.StatusCode, created.Detail)
	} else {
		log.Printf("Request ID: %s", created.ID)
	}

	// Connect WS
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/status/ws"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m wsMessage
			if err := c.ReadJSON(&m); err != nil {
				log.Printf("read: %v", err)
				return
			}
			if m.Type != "status" {
				log.Printf("WS <- %s", m.Type)
				continue
			}
			var evt statusEvent
			if err := json.Unmarshal(m.Payload, &evt); err != nil {
				log.Printf("bad status: %v", err)
				continue
			}
			for _, r := range evt.Robots {
				id := r.ID
				if len(id) > 8 {
					id = id[:8]
				}
				log.Printf("step %d queued %d | %s (%d,%d) %-10s %6.2f left %d",
					evt.Step, evt.Queued, id, r.Position.X, r.Position.Y, r.State, r.Energy, r.Remaining)
			}
		}
	}()

	select {
	case <-time.After(5 * time.Second):
	case <-done:
	}
}
