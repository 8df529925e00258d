// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/gyro_heading/internal/tracker"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSMessage is a control message sent by a websocket client.
type WSMessage struct {
	Action string `json:"action"` // reset
}

// newWebHandler serves the heading API:
//
//	GET  /api/heading  latest snapshot
//	POST /api/reset    zero the heading, returns the new snapshot
//	GET  /ws           snapshot stream every interval
func newWebHandler(tr *tracker.Tracker, interval time.Duration) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/heading", func(w http.ResponseWriter, r *http.Request) {
		writeSnapshot(w, tr.Snapshot())
	})

	mux.HandleFunc("POST /api/reset", func(w http.ResponseWriter, r *http.Request) {
		tr.Reset()
		log.Println("web: heading reset")
		writeSnapshot(w, tr.Snapshot())
	})

	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()
		streamSnapshots(conn, tr, interval)
	})

	return mux
}

func writeSnapshot(w http.ResponseWriter, snap tracker.Snapshot) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

// streamSnapshots pushes a snapshot every interval until the client goes
// away. Client messages are read on a separate goroutine; only this one
// writes to conn.
func streamSnapshots(conn *websocket.Conn, tr *tracker.Tracker, interval time.Duration) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg WSMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("web: websocket read error: %v", err)
				}
				return
			}
			switch msg.Action {
			case "reset":
				tr.Reset()
				log.Println("web: heading reset (websocket)")
			default:
				log.Printf("web: unknown websocket action %q", msg.Action)
			}
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := conn.WriteJSON(tr.Snapshot()); err != nil {
			log.Printf("web: websocket write error: %v", err)
			return
		}
		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}
