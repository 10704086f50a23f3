package main

import (
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// FieldSnapshot is the per-tick payload sent to visualization clients: the
// applied surface fields after a driver step. The server only broadcasts;
// there is no control channel back into the simulation.
type FieldSnapshot struct {
	Type        string       `json:"type"`
	Positions   [][3]float64 `json:"positions"`
	Elevation   []float64    `json:"elevation"`
	WaterHeight []float64    `json:"waterHeight"`
	PlateIDs    []int32      `json:"plateIds"`
	TimeYears   float64      `json:"timeYears"`
}

// Server broadcasts field snapshots over websockets.
type Server struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
	last    *FieldSnapshot
}

// NewServer creates an idle broadcast server.
func NewServer() *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for development
			},
		},
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// Listen serves the websocket endpoint on the given port. Blocks.
func (s *Server) Listen(port int) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	log.Printf("field server listening on :%d/ws", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("websocket upgrade error:", err)
		return
	}
	defer conn.Close()

	connMutex := &sync.Mutex{}
	s.mu.Lock()
	s.clients[conn] = connMutex
	last := s.last
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
	}()

	// New subscribers get the latest snapshot immediately.
	if last != nil {
		connMutex.Lock()
		err = conn.WriteJSON(last)
		connMutex.Unlock()
		if err != nil {
			return
		}
	}

	// Drain (and ignore) client messages until the connection drops; the
	// simulation takes no remote input.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast sends a snapshot to every connected client, dropping clients whose
// writes fail.
func (s *Server) Broadcast(snapshot *FieldSnapshot) {
	s.mu.Lock()
	s.last = snapshot
	s.mu.Unlock()

	s.mu.RLock()
	var failed []*websocket.Conn
	for client, mutex := range s.clients {
		mutex.Lock()
		err := client.WriteJSON(snapshot)
		mutex.Unlock()
		if err != nil {
			log.Println("websocket write error:", err)
			client.Close()
			failed = append(failed, client)
		}
	}
	s.mu.RUnlock()

	if len(failed) > 0 {
		s.mu.Lock()
		for _, client := range failed {
			delete(s.clients, client)
		}
		s.mu.Unlock()
	}
}

// Snapshot assembles the broadcast payload from the world's applied fields.
func (w *World) Snapshot() *FieldSnapshot {
	n := w.grid.CellCount()
	snap := &FieldSnapshot{
		Type:        "field_update",
		Positions:   make([][3]float64, n),
		Elevation:   make([]float64, n),
		WaterHeight: make([]float64, n),
		PlateIDs:    make([]int32, n),
		TimeYears:   w.timeYears,
	}
	for i := 0; i < n; i++ {
		pos := w.grid.Pos(i)
		snap.Positions[i] = [3]float64{pos.X(), pos.Y(), pos.Z()}
		elevation := w.displacement.At(i) - w.sim.SeaLevel
		snap.Elevation[i] = elevation
		if elevation < 0 {
			snap.WaterHeight[i] = -elevation
		}
		snap.PlateIDs[i] = w.plates.At(i)
	}
	return snap
}
