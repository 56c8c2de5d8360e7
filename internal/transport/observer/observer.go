// Package observer serves the read-only mesh stream over websocket. Each
// connection gets a bootstrap frame, a backlog of every resident mesh, then
// live updates as chunks remesh or unload.
package observer

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/zstd"

	"github.com/offdroid/cobble/internal/observerproto"
	"github.com/offdroid/cobble/internal/sim/world"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

type Server struct {
	world    *world.World
	logger   *log.Logger
	upgrader websocket.Upgrader
	enc      *zstd.Encoder
}

func NewServer(w *world.World, logger *log.Logger) (*Server, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("observer: zstd encoder: %w", err)
	}
	return &Server{
		world:  w,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 32 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		enc: enc,
	}, nil
}

func (s *Server) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		s.logger.Printf("observer upgrade failed: %v", err)
		return
	}
	go s.handle(conn)
}

func (s *Server) handle(conn *websocket.Conn) {
	defer conn.Close()

	out := make(chan world.MeshUpdate, 1024)
	resp := make(chan world.ObserverWelcome, 1)
	s.world.Join(world.ObserverJoin{Out: out, Resp: resp})
	welcome := <-resp
	s.logger.Printf("observer %d connected from %s", welcome.ID, conn.RemoteAddr())

	var leave sync.Once
	leaveOnce := func() {
		leave.Do(func() { s.world.Leave(welcome.ID) })
	}
	defer leaveOnce()

	// Reader only services control frames; any inbound data or error ends
	// the session.
	go func() {
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				leaveOnce()
				conn.Close()
				return
			}
		}
	}()

	if err := s.writeFrame(conn, observerproto.Bootstrap{
		Type:            observerproto.TypeBootstrap,
		ProtocolVersion: observerproto.ProtocolVersion,
		WorldID:         welcome.WorldID,
		Tick:            welcome.Tick,
		Seed:            welcome.Seed,
		ChunkSize:       welcome.ChunkSize,
		LoadRadius:      welcome.LoadRadius,
		TickRateHz:      welcome.TickRateHz,
		BlockDigest:     welcome.BlockDigest,
		TextureLayers:   welcome.TextureLayers,
	}); err != nil {
		return
	}
	for _, u := range welcome.Backlog {
		if err := s.writeFrame(conn, meshFrame(u)); err != nil {
			return
		}
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case u, ok := <-out:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(writeWait))
				return
			}
			if err := s.writeFrame(conn, meshFrame(u)); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, frame any) error {
	raw, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.BinaryMessage, s.enc.EncodeAll(raw, nil))
}

func meshFrame(u world.MeshUpdate) any {
	chunk := [3]int{u.Key.CX, u.Key.CY, u.Key.CZ}
	if u.Mesh == nil {
		return observerproto.ChunkUnload{
			Type:  observerproto.TypeChunkUnload,
			Tick:  u.Tick,
			Chunk: chunk,
		}
	}
	quads := make([]observerproto.QuadWire, 0, len(u.Mesh.Quads))
	for _, q := range u.Mesh.Quads {
		var wq observerproto.QuadWire
		for i := 0; i < 4; i++ {
			wq.Pos[i] = [3]float32{q.Pos[i][0], q.Pos[i][1], q.Pos[i][2]}
			wq.UV[i] = [2]float32{q.UV[i][0], q.UV[i][1]}
		}
		wq.Normal = [3]float32{q.Normal[0], q.Normal[1], q.Normal[2]}
		wq.Layer = q.Layer
		quads = append(quads, wq)
	}
	return observerproto.ChunkMesh{
		Type:   observerproto.TypeChunkMesh,
		Tick:   u.Tick,
		Chunk:  chunk,
		Digest: u.Digest,
		Quads:  quads,
	}
}
